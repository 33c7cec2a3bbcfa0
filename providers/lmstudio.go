package providers

import "strings"

// LM Studio serves its local models behind an OpenAI-compatible endpoint, so
// the adapter is the OpenAI one with local defaults: the standard desktop
// port, a placeholder key (the server ignores it, the SDK insists on one),
// and the /v1 suffix users tend to drop from pasted URLs.

// DefaultLMStudioBaseURL is where LM Studio's local server listens.
const DefaultLMStudioBaseURL = "http://localhost:1234/v1"

const lmStudioPlaceholderKey = "lm-studio"

// NewLMStudioAdapter builds an adapter for a local LM Studio server.
func NewLMStudioAdapter(opts Options) (Adapter, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultLMStudioBaseURL
	} else {
		trimmed := strings.TrimRight(opts.BaseURL, "/")
		if !strings.HasSuffix(trimmed, "/v1") {
			trimmed += "/v1"
		}
		opts.BaseURL = trimmed
	}
	if opts.APIKey == "" {
		opts.APIKey = lmStudioPlaceholderKey
	}
	return newOpenAICompatAdapter("lm_studio", opts)
}

func init() {
	Register("lm_studio", NewLMStudioAdapter)
}
