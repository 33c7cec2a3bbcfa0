package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Alexthestampede/ModuLLe/chat"
	internalhttp "github.com/Alexthestampede/ModuLLe/internal/http"
	"github.com/Alexthestampede/ModuLLe/tools"
)

// GeminiAdapter speaks the Google Generative Language REST API (v1beta).
// The translation is the least direct of the backends: assistant turns
// become role "model", system turns move out of the message list into
// systemInstruction, and tool traffic rides in functionCall and
// functionResponse parts instead of dedicated roles.
type GeminiAdapter struct {
	apiKey    string
	client    *internalhttp.Client
	logger    *slog.Logger
	timeout   time.Duration
	maxTokens int
}

// DefaultGeminiBaseURL is the public Generative Language endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// defaultGeminiMaxTokens caps generation; the API truncates silently without
// a bound, which hides tool call parts.
const defaultGeminiMaxTokens = 4096

// NewGeminiAdapter builds a Gemini adapter. An API key is required; it is
// passed as a query parameter, which is how this API authenticates.
func NewGeminiAdapter(opts Options) (Adapter, error) {
	if opts.APIKey == "" {
		return nil, &ConfigError{Provider: "gemini", Field: "api_key"}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}

	timeout := opts.timeout()
	client := internalhttp.NewClient(internalhttp.Config{
		BaseURL:   baseURL,
		UserAgent: opts.UserAgent,
		Timeout:   3 * timeout,
		Retry:     internalhttp.RetryConfig{MaxAttempts: opts.MaxRetries},
	})

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultGeminiMaxTokens
	}

	return &GeminiAdapter{
		apiKey:    opts.APIKey,
		client:    client,
		logger:    opts.logger(),
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

func init() {
	Register("gemini", NewGeminiAdapter)
}

func (a *GeminiAdapter) Name() string { return "gemini" }

func (a *GeminiAdapter) Format() tools.Format { return tools.FormatGemini }

// Wire types for :generateContent.
type geminiGenerateRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []tools.Declaration `json:"functionDeclarations"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

func (a *GeminiAdapter) Send(ctx context.Context, modelID string, conversation []chat.Turn, declarations []tools.Declaration, temperature float64) *chat.Result {
	contents, system := toGeminiContents(conversation)

	payload := geminiGenerateRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: a.maxTokens,
		},
	}
	if len(declarations) > 0 {
		payload.Tools = []geminiTool{{FunctionDeclarations: declarations}}
	}

	path := fmt.Sprintf("/models/%s:generateContent?key=%s", modelID, url.QueryEscape(a.apiKey))

	var raw json.RawMessage
	resp, err := a.client.PostJSON(ctx, path, payload, &raw)
	if err != nil {
		return wireFailure(a.logger, a.Name(), resp, err)
	}

	var out geminiGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return errorResult(a.logger, a.Name(), &ProtocolError{Provider: a.Name(), Reason: "malformed generateContent response", Err: err})
	}
	if len(out.Candidates) == 0 {
		return errorResult(a.logger, a.Name(), &ProtocolError{Provider: a.Name(), Reason: "no candidates in response"})
	}

	var text strings.Builder
	var calls []chat.ToolCall
	for _, part := range out.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			calls = append(calls, chat.NewToolCall(
				synthesizeCallID("", len(calls)),
				part.FunctionCall.Name,
				part.FunctionCall.Args,
			))
		}
	}

	finish := chat.FinishStop
	if len(calls) > 0 {
		finish = chat.FinishToolCalls
	}

	return &chat.Result{
		Content:      text.String(),
		ToolCalls:    calls,
		FinishReason: finish,
		Raw:          raw,
	}
}

// toGeminiContents rewrites canonical turns into Gemini contents. System
// turns are pulled out and joined into the systemInstruction; tool results
// become functionResponse parts under role "function", correlated by tool
// name because this wire has no invocation ids.
func toGeminiContents(conversation []chat.Turn) ([]geminiContent, *geminiContent) {
	var systemParts []string
	contents := make([]geminiContent, 0, len(conversation))

	for _, turn := range conversation {
		switch turn.Role {
		case chat.RoleSystem:
			systemParts = append(systemParts, turn.Content)

		case chat.RoleUser:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: turn.Content}},
			})

		case chat.RoleAssistant:
			var parts []geminiPart
			if turn.Content != "" {
				parts = append(parts, geminiPart{Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, geminiPart{
					FunctionCall: &geminiFunctionCall{
						Name: call.Function.Name,
						Args: call.Function.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				parts = []geminiPart{{Text: ""}}
			}
			contents = append(contents, geminiContent{Role: "model", Parts: parts})

		case chat.RoleTool:
			contents = append(contents, geminiContent{
				Role: "function",
				Parts: []geminiPart{{
					FunctionResponse: &geminiFunctionResponse{
						Name:     turn.Name,
						Response: map[string]any{"result": turn.Content},
					},
				}},
			})
		}
	}

	var system *geminiContent
	if len(systemParts) > 0 {
		system = &geminiContent{
			Parts: []geminiPart{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}
	return contents, system
}

type geminiModelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns available model ids with the "models/" resource prefix
// stripped, so ids can be passed straight back into Send.
func (a *GeminiAdapter) ListModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var out geminiModelsResponse
	if _, err := a.client.GetJSON(ctx, "/models?key="+url.QueryEscape(a.apiKey), &out); err != nil {
		a.logger.Warn("failed to list models", "provider", a.Name(), "error", err)
		return nil
	}

	ids := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}
	return ids
}

// HealthCheck probes the model listing with a short deadline.
func (a *GeminiAdapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := a.client.GetJSON(ctx, "/models?key="+url.QueryEscape(a.apiKey), nil)
	return err == nil
}
