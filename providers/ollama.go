package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Alexthestampede/ModuLLe/chat"
	internalhttp "github.com/Alexthestampede/ModuLLe/internal/http"
	"github.com/Alexthestampede/ModuLLe/tools"
)

// OllamaAdapter speaks Ollama's native chat API. Models run locally, so no
// API key is involved and model pulls are managed outside this process.
type OllamaAdapter struct {
	baseURL string
	client  *internalhttp.Client
	logger  *slog.Logger
	timeout time.Duration
}

// DefaultOllamaBaseURL is where a stock Ollama install listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// NewOllamaAdapter builds an Ollama adapter. The base URL defaults to the
// local daemon.
func NewOllamaAdapter(opts Options) (Adapter, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}

	timeout := opts.timeout()
	client := internalhttp.NewClient(internalhttp.Config{
		BaseURL:   baseURL,
		UserAgent: opts.UserAgent,
		// Local generation is slow on big models; give chat calls three
		// times the base budget and bound the fast paths per call instead.
		Timeout: 3 * timeout,
		Retry:   internalhttp.RetryConfig{MaxAttempts: opts.MaxRetries},
	})

	return &OllamaAdapter{
		baseURL: baseURL,
		client:  client,
		logger:  opts.logger(),
		timeout: timeout,
	}, nil
}

func init() {
	Register("ollama", NewOllamaAdapter)
}

func (a *OllamaAdapter) Name() string { return "ollama" }

func (a *OllamaAdapter) Format() tools.Format { return tools.FormatOllama }

// Wire types for /api/chat. Ollama keeps tool call arguments structured, so
// no string decoding is involved in either direction.
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaMessage     `json:"messages"`
	Tools    []tools.Declaration `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Name      string           `json:"name,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaChatResponse struct {
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason"`
}

func (a *OllamaAdapter) Send(ctx context.Context, modelID string, conversation []chat.Turn, declarations []tools.Declaration, temperature float64) *chat.Result {
	payload := ollamaChatRequest{
		Model:    modelID,
		Messages: toOllamaMessages(conversation),
		Tools:    declarations,
		Stream:   false,
		Options:  ollamaOptions{Temperature: temperature},
	}

	var raw json.RawMessage
	resp, err := a.client.PostJSON(ctx, "/api/chat", payload, &raw)
	if err != nil {
		return wireFailure(a.logger, a.Name(), resp, err)
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return errorResult(a.logger, a.Name(), &ProtocolError{Provider: a.Name(), Reason: "malformed chat response", Err: err})
	}

	calls := make([]chat.ToolCall, 0, len(out.Message.ToolCalls))
	for i, tc := range out.Message.ToolCalls {
		calls = append(calls, chat.NewToolCall(
			synthesizeCallID(tc.ID, i),
			tc.Function.Name,
			tc.Function.Arguments,
		))
	}

	finish := chat.FinishStop
	if len(calls) > 0 {
		finish = chat.FinishToolCalls
	}

	return &chat.Result{
		Content:      out.Message.Content,
		ToolCalls:    calls,
		FinishReason: finish,
		Raw:          raw,
	}
}

// toOllamaMessages maps canonical turns onto the native message shape, which
// tracks the canonical one closely: tool results ride as role "tool" with the
// tool name, and assistant invocations carry structured arguments.
func toOllamaMessages(conversation []chat.Turn) []ollamaMessage {
	messages := make([]ollamaMessage, 0, len(conversation))
	for _, turn := range conversation {
		msg := ollamaMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		}
		if turn.Role == chat.RoleTool {
			msg.Name = turn.Name
		}
		for _, call := range turn.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, ollamaToolCall{
				ID: call.ID,
				Function: ollamaFunctionCall{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}
		messages = append(messages, msg)
	}
	return messages
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels asks the daemon which models are pulled locally.
func (a *OllamaAdapter) ListModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var out ollamaTagsResponse
	if _, err := a.client.GetJSON(ctx, "/api/tags", &out); err != nil {
		a.logger.Warn("failed to list models", "provider", a.Name(), "error", err)
		return nil
	}

	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names
}

// HealthCheck probes the tags endpoint with a short deadline.
func (a *OllamaAdapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := a.client.GetJSON(ctx, "/api/tags", nil)
	return err == nil
}
