package providers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Alexthestampede/ModuLLe/chat"
	"github.com/Alexthestampede/ModuLLe/tools"
)

// OpenAIAdapter talks to OpenAI's chat completions API through the official
// community SDK. LM Studio exposes the same API, so both providers share
// this implementation and differ only in construction defaults.
type OpenAIAdapter struct {
	name      string
	client    *openai.Client
	logger    *slog.Logger
	timeout   time.Duration
	maxTokens int
}

// defaultOpenAIMaxTokens caps responses on tool rounds; OpenAI rejects
// unlimited generations on some models when tools are attached.
const defaultOpenAIMaxTokens = 2000

// NewOpenAIAdapter builds an OpenAI adapter. An API key is required; the
// base URL is only set for OpenAI-compatible gateways.
func NewOpenAIAdapter(opts Options) (Adapter, error) {
	if opts.APIKey == "" {
		return nil, &ConfigError{Provider: "openai", Field: "api_key"}
	}
	return newOpenAICompatAdapter("openai", opts)
}

func newOpenAICompatAdapter(name string, opts Options) (Adapter, error) {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	timeout := opts.timeout()
	cfg.HTTPClient = &http.Client{Timeout: 3 * timeout}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	return &OpenAIAdapter{
		name:      name,
		client:    openai.NewClientWithConfig(cfg),
		logger:    opts.logger(),
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

func init() {
	Register("openai", NewOpenAIAdapter)
}

func (a *OpenAIAdapter) Name() string { return a.name }

func (a *OpenAIAdapter) Format() tools.Format { return tools.FormatOpenAI }

func (a *OpenAIAdapter) Send(ctx context.Context, modelID string, conversation []chat.Turn, declarations []tools.Declaration, temperature float64) *chat.Result {
	req := openai.ChatCompletionRequest{
		Model:       modelID,
		Messages:    toOpenAIMessages(conversation),
		Temperature: float32(temperature),
		MaxTokens:   a.maxTokens,
		Tools:       toOpenAITools(declarations),
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return errorResult(a.logger, a.name, &TransportError{
			Provider: a.name,
			Status:   openAIErrorStatus(err),
			Err:      err,
		})
	}

	if len(resp.Choices) == 0 {
		return errorResult(a.logger, a.name, &ProtocolError{Provider: a.name, Reason: "no choices in response"})
	}
	choice := resp.Choices[0]

	calls := make([]chat.ToolCall, 0, len(choice.Message.ToolCalls))
	for i, tc := range choice.Message.ToolCalls {
		calls = append(calls, chat.NewToolCall(
			synthesizeCallID(tc.ID, i),
			tc.Function.Name,
			decodeArguments(tc.Function.Arguments, a.logger),
		))
	}

	finish := chat.FinishStop
	if len(calls) > 0 {
		finish = chat.FinishToolCalls
	}

	raw, _ := json.Marshal(resp)
	return &chat.Result{
		Content:      choice.Message.Content,
		ToolCalls:    calls,
		FinishReason: finish,
		Raw:          raw,
	}
}

// openAIErrorStatus digs the HTTP status out of the SDK's error types.
func openAIErrorStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// toOpenAIMessages maps canonical turns onto SDK messages. Tool call
// arguments flip from decoded maps back to the JSON strings the wire wants.
func toOpenAIMessages(conversation []chat.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(conversation))
	for _, turn := range conversation {
		msg := openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		}
		if turn.Role == chat.RoleTool {
			msg.Name = turn.Name
			msg.ToolCallID = turn.ToolCallID
		}
		for _, call := range turn.ToolCalls {
			args, err := json.Marshal(call.Function.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Function.Name,
					Arguments: string(args),
				},
			})
		}
		messages = append(messages, msg)
	}
	return messages
}

func toOpenAITools(declarations []tools.Declaration) []openai.Tool {
	if len(declarations) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(declarations))
	for _, d := range declarations {
		if d.Function == nil {
			continue
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		})
	}
	return out
}

// ListModels returns the account's model ids, sorted.
func (a *OpenAIAdapter) ListModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	list, err := a.client.ListModels(ctx)
	if err != nil {
		a.logger.Warn("failed to list models", "provider", a.name, "error", err)
		return nil
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids
}

// HealthCheck reports whether a model listing succeeds within a short
// deadline.
func (a *OpenAIAdapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := a.client.ListModels(ctx)
	return err == nil
}
