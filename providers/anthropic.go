package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/Alexthestampede/ModuLLe/chat"
	internalhttp "github.com/Alexthestampede/ModuLLe/internal/http"
	"github.com/Alexthestampede/ModuLLe/tools"
)

// ClaudeAdapter speaks Anthropic's Messages API. Tool traffic is carried in
// content blocks: the model requests work with tool_use blocks and results
// return as tool_result blocks inside a user message, correlated by
// tool_use_id.
type ClaudeAdapter struct {
	client    *internalhttp.Client
	logger    *slog.Logger
	timeout   time.Duration
	maxTokens int
}

// DefaultClaudeBaseURL is Anthropic's public API endpoint.
const DefaultClaudeBaseURL = "https://api.anthropic.com/v1"

const anthropicVersion = "2023-06-01"

// defaultClaudeMaxTokens fills the required max_tokens field.
const defaultClaudeMaxTokens = 4096

// NewClaudeAdapter builds a Claude adapter. An API key is required and rides
// in the x-api-key header rather than a Bearer token.
func NewClaudeAdapter(opts Options) (Adapter, error) {
	if opts.APIKey == "" {
		return nil, &ConfigError{Provider: "claude", Field: "api_key"}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultClaudeBaseURL
	}

	timeout := opts.timeout()
	client := internalhttp.NewClient(internalhttp.Config{
		BaseURL:   baseURL,
		UserAgent: opts.UserAgent,
		Timeout:   3 * timeout,
		Retry:     internalhttp.RetryConfig{MaxAttempts: opts.MaxRetries},
		Headers: map[string]string{
			"x-api-key":         opts.APIKey,
			"anthropic-version": anthropicVersion,
		},
	})

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	return &ClaudeAdapter{
		client:    client,
		logger:    opts.logger(),
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

func init() {
	Register("claude", NewClaudeAdapter)
}

func (a *ClaudeAdapter) Name() string { return "claude" }

func (a *ClaudeAdapter) Format() tools.Format { return tools.FormatClaude }

// Wire types for /messages. Message content is either a plain string or a
// list of typed blocks; one block struct covers both directions.
type claudeMessagesRequest struct {
	Model       string              `json:"model"`
	MaxTokens   int                 `json:"max_tokens"`
	System      string              `json:"system,omitempty"`
	Messages    []claudeMessage     `json:"messages"`
	Tools       []tools.Declaration `json:"tools,omitempty"`
	Temperature float64             `json:"temperature"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type claudeBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type claudeMessagesResponse struct {
	Content    []claudeBlock `json:"content"`
	StopReason string        `json:"stop_reason"`
}

func (a *ClaudeAdapter) Send(ctx context.Context, modelID string, conversation []chat.Turn, declarations []tools.Declaration, temperature float64) *chat.Result {
	messages, system := toClaudeMessages(conversation)

	payload := claudeMessagesRequest{
		Model:       modelID,
		MaxTokens:   a.maxTokens,
		System:      system,
		Messages:    messages,
		Tools:       declarations,
		Temperature: clampTemperature(temperature),
	}

	var raw json.RawMessage
	resp, err := a.client.PostJSON(ctx, "/messages", payload, &raw)
	if err != nil {
		return wireFailure(a.logger, a.Name(), resp, err)
	}

	var out claudeMessagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return errorResult(a.logger, a.Name(), &ProtocolError{Provider: a.Name(), Reason: "malformed messages response", Err: err})
	}

	var text strings.Builder
	var calls []chat.ToolCall
	for _, block := range out.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			calls = append(calls, chat.NewToolCall(
				synthesizeCallID(block.ID, len(calls)),
				block.Name,
				block.Input,
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

// toClaudeMessages rewrites canonical turns into Messages API form. System
// turns leave the message list for the top-level system field. Assistant
// invocations and tool results already alternate in the canonical model, so
// the strict user/assistant alternation this API wants falls out naturally.
func toClaudeMessages(conversation []chat.Turn) ([]claudeMessage, string) {
	var systemParts []string
	messages := make([]claudeMessage, 0, len(conversation))

	for _, turn := range conversation {
		switch turn.Role {
		case chat.RoleSystem:
			systemParts = append(systemParts, turn.Content)

		case chat.RoleUser:
			messages = append(messages, claudeMessage{Role: "user", Content: turn.Content})

		case chat.RoleAssistant:
			if len(turn.ToolCalls) == 0 {
				messages = append(messages, claudeMessage{Role: "assistant", Content: turn.Content})
				continue
			}
			var blocks []claudeBlock
			if turn.Content != "" {
				blocks = append(blocks, claudeBlock{Type: "text", Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				blocks = append(blocks, claudeBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Function.Name,
					Input: call.Function.Arguments,
				})
			}
			messages = append(messages, claudeMessage{Role: "assistant", Content: blocks})

		case chat.RoleTool:
			messages = append(messages, claudeMessage{
				Role: "user",
				Content: []claudeBlock{{
					Type:      "tool_result",
					ToolUseID: turn.ToolCallID,
					Content:   turn.Content,
				}},
			})
		}
	}

	return messages, strings.Join(systemParts, "\n\n")
}

// clampTemperature folds the canonical 0..2 range into Anthropic's 0..1.
func clampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

type claudeModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the account's model ids.
func (a *ClaudeAdapter) ListModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var out claudeModelsResponse
	if _, err := a.client.GetJSON(ctx, "/models", &out); err != nil {
		a.logger.Warn("failed to list models", "provider", a.Name(), "error", err)
		return nil
	}

	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids
}

// HealthCheck probes the model listing with a short deadline.
func (a *ClaudeAdapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := a.client.GetJSON(ctx, "/models", nil)
	return err == nil
}
