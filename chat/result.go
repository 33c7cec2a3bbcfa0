package chat

import "encoding/json"

// FinishReason classifies why a backend call ended.
type FinishReason string

const (
	// FinishStop means the model produced a final text answer.
	FinishStop FinishReason = "stop"
	// FinishToolCalls means the model requested one or more tool invocations.
	FinishToolCalls FinishReason = "tool_calls"
	// FinishError means the call failed at the transport or protocol level.
	// Adapters downgrade every such failure into this reason; it is the only
	// error channel an adapter exposes.
	FinishError FinishReason = "error"
)

// Result is the canonical outcome of one adapter send: generated text (empty
// when the model produced none), requested invocations in response order,
// the finish reason, and the raw backend payload kept for diagnostics. Err
// carries the underlying failure when FinishReason is FinishError and is nil
// otherwise.
type Result struct {
	Content      string          `json:"content"`
	ToolCalls    []ToolCall      `json:"tool_calls,omitempty"`
	FinishReason FinishReason    `json:"finish_reason"`
	Raw          json.RawMessage `json:"message,omitempty"`
	Err          error           `json:"-"`
}

// ErrorResult wraps a transport or protocol failure into a Result. Content
// is empty and no invocations are reported.
func ErrorResult(err error) *Result {
	return &Result{FinishReason: FinishError, Err: err}
}

// HasToolCalls reports whether the model requested any invocations.
func (r *Result) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
