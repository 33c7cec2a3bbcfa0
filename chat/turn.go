// Package chat defines the provider-neutral conversation model shared by the
// provider adapters, the tool registry and the agent loop: turns, tool
// invocations and adapter results. Adapters translate these records to and
// from each backend's wire format; nothing in this package knows about any
// particular backend.
package chat

import (
	"fmt"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the four canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// FunctionCall is the name and decoded arguments of a requested tool
// invocation. Arguments are always a structured map here; adapters are
// responsible for decoding any wire-level string encoding before
// constructing one.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCall is one model-requested tool invocation with a correlating
// identifier. The identifier is provider-assigned when the backend supplies
// one and synthesized as call_<index> otherwise; it is never empty inside a
// conversation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// NewToolCall builds a function-type tool call. A nil argument map is
// normalized to an empty one so downstream encoding always produces an
// object.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	if args == nil {
		args = map[string]any{}
	}
	return ToolCall{
		ID:   id,
		Type: "function",
		Function: FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

// Turn is one element of a canonical conversation. Marshaled form:
//
//	{role, content, tool_calls?: [{id, type:"function", function:{name, arguments}}], name?, tool_call_id?}
//
// ToolCalls is present only on assistant turns that request invocations.
// Name and ToolCallID are present only on tool turns and identify the tool
// that produced the result and the invocation it answers.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// System builds a system turn.
func System(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// User builds a user turn.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Assistant builds a plain-text assistant turn.
func Assistant(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// AssistantToolCall builds an assistant turn that requests the given
// invocations and carries no text.
func AssistantToolCall(calls ...ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: "", ToolCalls: calls}
}

// ToolResult builds a tool turn answering the invocation identified by
// callID. Content is the textual result, or an error description when the
// tool failed.
func ToolResult(callID, toolName, content string) Turn {
	return Turn{
		Role:       RoleTool,
		Content:    content,
		Name:       toolName,
		ToolCallID: callID,
	}
}

// Validate checks the turn's structural invariants.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("invalid role %q", t.Role)
	}
	if len(t.ToolCalls) > 0 && t.Role != RoleAssistant {
		return fmt.Errorf("tool calls on %s turn", t.Role)
	}
	for i, call := range t.ToolCalls {
		if call.ID == "" {
			return fmt.Errorf("tool call %d has empty id", i)
		}
		if call.Type != "function" {
			return fmt.Errorf("tool call %q has type %q, want function", call.ID, call.Type)
		}
		if call.Function.Name == "" {
			return fmt.Errorf("tool call %q has empty function name", call.ID)
		}
	}
	if t.Role == RoleTool {
		if t.Name == "" {
			return fmt.Errorf("tool turn missing tool name")
		}
		if t.ToolCallID == "" {
			return fmt.Errorf("tool turn missing tool_call_id")
		}
	} else {
		if t.Name != "" || t.ToolCallID != "" {
			return fmt.Errorf("name/tool_call_id set on %s turn", t.Role)
		}
	}
	return nil
}

// ValidateConversation checks that turns form a well-formed conversation
// ready to submit to an adapter: every turn is structurally valid, every
// tool turn answers an invocation requested by an earlier assistant turn,
// and no requested invocation is left unanswered.
func ValidateConversation(turns []Turn) error {
	if len(turns) == 0 {
		return fmt.Errorf("empty conversation")
	}
	pending := make(map[string]string) // invocation id -> tool name
	for i, turn := range turns {
		if err := turn.Validate(); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
		switch turn.Role {
		case RoleAssistant:
			for _, call := range turn.ToolCalls {
				if _, dup := pending[call.ID]; dup {
					return fmt.Errorf("turn %d: duplicate invocation id %q", i, call.ID)
				}
				pending[call.ID] = call.Function.Name
			}
		case RoleTool:
			if _, ok := pending[turn.ToolCallID]; !ok {
				return fmt.Errorf("turn %d: tool turn answers unknown invocation %q", i, turn.ToolCallID)
			}
			delete(pending, turn.ToolCallID)
		}
	}
	if len(pending) > 0 {
		for id, name := range pending {
			return fmt.Errorf("invocation %s of %s has no tool result", id, name)
		}
	}
	return nil
}
