package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolCall_NormalizesNilArguments(t *testing.T) {
	call := NewToolCall("call_0", "search_web", nil)

	assert.Equal(t, "call_0", call.ID)
	assert.Equal(t, "function", call.Type)
	assert.Equal(t, "search_web", call.Function.Name)
	assert.NotNil(t, call.Function.Arguments)
	assert.Empty(t, call.Function.Arguments)
}

func TestTurn_Constructors_ProduceValidTurns(t *testing.T) {
	call := NewToolCall("call_0", "search_web", map[string]any{"query": "go"})

	turns := []Turn{
		System("be helpful"),
		User("hi"),
		Assistant("hello"),
		AssistantToolCall(call),
		ToolResult("call_0", "search_web", "results"),
	}

	for i, turn := range turns {
		assert.NoError(t, turn.Validate(), "turn %d", i)
	}
}

func TestTurn_WireShape(t *testing.T) {
	call := NewToolCall("call_0", "search_web", map[string]any{"query": "x"})
	turn := AssistantToolCall(call)

	data, err := json.Marshal(turn)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "assistant", decoded["role"])
	assert.Equal(t, "", decoded["content"])

	calls := decoded["tool_calls"].([]any)
	require.Len(t, calls, 1)
	first := calls[0].(map[string]any)
	assert.Equal(t, "call_0", first["id"])
	assert.Equal(t, "function", first["type"])
	fn := first["function"].(map[string]any)
	assert.Equal(t, "search_web", fn["name"])
	assert.Equal(t, map[string]any{"query": "x"}, fn["arguments"])
}

func TestTurn_WireShape_ToolTurn(t *testing.T) {
	turn := ToolResult("call_3", "fetch_page", "page text")

	data, err := json.Marshal(turn)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "tool", decoded["role"])
	assert.Equal(t, "page text", decoded["content"])
	assert.Equal(t, "fetch_page", decoded["name"])
	assert.Equal(t, "call_3", decoded["tool_call_id"])
	_, hasCalls := decoded["tool_calls"]
	assert.False(t, hasCalls)
}

func TestTurn_Validate_Failures(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
	}{
		{"unknown role", Turn{Role: "model", Content: "x"}},
		{"calls on user turn", Turn{Role: RoleUser, ToolCalls: []ToolCall{NewToolCall("c", "t", nil)}}},
		{"empty call id", Turn{Role: RoleAssistant, ToolCalls: []ToolCall{{Type: "function", Function: FunctionCall{Name: "t"}}}}},
		{"wrong call type", Turn{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c", Type: "tool", Function: FunctionCall{Name: "t"}}}}},
		{"empty call name", Turn{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c", Type: "function"}}}},
		{"tool turn missing name", Turn{Role: RoleTool, Content: "r", ToolCallID: "c"}},
		{"tool turn missing call id", Turn{Role: RoleTool, Content: "r", Name: "t"}},
		{"name on user turn", Turn{Role: RoleUser, Content: "x", Name: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.turn.Validate())
		})
	}
}

func TestValidateConversation_HappyPath(t *testing.T) {
	call := NewToolCall("call_0", "search_web", map[string]any{"query": "x"})
	turns := []Turn{
		System("sys"),
		User("question"),
		AssistantToolCall(call),
		ToolResult("call_0", "search_web", "found it"),
		Assistant("answer"),
	}

	assert.NoError(t, ValidateConversation(turns))
}

func TestValidateConversation_DanglingInvocation(t *testing.T) {
	turns := []Turn{
		User("question"),
		AssistantToolCall(NewToolCall("call_0", "search_web", nil)),
	}

	err := ValidateConversation(turns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tool result")
}

func TestValidateConversation_UnknownInvocation(t *testing.T) {
	turns := []Turn{
		User("question"),
		ToolResult("call_9", "search_web", "out of nowhere"),
	}

	err := ValidateConversation(turns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown invocation")
}

func TestValidateConversation_DuplicateInvocationID(t *testing.T) {
	turns := []Turn{
		User("question"),
		AssistantToolCall(NewToolCall("call_0", "a", nil)),
		AssistantToolCall(NewToolCall("call_0", "b", nil)),
	}

	err := ValidateConversation(turns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate invocation id")
}

func TestValidateConversation_Empty(t *testing.T) {
	assert.Error(t, ValidateConversation(nil))
}

func TestValidateConversation_AnsweredThenReused(t *testing.T) {
	// Once answered, an id may be issued again in a later round.
	turns := []Turn{
		User("question"),
		AssistantToolCall(NewToolCall("call_0", "a", nil)),
		ToolResult("call_0", "a", "first"),
		AssistantToolCall(NewToolCall("call_0", "a", nil)),
		ToolResult("call_0", "a", "second"),
	}

	assert.NoError(t, ValidateConversation(turns))
}
