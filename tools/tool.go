// Package tools defines the tool contract offered to language models, a
// registry that dispatches execution by name, and the rendering of
// registered tools into each provider's declaration format.
package tools

import (
	"context"
	"fmt"
	"regexp"
)

// Tool is a named capability a model can invoke mid-conversation. Execution
// is synchronous and returns a plain text result that is fed back into the
// conversation. Implementations must be safe to construct once and register
// into any number of registries.
type Tool interface {
	// Name returns the stable identifier the model uses to invoke the tool.
	// Must be a valid identifier (lowercase snake_case by convention).
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Parameters returns the JSON-Schema-shaped description of the accepted
	// arguments.
	Parameters() Schema

	// Execute runs the tool with the given decoded arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Schema is a JSON-Schema-shaped parameter description:
// {type:"object", properties:{...}, required:[...]}.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one named parameter.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// ObjectSchema builds an object schema from named properties and the list of
// required parameter names.
func ObjectSchema(props map[string]Property, required ...string) Schema {
	if props == nil {
		props = map[string]Property{}
	}
	return Schema{Type: "object", Properties: props, Required: required}
}

// Validate checks that the schema is a well-formed structural description.
func (s Schema) Validate() error {
	if s.Type != "object" {
		return fmt.Errorf("schema type %q, want object", s.Type)
	}
	for name, prop := range s.Properties {
		if prop.Type == "" {
			return fmt.Errorf("property %q has no type", name)
		}
	}
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("required parameter %q not declared", name)
		}
	}
	return nil
}

var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Func is the body of a function-backed tool.
type Func func(ctx context.Context, args map[string]any) (string, error)

type funcTool struct {
	name        string
	description string
	schema      Schema
	fn          Func
}

// New builds a Tool from a name, description, parameter schema and body.
// The name must be a valid identifier and the schema well-formed; both are
// checked here so a malformed tool never reaches a registry.
func New(name, description string, schema Schema, fn Func) (Tool, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid tool name %q", name)
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: nil body", name)
	}
	return &funcTool{name: name, description: description, schema: schema, fn: fn}, nil
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) Parameters() Schema  { return t.schema }

func (t *funcTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}
