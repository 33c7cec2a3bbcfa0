package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// --- Built-in utility tools ---

// EchoTool echoes back its input, useful for smoke-testing a tool loop
// end to end without network access.
type EchoTool struct{}

func (e *EchoTool) Name() string {
	return "echo"
}

func (e *EchoTool) Description() string {
	return "Echoes back the provided message for testing purposes"
}

func (e *EchoTool) Parameters() Schema {
	return ObjectSchema(map[string]Property{
		"message": {Type: "string", Description: "Text to echo back"},
	}, "message")
}

func (e *EchoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	msg, ok := args["message"]
	if !ok {
		return "", errors.New("missing 'message' parameter")
	}
	return fmt.Sprintf("%v", msg), nil
}

// CalculatorTool performs basic arithmetic on two operands.
type CalculatorTool struct{}

func (c *CalculatorTool) Name() string {
	return "calculator"
}

func (c *CalculatorTool) Description() string {
	return "Performs basic arithmetic operations: +, -, *, /"
}

func (c *CalculatorTool) Parameters() Schema {
	return ObjectSchema(map[string]Property{
		"operation": {Type: "string", Description: "Arithmetic operation to apply", Enum: []string{"+", "-", "*", "/"}},
		"a":         {Type: "number", Description: "Left operand"},
		"b":         {Type: "number", Description: "Right operand"},
	}, "operation", "a", "b")
}

func (c *CalculatorTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var in struct {
		Operation string  `mapstructure:"operation"`
		A         float64 `mapstructure:"a"`
		B         float64 `mapstructure:"b"`
	}
	for _, name := range []string{"operation", "a", "b"} {
		if _, ok := args[name]; !ok {
			return "", fmt.Errorf("missing '%s' parameter", name)
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return "", err
	}
	if err := dec.Decode(args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	var result float64
	switch in.Operation {
	case "+":
		result = in.A + in.B
	case "-":
		result = in.A - in.B
	case "*":
		result = in.A * in.B
	case "/":
		if in.B == 0 {
			return "", errors.New("division by zero")
		}
		result = in.A / in.B
	default:
		return "", fmt.Errorf("unsupported operation: %s", in.Operation)
	}
	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

// RegisterBuiltins registers the built-in utility tools with a registry.
func RegisterBuiltins(registry *Registry) {
	registry.Register(&EchoTool{})
	registry.Register(&CalculatorTool{})
}
