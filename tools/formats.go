package tools

// Format selects the provider wire shape tools are declared in. Each
// provider family expects a different envelope around the same three fields
// (name, description, parameter schema).
type Format string

const (
	// FormatOpenAI nests the declaration under a "function" key:
	// {"type":"function","function":{name,description,parameters}}.
	FormatOpenAI Format = "openai"
	// FormatOllama matches the OpenAI nesting; Ollama adopted the same shape.
	FormatOllama Format = "ollama"
	// FormatClaude is flat with the schema under "input_schema".
	FormatClaude Format = "claude"
	// FormatGemini is flat with the schema under "parameters".
	FormatGemini Format = "gemini"
)

// Valid reports whether f is one of the supported declaration formats.
func (f Format) Valid() bool {
	switch f {
	case FormatOpenAI, FormatOllama, FormatClaude, FormatGemini:
		return true
	}
	return false
}

// FunctionDecl is the inner object of the nested OpenAI-style declaration.
type FunctionDecl struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Declaration is one tool rendered for a provider. Exactly the fields of the
// chosen format are populated; the rest stay empty and are dropped from the
// encoded JSON.
type Declaration struct {
	// Nested shape (openai, ollama).
	Type     string        `json:"type,omitempty"`
	Function *FunctionDecl `json:"function,omitempty"`

	// Flat shapes (claude, gemini).
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	InputSchema *Schema `json:"input_schema,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Declare renders a single tool in the given format. Unknown formats yield a
// zero Declaration.
func Declare(t Tool, format Format) Declaration {
	schema := t.Parameters()
	switch format {
	case FormatOpenAI, FormatOllama:
		return Declaration{
			Type: "function",
			Function: &FunctionDecl{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  schema,
			},
		}
	case FormatClaude:
		return Declaration{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: &schema,
		}
	case FormatGemini:
		return Declaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  &schema,
		}
	}
	return Declaration{}
}

// Render declares every registered tool in the given format, in
// first-registration order. Unknown formats render to nil.
func (r *Registry) Render(format Format) []Declaration {
	if !format.Valid() {
		r.log().Warn("unknown tool declaration format", "format", string(format))
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	decls := make([]Declaration, 0, len(r.names))
	for _, name := range r.names {
		decls = append(decls, Declare(r.tools[name], format))
	}
	return decls
}
