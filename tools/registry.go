package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNotFound is returned when a registry operation names a tool that is not
// registered.
var ErrNotFound = errors.New("tool not found")

// Registry holds the tools exposed to a model for one conversation. Names
// are unique; registering a name again replaces the previous tool. Listing
// and rendering follow first-registration order so rendered declarations are
// deterministic across runs.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	names  []string
	logger *slog.Logger
}

// NewRegistry returns an empty registry logging through slog.Default.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default(),
	}
}

// SetLogger replaces the registry's logger. Passing nil restores the default.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Register adds a tool under its name. If the name is already taken the old
// tool is replaced and a warning is logged; the name keeps its original
// position in listing order.
func (r *Registry) Register(tool Tool) {
	name := tool.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		r.logger.Warn("tool already registered, replacing", "tool", name)
	} else {
		r.names = append(r.names, name)
	}
	r.tools[name] = tool
}

// Unregister removes the named tool. Unknown names are an error.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.tools, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the named tool, reporting whether it is registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered tool names in first-registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Execute dispatches to the named tool. An unregistered name is an error the
// caller must handle. A registered tool that fails is not: the failure is
// folded into the returned text so the model can read it and recover, and the
// error return is nil.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	logger := r.log()
	logger.Debug("executing tool", "tool", name)
	result, err := tool.Execute(ctx, args)
	if err != nil {
		logger.Error("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing %s: %s", name, err.Error()), nil
	}
	return result, nil
}

func (r *Registry) log() *slog.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}
