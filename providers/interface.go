// Package providers contains the adapters that translate between the
// canonical conversation model and each backend's wire protocol: OpenAI,
// Ollama, LM Studio, Google Gemini and Anthropic Claude.
//
// Every adapter presents the same surface. Send never returns an error;
// transport and protocol failures are folded into the returned Result with
// FinishReason error so the caller has exactly one failure channel.
// Configuration problems are the exception: they fail construction.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Alexthestampede/ModuLLe/chat"
	"github.com/Alexthestampede/ModuLLe/tools"
)

// Adapter translates canonical conversations to one provider's wire protocol
// and back.
type Adapter interface {
	// Name returns the registry name of the backend, e.g. "ollama".
	Name() string

	// Format is the tool declaration format this backend consumes.
	Format() tools.Format

	// Send submits a conversation plus rendered tool declarations to the
	// model and returns the parsed outcome. Declarations must have been
	// rendered in this adapter's Format. Failures of any kind surface as
	// FinishReason == chat.FinishError on the Result, never as a panic or
	// an error value.
	Send(ctx context.Context, modelID string, conversation []chat.Turn, declarations []tools.Declaration, temperature float64) *chat.Result

	// ListModels returns the model ids the backend currently serves.
	// Failures yield an empty slice.
	ListModels(ctx context.Context) []string

	// HealthCheck reports whether the backend is reachable right now.
	HealthCheck(ctx context.Context) bool
}

// Options configures adapter construction. Zero values fall back to
// per-provider defaults (base URL, token limits); APIKey is required only
// where the backend authenticates.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // per-request budget, tripled for chat calls (default: 30s)
	MaxRetries int           // transport retry attempts (default: 3)
	MaxTokens  int           // response token cap where the wire requires one
	UserAgent  string
	Logger     *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 30 * time.Second
}

// healthTimeout bounds HealthCheck probes.
const healthTimeout = 5 * time.Second

// Factory builds an adapter from options. It returns an error only for
// configuration problems such as a missing API key.
type Factory func(opts Options) (Adapter, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a factory available under name. Adapters register
// themselves in init, so importing this package is enough to populate the
// registry.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	factory, ok := factories[name]
	return factory, ok
}

// New constructs the named adapter.
func New(name string, opts Options) (Adapter, error) {
	factory, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return factory(opts)
}

// Registered returns all registered provider names, sorted.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// synthesizeCallID fills in an invocation id for backends that omit them,
// keyed on the invocation's position in the response.
func synthesizeCallID(id string, index int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("call_%d", index)
}

// decodeArguments parses a JSON-string argument payload into a map. OpenAI
// family backends send arguments as a string of JSON; a payload that does
// not parse decodes to an empty map so one malformed invocation cannot sink
// the round.
func decodeArguments(raw string, logger *slog.Logger) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		logger.Warn("failed to decode tool call arguments", "error", err, "payload", raw)
		return map[string]any{}
	}
	if args == nil {
		return map[string]any{}
	}
	return args
}
