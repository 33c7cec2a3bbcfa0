package providers

import (
	"fmt"
	"log/slog"

	"github.com/Alexthestampede/ModuLLe/chat"
	internalhttp "github.com/Alexthestampede/ModuLLe/internal/http"
)

// ConfigError reports a construction-time configuration problem, such as a
// missing API key. It is the only error class adapters raise directly.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s: %s is required", e.Provider, e.Field)
}

// TransportError records a failed exchange with the backend: connection
// errors, timeouts, or a non-2xx status after retries. It is attached to
// Results, never returned from Send.
type TransportError struct {
	Provider string
	Status   int // 0 when the failure happened before a status was received
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: request failed with status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError records a response the backend delivered but the adapter
// could not make sense of: missing choices, unparseable JSON, empty
// candidates. Attached to Results, never returned from Send.
type ProtocolError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// errorResult logs a downgraded failure and wraps it as a Result, the only
// form in which Send failures reach callers.
func errorResult(logger *slog.Logger, provider string, err error) *chat.Result {
	logger.Error("provider request failed", "provider", provider, "error", err)
	return chat.ErrorResult(err)
}

// wireFailure classifies a failed exchange from the shared transport. A
// 2xx response that would not decode is the backend speaking the wrong
// protocol; everything else is transport.
func wireFailure(logger *slog.Logger, provider string, resp *internalhttp.Response, err error) *chat.Result {
	if resp != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return errorResult(logger, provider, &ProtocolError{Provider: provider, Reason: "malformed response body", Err: err})
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return errorResult(logger, provider, &TransportError{Provider: provider, Status: status, Err: err})
}
