package http

import (
	"log"
	"time"
)

// Config configures the transport.
type Config struct {
	// BaseURL is prefixed to relative request paths,
	// e.g. "https://generativelanguage.googleapis.com/v1beta".
	BaseURL string

	// APIKey, when set, is sent as "Authorization: Bearer <key>" unless the
	// request already carries an Authorization header. Providers that
	// authenticate differently (header or query parameter) leave this empty
	// and use Headers or the URL instead.
	APIKey string

	// Headers are applied to every request that does not already set them.
	// Used for provider-specific auth such as Anthropic's x-api-key and
	// anthropic-version pair.
	Headers map[string]string

	// UserAgent is sent when the request has none (default: DefaultUserAgent).
	UserAgent string

	// Timeout bounds one attempt end to end (default: 30s).
	Timeout time.Duration

	// Connection pool tuning.
	MaxIdleConns        int           // across all hosts (default: 100)
	MaxIdleConnsPerHost int           // per host (default: 10)
	MaxConnsPerHost     int           // per host total (default: 10)
	IdleConnTimeout     time.Duration // idle connection lifetime (default: 90s)

	Retry RetryConfig

	// Hooks intercept the request lifecycle. All are optional.
	BeforeRequest BeforeRequestHook
	AfterResponse AfterResponseHook
	OnError       OnErrorHook
	OnRetry       OnRetryHook

	// Logger enables request/response logging. API keys are sanitized
	// before they reach the log.
	Logger *log.Logger
}

// DefaultUserAgent identifies the library on the wire.
const DefaultUserAgent = "ModuLLe/0.2.0 (AI Provider Abstraction)"

// setDefaults fills in default values for zero-valued fields.
func (c *Config) setDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.MaxConnsPerHost == 0 {
		c.MaxConnsPerHost = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	c.Retry.setDefaults()
}
