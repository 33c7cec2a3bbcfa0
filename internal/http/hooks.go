package http

import (
	"net/http"
	"time"
)

// BeforeRequestHook runs before each attempt, retries included. The request
// may be modified in place. A non-nil error aborts the request.
type BeforeRequestHook func(req *http.Request) error

// AfterResponseHook runs after a response is received, before any retry
// decision. Its error is ignored; use it for logging and metrics.
type AfterResponseHook func(req *http.Request, resp *http.Response) error

// OnErrorHook runs when an attempt fails at the transport level. Its error
// is ignored; the original error is returned to the caller.
type OnErrorHook func(req *http.Request, err error) error

// OnRetryHook runs before each retry sleep with the upcoming attempt number
// (1-indexed) and the computed delay. A non-nil error aborts the retry loop.
type OnRetryHook func(req *http.Request, attempt int, delay time.Duration) error

// Response wraps http.Response with transport metadata.
type Response struct {
	*http.Response
	RateLimit *RateLimitInfo // parsed rate limit headers, nil when absent
	Attempt   int            // attempts made, 0-indexed
}
