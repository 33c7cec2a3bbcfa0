package http

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig controls the retry loop.
type RetryConfig struct {
	MaxAttempts   int           // total attempts including the first (default: 3)
	BaseDelay     time.Duration // delay before the first retry (default: 2s)
	MaxDelay      time.Duration // backoff ceiling (default: 60s)
	Multiplier    float64       // backoff growth factor (default: 2.0)
	JitterPercent float64       // jitter fraction, 0.1 = ±10% (default: 0.1)
}

// setDefaults fills in default values for zero-valued fields.
func (r *RetryConfig) setDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.BaseDelay == 0 {
		r.BaseDelay = 2 * time.Second
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = 60 * time.Second
	}
	if r.Multiplier == 0 {
		r.Multiplier = 2.0
	}
	if r.JitterPercent == 0 {
		r.JitterPercent = 0.1
	}
}

// shouldRetry reports whether an attempt is worth repeating.
//
// Retried: 429 and the transient 5xx family (500, 502, 503, 504).
// Not retried: other status codes, context cancellation or deadline, and
// transport errors without a response (those rarely heal within the loop).
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
	}
	if resp == nil {
		return false
	}
	switch resp.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// calculateBackoff computes the sleep before retry `attempt` (0-indexed):
// min(BaseDelay * Multiplier^attempt, MaxDelay), then ±JitterPercent so
// concurrent clients don't retry in lockstep.
func calculateBackoff(cfg *RetryConfig, attempt int) time.Duration {
	if cfg.BaseDelay == 0 || cfg.Multiplier == 0 {
		return 0
	}

	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.JitterPercent > 0 {
		jitter := (rand.Float64()*2 - 1) * cfg.JitterPercent
		delay *= 1 + jitter
		if delay < 0 {
			delay = 0
		}
		if delay > float64(cfg.MaxDelay) {
			delay = float64(cfg.MaxDelay)
		}
	}

	return time.Duration(delay)
}
