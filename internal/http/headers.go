package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo is the rate limit state a provider reported on a response.
// The OpenAI, Anthropic and Google header families are all folded into the
// same fields.
type RateLimitInfo struct {
	LimitRequests     int           // request quota in the current window
	RemainingRequests int           // requests left in the current window
	ResetRequests     time.Duration // time until the request quota resets
	LimitTokens       int           // token quota in the current window
	RemainingTokens   int           // tokens left in the current window
	ResetTokens       time.Duration // time until the token quota resets
	RetryAfter        time.Duration // from the standard Retry-After header
}

// String renders the populated fields for log lines.
func (r *RateLimitInfo) String() string {
	var parts []string
	if r.LimitRequests > 0 || r.RemainingRequests > 0 {
		parts = append(parts, "requests="+strconv.Itoa(r.RemainingRequests)+"/"+strconv.Itoa(r.LimitRequests))
	}
	if r.LimitTokens > 0 || r.RemainingTokens > 0 {
		parts = append(parts, "tokens="+strconv.Itoa(r.RemainingTokens)+"/"+strconv.Itoa(r.LimitTokens))
	}
	if r.ResetRequests > 0 {
		parts = append(parts, "reset_req="+r.ResetRequests.String())
	}
	if r.ResetTokens > 0 {
		parts = append(parts, "reset_tok="+r.ResetTokens.String())
	}
	if r.RetryAfter > 0 {
		parts = append(parts, "retry_after="+r.RetryAfter.String())
	}
	if len(parts) == 0 {
		return "RateLimit{}"
	}
	return "RateLimit{" + strings.Join(parts, ", ") + "}"
}

// ParseRateLimitHeaders extracts rate limit state from response headers.
// Returns nil when no recognized header is present.
//
// Recognized families, in precedence order when both appear:
//   - OpenAI:    X-Ratelimit-{Limit,Remaining,Reset}-{Requests,Tokens}
//   - Anthropic: Anthropic-Ratelimit-{Requests,Tokens}-{Limit,Remaining}
//   - Google:    X-Goog-Ratelimit-{Limit,Remaining}
//   - Standard:  Retry-After (seconds or HTTP date)
//
// Malformed values are skipped.
func ParseRateLimitHeaders(headers http.Header) *RateLimitInfo {
	info := &RateLimitInfo{}
	found := false

	readInt := func(key string, dst *int) {
		val := headers.Get(key)
		if val == "" || *dst != 0 {
			return
		}
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
			found = true
		}
	}
	readDuration := func(key string, dst *time.Duration) {
		val := headers.Get(key)
		if val == "" || *dst != 0 {
			return
		}
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
			found = true
		}
	}

	// OpenAI family first; later families only fill fields still zero.
	readInt("X-Ratelimit-Limit-Requests", &info.LimitRequests)
	readInt("X-Ratelimit-Remaining-Requests", &info.RemainingRequests)
	readDuration("X-Ratelimit-Reset-Requests", &info.ResetRequests)
	readInt("X-Ratelimit-Limit-Tokens", &info.LimitTokens)
	readInt("X-Ratelimit-Remaining-Tokens", &info.RemainingTokens)
	readDuration("X-Ratelimit-Reset-Tokens", &info.ResetTokens)

	readInt("Anthropic-Ratelimit-Requests-Limit", &info.LimitRequests)
	readInt("Anthropic-Ratelimit-Requests-Remaining", &info.RemainingRequests)
	readInt("Anthropic-Ratelimit-Tokens-Limit", &info.LimitTokens)
	readInt("Anthropic-Ratelimit-Tokens-Remaining", &info.RemainingTokens)

	readInt("X-Goog-Ratelimit-Limit", &info.LimitRequests)
	readInt("X-Goog-Ratelimit-Remaining", &info.RemainingRequests)

	if val := headers.Get("Retry-After"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			info.RetryAfter = time.Duration(seconds) * time.Second
			found = true
		} else if t, err := http.ParseTime(val); err == nil {
			info.RetryAfter = time.Until(t)
			if info.RetryAfter < 0 {
				info.RetryAfter = 0
			}
			found = true
		}
	}

	if !found {
		return nil
	}
	return info
}

// sanitizeAPIKey masks the middle of an API key so logs never leak it:
// "sk-1234567890abcdef" -> "sk-***0abcdef".
func sanitizeAPIKey(key string) string {
	n := len(key)
	switch {
	case n == 0:
		return ""
	case n <= 5:
		return "***" + key[max(0, n-2):]
	case n <= 10:
		return key[:3] + "***" + key[n-3:]
	default:
		return key[:3] + "***" + key[n-7:]
	}
}
