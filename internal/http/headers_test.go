package http

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestParseRateLimitHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    *RateLimitInfo
	}{
		{
			name: "openai family, all fields",
			headers: http.Header{
				"X-Ratelimit-Limit-Requests":     []string{"10000"},
				"X-Ratelimit-Remaining-Requests": []string{"9999"},
				"X-Ratelimit-Reset-Requests":     []string{"1s"},
				"X-Ratelimit-Limit-Tokens":       []string{"2000000"},
				"X-Ratelimit-Remaining-Tokens":   []string{"1999900"},
				"X-Ratelimit-Reset-Tokens":       []string{"27ms"},
			},
			want: &RateLimitInfo{
				LimitRequests:     10000,
				RemainingRequests: 9999,
				ResetRequests:     1 * time.Second,
				LimitTokens:       2000000,
				RemainingTokens:   1999900,
				ResetTokens:       27 * time.Millisecond,
			},
		},
		{
			name: "anthropic family",
			headers: http.Header{
				"Anthropic-Ratelimit-Requests-Limit":     []string{"1000"},
				"Anthropic-Ratelimit-Requests-Remaining": []string{"999"},
				"Anthropic-Ratelimit-Tokens-Limit":       []string{"100000"},
				"Anthropic-Ratelimit-Tokens-Remaining":   []string{"99000"},
			},
			want: &RateLimitInfo{
				LimitRequests:     1000,
				RemainingRequests: 999,
				LimitTokens:       100000,
				RemainingTokens:   99000,
			},
		},
		{
			name: "google family",
			headers: http.Header{
				"X-Goog-Ratelimit-Limit":     []string{"60"},
				"X-Goog-Ratelimit-Remaining": []string{"59"},
			},
			want: &RateLimitInfo{
				LimitRequests:     60,
				RemainingRequests: 59,
			},
		},
		{
			name: "openai wins over anthropic when both present",
			headers: http.Header{
				"X-Ratelimit-Limit-Requests":         []string{"10000"},
				"Anthropic-Ratelimit-Requests-Limit": []string{"1000"},
			},
			want: &RateLimitInfo{LimitRequests: 10000},
		},
		{
			name: "retry-after in seconds",
			headers: http.Header{
				"Retry-After": []string{"30"},
			},
			want: &RateLimitInfo{RetryAfter: 30 * time.Second},
		},
		{
			name: "malformed values skipped",
			headers: http.Header{
				"X-Ratelimit-Limit-Requests":     []string{"not-a-number"},
				"X-Ratelimit-Remaining-Requests": []string{"50"},
				"X-Ratelimit-Reset-Requests":     []string{"soon"},
			},
			want: &RateLimitInfo{RemainingRequests: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRateLimitHeaders(tt.headers)
			if got == nil {
				t.Fatal("ParseRateLimitHeaders() = nil, want info")
			}
			if *got != *tt.want {
				t.Errorf("ParseRateLimitHeaders() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRateLimitHeaders_NoneFound(t *testing.T) {
	headers := http.Header{
		"Content-Type": []string{"application/json"},
		"X-Request-Id": []string{"req_123"},
	}
	if got := ParseRateLimitHeaders(headers); got != nil {
		t.Errorf("ParseRateLimitHeaders() = %+v, want nil", got)
	}
}

func TestParseRateLimitHeaders_RetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(45 * time.Second).UTC().Format(http.TimeFormat)
	headers := http.Header{"Retry-After": []string{future}}

	got := ParseRateLimitHeaders(headers)
	if got == nil {
		t.Fatal("ParseRateLimitHeaders() = nil, want info")
	}
	if got.RetryAfter <= 40*time.Second || got.RetryAfter > 46*time.Second {
		t.Errorf("RetryAfter = %v, want roughly 45s", got.RetryAfter)
	}
}

func TestParseRateLimitHeaders_RetryAfterPastDate(t *testing.T) {
	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	headers := http.Header{"Retry-After": []string{past}}

	got := ParseRateLimitHeaders(headers)
	if got == nil {
		t.Fatal("ParseRateLimitHeaders() = nil, want info")
	}
	if got.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0 for past dates", got.RetryAfter)
	}
}

func TestRateLimitInfoString(t *testing.T) {
	info := &RateLimitInfo{
		LimitRequests:     100,
		RemainingRequests: 42,
		RetryAfter:        30 * time.Second,
	}

	s := info.String()
	if !strings.Contains(s, "requests=42/100") {
		t.Errorf("String() = %q, want requests=42/100", s)
	}
	if !strings.Contains(s, "retry_after=30s") {
		t.Errorf("String() = %q, want retry_after=30s", s)
	}

	if got := (&RateLimitInfo{}).String(); got != "RateLimit{}" {
		t.Errorf("empty String() = %q, want RateLimit{}", got)
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"abc", "***bc"},
		{"abcdefgh", "abc***fgh"},
		{"sk-1234567890abcdef", "sk-***0abcdef"},
	}
	for _, tt := range tests {
		if got := sanitizeAPIKey(tt.key); got != tt.want {
			t.Errorf("sanitizeAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
