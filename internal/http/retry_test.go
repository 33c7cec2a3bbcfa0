package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		want       bool
	}{
		{name: "429 rate limited", statusCode: 429, want: true},
		{name: "500 server error", statusCode: 500, want: true},
		{name: "502 bad gateway", statusCode: 502, want: true},
		{name: "503 unavailable", statusCode: 503, want: true},
		{name: "504 gateway timeout", statusCode: 504, want: true},

		{name: "200 ok", statusCode: 200, want: false},
		{name: "201 created", statusCode: 201, want: false},
		{name: "400 bad request", statusCode: 400, want: false},
		{name: "401 unauthorized", statusCode: 401, want: false},
		{name: "404 not found", statusCode: 404, want: false},
		{name: "422 unprocessable", statusCode: 422, want: false},

		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "plain network error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.statusCode != 0 {
				resp = &http.Response{StatusCode: tt.statusCode}
			}
			if got := shouldRetry(resp, tt.err); got != tt.want {
				t.Errorf("shouldRetry(status=%d, err=%v) = %v, want %v",
					tt.statusCode, tt.err, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_GrowsExponentially(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.0,
		// No jitter so the growth is exact.
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{10, 60 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := calculateBackoff(cfg, tt.attempt); got != tt.want {
			t.Errorf("calculateBackoff(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestCalculateBackoff_JitterStaysInBounds(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:     1 * time.Second,
		MaxDelay:      60 * time.Second,
		Multiplier:    2.0,
		JitterPercent: 0.1,
	}

	for i := 0; i < 200; i++ {
		got := calculateBackoff(cfg, 2)
		// 4s base ±10%
		if got < 3600*time.Millisecond || got > 4400*time.Millisecond {
			t.Fatalf("calculateBackoff(attempt=2) = %v, want within ±10%% of 4s", got)
		}
	}
}

func TestCalculateBackoff_NeverExceedsMaxDelay(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:     10 * time.Second,
		MaxDelay:      15 * time.Second,
		Multiplier:    3.0,
		JitterPercent: 0.5,
	}

	for i := 0; i < 200; i++ {
		if got := calculateBackoff(cfg, 5); got > 15*time.Second {
			t.Fatalf("calculateBackoff = %v, exceeds MaxDelay 15s", got)
		}
	}
}

func TestCalculateBackoff_ZeroConfig(t *testing.T) {
	if got := calculateBackoff(&RetryConfig{}, 0); got != 0 {
		t.Errorf("calculateBackoff(zero config) = %v, want 0", got)
	}
}

func TestRetryConfigDefaults(t *testing.T) {
	var cfg RetryConfig
	cfg.setDefaults()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay = %v, want 2s", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 60*time.Second {
		t.Errorf("MaxDelay = %v, want 60s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", cfg.Multiplier)
	}
	if cfg.JitterPercent != 0.1 {
		t.Errorf("JitterPercent = %v, want 0.1", cfg.JitterPercent)
	}
}
