package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client executes provider requests with pooling, retries and rate limit
// parsing. One Client serves one provider backend and is safe for concurrent
// use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	config     Config
}

// NewClient builds a client from cfg. Zero-valued fields get defaults.
func NewClient(cfg Config) *Client {
	cfg.setDefaults()

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		config:  cfg,
	}
}

// BaseURL returns the configured endpoint prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes req with retries on 429/500/502/503/504, exponential backoff
// with jitter between attempts, and rate limit header parsing on the final
// response.
//
// Before each attempt the request is enriched with the configured auth
// (Bearer token when APIKey is set and Authorization is absent), static
// headers, and User-Agent, none of which override what the caller set.
//
// Hook order per attempt: BeforeRequest, the HTTP round trip, then
// AfterResponse on success or OnError on transport failure, then OnRetry
// before the backoff sleep when another attempt follows.
//
// Context cancellation is never retried. A non-2xx final response is not an
// error here; callers inspect Response.StatusCode (the JSON helpers turn it
// into a StatusError).
func (c *Client) Do(req *http.Request) (*Response, error) {
	var lastResp *http.Response
	var lastErr error

	// Buffer the body so retries can replay it.
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, lastErr = io.ReadAll(req.Body)
		if lastErr != nil {
			return nil, fmt.Errorf("failed to read request body: %w", lastErr)
		}
		req.Body.Close()
	}

	for attempt := 0; attempt < c.config.Retry.MaxAttempts; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		c.applyHeaders(req)

		if c.config.BeforeRequest != nil {
			if err := c.config.BeforeRequest(req); err != nil {
				return nil, err
			}
		}

		if c.config.Logger != nil {
			c.logRequest(req, attempt)
		}

		resp, err := c.httpClient.Do(req)

		if err != nil {
			lastErr = err
			lastResp = nil

			if c.config.OnError != nil {
				c.config.OnError(req, err)
			}

			if !shouldRetry(resp, err) {
				return nil, err
			}

			if attempt < c.config.Retry.MaxAttempts-1 {
				delay := calculateBackoff(&c.config.Retry, attempt)
				if hookErr := c.retryHook(req, attempt+1, delay); hookErr != nil {
					return nil, hookErr
				}
				time.Sleep(delay)
			}
			continue
		}

		lastResp = resp
		lastErr = nil

		if c.config.AfterResponse != nil {
			c.config.AfterResponse(req, resp)
		}

		if c.config.Logger != nil {
			c.logResponse(resp, attempt)
		}

		if shouldRetry(resp, nil) && attempt < c.config.Retry.MaxAttempts-1 {
			// Drain so the pooled connection can be reused.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			delay := calculateBackoff(&c.config.Retry, attempt)
			if hookErr := c.retryHook(req, attempt+1, delay); hookErr != nil {
				return nil, hookErr
			}
			time.Sleep(delay)
			continue
		}

		return &Response{
			Response:  resp,
			RateLimit: ParseRateLimitHeaders(resp.Header),
			Attempt:   attempt,
		}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}

	// Retries exhausted on a retryable status; hand the last response back.
	return &Response{
		Response:  lastResp,
		RateLimit: ParseRateLimitHeaders(lastResp.Header),
		Attempt:   c.config.Retry.MaxAttempts - 1,
	}, nil
}

// PostJSON sends payload to path as JSON and decodes a 2xx response body
// into out (skipped when out is nil). Non-2xx responses become a
// *StatusError carrying the start of the body.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, out)
}

// GetJSON fetches path and decodes a 2xx response body into out (skipped
// when out is nil). Non-2xx responses become a *StatusError.
func (c *Client) GetJSON(ctx context.Context, path string, out any) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) (*Response, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp, &StatusError{
			Method:     req.Method,
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return resp, nil
}

// url joins the base URL with a request path. Absolute URLs pass through so
// callers can follow provider-issued links.
func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) applyHeaders(req *http.Request) {
	if c.apiKey != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, value := range c.config.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
}

func (c *Client) retryHook(req *http.Request, attempt int, delay time.Duration) error {
	if c.config.OnRetry == nil {
		return nil
	}
	return c.config.OnRetry(req, attempt, delay)
}

// logRequest logs the outgoing request with the API key sanitized.
func (c *Client) logRequest(req *http.Request, attempt int) {
	auth := req.Header.Get("Authorization")
	if auth != "" && c.apiKey != "" {
		auth = "Bearer " + sanitizeAPIKey(c.apiKey)
	}
	c.config.Logger.Printf("[HTTP] Request (attempt %d): %s %s [auth=%s]",
		attempt+1, req.Method, req.URL.Path, auth)
}

// logResponse logs the response with rate limit information when present.
func (c *Client) logResponse(resp *http.Response, attempt int) {
	rateLimitStr := ""
	if rateLimit := ParseRateLimitHeaders(resp.Header); rateLimit != nil {
		rateLimitStr = " [" + rateLimit.String() + "]"
	}
	c.config.Logger.Printf("[HTTP] Response (attempt %d): %d %s%s",
		attempt+1, resp.StatusCode, resp.Status, rateLimitStr)
}
