// Package web gives models eyes: a search backend, a bounded page fetcher
// and HTML cleanup, exposed both as direct methods and as registry tools
// (search_web, fetch_page) an agent loop can hand to a model.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	internalhttp "github.com/Alexthestampede/ModuLLe/internal/http"
)

// Output formats for Fetch.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatFull     = "full"
)

// SearchResult is one hit from the search backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Page is a fetched and parsed web page.
type Page struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	HTML       string `json:"html"`
	StatusCode int    `json:"status_code"`
}

// defaultMaxBodyBytes bounds how much of a page body is read. Pages larger
// than this are cut off, not rejected.
const defaultMaxBodyBytes = 5 << 20

// Options configures an Accessor. Zero values get sensible defaults.
type Options struct {
	UserAgent      string
	Timeout        time.Duration // per-request budget (default: 30s)
	MaxBodyBytes   int64         // page body read limit (default: 5 MiB)
	MaxRetries     int
	SearchEndpoint string // search backend URL (default: DuckDuckGo HTML)
	Logger         *slog.Logger
}

// Accessor is the high-level entry point for web access. Callers either use
// Search and Fetch directly and feed the results to a model themselves, or
// register the tool wrappers and let the model drive.
type Accessor struct {
	client         *internalhttp.Client
	logger         *slog.Logger
	maxBodyBytes   int64
	searchEndpoint string
}

// NewAccessor builds a web accessor.
func NewAccessor(opts Options) *Accessor {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBody := opts.MaxBodyBytes
	if maxBody == 0 {
		maxBody = defaultMaxBodyBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := opts.SearchEndpoint
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}

	client := internalhttp.NewClient(internalhttp.Config{
		UserAgent: opts.UserAgent,
		Timeout:   timeout,
		Retry:     internalhttp.RetryConfig{MaxAttempts: opts.MaxRetries},
	})

	return &Accessor{
		client:         client,
		logger:         logger,
		maxBodyBytes:   maxBody,
		searchEndpoint: endpoint,
	}
}

// Fetch retrieves a page and renders it in the requested format: text for
// cleaned plain text, markdown for a markdown rendering, html for the raw
// body, full for the whole Page as JSON. Unknown formats fall back to text.
func (a *Accessor) Fetch(ctx context.Context, pageURL, format string) (string, error) {
	page, err := a.FetchPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatText:
		return page.Text, nil
	case FormatMarkdown:
		return HTMLToMarkdown(page.HTML), nil
	case FormatHTML:
		return page.HTML, nil
	case FormatFull:
		full, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode page: %w", err)
		}
		return string(full), nil
	default:
		a.logger.Warn("unknown fetch format, defaulting to text", "format", format)
		return page.Text, nil
	}
}
