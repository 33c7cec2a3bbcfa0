package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// FetchPage retrieves pageURL and returns the parsed page: title, cleaned
// text and the raw HTML. Script, style and navigation chrome are stripped
// from the text rendering.
func (a *Accessor) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	if err := validatePageURL(pageURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	htmlSrc := string(body)
	page := &Page{
		URL:        finalURL(resp.Response, pageURL),
		Title:      HTMLTitle(htmlSrc),
		Text:       HTMLToText(htmlSrc),
		HTML:       htmlSrc,
		StatusCode: resp.StatusCode,
	}

	a.logger.Debug("fetched page", "url", page.URL, "status", page.StatusCode, "bytes", len(body))
	return page, nil
}

// finalURL reports where the fetch actually landed after redirects.
func finalURL(resp *http.Response, requested string) string {
	if resp != nil && resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return requested
}

func validatePageURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", pageURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", pageURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", pageURL)
	}
	return nil
}
