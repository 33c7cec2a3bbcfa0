package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// defaultSearchEndpoint is DuckDuckGo's plain-HTML frontend, the one backend
// that needs no API key.
const defaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// Search queries the web and returns up to maxResults hits. A query that
// matches nothing returns an empty slice, not an error.
func (a *Accessor) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.searchEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("search failed: unexpected status %d", resp.StatusCode)
	}

	results, err := parseSearchResults(io.LimitReader(resp.Body, a.maxBodyBytes), maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	a.logger.Debug("web search", "query", query, "results", len(results))
	return results, nil
}

// parseSearchResults walks DuckDuckGo's result markup: each hit is an
// anchor classed result__a (title and link) followed by a result__snippet
// element.
func parseSearchResults(r io.Reader, maxResults int) ([]SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	var current *SearchResult

	flush := func() {
		if current != nil && current.URL != "" && len(results) < maxResults {
			results = append(results, *current)
		}
		current = nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults && current == nil {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				flush()
				current = &SearchResult{
					Title: strings.TrimSpace(nodeText(n)),
					URL:   resolveRedirect(attrValue(n, "href")),
				}
			case hasClass(n, "result__snippet"):
				if current != nil {
					current.Snippet = strings.TrimSpace(nodeText(n))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	flush()

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=... redirect links to the
// real destination. Links that are not redirects pass through unchanged.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasSuffix(u.Host, "duckduckgo.com") || !strings.HasPrefix(u.Path, "/l/") {
		return href
	}
	target := u.Query().Get("uddg")
	if target == "" {
		return href
	}
	return target
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// nodeText concatenates the text content beneath n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
