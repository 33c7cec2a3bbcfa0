package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/Alexthestampede/ModuLLe/tools"
)

// maxToolContent caps fetch_page output so one page cannot flood the model's
// context window.
const maxToolContent = 8000

// SearchTool lets a model search the web. Results come back as a numbered
// list with enough context to decide which pages to fetch.
type SearchTool struct {
	web *Accessor
}

// NewSearchTool wraps an accessor as the search_web tool.
func NewSearchTool(web *Accessor) *SearchTool {
	return &SearchTool{web: web}
}

func (s *SearchTool) Name() string {
	return "search_web"
}

func (s *SearchTool) Description() string {
	return "Search the web for information. Use this tool when you need to find " +
		"current information, news, articles, documentation, or any external knowledge. " +
		"Returns a list of search results with titles, URLs, and brief snippets. " +
		"Each result provides enough context to decide if you should fetch the full page."
}

func (s *SearchTool) Parameters() tools.Schema {
	return tools.ObjectSchema(map[string]tools.Property{
		"query": {
			Type:        "string",
			Description: "The search query. Be specific and use relevant keywords.",
		},
		"max_results": {
			Type:        "integer",
			Description: "Maximum number of results to return (default: 5, max: 10)",
			Default:     5,
			Minimum:     f64(1),
			Maximum:     f64(10),
		},
	}, "query")
}

func (s *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var in struct {
		Query      string `mapstructure:"query"`
		MaxResults int    `mapstructure:"max_results"`
	}
	if _, ok := args["query"]; !ok {
		return "", fmt.Errorf("missing 'query' parameter")
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	if in.MaxResults == 0 {
		in.MaxResults = 5
	}
	in.MaxResults = min(max(in.MaxResults, 1), 10)

	results, err := s.web.Search(ctx, in.Query, in.MaxResults)
	if err != nil {
		return "", fmt.Errorf("failed to search for %q: %w", in.Query, err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %s", in.Query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", in.Query)
	for i, result := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, result.Title)
		fmt.Fprintf(&b, "   URL: %s\n", result.URL)
		fmt.Fprintf(&b, "   Snippet: %s\n\n", result.Snippet)
	}
	return b.String(), nil
}

// FetchTool lets a model read a page it discovered, as clean text or
// markdown, truncated to fit alongside the rest of the conversation.
type FetchTool struct {
	web *Accessor
}

// NewFetchTool wraps an accessor as the fetch_page tool.
func NewFetchTool(web *Accessor) *FetchTool {
	return &FetchTool{web: web}
}

func (f *FetchTool) Name() string {
	return "fetch_page"
}

func (f *FetchTool) Description() string {
	return "Fetch and return the full content of a web page. Use this tool when you need " +
		"to read the complete text of a specific URL, such as an article, documentation, " +
		"or blog post. The content is returned as clean text suitable for analysis. " +
		"Note: Content may be truncated if very long to fit within context limits."
}

func (f *FetchTool) Parameters() tools.Schema {
	return tools.ObjectSchema(map[string]tools.Property{
		"url": {
			Type:        "string",
			Description: "The full URL of the web page to fetch. Must be a valid HTTP/HTTPS URL.",
		},
		"format": {
			Type:        "string",
			Description: "Output format: 'text' for plain text, 'markdown' for formatted markdown (default: text)",
			Enum:        []string{FormatText, FormatMarkdown},
			Default:     FormatText,
		},
	}, "url")
}

func (f *FetchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var in struct {
		URL    string `mapstructure:"url"`
		Format string `mapstructure:"format"`
	}
	if _, ok := args["url"]; !ok {
		return "", fmt.Errorf("missing 'url' parameter")
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	if in.Format != FormatText && in.Format != FormatMarkdown {
		in.Format = FormatText
	}

	content, err := f.web.Fetch(ctx, in.URL, in.Format)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", in.URL, err)
	}
	return truncateContent(content, maxToolContent), nil
}

// truncateContent cuts content at limit characters and appends a notice so
// the model knows the page continues.
func truncateContent(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + fmt.Sprintf("\n\n[Content truncated to %d characters]", limit)
}

// RegisterTools adds search_web and fetch_page to a registry, backed by the
// given accessor.
func RegisterTools(registry *tools.Registry, web *Accessor) {
	registry.Register(NewSearchTool(web))
	registry.Register(NewFetchTool(web))
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func f64(v float64) *float64 { return &v }
