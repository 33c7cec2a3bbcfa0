package web

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// strippedElements never contribute to text or markdown output: executable
// content and page chrome.
var strippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"header": true,
}

// HTMLTitle extracts the document title, or "" when there is none.
func HTMLTitle(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(nodeText(n))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return title
}

// HTMLToText renders HTML as plain text: tags dropped, stripped elements
// removed, one line per text fragment with surrounding whitespace trimmed
// and empty fragments discarded.
func HTMLToText(src string) string {
	if src == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(collapseSpace(n.Data)); text != "" {
				lines = append(lines, text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return strings.Join(lines, "\n")
}

// HTMLToMarkdown renders HTML as markdown, keeping links and images. The
// translation covers the structural subset that matters for reading a page:
// headings, paragraphs, lists, emphasis, code and blockquotes. Unhandled
// elements contribute their text content.
func HTMLToMarkdown(src string) string {
	if src == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var b strings.Builder
	renderMarkdown(doc, &b, mdState{})

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

type mdState struct {
	listDepth int
	ordered   bool
	itemIndex int
}

func renderMarkdown(n *html.Node, b *strings.Builder, state mdState) {
	if n.Type == html.TextNode {
		b.WriteString(collapseSpace(n.Data))
		return
	}
	if n.Type != html.ElementNode && n.Type != html.DocumentNode {
		return
	}
	if n.Type == html.ElementNode && strippedElements[n.Data] {
		return
	}

	switch n.Data {
	case "head":
		return

	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		b.WriteString(strings.TrimSpace(inlineMarkdown(n)))
		b.WriteString("\n\n")

	case "p", "div", "section", "article":
		b.WriteString("\n\n")
		renderChildren(n, b, state)
		b.WriteString("\n\n")

	case "br":
		b.WriteString("\n")

	case "hr":
		b.WriteString("\n\n---\n\n")

	case "a":
		text := strings.TrimSpace(inlineMarkdown(n))
		href := attrValue(n, "href")
		switch {
		case text == "":
			// nothing to link
		case href == "":
			b.WriteString(text)
		default:
			fmt.Fprintf(b, "[%s](%s)", text, href)
		}

	case "img":
		fmt.Fprintf(b, "![%s](%s)", attrValue(n, "alt"), attrValue(n, "src"))

	case "strong", "b":
		if text := strings.TrimSpace(inlineMarkdown(n)); text != "" {
			b.WriteString("**" + text + "**")
		}

	case "em", "i":
		if text := strings.TrimSpace(inlineMarkdown(n)); text != "" {
			b.WriteString("*" + text + "*")
		}

	case "code":
		if text := strings.TrimSpace(rawText(n)); text != "" {
			b.WriteString("`" + text + "`")
		}

	case "pre":
		b.WriteString("\n\n```\n")
		b.WriteString(strings.Trim(rawText(n), "\n"))
		b.WriteString("\n```\n\n")

	case "blockquote":
		text := strings.TrimSpace(inlineMarkdown(n))
		for _, line := range strings.Split(text, "\n") {
			b.WriteString("\n> " + line)
		}
		b.WriteString("\n\n")

	case "ul":
		b.WriteString("\n")
		renderChildren(n, b, mdState{listDepth: state.listDepth + 1})
		b.WriteString("\n")

	case "ol":
		b.WriteString("\n")
		renderChildren(n, b, mdState{listDepth: state.listDepth + 1, ordered: true})
		b.WriteString("\n")

	case "li":
		indent := strings.Repeat("  ", max(state.listDepth-1, 0))
		if state.ordered {
			fmt.Fprintf(b, "%s%d. ", indent, state.itemIndex)
		} else {
			b.WriteString(indent + "- ")
		}
		b.WriteString(strings.TrimSpace(inlineMarkdown(n)))
		b.WriteString("\n")

	default:
		renderChildren(n, b, state)
	}
}

func renderChildren(n *html.Node, b *strings.Builder, state mdState) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if state.ordered && child.Type == html.ElementNode && child.Data == "li" {
			state.itemIndex++
		}
		renderMarkdown(child, b, state)
	}
}

// inlineMarkdown renders n's children for use inside a single markdown
// construct (heading text, list item, link label).
func inlineMarkdown(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderMarkdown(child, &b, mdState{})
	}
	return b.String()
}

// rawText gathers text content without whitespace collapsing, for code
// blocks.
func rawText(n *html.Node) string {
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

// collapseSpace folds whitespace runs into single spaces while keeping word
// boundaries at the fragment's edges, so inline markup does not glue
// adjacent words together.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if first, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(first) {
		out = " " + out
	}
	if last, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(last) {
		out += " "
	}
	return out
}
