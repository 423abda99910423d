package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// skipped elements never contribute to the extracted text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "header": true, "footer": true, "aside": true, "form": true,
	"svg": true, "button": true, "template": true,
}

// block elements end a line of text
var block = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
	"tr": true, "td": true, "th": true, "table": true, "br": true, "figcaption": true,
}

// MainText extracts readable body text from an HTML page.
// When the page has an <article> or <main> element, only its text is used.
// Block elements are separated by newlines; runs of whitespace inside a line are collapsed.
func MainText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	root := findContentRoot(doc)
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	walkText(root, &buf)

	return normalizeLines(buf.String()), nil
}

// findContentRoot returns the first <article>, else the first <main>, else nil
func findContentRoot(doc *html.Node) *html.Node {
	for _, tag := range []string{"article", "main"} {
		if n := findElement(doc, tag); n != nil {
			return n
		}
	}
	return nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// walkText writes visible text nodes, skipping non-content elements
func walkText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode && skipped[n.Data] {
		return
	}
	if n.Type == html.CommentNode {
		return
	}

	if n.Type == html.TextNode {
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			buf.WriteString(text)
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, buf)
	}

	if n.Type == html.ElementNode && block[n.Data] {
		buf.WriteString("\n")
	}
}

// normalizeLines collapses whitespace within lines and drops empty lines
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
