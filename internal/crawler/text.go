package crawler

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// joinedText returns the text under n with every text fragment trimmed,
// empty fragments dropped, and the rest joined with sep.
func joinedText(n *html.Node, sep string) string {
	parts := make([]string, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}

// rawText returns the untrimmed text under n.
func rawText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// cleanText applies compatibility normalization so that non-breaking
// spaces and similar characters compare and trim like their plain forms.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// nextInDocument returns the node after n in document order, descending
// into n's children first.
func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// findNextElement returns the first element named tag after n in document
// order, or nil.
func findNextElement(n *html.Node, tag string) *html.Node {
	for c := nextInDocument(n); c != nil; c = nextInDocument(c) {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// findTextNode returns the first text node under root whose content
// contains phrase, or nil.
func findTextNode(root *html.Node, phrase string) *html.Node {
	for c := root; c != nil; c = nextInDocument(c) {
		if c.Type == html.TextNode && strings.Contains(c.Data, phrase) {
			return c
		}
	}
	return nil
}
