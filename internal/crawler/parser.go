package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// LinkExtractor finds product detail links on a catalog listing page.
type LinkExtractor struct {
	// baseURL is the site's domain, used for resolving relative links.
	baseURL *url.URL

	// marker is the path segment every detail link contains.
	marker string
}

// NewLinkExtractor creates a LinkExtractor that keeps anchors whose href
// contains marker and resolves them against baseURL.
func NewLinkExtractor(baseURL, marker string) (*LinkExtractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if marker == "" {
		return nil, fmt.Errorf("detail marker must not be empty")
	}
	return &LinkExtractor{baseURL: u, marker: marker}, nil
}

// Extract parses a catalog page and returns its detail links in the order
// their URLs first appear.
//
// When several anchors point at the same URL, the URL keeps the position of
// its first anchor and the name of its last one. Anchors without visible text
// and hrefs that cannot be resolved are dropped. A page without qualifying
// anchors yields an empty, non-nil slice.
func (e *LinkExtractor) Extract(content io.Reader) ([]model.Link, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, fmt.Errorf("parse catalog page: %w", err)
	}

	order := make([]string, 0)
	names := make(map[string]string)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, e.marker) {
			return
		}

		resolved := e.resolveURL(href)
		if resolved == "" {
			return
		}

		name := cleanText(joinedText(a.Nodes[0], ""))
		if name == "" {
			return
		}

		if _, seen := names[resolved]; !seen {
			order = append(order, resolved)
		}
		names[resolved] = name
	})

	links := make([]model.Link, 0, len(order))
	for _, u := range order {
		links = append(links, model.Link{Name: names[u], URL: u})
	}
	return links, nil
}

// resolveURL resolves href against the base URL.
// It returns an empty string for hrefs that are not navigable pages.
func (e *LinkExtractor) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return e.baseURL.ResolveReference(u).String()
}
