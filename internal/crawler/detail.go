package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/catalogcrawl/internal/config"
	"github.com/nao1215/catalogcrawl/internal/fetch"
	"github.com/nao1215/catalogcrawl/internal/log"
	"github.com/nao1215/catalogcrawl/internal/model"
)

// Labels located on product detail pages.
const (
	labelDescription = "Description"
	labelJobLevels   = "Job levels"
	labelLanguages   = "Languages"
	phraseDuration   = "Approximate Completion Time in minutes"
	phraseTestType   = "Test Type:"
)

var digitsRegex = regexp.MustCompile(`\d+`)

// DetailParser turns a product detail page into an Assessment.
// Every field is extracted independently; a missing section leaves that
// field at its zero value.
type DetailParser struct {
	fetcher PageFetcher
	delay   time.Duration
	logger  *slog.Logger
}

// DetailOption configures a DetailParser.
type DetailOption func(*DetailParser)

// WithDetailDelay sets the politeness delay after each detail page.
func WithDetailDelay(d time.Duration) DetailOption {
	return func(p *DetailParser) {
		p.delay = d
	}
}

// WithDetailLogger sets the logger.
func WithDetailLogger(logger *slog.Logger) DetailOption {
	return func(p *DetailParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewDetailParser creates a DetailParser that fetches pages with fetcher.
func NewDetailParser(fetcher PageFetcher, opts ...DetailOption) *DetailParser {
	p := &DetailParser{
		fetcher: fetcher,
		delay:   config.DefaultDetailDelay,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse fetches pageURL and extracts its Assessment.
// A fetch failure returns an error matching fetch.ErrUnavailable; the
// caller should skip the URL.
func (p *DetailParser) Parse(ctx context.Context, pageURL string) (*model.Assessment, error) {
	body, err := p.fetcher.Fetch(ctx, pageURL, nil, fetch.WithPoliteness(p.delay))
	if err != nil {
		return nil, err
	}

	a, err := ParseDetail(strings.NewReader(body), pageURL)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("parsed detail page",
		"url", pageURL,
		"name", a.Name,
		"duration", a.Duration(),
		"test_type", a.TestType,
	)
	return a, nil
}

// ParseDetail extracts an Assessment from detail page markup.
// pageURL becomes the record's URL. The only error is unparseable markup;
// missing sections are not errors.
func ParseDetail(content io.Reader, pageURL string) (*model.Assessment, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, fmt.Errorf("parse detail page %s: %w", pageURL, err)
	}

	headings := doc.Find("h3, h4")

	return &model.Assessment{
		Name:            extractName(doc),
		URL:             pageURL,
		Description:     labelledParagraph(headings, labelDescription),
		JobLevels:       labelledParagraph(headings, labelJobLevels),
		Languages:       labelledParagraph(headings, labelLanguages),
		DurationMinutes: extractDuration(doc.Nodes[0]),
		TestType:        extractTestType(doc.Nodes[0]),
	}, nil
}

// extractName returns the text of the first h1.
func extractName(doc *goquery.Document) string {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return ""
	}
	return cleanText(joinedText(h1.Nodes[0], ""))
}

// labelledParagraph finds the first heading whose text contains label and
// returns the text of the next paragraph after it in document order.
func labelledParagraph(headings *goquery.Selection, label string) string {
	var heading *html.Node
	headings.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(rawText(s.Nodes[0]), label) {
			heading = s.Nodes[0]
			return false
		}
		return true
	})
	if heading == nil {
		return ""
	}

	p := findNextElement(heading, "p")
	if p == nil {
		return ""
	}
	return cleanText(joinedText(p, " "))
}

// extractDuration reads the first number from the text node carrying the
// completion time phrase. It returns nil when the phrase or a number is missing.
func extractDuration(root *html.Node) *int {
	node := findTextNode(root, phraseDuration)
	if node == nil {
		return nil
	}
	m := digitsRegex.FindString(node.Data)
	if m == "" {
		return nil
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &minutes
}

// extractTestType returns what follows the last "Test Type:" label in the
// first text node containing it, with whitespace and colons trimmed.
func extractTestType(root *html.Node) string {
	node := findTextNode(root, phraseTestType)
	if node == nil {
		return ""
	}
	text := node.Data
	after := text[strings.LastIndex(text, phraseTestType)+len(phraseTestType):]
	after = strings.Trim(strings.TrimSpace(after), ":")
	return cleanText(after)
}
