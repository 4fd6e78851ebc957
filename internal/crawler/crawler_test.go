package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/catalogcrawl/internal/fetch"
	"github.com/nao1215/catalogcrawl/internal/log"
	"github.com/nao1215/catalogcrawl/internal/model"
)

const (
	testBase   = "https://www.shl.com"
	testMarker = "/products/product-catalog/view/"
)

// fakeFetcher serves synthetic catalog pages keyed by the "start" parameter
// and detail pages keyed by URL.
type fakeFetcher struct {
	mu       sync.Mutex
	catalog  map[string]string // start value ("" for the first page) -> body
	details  map[string]string
	failures map[string]int // start value -> remaining failures
	calls    []url.Values
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string, params url.Values, _ ...fetch.CallOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.calls = append(f.calls, params)

	if body, ok := f.details[rawURL]; ok {
		return body, nil
	}

	start := params.Get("start")
	if f.failures[start] > 0 {
		f.failures[start]--
		return "", &fetch.FetchError{URL: rawURL, Attempts: 3, Err: &fetch.StatusError{StatusCode: 503}}
	}
	if body, ok := f.catalog[start]; ok {
		return body, nil
	}
	return "", &fetch.FetchError{URL: rawURL, Attempts: 3, Err: &fetch.StatusError{StatusCode: 404}}
}

func newTestExtractor(t *testing.T) *LinkExtractor {
	t.Helper()
	e, err := NewLinkExtractor(testBase, testMarker)
	if err != nil {
		t.Fatalf("NewLinkExtractor: %v", err)
	}
	return e
}

func catalogPage(slugs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	for _, s := range slugs {
		fmt.Fprintf(&b, `<tr><td><a href="%s%s/">%s test</a></td></tr>`, testMarker, s, s)
	}
	b.WriteString(`</table><a href="/about/">About</a></body></html>`)
	return b.String()
}

// TestLinkExtractor tests link extraction from catalog pages.
func TestLinkExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []model.Link
	}{
		{
			name: "relative links are resolved against the base domain",
			html: `<a href="/products/product-catalog/view/verify-numerical/">Verify Numerical</a>`,
			want: []model.Link{{Name: "Verify Numerical", URL: testBase + "/products/product-catalog/view/verify-numerical/"}},
		},
		{
			name: "absolute links are kept",
			html: `<a href="https://www.shl.com/products/product-catalog/view/java-8/">Java 8</a>`,
			want: []model.Link{{Name: "Java 8", URL: testBase + "/products/product-catalog/view/java-8/"}},
		},
		{
			name: "anchors without the marker are ignored",
			html: `<a href="/products/">Products</a><a href="/solutions/">Solutions</a>`,
			want: []model.Link{},
		},
		{
			name: "page without anchors yields an empty set",
			html: `<html><body><p>No results</p></body></html>`,
			want: []model.Link{},
		},
		{
			name: "anchors with empty text are dropped",
			html: `<a href="/products/product-catalog/view/a/">   </a><a href="/products/product-catalog/view/b/"><img src="x.png"></a>`,
			want: []model.Link{},
		},
		{
			name: "last name wins at the first position",
			html: `<a href="/products/product-catalog/view/a/">First A</a>` +
				`<a href="/products/product-catalog/view/b/">B</a>` +
				`<a href="/products/product-catalog/view/a/">Second A</a>`,
			want: []model.Link{
				{Name: "Second A", URL: testBase + "/products/product-catalog/view/a/"},
				{Name: "B", URL: testBase + "/products/product-catalog/view/b/"},
			},
		},
		{
			name: "nested text fragments are trimmed and joined",
			html: `<a href="/products/product-catalog/view/opq/"> <span>OPQ</span>
				<span>32r</span> </a>`,
			want: []model.Link{{Name: "OPQ32r", URL: testBase + "/products/product-catalog/view/opq/"}},
		},
		{
			name: "non-breaking spaces are normalized",
			html: `<a href="/products/product-catalog/view/x/">&nbsp;Excel&nbsp;365&nbsp;</a>`,
			want: []model.Link{{Name: "Excel 365", URL: testBase + "/products/product-catalog/view/x/"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestExtractor(t).Extract(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("links mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestNewLinkExtractorErrors tests constructor validation.
func TestNewLinkExtractorErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewLinkExtractor("://bad", testMarker); err == nil {
		t.Error("expected error for invalid base URL")
	}
	if _, err := NewLinkExtractor(testBase, ""); err == nil {
		t.Error("expected error for empty marker")
	}
}

// TestSpider_StopsWhenNoNewLinks covers a two-page catalog where the second
// page repeats the first.
func TestSpider_StopsWhenNoNewLinks(t *testing.T) {
	t.Parallel()

	page := catalogPage("a", "b", "c")
	f := &fakeFetcher{catalog: map[string]string{"": page, "12": page}}
	spider := NewSpider(f, newTestExtractor(t))

	result, err := spider.Crawl(t.Context(), model.NewLinkTable(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Links.Len() != 3 {
		t.Errorf("expected 3 links, got %d", result.Links.Len())
	}
	if result.StopReason != model.StopNoNewLinks {
		t.Errorf("expected stop reason %q, got %q", model.StopNoNewLinks, result.StopReason)
	}
	if result.PagesFetched != 2 {
		t.Errorf("expected 2 pages fetched, got %d", result.PagesFetched)
	}

	wantCalls := []url.Values{
		{"type": {"1"}},
		{"type": {"1"}, "start": {"12"}},
	}
	if diff := cmp.Diff(wantCalls, f.calls); diff != "" {
		t.Errorf("request params mismatch (-want +got):\n%s", diff)
	}
}

// TestSpider_EmptyPageStops tests that a page with zero anchors ends the crawl.
func TestSpider_EmptyPageStops(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{catalog: map[string]string{"": "<html><body></body></html>"}}
	result, err := NewSpider(f, newTestExtractor(t)).Crawl(t.Context(), model.NewLinkTable(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Links.Len() != 0 || result.StopReason != model.StopNoNewLinks {
		t.Errorf("unexpected result: %d links, %q", result.Links.Len(), result.StopReason)
	}
	if len(f.calls) != 1 {
		t.Errorf("expected 1 request, got %d", len(f.calls))
	}
}

// TestSpider_MaxPages tests that the page limit bounds the crawl.
func TestSpider_MaxPages(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{catalog: map[string]string{
		"":   catalogPage("a", "b"),
		"12": catalogPage("c", "d"),
		"24": catalogPage("e", "f"),
	}}
	result, err := NewSpider(f, newTestExtractor(t)).Crawl(t.Context(), model.NewLinkTable(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StopReason != model.StopMaxPages {
		t.Errorf("expected stop reason %q, got %q", model.StopMaxPages, result.StopReason)
	}

	want := []string{"a", "b", "c", "d"}
	got := make([]string, 0)
	for _, l := range result.Links.Links() {
		got = append(got, strings.TrimSuffix(strings.TrimPrefix(l.URL, testBase+testMarker), "/"))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discovery order mismatch (-want +got):\n%s", diff)
	}
}

// TestSpider_CatalogUnavailable tests that a failed page ends the crawl
// without an error.
func TestSpider_CatalogUnavailable(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{catalog: map[string]string{"": catalogPage("a")}}
	result, err := NewSpider(f, newTestExtractor(t)).Crawl(t.Context(), model.NewLinkTable(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StopReason != model.StopCatalogUnavailable {
		t.Errorf("expected stop reason %q, got %q", model.StopCatalogUnavailable, result.StopReason)
	}
	if result.Links.Len() != 1 {
		t.Errorf("expected links from the first page to be kept, got %d", result.Links.Len())
	}
}

// TestSpider_CatalogRetries tests that an unavailable page is retried when configured.
func TestSpider_CatalogRetries(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		catalog: map[string]string{
			"":   catalogPage("a"),
			"12": catalogPage("b"),
		},
		failures: map[string]int{"12": 1},
	}

	var waits []time.Duration
	spider := NewSpider(f, newTestExtractor(t), WithCatalogRetries(2, 30*time.Second))
	spider.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	result, err := spider.Crawl(t.Context(), model.NewLinkTable(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Links.Len() != 2 {
		t.Errorf("expected 2 links, got %d", result.Links.Len())
	}
	if diff := cmp.Diff([]time.Duration{30 * time.Second}, waits); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
}

// TestSpider_ResumesTable tests that links already in the table are not new.
func TestSpider_ResumesTable(t *testing.T) {
	t.Parallel()

	table := model.NewLinkTable()
	table.Add(model.Link{Name: "Existing", URL: testBase + testMarker + "a/"})

	f := &fakeFetcher{catalog: map[string]string{"": catalogPage("a")}}
	result, err := NewSpider(f, newTestExtractor(t)).Crawl(t.Context(), table, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StopReason != model.StopNoNewLinks {
		t.Errorf("expected stop reason %q, got %q", model.StopNoNewLinks, result.StopReason)
	}
	if name, _ := result.Links.Name(testBase + testMarker + "a/"); name != "Existing" {
		t.Errorf("expected existing name to be kept, got %q", name)
	}
}

// TestSpider_Cancelled tests that cancellation returns the context error.
func TestSpider_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	f := &fakeFetcher{catalog: map[string]string{"": catalogPage("a")}}
	result, err := NewSpider(f, newTestExtractor(t)).Crawl(ctx, model.NewLinkTable(), 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StopReason != model.StopCancelled {
		t.Errorf("expected stop reason %q, got %q", model.StopCancelled, result.StopReason)
	}
}

// TestSpider_RobotsDisallowed tests that a disallowed catalog is not fetched.
func TestSpider_RobotsDisallowed(t *testing.T) {
	t.Parallel()

	policy, err := NewRobotsPolicy([]byte("User-agent: *\nDisallow: /products/\n"), "catalogcrawl")
	if err != nil {
		t.Fatalf("NewRobotsPolicy: %v", err)
	}

	f := &fakeFetcher{catalog: map[string]string{"": catalogPage("a")}}
	result, err := NewSpider(f, newTestExtractor(t), WithURLPolicy(policy)).Crawl(t.Context(), nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StopReason != model.StopRobotsDisallowed {
		t.Errorf("expected stop reason %q, got %q", model.StopRobotsDisallowed, result.StopReason)
	}
	if len(f.calls) != 0 {
		t.Errorf("expected no requests, got %d", len(f.calls))
	}
}

// TestSpider_LogsProgress tests that page progress is logged.
func TestSpider_LogsProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.NewSecureLogger(&buf, log.LevelFor(false, false))

	f := &fakeFetcher{catalog: map[string]string{"": catalogPage("a", "b")}}
	if _, err := NewSpider(f, newTestExtractor(t), WithLogger(logger)).Crawl(t.Context(), nil, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"fetching catalog page", "new=2", "catalog crawl finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output: %s", want, out)
		}
	}
}

// TestSpider_WithRealFetcher runs the spider against an httptest catalog.
func TestSpider_WithRealFetcher(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/product-catalog/" || r.URL.Query().Get("type") != "1" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("start") {
		case "":
			_, _ = w.Write([]byte(catalogPage("a", "b", "c")))
		default:
			_, _ = w.Write([]byte(catalogPage("c")))
		}
	}))
	defer server.Close()

	f := fetch.New(fetch.WithDelay(0), fetch.WithRetryDelay(0))
	extractor, err := NewLinkExtractor(server.URL, testMarker)
	if err != nil {
		t.Fatalf("NewLinkExtractor: %v", err)
	}

	spider := NewSpider(f, extractor,
		WithCatalogURL(server.URL+"/products/product-catalog/"),
		WithDelay(0),
	)
	result, err := spider.Crawl(t.Context(), nil, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Links.Len() != 3 || result.StopReason != model.StopNoNewLinks {
		t.Errorf("unexpected result: %d links, %q", result.Links.Len(), result.StopReason)
	}
}

// TestSleepContext tests the spider's context-aware sleep.
func TestSleepContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := sleepContext(t.Context(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
