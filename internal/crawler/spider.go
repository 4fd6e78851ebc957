package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/catalogcrawl/internal/config"
	"github.com/nao1215/catalogcrawl/internal/fetch"
	"github.com/nao1215/catalogcrawl/internal/log"
	"github.com/nao1215/catalogcrawl/internal/model"
)

// PageFetcher retrieves page content. *fetch.Fetcher implements it; tests
// supply synthetic pages.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, params url.Values, opts ...fetch.CallOption) (string, error)
}

// Spider walks the paginated catalog and accumulates detail links.
//
// Pages are requested one after another with increasing offsets. The crawl
// stops at the page limit, at the first page that adds no new links, or when
// a page cannot be fetched.
type Spider struct {
	fetcher   PageFetcher
	extractor *LinkExtractor

	// catalogURL is the listing URL without pagination parameters.
	catalogURL string

	// viewType is sent as the "type" parameter.
	viewType string

	// pageSize is the offset step between pages.
	pageSize int

	// delay is the politeness delay after each catalog page.
	delay time.Duration

	// catalogRetries is the number of extra tries for an unavailable page.
	catalogRetries int

	// catalogRetryDelay is the wait before each extra try.
	catalogRetryDelay time.Duration

	// policy filters catalog pages. nil allows everything.
	policy model.URLPolicy

	logger *slog.Logger

	// sleep waits for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithCatalogURL sets the catalog listing URL.
func WithCatalogURL(u string) SpiderOption {
	return func(s *Spider) {
		s.catalogURL = u
	}
}

// WithViewType sets the catalog view selected by the "type" parameter.
func WithViewType(v string) SpiderOption {
	return func(s *Spider) {
		s.viewType = v
	}
}

// WithPageSize sets the number of products per catalog page.
func WithPageSize(n int) SpiderOption {
	return func(s *Spider) {
		s.pageSize = n
	}
}

// WithDelay sets the politeness delay after each catalog page.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithCatalogRetries re-requests an unavailable catalog page up to n more
// times, waiting d before each try, before the crawl gives up.
func WithCatalogRetries(n int, d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.catalogRetries = n
		s.catalogRetryDelay = d
	}
}

// WithURLPolicy skips catalog pages the policy disallows.
func WithURLPolicy(p model.URLPolicy) SpiderOption {
	return func(s *Spider) {
		s.policy = p
	}
}

// WithLogger sets the logger for crawl progress.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider with the default catalog settings.
func NewSpider(fetcher PageFetcher, extractor *LinkExtractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:           fetcher,
		extractor:         extractor,
		catalogURL:        config.DefaultBaseURL + config.DefaultCatalogPath,
		viewType:          config.DefaultViewType,
		pageSize:          config.DefaultPageSize,
		delay:             config.DefaultCatalogDelay,
		catalogRetryDelay: config.DefaultCatalogRetryDelay,
		logger:            log.Discard(),
		sleep:             sleepContext,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CrawlResult describes how a crawl ended.
type CrawlResult struct {
	// Links is the table passed to Crawl, now holding every discovered link.
	Links *model.LinkTable

	// PagesFetched counts catalog pages that were fetched successfully.
	PagesFetched int

	// StopReason says why pagination ended.
	StopReason model.StopReason
}

// Crawl requests up to maxPages catalog pages and merges their links into
// table, which may already hold links from an earlier crawl. The table is
// returned in the result.
//
// Fetch failures never produce an error; they end the crawl with
// StopCatalogUnavailable. The only error is ctx's, returned together with
// the links gathered so far.
func (s *Spider) Crawl(ctx context.Context, table *model.LinkTable, maxPages int) (*CrawlResult, error) {
	if table == nil {
		table = model.NewLinkTable()
	}
	result := &CrawlResult{Links: table, StopReason: model.StopMaxPages}

	for pageIndex := range maxPages {
		offset := pageIndex * s.pageSize
		params := s.pageParams(offset)

		if !s.allowed(params) {
			s.logger.Warn("catalog page disallowed by robots.txt", "page", pageIndex, "offset", offset)
			result.StopReason = model.StopRobotsDisallowed
			return result, nil
		}

		s.logger.Info("fetching catalog page", "page", pageIndex, "offset", offset, "params", params.Encode())

		body, err := s.fetchPage(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				result.StopReason = model.StopCancelled
				return result, ctx.Err()
			}
			s.logger.Warn("catalog page unavailable, stopping crawl", "page", pageIndex, "error", err)
			result.StopReason = model.StopCatalogUnavailable
			return result, nil
		}
		result.PagesFetched++

		links, err := s.extractor.Extract(strings.NewReader(body))
		if err != nil {
			s.logger.Warn("catalog page unparseable, stopping crawl", "page", pageIndex, "error", err)
			result.StopReason = model.StopCatalogUnavailable
			return result, nil
		}

		added := table.Merge(links)
		s.logger.Info("catalog page processed", "page", pageIndex, "links", len(links), "new", added)

		if added == 0 {
			s.logger.Info("no new links on page, stopping crawl", "page", pageIndex)
			result.StopReason = model.StopNoNewLinks
			return result, nil
		}
	}

	s.logger.Info("catalog crawl finished", "links", table.Len(), "pages", result.PagesFetched)
	return result, nil
}

// fetchPage fetches one catalog page, retrying the whole fetch when
// catalog retries are configured.
func (s *Spider) fetchPage(ctx context.Context, params url.Values) (string, error) {
	var lastErr error
	for try := 0; try <= s.catalogRetries; try++ {
		if try > 0 {
			s.logger.Warn("retrying catalog page", "try", try, "of", s.catalogRetries, "wait", s.catalogRetryDelay)
			if err := s.sleep(ctx, s.catalogRetryDelay); err != nil {
				return "", err
			}
		}

		body, err := s.fetcher.Fetch(ctx, s.catalogURL, params, fetch.WithPoliteness(s.delay))
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, fetch.ErrUnavailable) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// pageParams builds the query for the page at offset. The first page
// carries no "start" parameter.
func (s *Spider) pageParams(offset int) url.Values {
	params := url.Values{"type": {s.viewType}}
	if offset > 0 {
		params.Set("start", strconv.Itoa(offset))
	}
	return params
}

// allowed checks the full page URL against the policy.
func (s *Spider) allowed(params url.Values) bool {
	if s.policy == nil {
		return true
	}
	return s.policy.Allowed(fmt.Sprintf("%s?%s", s.catalogURL, params.Encode()))
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
