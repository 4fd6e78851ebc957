package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/nao1215/catalogcrawl/internal/config"
	"github.com/nao1215/catalogcrawl/internal/log"
)

// Fetcher retrieves pages with bounded retries and politeness delays.
// It is safe for concurrent use; the optional rate limiter is shared by
// all callers.
type Fetcher struct {
	// client performs the HTTP requests. Its own retry mechanism is left
	// disabled because it only offers backoff with jitter, and the wait
	// between attempts here must be fixed.
	client *resty.Client

	// maxAttempts is the total number of requests per call, including the first.
	maxAttempts int

	// retryDelay is the wait after a failed attempt when another one follows.
	retryDelay time.Duration

	// delay is the politeness delay after a success, unless overridden per call.
	delay time.Duration

	// limiter caps the request rate. nil means unlimited.
	limiter *rate.Limiter

	logger *slog.Logger

	// sleep waits for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error

	requests atomic.Int64
	failures atomic.Int64
	gaveUp   atomic.Int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.SetTimeout(d)
	}
}

// WithMaxAttempts sets the total number of attempts per URL.
// Values below 1 are treated as 1.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		f.maxAttempts = max(n, 1)
	}
}

// WithRetryDelay sets the wait between failed attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelay = d
	}
}

// WithDelay sets the default politeness delay after a successful fetch.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.delay = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.client.SetHeader("User-Agent", ua)
	}
}

// WithHeaders adds extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.client.SetHeaders(headers)
	}
}

// WithCookie sets a Cookie header sent with every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		if cookie != "" {
			f.client.SetHeader("Cookie", cookie)
		}
	}
}

// WithRateLimit caps requests per second across all callers.
// rps <= 0 leaves the Fetcher unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithLogger sets the logger for attempt failures and request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher with the default timeout, attempts, delays and
// User-Agent from the config package, then applies opts.
func New(opts ...Option) *Fetcher {
	client := resty.New()
	client.SetTimeout(config.DefaultTimeout)
	client.SetHeader("User-Agent", config.DefaultUserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	f := &Fetcher{
		client:      client,
		maxAttempts: config.DefaultMaxAttempts,
		retryDelay:  config.DefaultRetryDelay,
		delay:       config.DefaultCatalogDelay,
		logger:      log.Discard(),
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(f)
	}

	f.client.SetLogger(newRestyLogger(f.logger))
	f.client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if f.limiter == nil {
			return nil
		}
		return f.limiter.Wait(req.Context())
	})

	return f
}

// NewFromConfig creates a Fetcher from the fetch settings in cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Fetcher {
	return New(
		WithTimeout(cfg.Timeout),
		WithMaxAttempts(cfg.MaxAttempts),
		WithRetryDelay(cfg.RetryDelay),
		WithDelay(cfg.CatalogDelay),
		WithUserAgent(cfg.UserAgent),
		WithHeaders(cfg.Headers),
		WithCookie(cfg.Cookie),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		WithLogger(logger),
	)
}

// CallOption adjusts a single Fetch call.
type CallOption func(*callOptions)

type callOptions struct {
	delay time.Duration
}

// WithPoliteness overrides the politeness delay for one call.
func WithPoliteness(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.delay = d
	}
}

// Fetch requests rawURL with params as query parameters and returns the
// response body as text.
//
// A transport error or a non-200 status is a failed attempt. After a failed
// attempt the Fetcher waits the retry delay if another attempt follows.
// After a success it waits the politeness delay before returning. When every
// attempt fails the returned error matches ErrUnavailable.
//
// Cancelling ctx aborts the current request or wait and returns ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, params url.Values, opts ...CallOption) (string, error) {
	co := callOptions{delay: f.delay}
	for _, opt := range opts {
		opt(&co)
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := f.get(ctx, rawURL, params)
		if err == nil {
			if err := f.sleep(ctx, co.delay); err != nil {
				return "", err
			}
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		f.failures.Add(1)
		f.logFailure(rawURL, attempt, err)

		if attempt < f.maxAttempts {
			if err := f.sleep(ctx, f.retryDelay); err != nil {
				return "", err
			}
		}
	}

	f.gaveUp.Add(1)
	return "", &FetchError{URL: rawURL, Attempts: f.maxAttempts, Err: lastErr}
}

// FetchOnce performs a single request without retries or delays and returns
// the status code and body whatever the status. It is used for resources
// like robots.txt where the status itself carries meaning.
func (f *Fetcher) FetchOnce(ctx context.Context, rawURL string) (int, []byte, error) {
	f.requests.Add(1)
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return resp.StatusCode(), resp.Body(), nil
}

// get performs one attempt.
func (f *Fetcher) get(ctx context.Context, rawURL string, params url.Values) (string, error) {
	f.requests.Add(1)

	req := f.client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}

	f.logger.Debug("requesting page", "url", rawURL, "params", params.Encode())

	resp, err := req.Get(rawURL)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode()}
	}
	return resp.String(), nil
}

// logFailure records a failed attempt. Status failures are expected from
// time to time and log at warn; transport failures log at error.
func (f *Fetcher) logFailure(rawURL string, attempt int, err error) {
	attrs := []any{
		"url", rawURL,
		"attempt", fmt.Sprintf("%d/%d", attempt, f.maxAttempts),
		"error", err,
	}
	if _, ok := err.(*StatusError); ok {
		f.logger.Warn("fetch attempt failed", attrs...)
		return
	}
	f.logger.Error("fetch attempt failed", attrs...)
}

// Stats returns request counters since the Fetcher was created.
func (f *Fetcher) Stats() Stats {
	return Stats{
		Requests: f.requests.Load(),
		Failures: f.failures.Load(),
		GaveUp:   f.gaveUp.Load(),
	}
}

// Stats counts requests made by a Fetcher.
type Stats struct {
	// Requests is the number of HTTP requests sent.
	Requests int64

	// Failures is the number of failed attempts.
	Failures int64

	// GaveUp is the number of URLs that failed every attempt.
	GaveUp int64
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
