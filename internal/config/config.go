package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Politeness and retry values reproduce the request pattern the catalog site
// has tolerated so far; change them only with care.
const (
	// DefaultBaseURL is the catalog site's domain. Relative product links are
	// resolved against it.
	DefaultBaseURL = "https://www.shl.com"

	// DefaultCatalogPath is the path of the paginated catalog listing.
	DefaultCatalogPath = "/products/product-catalog/"

	// DefaultDetailMarker is the path segment every product detail URL contains.
	DefaultDetailMarker = "/products/product-catalog/view/"

	// DefaultViewType selects the "individual test solutions" catalog view.
	DefaultViewType = "1"

	// DefaultPageSize is the number of products per catalog page.
	// Offsets advance by this amount.
	DefaultPageSize = 12

	// DefaultMaxPages bounds pagination. The catalog normally runs out of new
	// links well before this.
	DefaultMaxPages = 50

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxAttempts is the total number of attempts per URL, including the first.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the wait between failed attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultCatalogDelay is the politeness delay after a successful catalog page fetch.
	DefaultCatalogDelay = 1 * time.Second

	// DefaultDetailDelay is the politeness delay after a successful detail page fetch.
	DefaultDetailDelay = 800 * time.Millisecond

	// DefaultCatalogRetryDelay is the wait before re-requesting a catalog page
	// that failed all fetch attempts. Only used when CatalogRetries > 0.
	DefaultCatalogRetryDelay = 30 * time.Second

	// DefaultUserAgent identifies requests as a desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// DefaultConcurrency keeps detail fetching strictly sequential.
	DefaultConcurrency = 1

	// DefaultOutputFile is where the dataset is written.
	DefaultOutputFile = "shl_individual_tests.csv"

	// AppName is the application name used for XDG directory paths.
	AppName = "catalogcrawl"
)

// Config holds all configuration options for catalogcrawl.
// It is populated from defaults, then the optional config file, then CLI
// flags, and passed explicitly to the components that need it.
type Config struct {
	// BaseURL is the catalog site's scheme and host, e.g. "https://www.shl.com".
	BaseURL string

	// CatalogPath is the path of the catalog listing relative to BaseURL.
	CatalogPath string

	// DetailMarker is the path segment that identifies product detail links.
	DetailMarker string

	// ViewType is the value of the "type" query parameter on catalog pages.
	ViewType string

	// PageSize is the number of products per catalog page, i.e. the offset step.
	PageSize int

	// MaxPages is the maximum number of catalog pages to request.
	MaxPages int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxAttempts is the total number of fetch attempts per URL.
	MaxAttempts int

	// RetryDelay is the wait between failed fetch attempts.
	RetryDelay time.Duration

	// CatalogDelay is the politeness delay after each catalog page.
	CatalogDelay time.Duration

	// DetailDelay is the politeness delay after each detail page.
	DetailDelay time.Duration

	// CatalogRetries is how many extra times an unavailable catalog page is
	// re-requested before pagination gives up. 0 stops immediately.
	CatalogRetries int

	// CatalogRetryDelay is the wait before each catalog retry.
	CatalogRetryDelay time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Cookie is an optional Cookie header sent with every request.
	Cookie string

	// Headers are extra request headers.
	Headers map[string]string

	// RateLimit caps requests per second across all workers. 0 disables it.
	RateLimit float64

	// RateBurst is the rate limiter's burst size. Values below 1 are treated as 1.
	RateBurst int

	// Concurrency is the number of detail pages fetched in parallel.
	// 1 keeps the crawl strictly sequential.
	Concurrency int

	// RespectRobots skips URLs disallowed by the site's robots.txt.
	RespectRobots bool

	// OutputFile is the dataset output path.
	OutputFile string

	// Format is the dataset format ("csv", "json", "xlsx").
	// Empty means infer from OutputFile's extension.
	Format string

	// SummaryFile is an optional path for a Markdown run summary.
	SummaryFile string

	// SaveToDB records the run in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// Quiet limits logging to warnings and errors.
	Quiet bool

	// JSONLog switches log output to JSON lines.
	JSONLog bool

	// ConfigFilePath is the path of the config file given on the command line.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		CatalogPath:       DefaultCatalogPath,
		DetailMarker:      DefaultDetailMarker,
		ViewType:          DefaultViewType,
		PageSize:          DefaultPageSize,
		MaxPages:          DefaultMaxPages,
		Timeout:           DefaultTimeout,
		MaxAttempts:       DefaultMaxAttempts,
		RetryDelay:        DefaultRetryDelay,
		CatalogDelay:      DefaultCatalogDelay,
		DetailDelay:       DefaultDetailDelay,
		CatalogRetryDelay: DefaultCatalogRetryDelay,
		UserAgent:         DefaultUserAgent,
		Headers:           make(map[string]string),
		RateBurst:         1,
		Concurrency:       DefaultConcurrency,
		OutputFile:        DefaultOutputFile,
		DBDir:             XDGDataDir(),
	}
}

// CatalogURL returns the absolute URL of the catalog listing.
func (c *Config) CatalogURL() string {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL + c.CatalogPath
	}
	ref, err := url.Parse(c.CatalogPath)
	if err != nil {
		return c.BaseURL + c.CatalogPath
	}
	return base.ResolveReference(ref).String()
}

// XDGDataDir returns the XDG data directory for catalogcrawl.
// On Linux: ~/.local/share/catalogcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for catalogcrawl.
// On Linux: ~/.config/catalogcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package's sentinel errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.DetailMarker == "" {
		return ErrNoDetailMarker
	}

	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.RetryDelay < 0 || c.CatalogDelay < 0 || c.DetailDelay < 0 || c.CatalogRetryDelay < 0 {
		return ErrInvalidDelay
	}

	if c.CatalogRetries < 0 {
		return ErrInvalidCatalogRetries
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.OutputFile == "" {
		return ErrNoOutput
	}

	if c.Verbose && c.Quiet {
		return ErrConflictingLogLevels
	}

	return nil
}
