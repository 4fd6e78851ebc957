package config

import "time"

// File represents the structure of the .catalogcrawl configuration file.
// Zero values mean "not set" and leave the corresponding Config field alone.
type File struct {
	// Catalog describes where the catalog lives and how it paginates.
	Catalog CatalogSection `yaml:"catalog,omitempty"`

	// Fetch tunes request behaviour.
	Fetch FetchSection `yaml:"fetch,omitempty"`

	// Output selects where and how results are written.
	Output OutputSection `yaml:"output,omitempty"`

	// Concurrency is the number of detail pages fetched in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// RespectRobots enables robots.txt checks when set.
	RespectRobots *bool `yaml:"respect_robots,omitempty"`
}

// CatalogSection holds catalog location settings.
type CatalogSection struct {
	BaseURL      string `yaml:"base_url,omitempty"`
	Path         string `yaml:"path,omitempty"`
	DetailMarker string `yaml:"detail_marker,omitempty"`
	ViewType     string `yaml:"view_type,omitempty"`
	PageSize     int    `yaml:"page_size,omitempty"`
	MaxPages     int    `yaml:"max_pages,omitempty"`
}

// FetchSection holds request settings. Durations use Go syntax ("1s", "800ms").
type FetchSection struct {
	Timeout           time.Duration     `yaml:"timeout,omitempty"`
	MaxAttempts       int               `yaml:"max_attempts,omitempty"`
	RetryDelay        time.Duration     `yaml:"retry_delay,omitempty"`
	CatalogDelay      time.Duration     `yaml:"catalog_delay,omitempty"`
	DetailDelay       time.Duration     `yaml:"detail_delay,omitempty"`
	CatalogRetries    int               `yaml:"catalog_retries,omitempty"`
	CatalogRetryDelay time.Duration     `yaml:"catalog_retry_delay,omitempty"`
	UserAgent         string            `yaml:"user_agent,omitempty"`
	Cookie            string            `yaml:"cookie,omitempty"`
	Headers           map[string]string `yaml:"headers,omitempty"`
	RateLimit         float64           `yaml:"rate_limit,omitempty"`
	RateBurst         int               `yaml:"rate_burst,omitempty"`
}

// OutputSection holds output settings.
type OutputSection struct {
	File    string `yaml:"file,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Summary string `yaml:"summary,omitempty"`
}

// Apply copies every value set in the file onto cfg.
// Headers are merged; file headers override existing keys.
func (f *File) Apply(cfg *Config) {
	if f == nil {
		return
	}

	c := f.Catalog
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.Path != "" {
		cfg.CatalogPath = c.Path
	}
	if c.DetailMarker != "" {
		cfg.DetailMarker = c.DetailMarker
	}
	if c.ViewType != "" {
		cfg.ViewType = c.ViewType
	}
	if c.PageSize != 0 {
		cfg.PageSize = c.PageSize
	}
	if c.MaxPages != 0 {
		cfg.MaxPages = c.MaxPages
	}

	ft := f.Fetch
	if ft.Timeout != 0 {
		cfg.Timeout = ft.Timeout
	}
	if ft.MaxAttempts != 0 {
		cfg.MaxAttempts = ft.MaxAttempts
	}
	if ft.RetryDelay != 0 {
		cfg.RetryDelay = ft.RetryDelay
	}
	if ft.CatalogDelay != 0 {
		cfg.CatalogDelay = ft.CatalogDelay
	}
	if ft.DetailDelay != 0 {
		cfg.DetailDelay = ft.DetailDelay
	}
	if ft.CatalogRetries != 0 {
		cfg.CatalogRetries = ft.CatalogRetries
	}
	if ft.CatalogRetryDelay != 0 {
		cfg.CatalogRetryDelay = ft.CatalogRetryDelay
	}
	if ft.UserAgent != "" {
		cfg.UserAgent = ft.UserAgent
	}
	if ft.Cookie != "" {
		cfg.Cookie = ft.Cookie
	}
	if len(ft.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range ft.Headers {
			cfg.Headers[k] = v
		}
	}
	if ft.RateLimit != 0 {
		cfg.RateLimit = ft.RateLimit
	}
	if ft.RateBurst != 0 {
		cfg.RateBurst = ft.RateBurst
	}

	if f.Output.File != "" {
		cfg.OutputFile = f.Output.File
	}
	if f.Output.Format != "" {
		cfg.Format = f.Output.Format
	}
	if f.Output.Summary != "" {
		cfg.SummaryFile = f.Output.Summary
	}

	if f.Concurrency != 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.RespectRobots != nil {
		cfg.RespectRobots = *f.RespectRobots
	}
}
