package model

import (
	"time"
)

// StopReason explains why catalog pagination ended.
type StopReason string

const (
	// StopMaxPages means the page budget was exhausted.
	StopMaxPages StopReason = "max_pages"

	// StopNoNewLinks means a catalog page contributed no unseen links,
	// either because the catalog is exhausted or pagination looped.
	StopNoNewLinks StopReason = "no_new_links"

	// StopCatalogUnavailable means a catalog page could not be fetched.
	// This may hide a transient outage, so it is reported separately from
	// StopNoNewLinks.
	StopCatalogUnavailable StopReason = "catalog_unavailable"

	// StopRobotsDisallowed means robots.txt forbids the catalog path.
	StopRobotsDisallowed StopReason = "robots_disallowed"

	// StopCancelled means the run was interrupted.
	StopCancelled StopReason = "cancelled"
)

// String implements fmt.Stringer.
func (r StopReason) String() string {
	if r == "" {
		return "unknown"
	}
	return string(r)
}

// URLPolicy decides whether a URL may be requested.
type URLPolicy interface {
	Allowed(url string) bool
}

// CrawlReport is the explicit state of one crawl run. Pipeline steps receive
// it, fill in their part and hand it on; nothing else holds crawl state.
type CrawlReport struct {
	// RunID is the database identifier once the run has been persisted.
	RunID int64 `json:"run_id,omitempty"`

	// BaseURL is the catalog site the run targeted.
	BaseURL string `json:"base_url"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step completed.
	FinishedAt time.Time `json:"finished_at"`

	// Links is the link table accumulated by the catalog crawl.
	Links *LinkTable `json:"-"`

	// PagesFetched is the number of catalog pages fetched successfully.
	PagesFetched int `json:"pages_fetched"`

	// StopReason explains why pagination ended.
	StopReason StopReason `json:"stop_reason"`

	// Dataset is the assembled, deduplicated output.
	Dataset *Dataset `json:"dataset,omitempty"`

	// Skipped lists detail URLs that produced no record.
	Skipped []string `json:"skipped,omitempty"`

	// Requests is the number of HTTP requests sent during the run.
	Requests int64 `json:"requests"`

	// FailedAttempts is the number of requests that failed and were retried
	// or given up on.
	FailedAttempts int64 `json:"failed_attempts"`

	// Policy restricts which URLs may be requested. Nil allows everything.
	Policy URLPolicy `json:"-"`

	// OutputFile is where the dataset was written, if anywhere.
	OutputFile string `json:"output_file,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds the last step error, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error, kept for serialisation.
	ErrorMessage string `json:"error,omitempty"`
}

// NewCrawlReport creates a report for a run against baseURL.
func NewCrawlReport(baseURL string) *CrawlReport {
	return &CrawlReport{
		BaseURL:   baseURL,
		StartedAt: time.Now(),
		Links:     NewLinkTable(),
		Skipped:   make([]string, 0),
	}
}

// Allowed reports whether the run's policy permits requesting url.
func (r *CrawlReport) Allowed(url string) bool {
	if r.Policy == nil {
		return true
	}
	return r.Policy.Allowed(url)
}

// LinkCount returns the number of links discovered.
func (r *CrawlReport) LinkCount() int {
	if r.Links == nil {
		return 0
	}
	return r.Links.Len()
}

// RecordCount returns the number of records in the dataset.
func (r *CrawlReport) RecordCount() int {
	return r.Dataset.Len()
}

// Elapsed returns the run duration. It is zero until FinishedAt is set.
func (r *CrawlReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
