package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// noTestType labels records whose page stated no test type.
const noTestType = "(none)"

// Summary is a flattened view of a crawl run for human-facing output.
// It is derived from model.CrawlReport and never modified by writers.
type Summary struct {
	// Version is the catalogcrawl version that produced the run.
	Version string `json:"version,omitempty"`

	// BaseURL is the catalog site.
	BaseURL string `json:"base_url"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the run duration.
	Elapsed time.Duration `json:"elapsed_ns"`

	// PagesFetched is the number of catalog pages fetched.
	PagesFetched int `json:"pages_fetched"`

	// StopReason explains why pagination ended.
	StopReason model.StopReason `json:"stop_reason"`

	// LinksFound is the number of distinct detail links discovered.
	LinksFound int `json:"links_found"`

	// Records is the number of records in the dataset.
	Records int `json:"records"`

	// Skipped lists detail URLs that produced no record.
	Skipped []string `json:"skipped"`

	// Requests is the number of HTTP requests sent.
	Requests int64 `json:"requests"`

	// FailedAttempts is the number of failed HTTP attempts.
	FailedAttempts int64 `json:"failed_attempts"`

	// TestTypes is the record count per test type, most frequent first.
	TestTypes []TestTypeCount `json:"test_types"`

	// OutputFile is where the dataset was written.
	OutputFile string `json:"output_file,omitempty"`

	// RunID is the history database id, if the run was saved.
	RunID int64 `json:"run_id,omitempty"`

	// Error is the error that ended the run early, if any.
	Error string `json:"error,omitempty"`
}

// TestTypeCount is one row of the test type distribution.
type TestTypeCount struct {
	TestType string `json:"test_type"`
	Count    int    `json:"count"`
}

// NewSummary builds a Summary from a crawl report.
func NewSummary(r *model.CrawlReport, version string) *Summary {
	s := &Summary{
		Version:        version,
		BaseURL:        r.BaseURL,
		StartedAt:      r.StartedAt,
		Elapsed:        r.Elapsed(),
		PagesFetched:   r.PagesFetched,
		StopReason:     r.StopReason,
		LinksFound:     r.LinkCount(),
		Records:        r.RecordCount(),
		Skipped:        append([]string{}, r.Skipped...),
		Requests:       r.Requests,
		FailedAttempts: r.FailedAttempts,
		TestTypes:      testTypeCounts(r.Dataset),
		OutputFile:     r.OutputFile,
		RunID:          r.RunID,
		Error:          r.ErrorMessage,
	}
	if s.Error == "" && r.Error != nil {
		s.Error = r.Error.Error()
	}
	return s
}

// Complete reports whether pagination ended normally and no step failed.
// A run cut short by an unavailable catalog page or cancellation may have
// missed part of the catalog.
func (s *Summary) Complete() bool {
	if s.Error != "" {
		return false
	}
	return s.StopReason == model.StopNoNewLinks || s.StopReason == model.StopMaxPages
}

func testTypeCounts(d *model.Dataset) []TestTypeCount {
	counts := d.TestTypeCounts()
	out := make([]TestTypeCount, 0, len(counts))
	for tt, n := range counts {
		if tt == "" {
			tt = noTestType
		}
		out = append(out, TestTypeCount{TestType: tt, Count: n})
	}
	slices.SortFunc(out, func(a, b TestTypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.TestType, b.TestType)
	})
	return out
}
