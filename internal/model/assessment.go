package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Column names of the dataset, in output order.
// Downstream consumers locate at least name, url and description by header.
const (
	ColumnName        = "name"
	ColumnURL         = "url"
	ColumnDescription = "description"
	ColumnJobLevels   = "job_levels"
	ColumnLanguages   = "languages"
	ColumnDuration    = "assessment_length_minutes"
	ColumnTestType    = "test_type"
)

// Columns returns the dataset header in its fixed order.
func Columns() []string {
	return []string{
		ColumnName,
		ColumnURL,
		ColumnDescription,
		ColumnJobLevels,
		ColumnLanguages,
		ColumnDuration,
		ColumnTestType,
	}
}

// Assessment is one structured record extracted from a product detail page.
// URL identifies the record across the whole dataset.
type Assessment struct {
	// Name is the product name. When the detail page has no heading, the
	// catalog display name is used instead.
	Name string `json:"name"`

	// URL is the detail page URL the record was extracted from.
	URL string `json:"url"`

	// Description is the paragraph following the "Description" heading.
	Description string `json:"description"`

	// JobLevels is the paragraph following the "Job levels" heading.
	JobLevels string `json:"job_levels"`

	// Languages is the paragraph following the "Languages" heading.
	Languages string `json:"languages"`

	// DurationMinutes is the approximate completion time.
	// Nil means the page does not state one, which is different from zero.
	DurationMinutes *int `json:"assessment_length_minutes"`

	// TestType holds the test-type code(s), e.g. "K, P".
	TestType string `json:"test_type"`
}

// IntPtr returns a pointer to v. It is a convenience for DurationMinutes.
func IntPtr(v int) *int {
	return &v
}

// Duration returns the duration as a cell value: the number of minutes,
// or the empty string when unknown.
func (a Assessment) Duration() string {
	if a.DurationMinutes == nil {
		return ""
	}
	return strconv.Itoa(*a.DurationMinutes)
}

// Row returns the record as string cells in Columns() order.
func (a Assessment) Row() []string {
	return []string{
		a.Name,
		a.URL,
		a.Description,
		a.JobLevels,
		a.Languages,
		a.Duration(),
		a.TestType,
	}
}

// Hash returns the SHA-256 of the record's cells.
// Two runs that extracted the same values for a URL produce the same hash.
func (a Assessment) Hash() string {
	// Unit separator keeps ("ab","c") and ("a","bc") apart.
	sum := sha256.Sum256([]byte(strings.Join(a.Row(), "\x1f")))
	return hex.EncodeToString(sum[:])
}
