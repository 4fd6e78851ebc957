package model

import (
	"testing"
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	records := []Assessment{
		{Name: "first", URL: "https://example.com/a"},
		{Name: "other", URL: "https://example.com/b"},
		{Name: "second", URL: "https://example.com/a"},
	}

	ds := NewDataset(records)
	if ds.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ds.Len())
	}
	if ds.Records[0].Name != "first" {
		t.Errorf("expected first occurrence to win, got %q", ds.Records[0].Name)
	}
	if ds.Records[1].URL != "https://example.com/b" {
		t.Errorf("expected order to be preserved, got %q", ds.Records[1].URL)
	}
}

func TestDatasetNil(t *testing.T) {
	t.Parallel()

	var ds *Dataset
	if ds.Len() != 0 {
		t.Errorf("expected nil dataset to have length 0")
	}
	if ds.Rows() != nil {
		t.Errorf("expected nil rows for nil dataset")
	}
	if len(ds.ByURL()) != 0 {
		t.Errorf("expected empty index for nil dataset")
	}
}

func TestDatasetTestTypeCounts(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]Assessment{
		{URL: "1", TestType: "K"},
		{URL: "2", TestType: "K"},
		{URL: "3", TestType: "P"},
		{URL: "4"},
	})

	counts := ds.TestTypeCounts()
	if counts["K"] != 2 || counts["P"] != 1 || counts[""] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestCrawlReport(t *testing.T) {
	t.Parallel()

	t.Run("allows everything without a policy", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com")
		if !r.Allowed("https://example.com/anything") {
			t.Error("expected nil policy to allow")
		}
	})

	t.Run("delegates to policy", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com")
		r.Policy = denyAll{}
		if r.Allowed("https://example.com/anything") {
			t.Error("expected policy to deny")
		}
	})

	t.Run("counts", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com")
		r.Links.Add(Link{Name: "a", URL: "a"})
		if r.LinkCount() != 1 {
			t.Errorf("expected 1 link, got %d", r.LinkCount())
		}
		if r.RecordCount() != 0 {
			t.Errorf("expected 0 records before assembly, got %d", r.RecordCount())
		}
	})

	t.Run("stop reason string", func(t *testing.T) {
		t.Parallel()

		if StopNoNewLinks.String() != "no_new_links" {
			t.Errorf("unexpected string %q", StopNoNewLinks.String())
		}
		if StopReason("").String() != "unknown" {
			t.Errorf("expected empty reason to print as unknown")
		}
	})
}

type denyAll struct{}

func (denyAll) Allowed(string) bool { return false }
