package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssessmentRow(t *testing.T) {
	t.Parallel()

	t.Run("renders duration as minutes", func(t *testing.T) {
		t.Parallel()

		a := Assessment{
			Name:            "Java 8 (New)",
			URL:             "https://example.com/view/java-8-new/",
			Description:     "Multi-choice test.",
			JobLevels:       "Mid-Professional",
			Languages:       "English (USA)",
			DurationMinutes: IntPtr(18),
			TestType:        "K",
		}

		want := []string{
			"Java 8 (New)",
			"https://example.com/view/java-8-new/",
			"Multi-choice test.",
			"Mid-Professional",
			"English (USA)",
			"18",
			"K",
		}
		if diff := cmp.Diff(want, a.Row()); diff != "" {
			t.Errorf("row mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("absent duration is an empty cell, not zero", func(t *testing.T) {
		t.Parallel()

		a := Assessment{Name: "x", URL: "u"}
		if got := a.Row()[5]; got != "" {
			t.Errorf("expected empty duration cell, got %q", got)
		}

		zero := Assessment{Name: "x", URL: "u", DurationMinutes: IntPtr(0)}
		if got := zero.Row()[5]; got != "0" {
			t.Errorf("expected '0' duration cell, got %q", got)
		}
	})

	t.Run("row length matches columns", func(t *testing.T) {
		t.Parallel()

		if len(Assessment{}.Row()) != len(Columns()) {
			t.Errorf("row has %d cells, header has %d", len(Assessment{}.Row()), len(Columns()))
		}
	})
}

func TestAssessmentHash(t *testing.T) {
	t.Parallel()

	base := Assessment{Name: "A", URL: "https://example.com/a", TestType: "K"}

	if base.Hash() != base.Hash() {
		t.Error("expected hash to be stable")
	}

	changed := base
	changed.TestType = "P"
	if base.Hash() == changed.Hash() {
		t.Error("expected hash to change with field values")
	}

	// Field boundaries must matter.
	a := Assessment{Name: "ab", URL: "c"}
	b := Assessment{Name: "a", URL: "bc"}
	if a.Hash() == b.Hash() {
		t.Error("expected field boundaries to affect the hash")
	}
}
