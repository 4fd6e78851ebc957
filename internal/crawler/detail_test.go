package crawler

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/catalogcrawl/internal/fetch"
	"github.com/nao1215/catalogcrawl/internal/model"
)

const detailURL = testBase + testMarker + "verify-numerical-ability/"

const fullDetailPage = `<!DOCTYPE html>
<html><body>
<h1> Verify - Numerical Ability </h1>
<div class="product-catalogue-training-calendar__row">
  <h4>Description</h4>
  <p>Multi-choice test that measures
     the ability to <b>evaluate</b> numerical data.</p>
</div>
<div class="product-catalogue-training-calendar__row">
  <h4>Job levels</h4>
  <p>Graduate, Manager, Mid-Professional,</p>
</div>
<div class="product-catalogue-training-calendar__row">
  <h4>Languages</h4>
  <p>English (USA), French, German</p>
</div>
<div class="product-catalogue-training-calendar__row">
  <h4>Assessment length</h4>
  <p>Approximate Completion Time in minutes = 18</p>
</div>
<p class="product-catalogue__small-text">Test Type: A</p>
</body></html>`

// TestParseDetail tests field extraction from detail pages.
func TestParseDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want model.Assessment
	}{
		{
			name: "all sections present",
			html: fullDetailPage,
			want: model.Assessment{
				Name:            "Verify - Numerical Ability",
				URL:             detailURL,
				Description:     "Multi-choice test that measures\n     the ability to evaluate numerical data.",
				JobLevels:       "Graduate, Manager, Mid-Professional,",
				Languages:       "English (USA), French, German",
				DurationMinutes: model.IntPtr(18),
				TestType:        "A",
			},
		},
		{
			name: "empty page degrades every field",
			html: `<html><body><div>Nothing here</div></body></html>`,
			want: model.Assessment{URL: detailURL},
		},
		{
			name: "duration with trailing unit",
			html: `<p>Approximate Completion Time in minutes: 45 mins</p>`,
			want: model.Assessment{URL: detailURL, DurationMinutes: model.IntPtr(45)},
		},
		{
			name: "duration phrase without a number",
			html: `<p>Approximate Completion Time in minutes = Variable</p>`,
			want: model.Assessment{URL: detailURL},
		},
		{
			name: "test type codes with surrounding whitespace and colons",
			html: `<span>Test Type: K, P :</span>`,
			want: model.Assessment{URL: detailURL, TestType: "K, P"},
		},
		{
			name: "test type label in its own text node",
			html: `<p><span>Test Type:</span><span>K</span></p>`,
			want: model.Assessment{URL: detailURL},
		},
		{
			name: "heading without a following paragraph",
			html: `<h1>Java 8</h1><h3>Description</h3><div>not a paragraph</div>`,
			want: model.Assessment{Name: "Java 8", URL: detailURL},
		},
		{
			name: "paragraph after a later heading is still found",
			html: `<h3>Languages</h3><h3>Other</h3><p>English</p>`,
			want: model.Assessment{URL: detailURL, Languages: "English"},
		},
		{
			name: "first matching heading wins",
			html: `<h4>Product Description</h4><p>first</p><h4>Description</h4><p>second</p>`,
			want: model.Assessment{URL: detailURL, Description: "first"},
		},
		{
			name: "h2 headings are not labels",
			html: `<h2>Description</h2><p>ignored</p>`,
			want: model.Assessment{URL: detailURL},
		},
		{
			name: "first h1 is the name",
			html: `<h1><span>Java</span> <span>8</span></h1><h1>Other</h1>`,
			want: model.Assessment{Name: "Java8", URL: detailURL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDetail(strings.NewReader(tt.html), detailURL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("assessment mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDetailParser_Parse tests fetching and parsing through a PageFetcher.
func TestDetailParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("fetched page is parsed", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{details: map[string]string{detailURL: fullDetailPage}}
		got, err := NewDetailParser(f).Parse(t.Context(), detailURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != "Verify - Numerical Ability" || got.Duration() != "18" {
			t.Errorf("unexpected assessment %+v", got)
		}
	})

	t.Run("unavailable page is reported", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{details: map[string]string{}}
		got, err := NewDetailParser(f).Parse(t.Context(), detailURL)
		if !errors.Is(err, fetch.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if got != nil {
			t.Errorf("expected nil assessment, got %+v", got)
		}
	})
}
