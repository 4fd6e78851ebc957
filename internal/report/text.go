package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// Column widths for console tables.
const (
	nameColumnWidth        = 40
	urlColumnWidth         = 60
	descriptionColumnWidth = 50
)

// TextSummaryWriter outputs run summaries as console tables.
type TextSummaryWriter struct {
	baseWriter
}

// NewTextSummaryWriter creates a TextSummaryWriter that outputs to the given
// writer, typically stderr.
func NewTextSummaryWriter(output io.Writer) *TextSummaryWriter {
	return &TextSummaryWriter{baseWriter: newBaseWriter(output)}
}

// WriteSummary renders the run overview and the test type distribution.
func (w *TextSummaryWriter) WriteSummary(s *Summary) (int, error) {
	counter := &countingWriter{w: w.output}

	t := newTable(counter)
	t.SetTitle("Catalog Crawl")
	t.AppendRows([]table.Row{
		{"Catalog", s.BaseURL},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Stop reason", s.StopReason.String()},
		{"Catalog pages", s.PagesFetched},
		{"Links found", s.LinksFound},
		{"Records", s.Records},
		{"Skipped", len(s.Skipped)},
		{"HTTP requests", s.Requests},
		{"Failed attempts", s.FailedAttempts},
	})
	if s.OutputFile != "" {
		t.AppendRow(table.Row{"Output", s.OutputFile})
	}
	if s.RunID != 0 {
		t.AppendRow(table.Row{"Run ID", s.RunID})
	}
	if s.Error != "" {
		t.AppendRow(table.Row{"Error", s.Error})
	}
	t.Render()

	if len(s.TestTypes) > 0 {
		tt := newTable(counter)
		tt.AppendHeader(table.Row{"Test type", "Records"})
		for _, c := range s.TestTypes {
			tt.AppendRow(table.Row{c.TestType, c.Count})
		}
		tt.AppendFooter(table.Row{"Total", s.Records})
		tt.Render()
	}

	return counter.n, nil
}

// RenderDataset prints up to limit records of d as a table, followed by a
// footer with the total record count. A limit <= 0 prints every record.
func RenderDataset(output io.Writer, d *model.Dataset, limit int) {
	t := newTable(output)
	t.AppendHeader(table.Row{"#", "Name", "URL", "Description", "Minutes", "Test type"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: nameColumnWidth},
		{Number: 3, WidthMax: urlColumnWidth},
		{Number: 4, WidthMax: descriptionColumnWidth},
	})

	n := d.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	for i := range n {
		r := d.Records[i]
		t.AppendRow(table.Row{
			i + 1,
			r.Name,
			r.URL,
			oneLine(r.Description),
			r.Duration(),
			r.TestType,
		})
	}

	footer := strconv.Itoa(d.Len()) + " records"
	if n < d.Len() {
		footer = "showing " + strconv.Itoa(n) + " of " + footer
	}
	t.AppendFooter(table.Row{"", footer})
	t.Render()
}

// RenderCounts prints a two-column label/count table, e.g. the test type
// distribution of a loaded dataset.
func RenderCounts(output io.Writer, title string, counts []TestTypeCount) {
	t := newTable(output)
	t.AppendHeader(table.Row{title, "Records"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.TestType, c.Count})
	}
	t.Render()
}

// DatasetTestTypes returns the test type distribution of d, most frequent
// first.
func DatasetTestTypes(d *model.Dataset) []TestTypeCount {
	return testTypeCounts(d)
}

func newTable(output io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(output)
	t.SetStyle(table.StyleRounded)
	return t
}

// oneLine collapses whitespace so long descriptions fit a table row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
