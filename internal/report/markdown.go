package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// maxListedSkipped caps the skipped URL list; the rest is counted only.
const maxListedSkipped = 50

// MarkdownSummaryWriter outputs run summaries in Markdown format.
// The output uses GitHub-flavored alerts and a mermaid pie chart, so it
// renders well as a CI job summary or pull request comment.
type MarkdownSummaryWriter struct {
	baseWriter
}

// NewMarkdownSummaryWriter creates a MarkdownSummaryWriter that outputs to
// the given writer.
func NewMarkdownSummaryWriter(output io.Writer) *MarkdownSummaryWriter {
	return &MarkdownSummaryWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownSummaryWriter) WriteSummary(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeCounts(md, s)
	w.writeTestTypes(md, s)
	w.writeSkipped(md, s)
	w.writeFooter(md, s)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownSummaryWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Catalog Crawl Summary")
	md.PlainText("")

	rows := [][]string{
		{"Catalog", "`" + s.BaseURL + "`"},
		{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Stop Reason", "`" + s.StopReason.String() + "`"},
		{"Status", statusText(s)},
	}
	if s.OutputFile != "" {
		rows = append(rows, []string{"Output", "`" + s.OutputFile + "`"})
	}
	if s.RunID != 0 {
		rows = append(rows, []string{"Run ID", strconv.FormatInt(s.RunID, 10)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns a one-word run status with an icon.
func statusText(s *Summary) string {
	switch {
	case s.Error != "":
		return "❌ Error - " + s.Error
	case !s.Complete():
		return "⚠️ Partial"
	default:
		return "✅ Complete"
	}
}

// writeCounts writes the volume table and an alert about data quality.
func (w *MarkdownSummaryWriter) writeCounts(md *markdown.Markdown, s *Summary) {
	md.H2("Counts")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Catalog Pages", strconv.Itoa(s.PagesFetched)},
			{"Links Found", strconv.Itoa(s.LinksFound)},
			{"Records", "**" + strconv.Itoa(s.Records) + "**"},
			{"Skipped", strconv.Itoa(len(s.Skipped))},
			{"HTTP Requests", strconv.FormatInt(s.Requests, 10)},
			{"Failed Attempts", strconv.FormatInt(s.FailedAttempts, 10)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, s)
}

// writeAlert writes an alert matching how trustworthy the dataset is.
func (w *MarkdownSummaryWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Error != "":
		md.Cautionf("The run ended with an error; the dataset holds %d record(s) collected before it.", s.Records)
	case s.StopReason == model.StopCatalogUnavailable:
		md.Warningf(
			"A catalog page could not be fetched after %d page(s); the catalog may be incomplete.",
			s.PagesFetched,
		)
	case len(s.Skipped) > 0:
		md.Note(strconv.Itoa(len(s.Skipped)) + " detail page(s) produced no record. See the list below.")
	case s.Records == 0:
		md.Warningf("No records were extracted from %s.", s.BaseURL)
	default:
		md.Tip("Every discovered detail page produced a record.")
	}
	md.PlainText("")
}

// writeTestTypes writes the test type distribution table and chart.
func (w *MarkdownSummaryWriter) writeTestTypes(md *markdown.Markdown, s *Summary) {
	md.H2("Test Types")
	md.PlainText("")

	if len(s.TestTypes) == 0 {
		md.PlainText("No records.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.TestTypes))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Records by Test Type"),
		piechart.WithShowData(true),
	)
	for _, tt := range s.TestTypes {
		rows = append(rows, []string{"`" + tt.TestType + "`", strconv.Itoa(tt.Count)})
		chart.LabelAndIntValue(tt.TestType, uint64(tt.Count)) //nolint:gosec // Counts are never negative
	}

	md.Table(markdown.TableSet{
		Header: []string{"Test Type", "Records"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSkipped lists detail URLs that produced no record.
func (w *MarkdownSummaryWriter) writeSkipped(md *markdown.Markdown, s *Summary) {
	if len(s.Skipped) == 0 {
		return
	}

	md.H2("Skipped Pages")
	md.PlainText("")

	listed := s.Skipped
	if len(listed) > maxListedSkipped {
		listed = listed[:maxListedSkipped]
	}
	items := make([]string, 0, len(listed))
	for _, u := range listed {
		items = append(items, truncateString(u, 120))
	}
	md.BulletList(items...)
	md.PlainText("")

	if rest := len(s.Skipped) - len(listed); rest > 0 {
		md.PlainTextf("... and %d more.", rest)
		md.PlainText("")
	}
}

// writeFooter writes the summary footer.
func (w *MarkdownSummaryWriter) writeFooter(md *markdown.Markdown, s *Summary) {
	md.HorizontalRule()
	md.PlainText("")
	version := strings.TrimSpace(s.Version)
	if version == "" {
		version = "dev"
	}
	md.PlainTextf("*Summary generated by catalogcrawl %s*", version)
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
