package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/catalogcrawl/internal/config"
	"github.com/nao1215/catalogcrawl/internal/database"
	"github.com/nao1215/catalogcrawl/internal/model"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command lists stored crawl runs and compares their datasets.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved crawl runs and compare their datasets",
		Long: `History shows crawl runs recorded with 'catalogcrawl crawl --save'.

With --compare it shows how the latest run's dataset differs from an
earlier run: assessments that appeared, disappeared or changed content.

Examples:
  # List the 20 most recent runs
  catalogcrawl history

  # Compare the latest run with the one before it
  catalogcrawl history --compare

  # Compare the latest run with run 3
  catalogcrawl history --compare --with-run-id 3

  # Output the comparison as JSON
  catalogcrawl history --compare --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Bool("compare", false,
		"Compare the latest run with an earlier one")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with this run instead of the previous one")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	compare, err := flags.GetBool("compare")
	if err != nil {
		return err
	}
	withRunID, err := flags.GetInt64("with-run-id")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Validate flags before opening the database
	if withRunID < 0 {
		return fmt.Errorf("invalid run ID: %d", withRunID)
	}
	if withRunID > 0 && !compare {
		return errors.New("--with-run-id requires --compare")
	}

	out := cmd.OutOrStdout()

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No crawl history found.")
		fmt.Fprintln(out, "\nUse 'catalogcrawl crawl --save' to record a run.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if compare {
		return runComparison(ctx, out, db, withRunID, jsonOutput)
	}
	return listRuns(ctx, out, db, limit, jsonOutput)
}

// runSummary is the JSON form of a stored run.
type runSummary struct {
	ID             int64            `json:"id"`
	BaseURL        string           `json:"base_url"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	PagesFetched   int              `json:"pages_fetched"`
	StopReason     model.StopReason `json:"stop_reason"`
	Links          int              `json:"links"`
	Records        int              `json:"records"`
	Skipped        int              `json:"skipped"`
	Requests       int64            `json:"requests"`
	FailedAttempts int64            `json:"failed_attempts"`
	OutputFile     string           `json:"output_file,omitempty"`
	Error          string           `json:"error,omitempty"`
}

func newRunSummary(m database.RunMetadata) runSummary {
	return runSummary{
		ID:             m.ID,
		BaseURL:        m.BaseURL,
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
		PagesFetched:   m.PagesFetched,
		StopReason:     m.StopReason,
		Links:          m.LinkCount,
		Records:        m.RecordCount,
		Skipped:        len(m.Skipped),
		Requests:       m.Requests,
		FailedAttempts: m.FailedAttempts,
		OutputFile:     m.OutputFile,
		Error:          m.Error,
	}
}

// listRuns prints the most recent runs, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		summaries := make([]runSummary, 0, len(runs))
		for _, r := range runs {
			summaries = append(summaries, newRunSummary(r))
		}
		return writeJSON(out, summaries)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs found in the database.")
		fmt.Fprintln(out, "\nUse 'catalogcrawl crawl --save' to record a run.")
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Started", "Elapsed", "Pages", "Links", "Records", "Skipped", "Stop reason"})
	for _, r := range runs {
		stop := string(r.StopReason)
		if r.Error != "" {
			stop += " (error)"
		}
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Elapsed().Round(time.Second),
			r.PagesFetched,
			r.LinkCount,
			r.RecordCount,
			len(r.Skipped),
			stop,
		})
	}
	t.Render()

	fmt.Fprintln(out, "\nUse 'catalogcrawl history --compare' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'catalogcrawl history --compare --with-run-id <id>' to compare with a specific run.")

	return nil
}

// comparisonResult is the JSON form of a dataset comparison.
type comparisonResult struct {
	BaseRunID   int64              `json:"base_run_id"`
	TargetRunID int64              `json:"target_run_id"`
	Added       []model.Assessment `json:"added"`
	Removed     []model.Assessment `json:"removed"`
	Changed     []changedRecord    `json:"changed"`
	Unchanged   int                `json:"unchanged"`
}

// changedRecord is one assessment whose content differs between runs.
type changedRecord struct {
	URL    string           `json:"url"`
	Fields []string         `json:"fields"`
	Before model.Assessment `json:"before"`
	After  model.Assessment `json:"after"`
}

// runComparison compares the latest run with withRunID, or with the run
// before it when withRunID is 0.
func runComparison(ctx context.Context, out io.Writer, db *database.CrawlDB, withRunID int64, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return errors.New("no crawl runs found in the database")
	}
	latest := runs[0].ID

	baseID := withRunID
	if baseID == 0 {
		prev, ok, err := db.PreviousRunID(ctx, latest)
		if err != nil {
			return fmt.Errorf("failed to find previous run: %w", err)
		}
		if !ok {
			return errors.New("at least 2 runs are required for comparison (found 1)")
		}
		baseID = prev
	}
	if baseID == latest {
		return fmt.Errorf("run %d is the latest run; choose an earlier run to compare with", baseID)
	}

	diff, err := db.CompareRuns(ctx, baseID, latest)
	if err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			return fmt.Errorf("run with ID %d not found", baseID)
		}
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, newComparisonResult(diff))
	}
	outputComparisonText(out, diff)
	return nil
}

func newComparisonResult(diff *database.Diff) comparisonResult {
	changed := make([]changedRecord, 0, len(diff.Changed))
	for _, c := range diff.Changed {
		changed = append(changed, changedRecord{
			URL:    c.After.URL,
			Fields: c.Fields(),
			Before: c.Before,
			After:  c.After,
		})
	}
	return comparisonResult{
		BaseRunID:   diff.BaseRunID,
		TargetRunID: diff.TargetRunID,
		Added:       diff.Added,
		Removed:     diff.Removed,
		Changed:     changed,
		Unchanged:   diff.Unchanged,
	}
}

// outputComparisonText prints a comparison as tables.
func outputComparisonText(out io.Writer, diff *database.Diff) {
	fmt.Fprintf(out, "Comparing run %d with run %d\n\n", diff.TargetRunID, diff.BaseRunID)

	if diff.Empty() {
		fmt.Fprintf(out, "No changes: %d assessments are identical.\n", diff.Unchanged)
		return
	}

	if len(diff.Added) > 0 {
		fmt.Fprintf(out, "Added (%d):\n", len(diff.Added))
		renderAssessments(out, diff.Added)
		fmt.Fprintln(out)
	}

	if len(diff.Removed) > 0 {
		fmt.Fprintf(out, "Removed (%d):\n", len(diff.Removed))
		renderAssessments(out, diff.Removed)
		fmt.Fprintln(out)
	}

	if len(diff.Changed) > 0 {
		fmt.Fprintf(out, "Changed (%d):\n", len(diff.Changed))
		t := newTable(out)
		t.AppendHeader(table.Row{"Name", "URL", "Fields"})
		for _, c := range diff.Changed {
			t.AppendRow(table.Row{c.After.Name, c.After.URL, strings.Join(c.Fields(), ", ")})
		}
		t.Render()
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Unchanged: %d\n", diff.Unchanged)
}

func renderAssessments(out io.Writer, records []model.Assessment) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "URL", "Test type"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Name, r.URL, r.TestType})
	}
	t.Render()
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
