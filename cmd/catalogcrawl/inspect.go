package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/catalogcrawl/internal/dataset"
	"github.com/nao1215/catalogcrawl/internal/report"
)

// defaultInspectLimit is the number of records shown when --limit is not set.
const defaultInspectLimit = 10

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the contents of a dataset file",
		Long: `Inspect loads a dataset written by 'catalogcrawl crawl' (CSV, JSON or XLSX)
and prints its first records and its test type distribution.

Column headers are matched leniently, so files edited in a spreadsheet or
produced by other tools load as long as they carry a name, URL and
description column.

Examples:
  # Show the first 10 records
  catalogcrawl inspect shl_individual_tests.csv

  # Show every record of a workbook
  catalogcrawl inspect tests.xlsx --limit 0`,
		Args: cobra.ExactArgs(1),
		RunE: runInspectCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultInspectLimit,
		"Maximum number of records to show (0 shows all)")

	return cmd
}

// runInspectCmd executes the inspect command.
func runInspectCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	d, err := dataset.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	out := cmd.OutOrStdout()
	report.RenderDataset(out, d, limit)
	if d.Len() > 0 {
		fmt.Fprintln(out)
		report.RenderCounts(out, "Test type", report.DatasetTestTypes(d))
	}
	return nil
}
