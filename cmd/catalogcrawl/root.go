package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/catalogcrawl/internal/log"
)

// NewRootCmd creates the root command for catalogcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogcrawl",
		Short: "Crawl a product catalog into a structured dataset",
		Long: `catalogcrawl crawls the SHL product catalog page by page, collects every
product detail link and extracts one record per product: name, URL,
description, job levels, languages, completion time and test type.

The dataset is written as CSV (default), JSON or XLSX. Runs can be saved to
a local history database and compared with each other.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logLevelFlags retrieves the global verbose and quiet flags.
func logLevelFlags(cmd *cobra.Command) (verbose, quiet bool) {
	flags := cmd.Flags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		verbose, _ = cmd.Root().PersistentFlags().GetBool("verbose") //nolint:errcheck // Defined on the root command
	}
	quiet, err = flags.GetBool("quiet")
	if err != nil {
		quiet, _ = cmd.Root().PersistentFlags().GetBool("quiet") //nolint:errcheck // Defined on the root command
	}
	return verbose, quiet
}

// setupLogger creates the structured logger for a command. Logs go to w,
// normally stderr, so they never mix with command output.
func setupLogger(w io.Writer, verbose, quiet, jsonLog bool) *slog.Logger {
	level := log.LevelFor(verbose, quiet)
	if jsonLog {
		return log.NewSecureJSONLogger(w, level)
	}
	return log.NewSecureLogger(w, level)
}
