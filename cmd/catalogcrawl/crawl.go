package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/catalogcrawl/internal/config"
	"github.com/nao1215/catalogcrawl/internal/database"
	"github.com/nao1215/catalogcrawl/internal/fetch"
	"github.com/nao1215/catalogcrawl/internal/model"
	"github.com/nao1215/catalogcrawl/internal/pipeline"
	"github.com/nao1215/catalogcrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the catalog and write the assessment dataset",
		Long: `Crawl walks the catalog listing page by page, collects every product
detail link and visits each detail page to extract its fields.

Pagination stops when a page adds no new links, when the page budget is
spent or when a catalog page cannot be fetched. Detail pages that fail are
skipped and reported; the rest of the dataset is still written.

Examples:
  # Crawl with defaults and write shl_individual_tests.csv
  catalogcrawl crawl

  # Crawl at most 5 pages and write a workbook
  catalogcrawl crawl --max-pages 5 -o tests.xlsx

  # Fetch four detail pages at a time, capped at 2 requests per second
  catalogcrawl crawl -n 4 --rate-limit 2

  # Record the run in the history database and write a Markdown summary
  catalogcrawl crawl --save --summary summary.md

Configuration file (.catalogcrawl) example:
  catalog:
    max_pages: 20
  fetch:
    detail_delay: 500ms
  output:
    file: tests.json`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Catalog flags
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Scheme and host of the catalog site")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of catalog pages to request")
	cmd.Flags().Int("catalog-retries", 0,
		"Extra attempts for an unavailable catalog page before pagination stops")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Total attempts per URL, including the first")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryDelay,
		"Wait between failed attempts")
	cmd.Flags().Duration("catalog-delay", config.DefaultCatalogDelay,
		"Pause after each catalog page")
	cmd.Flags().Duration("detail-delay", config.DefaultDetailDelay,
		"Pause after each detail page")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of detail pages fetched in parallel")
	cmd.Flags().Float64("rate-limit", 0,
		"Maximum requests per second across all workers (0 disables)")
	cmd.Flags().Bool("respect-robots", false,
		"Skip URLs disallowed by the site's robots.txt")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .catalogcrawl in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Dataset output path")
	cmd.Flags().StringP("format", "f", "",
		"Dataset format: csv, json or xlsx (default: from the output extension)")
	cmd.Flags().String("summary", "",
		"Also write a Markdown run summary to this path")
	cmd.Flags().Bool("save", false,
		"Record the run in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON lines")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.Quiet, cfg.JSONLog)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd.OutOrStdout(), cfg, logger)
}

// buildConfig creates a Config from defaults, the optional config file and
// the command flags, in increasing order of precedence. Only flags the user
// actually set override file values.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, silently use defaults when no file exists.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	stringFlags := map[string]*string{
		"base-url": &cfg.BaseURL,
		"output":   &cfg.OutputFile,
		"format":   &cfg.Format,
		"summary":  &cfg.SummaryFile,
		"db-dir":   &cfg.DBDir,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	ints := map[string]*int{
		"max-pages":       &cfg.MaxPages,
		"catalog-retries": &cfg.CatalogRetries,
		"max-attempts":    &cfg.MaxAttempts,
		"concurrency":     &cfg.Concurrency,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetInt(name); err != nil {
			return nil, err
		}
	}

	durations := map[string]*time.Duration{
		"timeout":       &cfg.Timeout,
		"retry-delay":   &cfg.RetryDelay,
		"catalog-delay": &cfg.CatalogDelay,
		"detail-delay":  &cfg.DetailDelay,
	}
	for name, dst := range durations {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetDuration(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("rate-limit") {
		if cfg.RateLimit, err = flags.GetFloat64("rate-limit"); err != nil {
			return nil, err
		}
	}

	bools := map[string]*bool{
		"respect-robots": &cfg.RespectRobots,
		"save":           &cfg.SaveToDB,
		"json-log":       &cfg.JSONLog,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}

	cfg.Verbose, cfg.Quiet = logLevelFlags(cmd)

	return cfg, nil
}

// runCrawl executes one crawl run with cfg.
func runCrawl(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) (err error) {
	logger.Info("starting crawl",
		"catalog", cfg.CatalogURL(),
		"maxPages", cfg.MaxPages,
		"concurrency", cfg.Concurrency,
		"output", cfg.OutputFile,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close database: %w", cerr)
			}
		}()
		logger.Debug("database opened", "path", db.Path())
	}

	summary, closeSummary, err := summaryWriter(out, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSummary(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close summary file: %w", cerr)
		}
	}()

	p, err := pipeline.DefaultPipeline(cfg, pipeline.Dependencies{
		Fetcher: fetch.NewFromConfig(cfg, logger),
		DB:      db,
		Summary: summary,
		Version: getVersion(),
	}, pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	run := model.NewCrawlReport(cfg.BaseURL)
	if err := p.Execute(ctx, run); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("crawl cancelled after %d pages and %d links: %w",
				run.PagesFetched, run.LinkCount(), err)
		}
		return fmt.Errorf("crawl failed: %w", err)
	}

	logger.Info("crawl completed",
		"pages", run.PagesFetched,
		"links", run.LinkCount(),
		"records", run.RecordCount(),
		"skipped", len(run.Skipped),
		"stopReason", run.StopReason,
		"elapsed", run.Elapsed(),
	)
	return nil
}

// summaryWriter assembles the run summary destinations: a console table
// unless quiet, plus a Markdown file when requested. The returned close
// function releases the Markdown file.
func summaryWriter(out io.Writer, cfg *config.Config) (report.SummaryWriter, func() error, error) {
	noop := func() error { return nil }

	writers := make([]report.SummaryWriter, 0, 2)
	if !cfg.Quiet {
		writers = append(writers, report.NewTextSummaryWriter(out))
	}

	closeFn := noop
	if cfg.SummaryFile != "" {
		if dir := filepath.Dir(cfg.SummaryFile); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, noop, fmt.Errorf("failed to create summary directory: %w", err)
			}
		}
		f, err := os.Create(cfg.SummaryFile) //nolint:gosec // Output path is chosen by the user
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create summary file: %w", err)
		}
		writers = append(writers, report.NewMarkdownSummaryWriter(f))
		closeFn = f.Close
	}

	if len(writers) == 0 {
		return nil, noop, nil
	}
	return report.NewMultiSummaryWriter(writers...), closeFn, nil
}
