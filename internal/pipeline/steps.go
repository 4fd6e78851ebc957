package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/catalogcrawl/internal/config"
	"github.com/nao1215/catalogcrawl/internal/crawler"
	"github.com/nao1215/catalogcrawl/internal/database"
	"github.com/nao1215/catalogcrawl/internal/dataset"
	"github.com/nao1215/catalogcrawl/internal/fetch"
	"github.com/nao1215/catalogcrawl/internal/log"
	"github.com/nao1215/catalogcrawl/internal/model"
	"github.com/nao1215/catalogcrawl/internal/report"
)

// RobotsStep loads robots.txt and installs it as the run's URL policy.
// Later steps skip URLs the policy disallows.
type RobotsStep struct {
	fetcher   crawler.RobotsFetcher
	userAgent string
	logger    *slog.Logger
}

// NewRobotsStep creates a step that reads robots.txt with fetcher and
// evaluates it for userAgent.
func NewRobotsStep(fetcher crawler.RobotsFetcher, userAgent string, logger *slog.Logger) *RobotsStep {
	if logger == nil {
		logger = log.Discard()
	}
	return &RobotsStep{fetcher: fetcher, userAgent: userAgent, logger: logger}
}

// Name returns the step name.
func (s *RobotsStep) Name() string {
	return "robots"
}

// Do executes the robots step. An unreachable robots.txt leaves the run
// unrestricted.
func (s *RobotsStep) Do(ctx context.Context, run *model.CrawlReport) error {
	policy, err := crawler.LoadRobots(ctx, s.fetcher, run.BaseURL, s.userAgent, s.logger)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("robots.txt unavailable, crawling without restrictions", "error", err)
		return nil
	}
	run.Policy = policy
	return nil
}

// CatalogStep paginates the catalog and fills the run's link table.
type CatalogStep struct {
	fetcher   crawler.PageFetcher
	extractor *crawler.LinkExtractor
	maxPages  int
	opts      []crawler.SpiderOption
}

// NewCatalogStep creates a step that crawls up to maxPages catalog pages.
// The run's URL policy is added to opts when the step executes.
func NewCatalogStep(fetcher crawler.PageFetcher, extractor *crawler.LinkExtractor, maxPages int, opts ...crawler.SpiderOption) *CatalogStep {
	return &CatalogStep{
		fetcher:   fetcher,
		extractor: extractor,
		maxPages:  maxPages,
		opts:      opts,
	}
}

// Name returns the step name.
func (s *CatalogStep) Name() string {
	return "catalog"
}

// Do executes the catalog crawl.
func (s *CatalogStep) Do(ctx context.Context, run *model.CrawlReport) error {
	opts := append(append([]crawler.SpiderOption{}, s.opts...), crawler.WithURLPolicy(run))
	spider := crawler.NewSpider(s.fetcher, s.extractor, opts...)

	result, err := spider.Crawl(ctx, run.Links, s.maxPages)
	if result != nil {
		run.Links = result.Links
		run.PagesFetched = result.PagesFetched
		run.StopReason = result.StopReason
	}
	return err
}

// DetailStep parses every discovered detail page into the run's dataset.
type DetailStep struct {
	parser *crawler.DetailParser
	opts   []dataset.Option
}

// NewDetailStep creates a step that parses detail pages with parser.
// The run's URL policy is added to opts when the step executes.
func NewDetailStep(parser *crawler.DetailParser, opts ...dataset.Option) *DetailStep {
	return &DetailStep{parser: parser, opts: opts}
}

// Name returns the step name.
func (s *DetailStep) Name() string {
	return "detail"
}

// Do executes the detail step.
func (s *DetailStep) Do(ctx context.Context, run *model.CrawlReport) error {
	opts := append(append([]dataset.Option{}, s.opts...), dataset.WithURLPolicy(run))
	result, err := dataset.NewAssembler(opts...).Assemble(ctx, run.Links, s.parser.Parse)
	if result != nil {
		run.Dataset = result.Dataset
		run.Skipped = result.Skipped
	}
	return err
}

// OutputStep writes the dataset to a file.
type OutputStep struct {
	path   string
	format report.Format
	logger *slog.Logger
}

// NewOutputStep creates a step writing the dataset to path in format.
func NewOutputStep(path string, format report.Format, logger *slog.Logger) *OutputStep {
	if logger == nil {
		logger = log.Discard()
	}
	return &OutputStep{path: path, format: format, logger: logger}
}

// Name returns the step name.
func (s *OutputStep) Name() string {
	return "output"
}

// Do writes the dataset. An empty dataset still produces a file so that
// downstream consumers see the header.
func (s *OutputStep) Do(_ context.Context, run *model.CrawlReport) error {
	if err := report.WriteDatasetFile(s.path, s.format, run.Dataset); err != nil {
		return err
	}
	run.OutputFile = s.path
	s.logger.Info("dataset written", "file", s.path, "format", string(s.format), "records", run.RecordCount())
	return nil
}

// StatsSource reports request counters. *fetch.Fetcher implements it.
type StatsSource interface {
	Stats() fetch.Stats
}

// FinalizeStep stamps the finish time and request counters on the run.
type FinalizeStep struct {
	stats StatsSource
	now   func() time.Time
}

// NewFinalizeStep creates a step reading counters from stats, which may be nil.
func NewFinalizeStep(stats StatsSource) *FinalizeStep {
	return &FinalizeStep{stats: stats, now: time.Now}
}

// Name returns the step name.
func (s *FinalizeStep) Name() string {
	return "finalize"
}

// Do executes the finalize step.
func (s *FinalizeStep) Do(_ context.Context, run *model.CrawlReport) error {
	run.FinishedAt = s.now()
	if s.stats != nil {
		st := s.stats.Stats()
		run.Requests = st.Requests
		run.FailedAttempts = st.Failures
	}
	return nil
}

// RunSaver stores a finished run. *database.CrawlDB implements it.
type RunSaver interface {
	SaveRun(ctx context.Context, run *model.CrawlReport) (int64, error)
}

// PersistStep saves the run to the history database.
type PersistStep struct {
	db     RunSaver
	logger *slog.Logger
}

// NewPersistStep creates a step saving runs to db.
func NewPersistStep(db RunSaver, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = log.Discard()
	}
	return &PersistStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, run *model.CrawlReport) error {
	id, err := s.db.SaveRun(ctx, run)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	s.logger.Info("run saved", "run_id", id)
	return nil
}

// SummaryStep writes a run summary.
type SummaryStep struct {
	writer  report.SummaryWriter
	version string
}

// NewSummaryStep creates a step writing summaries with writer.
func NewSummaryStep(writer report.SummaryWriter, version string) *SummaryStep {
	return &SummaryStep{writer: writer, version: version}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, run *model.CrawlReport) error {
	if _, err := s.writer.WriteSummary(report.NewSummary(run, s.version)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ErrNoFetcher is returned by DefaultPipeline when no fetcher is supplied.
var ErrNoFetcher = errors.New("pipeline requires a fetcher")

// Dependencies holds the collaborators DefaultPipeline wires into steps.
type Dependencies struct {
	// Fetcher performs every HTTP request of the run.
	Fetcher *fetch.Fetcher

	// DB stores the run when cfg.SaveToDB is set.
	DB *database.CrawlDB

	// Summary receives the run summary. Nil disables the summary step.
	Summary report.SummaryWriter

	// Version is recorded in summaries.
	Version string
}

// DefaultPipeline creates the standard crawl pipeline for cfg:
// robots (optional), catalog, detail, output, finalize, persist (optional)
// and summary (optional).
func DefaultPipeline(cfg *config.Config, deps Dependencies, opts ...Option) (*Pipeline, error) {
	if deps.Fetcher == nil {
		return nil, ErrNoFetcher
	}

	p := New(opts...)
	logger := p.Logger()

	format, err := report.ResolveFormat(cfg.Format, cfg.OutputFile)
	if err != nil {
		return nil, err
	}

	extractor, err := crawler.NewLinkExtractor(cfg.BaseURL, cfg.DetailMarker)
	if err != nil {
		return nil, err
	}

	if cfg.RespectRobots {
		p.AddStep(NewRobotsStep(deps.Fetcher, cfg.UserAgent, logger))
	}

	parser := crawler.NewDetailParser(deps.Fetcher,
		crawler.WithDetailDelay(cfg.DetailDelay),
		crawler.WithDetailLogger(logger),
	)

	p.AddSteps(
		NewCatalogStep(deps.Fetcher, extractor, cfg.MaxPages,
			crawler.WithCatalogURL(cfg.CatalogURL()),
			crawler.WithViewType(cfg.ViewType),
			crawler.WithPageSize(cfg.PageSize),
			crawler.WithDelay(cfg.CatalogDelay),
			crawler.WithCatalogRetries(cfg.CatalogRetries, cfg.CatalogRetryDelay),
			crawler.WithLogger(logger),
		),
		NewDetailStep(parser,
			dataset.WithConcurrency(cfg.Concurrency),
			dataset.WithLogger(logger),
		),
		NewOutputStep(cfg.OutputFile, format, logger),
		NewFinalizeStep(deps.Fetcher),
	)

	if cfg.SaveToDB && deps.DB != nil {
		p.AddStep(NewPersistStep(deps.DB, logger))
	}
	if deps.Summary != nil {
		p.AddStep(NewSummaryStep(deps.Summary, deps.Version))
	}

	return p, nil
}
