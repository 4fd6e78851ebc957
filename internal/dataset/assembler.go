package dataset

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/catalogcrawl/internal/log"
	"github.com/nao1215/catalogcrawl/internal/model"
)

// ParseFunc turns one detail URL into an Assessment.
// An error or a nil record means the URL is skipped.
// crawler.DetailParser.Parse satisfies it.
type ParseFunc func(ctx context.Context, url string) (*model.Assessment, error)

// Assembler builds a Dataset from a LinkTable.
type Assembler struct {
	// concurrency is the number of detail pages parsed at once.
	// 1 keeps parsing strictly sequential.
	concurrency int

	// policy filters detail URLs. nil allows everything.
	policy model.URLPolicy

	logger *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithConcurrency sets the number of detail pages parsed at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithURLPolicy skips detail URLs the policy disallows.
func WithURLPolicy(p model.URLPolicy) Option {
	return func(a *Assembler) {
		a.policy = p
	}
}

// WithLogger sets the logger for per-URL progress.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates a sequential Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		concurrency: 1,
		logger:      log.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the outcome of Assemble.
type Result struct {
	// Dataset holds the parsed records, unique by URL.
	Dataset *model.Dataset

	// Skipped lists URLs that failed to parse or were disallowed, in table order.
	Skipped []string
}

// slot state for one link.
type slotState int

const (
	slotPending slotState = iota
	slotDone
	slotSkipped
)

// Assemble parses every URL in table with parse and returns the dataset.
//
// Records keep the table's order even when parsing runs concurrently.
// A failed parse is logged and the URL is skipped. A nil table is empty.
// If ctx is cancelled,
// Assemble returns the records finished so far together with ctx's error.
func (a *Assembler) Assemble(ctx context.Context, table *model.LinkTable, parse ParseFunc) (*Result, error) {
	links := table.Links()
	total := len(links)

	records := make([]*model.Assessment, total)
	states := make([]slotState, total)

	a.logger.Info("starting detail scraping", "total", total, "concurrency", a.concurrency)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, link := range links {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			if a.policy != nil && !a.policy.Allowed(link.URL) {
				a.logger.Warn("detail page disallowed by robots.txt", "url", link.URL)
				states[i] = slotSkipped
				return nil
			}

			a.logger.Info("scraping detail", "index", i+1, "total", total, "name", link.Name, "url", link.URL)

			rec, err := parse(gctx, link.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				a.logger.Warn("failed to parse detail, skipping", "url", link.URL, "error", err)
				states[i] = slotSkipped
				return nil
			}
			if rec == nil {
				a.logger.Warn("detail yielded no record, skipping", "url", link.URL)
				states[i] = slotSkipped
				return nil
			}

			if rec.Name == "" {
				rec.Name = link.Name
			}
			records[i] = rec
			states[i] = slotDone
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	result := collect(links, records, states)

	a.logger.Info("detail scraping finished",
		"rows", result.Dataset.Len(),
		"skipped", len(result.Skipped),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return result, err
}

// collect gathers finished records in table order and deduplicates them.
func collect(links []model.Link, records []*model.Assessment, states []slotState) *Result {
	parsed := make([]model.Assessment, 0, len(records))
	skipped := make([]string, 0)

	for i, state := range states {
		switch state {
		case slotDone:
			parsed = append(parsed, *records[i])
		case slotSkipped:
			skipped = append(skipped, links[i].URL)
		case slotPending:
		}
	}

	return &Result{
		Dataset: model.NewDataset(parsed),
		Skipped: skipped,
	}
}
