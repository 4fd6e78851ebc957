package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.CrawlReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.CrawlReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.Logger() == nil {
			t.Error("expected a default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if diff := cmp.Diff([]string{"first", "second", "third"}, p.StepNames()); diff != "" {
		t.Errorf("step names mismatch (-want +got):\n%s", diff)
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		step := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(_ context.Context, _ *model.CrawlReport) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New()
		p.AddSteps(step("catalog"), step("detail"), step("output"))

		run := model.NewCrawlReport("https://example.com")
		if err := p.Execute(t.Context(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"catalog", "detail", "output"}
		if diff := cmp.Diff(want, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, run.PerformedSteps); diff != "" {
			t.Errorf("performed steps mismatch (-want +got):\n%s", diff)
		}
		if run.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
	})

	t.Run("steps share the run state", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "catalog", doFunc: func(_ context.Context, run *model.CrawlReport) error {
				run.Links.Add(model.Link{Name: "A", URL: "https://example.com/view/a/"})
				return nil
			}},
			&mockStep{name: "detail", doFunc: func(_ context.Context, run *model.CrawlReport) error {
				if run.LinkCount() != 1 {
					return errors.New("link table not shared")
				}
				return nil
			}},
		)

		if err := p.Execute(t.Context(), model.NewCrawlReport("https://example.com")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("disk full")
		failing := &mockStep{name: "output", doFunc: func(context.Context, *model.CrawlReport) error { return wantErr }}
		after := &mockStep{name: "persist"}

		p := New()
		p.AddSteps(&mockStep{name: "catalog"}, failing, after)

		run := model.NewCrawlReport("https://example.com")
		err := p.Execute(t.Context(), run)
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected %v, got %v", wantErr, err)
		}
		if after.callCount != 0 {
			t.Error("expected later steps to be skipped")
		}
		if run.ErrorMessage != "disk full" {
			t.Errorf("expected error recorded, got %q", run.ErrorMessage)
		}
		if diff := cmp.Diff([]string{"catalog"}, run.PerformedSteps); diff != "" {
			t.Errorf("performed steps mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		after := &mockStep{name: "summary"}
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "persist", doFunc: func(context.Context, *model.CrawlReport) error { return errors.New("locked") }},
			after,
		)

		run := model.NewCrawlReport("https://example.com")
		if err := p.Execute(t.Context(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after.callCount != 1 {
			t.Error("expected later step to run")
		}
		if run.ErrorMessage != "locked" {
			t.Errorf("expected error recorded, got %q", run.ErrorMessage)
		}
	})

	t.Run("cancellation before a step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		step := &mockStep{name: "detail"}
		p := New()
		p.AddSteps(
			&mockStep{name: "catalog", doFunc: func(context.Context, *model.CrawlReport) error {
				cancel()
				return nil
			}},
			step,
		)

		run := model.NewCrawlReport("https://example.com")
		err := p.Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected detail step to be skipped")
		}
		if run.StopReason != model.StopCancelled {
			t.Errorf("expected cancelled stop reason, got %s", run.StopReason)
		}
	})

	t.Run("cancellation keeps an earlier stop reason", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		p := New()
		p.AddSteps(
			&mockStep{name: "catalog", doFunc: func(_ context.Context, run *model.CrawlReport) error {
				run.StopReason = model.StopNoNewLinks
				cancel()
				return nil
			}},
			&mockStep{name: "detail"},
		)

		run := model.NewCrawlReport("https://example.com")
		_ = p.Execute(ctx, run)
		if run.StopReason != model.StopNoNewLinks {
			t.Errorf("expected no_new_links, got %s", run.StopReason)
		}
	})
}
