package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/catalogcrawl/internal/dataset"
)

// TestRunInspectCmd tests printing a dataset file.
func TestRunInspectCmd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tests.csv")
	content := "name,url,description,job_levels,languages,assessment_length_minutes,test_type\n" +
		"Java 8,https://example.com/view/java-8/,Java knowledge,,English,18,K\n" +
		"OPQ32r,https://example.com/view/opq32r/,Personality,,,,P\n" +
		"Python,https://example.com/view/python/,Python knowledge,,,11,K\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}

	t.Run("limited listing", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cmd := NewInspectCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{path, "--limit", "2"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := out.String()
		if !strings.Contains(got, "Java 8") || !strings.Contains(got, "OPQ32r") {
			t.Errorf("expected the first two records, got:\n%s", got)
		}
		if strings.Contains(got, "https://example.com/view/python/") {
			t.Errorf("expected the third record to be cut off, got:\n%s", got)
		}
		if !strings.Contains(strings.ToLower(got), "showing 2 of 3 records") {
			t.Errorf("expected a truncation footer, got:\n%s", got)
		}
	})

	t.Run("all records with test type counts", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cmd := NewInspectCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{path, "--limit", "0"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := strings.ToLower(out.String())
		if !strings.Contains(got, "3 records") || strings.Contains(got, "showing") {
			t.Errorf("expected every record, got:\n%s", got)
		}
		if !strings.Contains(got, "test type") {
			t.Errorf("expected a test type table, got:\n%s", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		cmd := NewInspectCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.csv")})

		if err := cmd.Execute(); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("unsupported file", func(t *testing.T) {
		t.Parallel()

		cmd := NewInspectCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"tests.parquet"})

		if err := cmd.Execute(); !errors.Is(err, dataset.ErrUnsupportedFile) {
			t.Errorf("expected ErrUnsupportedFile, got %v", err)
		}
	})

	t.Run("requires a file argument", func(t *testing.T) {
		t.Parallel()

		cmd := NewInspectCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error without a file argument")
		}
	})
}
