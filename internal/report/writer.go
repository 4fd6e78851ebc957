package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// ErrUnknownFormat is returned for dataset formats no writer supports.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is a dataset output format.
type Format string

const (
	// FormatCSV writes a header row followed by one row per record.
	FormatCSV Format = "csv"

	// FormatJSON writes an array of record objects.
	FormatJSON Format = "json"

	// FormatXLSX writes a single-sheet workbook.
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}

// ResolveFormat picks the output format. An explicit format wins; otherwise
// the extension of path decides, falling back to CSV.
func ResolveFormat(explicit, path string) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}
	if f, ok := FormatFromPath(path); ok {
		return f, nil
	}
	return FormatCSV, nil
}

// DatasetWriter writes an assembled dataset.
// Implementations emit the columns of model.Columns() in that order.
type DatasetWriter interface {
	// WriteDataset outputs the dataset and returns the number of bytes written.
	WriteDataset(d *model.Dataset) (int, error)
}

// SummaryWriter writes a run summary.
type SummaryWriter interface {
	// WriteSummary outputs the summary and returns the number of bytes written.
	WriteSummary(s *Summary) (int, error)
}

// NewDatasetWriter returns the writer for format f.
func NewDatasetWriter(output io.Writer, f Format) (DatasetWriter, error) {
	switch f {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatXLSX:
		return NewXLSXWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteDatasetFile writes d to path in format f, creating or truncating the
// file. A nil dataset produces a header-only (or empty) artifact.
func WriteDatasetFile(path string, f Format, d *model.Dataset) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	file, err := os.Create(path) //nolint:gosec // Output path is chosen by the user
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w, err := NewDatasetWriter(file, f)
	if err != nil {
		return err
	}
	if _, err := w.WriteDataset(d); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MultiSummaryWriter writes a summary to several writers, e.g. a console
// table and a Markdown file.
type MultiSummaryWriter struct {
	writers []SummaryWriter
}

// NewMultiSummaryWriter creates a SummaryWriter that writes to all writers.
func NewMultiSummaryWriter(writers ...SummaryWriter) *MultiSummaryWriter {
	return &MultiSummaryWriter{writers: writers}
}

// WriteSummary outputs the summary to every writer.
// Returns the total bytes written and stops on the first error.
func (m *MultiSummaryWriter) WriteSummary(s *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(s)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter counts bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
