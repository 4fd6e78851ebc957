package report

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// CSVWriter outputs datasets as RFC 4180 CSV with a header row.
// Cells containing commas, quotes or newlines are quoted.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// WriteDataset writes the header and one row per record.
func (w *CSVWriter) WriteDataset(d *model.Dataset) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(model.Columns()); err != nil {
		return counter.n, err
	}
	if err := cw.WriteAll(d.Rows()); err != nil {
		return counter.n, err
	}
	return counter.n, cw.Error()
}
