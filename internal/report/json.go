package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// JSONWriter outputs datasets and summaries in JSON format.
// Datasets are an array of objects keyed by column name, which
// dataset.Load reads back.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, each line starting with
// prefix. Without it the output is compact.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteDataset outputs the records as a JSON array.
// An empty or nil dataset is written as [] rather than null.
func (w *JSONWriter) WriteDataset(d *model.Dataset) (int, error) {
	records := make([]model.Assessment, 0, d.Len())
	if d != nil {
		records = append(records, d.Records...)
	}
	return w.encode(records)
}

// WriteSummary outputs the run summary as a JSON object.
func (w *JSONWriter) WriteSummary(s *Summary) (int, error) {
	return w.encode(s)
}

// encode writes v followed by a newline. Catalog text is full of '&' and
// angle brackets, so HTML escaping is off.
func (w *JSONWriter) encode(v any) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(false)
	if w.indent != "" || w.prefix != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	err := enc.Encode(v)
	return cw.n, err
}
