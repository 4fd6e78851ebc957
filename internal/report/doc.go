// Package report writes crawl output.
//
// Datasets are written by DatasetWriter implementations, one per Format:
//   - CSVWriter: header row plus one row per record (the default)
//   - JSONWriter: an array of record objects
//   - XLSXWriter: a single-sheet workbook
//
// Every format uses the column order of model.Columns(), so downstream
// consumers can locate columns by header regardless of format.
//
// Run summaries are derived from model.CrawlReport and written by
// SummaryWriter implementations: TextSummaryWriter renders console tables,
// MarkdownSummaryWriter produces a Markdown document and JSONWriter emits
// the summary as JSON.
package report
