// Package database provides SQLite-based run history for catalogcrawl.
//
// This package implements the CrawlDB, which stores:
//   - Crawl runs with their metadata (stop reason, counts, timing)
//   - The catalog link table discovered by each run
//   - The assessment records of each run with a content hash
//
// Storing the content hash lets two runs be compared by URL without
// re-reading every field: see CompareDatasets.
//
// The database is a single file (modernc.org/sqlite, CGO-free) kept in the
// XDG data directory unless another directory is configured.
package database
