// Package model defines the core data structures used throughout catalogcrawl.
//
// This package contains the following main types:
//   - Link: A (display name, detail URL) pair found on a catalog page
//   - LinkTable: The ordered, deduplicated set of links discovered by a crawl
//   - Assessment: One structured record extracted from a product detail page
//   - Dataset: The deduplicated, column-stable sequence of assessments
//   - CrawlReport: The state of a single crawl run, threaded through the pipeline
//
// Models live in their own package because crawler, dataset, report and
// database all exchange them; keeping them here avoids import cycles.
package model
