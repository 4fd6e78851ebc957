// Package pipeline runs a crawl as a sequence of steps over one
// model.CrawlReport.
//
// The standard pipeline built by DefaultPipeline is:
//
//	robots (optional) -> catalog -> detail -> output -> finalize -> persist (optional) -> summary (optional)
//
// Each step reads what earlier steps left in the report and adds its own
// part. The report is the only crawl state; steps keep none between runs.
// Cancellation is checked between steps, and steps that block honour the
// context themselves.
package pipeline
