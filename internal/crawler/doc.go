// Package crawler discovers catalog products and extracts their details.
//
// # Components
//
//   - LinkExtractor: finds product detail links on one catalog listing page
//   - Spider: walks the catalog's pages by offset and accumulates a LinkTable
//   - DetailParser: turns one product detail page into an Assessment
//   - RobotsPolicy: optional robots.txt filter for the URLs above
//
// # Pagination
//
// Catalog pages are requested with type=<view> and, after the first page,
// start=<offset>. The Spider stops at the page limit, at the first page
// contributing no new links, or at the first page that cannot be fetched.
// The result records which of these happened, so a network outage can be
// told apart from the end of the catalog.
//
// # Detail extraction
//
// Detail pages are loosely structured. Each field is located on its own:
//   - name: the first h1
//   - description, job levels, languages: the first h3/h4 whose text contains
//     the label, then the next paragraph in document order
//   - duration: the first number in the text node mentioning the completion time
//   - test type: the text after "Test Type:" in the first text node containing it
//
// A section that is missing leaves its field empty.
//
// # Usage
//
//	extractor, _ := crawler.NewLinkExtractor(cfg.BaseURL, cfg.DetailMarker)
//	spider := crawler.NewSpider(fetcher, extractor, crawler.WithCatalogURL(cfg.CatalogURL()))
//	result, err := spider.Crawl(ctx, model.NewLinkTable(), cfg.MaxPages)
package crawler
