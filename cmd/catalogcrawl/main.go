// Package main provides the entry point for the catalogcrawl CLI.
//
// catalogcrawl crawls a paginated product catalog, follows every product
// detail link and writes one structured record per product.
//
// Usage:
//
//	catalogcrawl crawl
//	catalogcrawl crawl --max-pages 5 -o tests.xlsx
//	catalogcrawl inspect shl_individual_tests.csv
//	catalogcrawl history --compare
//
// See --help for all available options.
package main

// main is the entry point for catalogcrawl.
func main() {
	Execute()
}
