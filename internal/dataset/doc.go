// Package dataset assembles parsed assessments into the final dataset and
// reads finished datasets back.
//
// The Assembler walks a LinkTable in discovery order, parses every detail
// URL, skips the ones that fail, back-fills empty names from the catalog
// link text and removes duplicate URLs, keeping the first.
//
// Load accepts files produced by this tool or by hand. Columns are located
// through alias lists, so "Assessment Name", "name" and "Title" all resolve
// to the name column.
package dataset
