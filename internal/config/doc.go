// Package config provides configuration structures and utilities for catalogcrawl.
// It defines the catalog location, fetch politeness and retry settings,
// concurrency limits and output preferences, and loads optional overrides
// from a YAML file.
package config
