package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is()
// while still printing a human-readable message.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidPageSize is returned when the catalog page size is not positive.
	// The page size is the offset step between catalog pages.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxAttempts is returned when fewer than one attempt is configured.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

	// ErrInvalidDelay is returned when a retry or politeness delay is negative.
	// Use 0 for no delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidCatalogRetries is returned when the catalog retry budget is negative.
	ErrInvalidCatalogRetries = errors.New("invalid catalog retries: must be non-negative")

	// ErrInvalidConcurrency is returned when the detail worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrNoDetailMarker is returned when no detail path marker is configured.
	// Without it no catalog anchor can qualify as a product link.
	ErrNoDetailMarker = errors.New("no detail marker: the detail page path segment must be set")

	// ErrNoOutput is returned when no output file is configured.
	ErrNoOutput = errors.New("no output file specified")

	// ErrConflictingLogLevels is returned when both --verbose and --quiet are set.
	ErrConflictingLogLevels = errors.New("conflicting log levels: --verbose and --quiet cannot be used together")
)
