// Package log builds the slog loggers used by catalogcrawl.
//
// Every logger returned here wraps its handler in a SecureHandler, which
// redacts credentials before a record is written:
//   - attributes named like a credential (Cookie, Authorization, *token*, ...)
//   - values that look like one (bearer and basic credentials, JWTs, PEM keys)
//   - passwords and sensitive query parameters inside URLs, including URLs
//     embedded in error messages
//   - sensitive entries of header maps
//
// A crawl configured with a session cookie can therefore run with --verbose
// without leaking it.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, log.LevelFor(verbose, quiet))
//	logger.Debug("request", "url", pageURL, "headers", headers)
package log
