// Package fetch retrieves catalog and detail pages over HTTP.
//
// A Fetcher wraps a resty client configured with a browser-like User-Agent
// and a per-request timeout. Every call makes up to MaxAttempts requests,
// waits a fixed delay between failed attempts, and sleeps a politeness
// delay after a success. A response counts as a success only when its
// status is 200.
//
// Failures never panic and are never fatal: Fetch returns an error that
// matches ErrUnavailable with errors.Is, and callers treat the page as
// absent.
//
// # Usage
//
//	f := fetch.New(
//	    fetch.WithTimeout(15*time.Second),
//	    fetch.WithMaxAttempts(3),
//	    fetch.WithLogger(logger),
//	)
//	body, err := f.Fetch(ctx, pageURL, url.Values{"type": {"1"}}, fetch.WithPoliteness(time.Second))
//	if errors.Is(err, fetch.ErrUnavailable) {
//	    // page absent
//	}
package fetch
