package fetch

import (
	"errors"
	"fmt"
)

// ErrUnavailable is matched by every error Fetch returns after exhausting
// its attempts. The page should be treated as absent.
var ErrUnavailable = errors.New("page unavailable")

// StatusError reports a response whose status was not 200.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// FetchError is returned when all attempts for a URL failed.
// Err holds the failure of the last attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUnavailable.
func (e *FetchError) Is(target error) bool {
	return target == ErrUnavailable
}
