package api

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when a revenue fetch is attempted
	// without a usable API key. No network call is made.
	ErrMissingCredential = errors.New("missing api credential")
	// ErrPageLimitExceeded is returned when the revenue API keeps returning
	// non-empty pages past the configured bound.
	ErrPageLimitExceeded = errors.New("pagination limit exceeded")
	// ErrMissingField is returned when a provider row lacks an expected column.
	ErrMissingField = errors.New("missing field")
	// ErrUnknownField is returned when a record has no column of the given name.
	ErrUnknownField = errors.New("unknown field")
	// ErrYearOutOfRange is returned for fiscal years outside the supported range.
	ErrYearOutOfRange = errors.New("year out of range")
)

// HTTPError describes a failed revenue API request. StatusCode is zero when
// the request never produced a response.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
	URL        string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("request %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("request %s: %s: %s", e.URL, e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// ProviderError wraps any failure of the expenditure provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
