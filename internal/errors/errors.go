// Package errors provides domain-specific error types and sentinel errors
// for the schedule scraper. Every failure category a schedule lookup can end
// in has a sentinel; use errors.Is() to classify.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure categories of a schedule lookup.
var (
	// ErrNetwork indicates a connection failure, timeout or non-2xx status.
	ErrNetwork = errors.New("network failure")

	// ErrAntiBot indicates a redirect loop or challenge page from the source site.
	ErrAntiBot = errors.New("blocked by anti-bot protection")

	// ErrGroupNotFound indicates the source site does not know the requested group.
	ErrGroupNotFound = errors.New("group not found")

	// ErrEmptySchedule indicates a valid page with no lessons left after filtering.
	ErrEmptySchedule = errors.New("empty schedule")

	// ErrUnrecognizedFormat indicates a page neither extractor could read.
	ErrUnrecognizedFormat = errors.New("unrecognized page format")

	// ErrInternal indicates an unexpected fault inside the extraction engine.
	ErrInternal = errors.New("internal parsing fault")

	// ErrInvalidInput indicates the caller provided an invalid query.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// FetchError represents a failed request to the schedule site.
// Err is one of ErrNetwork or ErrAntiBot, optionally joined with the
// transport error that caused it.
type FetchError struct {
	URL        string
	StatusCode int
	ViaProxy   bool
	Err        error
}

func (e *FetchError) Error() string {
	via := "direct"
	if e.ViaProxy {
		via = "proxy"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error (url=%s, status=%d, via=%s): %v", e.URL, e.StatusCode, via, e.Err)
	}
	return fmt.Sprintf("fetch error (url=%s, via=%s): %v", e.URL, via, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new fetch error of the given category.
// cause may be nil.
func NewFetchError(url string, statusCode int, viaProxy bool, category, cause error) *FetchError {
	err := category
	if cause != nil {
		err = errors.Join(category, cause)
	}
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		ViaProxy:   viaProxy,
		Err:        err,
	}
}

// IsAntiBot reports whether err was caused by anti-bot protection.
func IsAntiBot(err error) bool {
	return errors.Is(err, ErrAntiBot)
}

// IsNetwork reports whether err is a network failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsInvalidInput reports whether err is an input validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
