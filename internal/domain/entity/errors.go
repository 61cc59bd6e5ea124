package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrSourceUnavailable indicates that an external news or revenue source
	// failed or timed out. It degrades the affected record, never the run.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEmptyWatchlist indicates that the configured security list is empty.
	// This is fatal to the run; no report is produced.
	ErrEmptyWatchlist = errors.New("watchlist is empty")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
