package track

import "errors"

// Package-level errors for the tracking use case.
var (
	// ErrNoSecurities indicates TrackAll was invoked with an empty watchlist.
	// Callers should treat this as a configuration failure.
	ErrNoSecurities = errors.New("no securities configured")
)
