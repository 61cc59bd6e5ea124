package entity

import "time"

// SecurityRecord combines one security with its qualifying news items and the
// latest revenue fact. It is built once per security per run and is immutable
// once built.
//
// Invariants: News is ordered newest-first, contains no duplicate URLs, and its
// length never exceeds the configured per-security maximum.
type SecurityRecord struct {
	Security Security
	News     []NewsItem
	Revenue  RevenueFact
}

// Report is the assembled output of one run: all security records in
// configuration order, plus the generation timestamp and the lookback window
// that was used.
type Report struct {
	Records      []SecurityRecord
	GeneratedAt  time.Time
	LookbackDays int
}
