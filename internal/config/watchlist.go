// Package config holds run-level configuration for the tracker: the watchlist
// of securities to follow and the relevance-filter tunables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tw-stock-tracker/internal/domain/entity"
)

// Default tunables. Keyword defaults match the disclosure vocabulary used by
// Taiwanese financial news (earnings report, monthly revenue, earnings call, EPS).
var (
	defaultIncludeKeywords = []string{"財報", "營收", "法說會", "EPS"}

	// Exclude terms cover technical-analysis and trading-flow noise that
	// mentions a company without saying anything about its fundamentals.
	defaultExcludeKeywords = []string{
		"技術分析", "K線", "均線", "籌碼", "當沖", "飆股", "短線", "波段", "多空",
		"目標價", "操作", "選股", "盤中", "收盤", "漲停", "跌停", "買點", "賣點",
	}
)

const (
	defaultLookbackDays     = 7
	defaultMaxNewsPerStock  = 3
	defaultFetchParallelism = 4

	maxFetchParallelism = 16
)

// Watchlist is the run configuration: the ordered list of securities to track
// plus the relevance-filter tunables. The order of Securities defines the
// report order.
type Watchlist struct {
	// Securities is the ordered list of tracked equities. Must not be empty.
	Securities []entity.Security `yaml:"securities"`

	// LookbackDays is the trailing window, in days, within which a news item
	// must have been published to qualify. Default: 7
	LookbackDays int `yaml:"lookback_days"`

	// MaxNewsPerStock caps the number of news items kept per security.
	// Default: 3
	MaxNewsPerStock int `yaml:"max_news_per_stock"`

	// IncludeKeywords is the set of terms at least one of which must appear in
	// a news title (case-insensitive substring) for the item to qualify.
	IncludeKeywords []string `yaml:"include_keywords"`

	// ExcludeKeywords is the set of terms none of which may appear in a
	// qualifying news title. Operator-tunable.
	ExcludeKeywords []string `yaml:"exclude_keywords"`

	// FetchParallelism bounds the number of securities fetched concurrently.
	// Range: 1-16. Default: 4
	FetchParallelism int `yaml:"fetch_parallelism"`
}

// LoadWatchlist reads and validates a watchlist configuration file.
// Missing tunables fall back to defaults; a missing or empty securities list
// is a fatal configuration error and no report must be produced from it.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist %s: %w", path, err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist parses watchlist YAML, applies defaults and validates.
func ParseWatchlist(data []byte) (*Watchlist, error) {
	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	wl.applyDefaults()
	if err := wl.Validate(); err != nil {
		return nil, err
	}
	return &wl, nil
}

// applyDefaults fills unset tunables with their defaults.
func (w *Watchlist) applyDefaults() {
	if w.LookbackDays == 0 {
		w.LookbackDays = defaultLookbackDays
	}
	if w.MaxNewsPerStock == 0 {
		w.MaxNewsPerStock = defaultMaxNewsPerStock
	}
	if w.FetchParallelism == 0 {
		w.FetchParallelism = defaultFetchParallelism
	}
	if len(w.IncludeKeywords) == 0 {
		w.IncludeKeywords = append([]string(nil), defaultIncludeKeywords...)
	}
	if len(w.ExcludeKeywords) == 0 {
		w.ExcludeKeywords = append([]string(nil), defaultExcludeKeywords...)
	}
}

// Validate checks the watchlist configuration. Violations are fatal to the run.
func (w *Watchlist) Validate() error {
	if len(w.Securities) == 0 {
		return entity.ErrEmptyWatchlist
	}
	seen := make(map[string]bool, len(w.Securities))
	for i := range w.Securities {
		if err := w.Securities[i].Validate(); err != nil {
			return fmt.Errorf("securities[%d]: %w", i, err)
		}
		if seen[w.Securities[i].Code] {
			return fmt.Errorf("securities[%d]: %w: duplicate code %s", i, entity.ErrInvalidInput, w.Securities[i].Code)
		}
		seen[w.Securities[i].Code] = true
	}
	if w.LookbackDays < 1 || w.LookbackDays > 90 {
		return fmt.Errorf("lookback_days %d out of range 1-90: %w", w.LookbackDays, entity.ErrInvalidInput)
	}
	if w.MaxNewsPerStock < 1 || w.MaxNewsPerStock > 50 {
		return fmt.Errorf("max_news_per_stock %d out of range 1-50: %w", w.MaxNewsPerStock, entity.ErrInvalidInput)
	}
	if w.FetchParallelism < 1 || w.FetchParallelism > maxFetchParallelism {
		return fmt.Errorf("fetch_parallelism %d out of range 1-%d: %w", w.FetchParallelism, maxFetchParallelism, entity.ErrInvalidInput)
	}
	return nil
}
