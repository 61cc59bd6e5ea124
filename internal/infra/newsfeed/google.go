// Package newsfeed provides the Google News RSS adapter for per-security
// keyword searches. It uses the gofeed library to parse feed content with
// reliability patterns.
package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"tw-stock-tracker/internal/domain/entity"
	"tw-stock-tracker/internal/resilience/circuitbreaker"
	"tw-stock-tracker/internal/resilience/retry"
)

const (
	defaultBaseURL         = "https://news.google.com/rss/search"
	defaultUserAgent       = "tw-stock-tracker"
	defaultRequestInterval = 700 * time.Millisecond
)

// Config holds the settings for a GoogleNewsFetcher.
type Config struct {
	// BaseURL is the search feed endpoint. Defaults to the Google News RSS
	// search URL; tests point it at a local server.
	BaseURL string

	// QueryKeywords are OR-combined into the search query alongside the
	// security name.
	QueryKeywords []string

	// UserAgent is sent with every feed request.
	UserAgent string

	// RequestInterval is the minimum spacing between queries. All queries in
	// a run hit the same host, so they are paced rather than fired at once.
	RequestInterval time.Duration
}

// GoogleNewsFetcher fetches candidate news items from the Google News RSS
// search feed. It includes circuit breaker, retry and rate limiting logic
// for improved reliability.
type GoogleNewsFetcher struct {
	client         *http.Client
	cfg            Config
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewGoogleNewsFetcher creates a fetcher with the given HTTP client and
// configuration. Zero-value config fields fall back to production defaults.
func NewGoogleNewsFetcher(client *http.Client, cfg Config) *GoogleNewsFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = defaultRequestInterval
	}

	return &GoogleNewsFetcher{
		client:         client,
		cfg:            cfg,
		limiter:        rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		circuitBreaker: circuitbreaker.New(circuitbreaker.NewsFetchConfig()),
		retryConfig:    retry.NewsFetchConfig(),
	}
}

// FetchCandidates queries the feed for news about the given security published
// within the trailing lookback window. Items outside the window are dropped
// and duplicate URLs keep their first occurrence. Failures are reported as
// entity.ErrSourceUnavailable so callers can degrade instead of aborting.
func (f *GoogleNewsFetcher) FetchCandidates(ctx context.Context, sec entity.Security, lookbackDays int) ([]entity.NewsItem, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	feedURL := f.queryURL(sec.Name, lookbackDays)

	var items []entity.NewsItem
	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL, lookbackDays)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("news fetch circuit breaker open, request rejected",
					slog.String("service", "news-fetch"),
					slog.String("code", sec.Code),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]entity.NewsItem)
		return nil
	})

	if retryErr != nil {
		return nil, fmt.Errorf("%w: news query for %s: %v", entity.ErrSourceUnavailable, sec.Code, retryErr)
	}

	return items, nil
}

// queryURL builds the search feed URL for one security. The query combines
// the security name with the OR-joined keywords and a trailing-window hint,
// localized to Traditional Chinese results for Taiwan.
func (f *GoogleNewsFetcher) queryURL(name string, lookbackDays int) string {
	query := fmt.Sprintf("%s (%s) when:%dd", name, strings.Join(f.cfg.QueryKeywords, " OR "), lookbackDays)

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "zh-TW")
	params.Set("gl", "TW")
	params.Set("ceid", "TW:zh-Hant")

	return f.cfg.BaseURL + "?" + params.Encode()
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *GoogleNewsFetcher) doFetch(ctx context.Context, feedURL string, lookbackDays int) ([]entity.NewsItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.cfg.UserAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	items := make([]entity.NewsItem, 0, len(feed.Items))
	seen := make(map[string]bool, len(feed.Items))
	for _, it := range feed.Items {
		if it.Link == "" || it.PublishedParsed == nil {
			continue
		}
		// The query carries a window hint, but the feed is not trusted to
		// honor it.
		if it.PublishedParsed.Before(cutoff) {
			continue
		}
		if seen[it.Link] {
			continue
		}
		seen[it.Link] = true

		items = append(items, entity.NewsItem{
			Title:       it.Title,
			URL:         it.Link,
			PublishedAt: *it.PublishedParsed,
		})
	}

	return items, nil
}
