// Package track implements the tracking pipeline: per-security news and
// revenue aggregation and report assembly.
package track

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"tw-stock-tracker/internal/config"
	"tw-stock-tracker/internal/domain/entity"
	"tw-stock-tracker/internal/observability/metrics"
	"tw-stock-tracker/internal/observability/tracing"
)

// NewsSource is an interface for fetching candidate news items for a security.
// Implementations query an external feed, drop items outside the trailing
// lookback window, and deduplicate by URL before returning.
type NewsSource interface {
	FetchCandidates(ctx context.Context, sec entity.Security, lookbackDays int) ([]entity.NewsItem, error)
}

// RevenueSource is an interface for fetching a security's most recent monthly
// revenue disclosure. Implementations return an absent-marker fact (not an
// error) when the source has no row for the security's code.
type RevenueSource interface {
	LatestRevenue(ctx context.Context, sec entity.Security) (entity.RevenueFact, error)
}

// Service orchestrates one tracking run: it builds a SecurityRecord per
// configured security and assembles them into a Report in configuration order.
type Service struct {
	News      NewsSource
	Revenue   RevenueSource
	Watchlist *config.Watchlist
}

// NewService creates a tracking Service with the provided sources and watchlist.
func NewService(news NewsSource, revenue RevenueSource, wl *config.Watchlist) Service {
	return Service{
		News:      news,
		Revenue:   revenue,
		Watchlist: wl,
	}
}

// RunStats contains statistics about a tracking run.
type RunStats struct {
	Securities    int
	Candidates    int64
	Qualifying    int64
	NewsErrors    int64
	RevenueMisses int64
	Duration      time.Duration
}

// TrackAll builds a record for every configured security and assembles the
// report. Records are built concurrently under the configured parallelism
// bound, but the report's security order is always the configuration order.
// News URLs are unique across the whole run: a URL fetched for several
// securities stays with the first of them in configuration order.
//
// Per-security source failures degrade that security's record (empty news,
// absent revenue) and never fail the run; the only errors returned are an
// empty watchlist and context cancellation.
func (s *Service) TrackAll(ctx context.Context, generatedAt time.Time) (*entity.Report, *RunStats, error) {
	logger := slog.Default()
	start := time.Now()

	secs := s.Watchlist.Securities
	if len(secs) == 0 {
		return nil, nil, ErrNoSecurities
	}

	ctx, span := tracing.GetTracer().Start(ctx, "track.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("securities", len(secs)),
		attribute.Int("lookback_days", s.Watchlist.LookbackDays),
	)

	stats := &RunStats{Securities: len(secs)}

	// Revenue snapshots must not carry over between runs.
	if inv, ok := s.Revenue.(interface{ InvalidateSnapshot() }); ok {
		inv.InvalidateSnapshot()
	}

	// Records land at their configuration index, so completion order never
	// changes report order.
	records := make([]entity.SecurityRecord, len(secs))

	sem := make(chan struct{}, s.Watchlist.FetchParallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for i, sec := range secs {
		i, sec := i, sec
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }()

			records[i] = s.BuildRecord(egCtx, sec, stats)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, stats, fmt.Errorf("tracking run aborted: %w", err)
	}

	stats.Qualifying -= dedupeAcrossRecords(records)

	stats.Duration = time.Since(start)
	metrics.RecordRunDuration(stats.Duration)

	logger.Info("tracking run completed",
		slog.Int("securities", stats.Securities),
		slog.Int64("candidates", stats.Candidates),
		slog.Int64("qualifying", stats.Qualifying),
		slog.Int64("news_errors", stats.NewsErrors),
		slog.Int64("revenue_misses", stats.RevenueMisses),
		slog.Duration("duration", stats.Duration),
	)

	return &entity.Report{
		Records:      records,
		GeneratedAt:  generatedAt,
		LookbackDays: s.Watchlist.LookbackDays,
	}, stats, nil
}

// BuildRecord assembles one security's record: fetch candidates, filter by
// keyword relevance, order newest-first, truncate, and attach the latest
// revenue fact. It never fails outright: a news fetch error yields an empty
// news list and a revenue error yields an absent-marker fact, so every
// configured security always gets a record.
func (s *Service) BuildRecord(ctx context.Context, sec entity.Security, stats *RunStats) entity.SecurityRecord {
	logger := slog.Default()

	ctx, span := tracing.GetTracer().Start(ctx, "track.build_record")
	defer span.End()
	span.SetAttributes(attribute.String("security.code", sec.Code))

	news := s.collectNews(ctx, sec, stats)
	revenue := s.collectRevenue(ctx, sec, stats)

	if len(news) == 0 {
		logger.Debug("no qualifying news this window",
			slog.String("code", sec.Code),
			slog.Int("lookback_days", s.Watchlist.LookbackDays))
	}

	return entity.SecurityRecord{
		Security: sec,
		News:     news,
		Revenue:  revenue,
	}
}

// dedupeAcrossRecords removes news items whose URL already appeared under an
// earlier record, so a story covering several tracked companies is reported
// once, under the first security in configuration order. Returns the number
// of items removed.
func dedupeAcrossRecords(records []entity.SecurityRecord) int64 {
	seen := make(map[string]bool)
	var removed int64
	for i := range records {
		kept := records[i].News[:0]
		for _, item := range records[i].News {
			if seen[item.URL] {
				removed++
				continue
			}
			seen[item.URL] = true
			kept = append(kept, item)
		}
		records[i].News = kept
	}
	return removed
}

// collectNews fetches, filters, orders and truncates a security's news items.
func (s *Service) collectNews(ctx context.Context, sec entity.Security, stats *RunStats) []entity.NewsItem {
	logger := slog.Default()

	candidates, err := s.News.FetchCandidates(ctx, sec, s.Watchlist.LookbackDays)
	if err != nil {
		logger.Warn("news fetch failed, continuing with empty news",
			slog.String("code", sec.Code),
			slog.String("name", sec.Name),
			slog.Any("error", err))
		metrics.RecordSourceError(sec.Code, "news")
		atomic.AddInt64(&stats.NewsErrors, 1)
		return nil
	}

	atomic.AddInt64(&stats.Candidates, int64(len(candidates)))
	metrics.RecordNewsCandidates(sec.Code, len(candidates))

	kept := make([]entity.NewsItem, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, item := range candidates {
		if !Relevant(item.Title, s.Watchlist.IncludeKeywords, s.Watchlist.ExcludeKeywords) {
			continue
		}
		// The adapter already dedupes; enforce the record invariant anyway.
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		kept = append(kept, item)
	}

	// Newest first; equal timestamps keep fetch order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PublishedAt.After(kept[j].PublishedAt)
	})

	if len(kept) > s.Watchlist.MaxNewsPerStock {
		kept = kept[:s.Watchlist.MaxNewsPerStock]
	}

	atomic.AddInt64(&stats.Qualifying, int64(len(kept)))
	metrics.RecordNewsQualified(sec.Code, len(kept))

	return kept
}

// collectRevenue fetches the latest revenue fact, degrading to an absent
// marker when the source is unreachable.
func (s *Service) collectRevenue(ctx context.Context, sec entity.Security, stats *RunStats) entity.RevenueFact {
	logger := slog.Default()

	fact, err := s.Revenue.LatestRevenue(ctx, sec)
	if err != nil {
		reason := "revenue source unavailable"
		if !errors.Is(err, entity.ErrSourceUnavailable) {
			reason = fmt.Sprintf("revenue lookup failed: %v", err)
		}
		logger.Warn("revenue fetch failed, marking absent",
			slog.String("code", sec.Code),
			slog.Any("error", err))
		metrics.RecordSourceError(sec.Code, "revenue")
		atomic.AddInt64(&stats.RevenueMisses, 1)
		return entity.MissingRevenue(sec.Code, reason)
	}

	if fact.Missing {
		atomic.AddInt64(&stats.RevenueMisses, 1)
	}

	return fact
}
