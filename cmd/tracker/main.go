// Tracker runs a single tracking pass and exits: fetch news and revenue for
// every configured security, write the report and the index, optionally
// notify Slack. Intended for manual runs and CI-style schedulers that prefer
// a one-shot binary over the resident cron worker.
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"time"

	"tw-stock-tracker/internal/config"
	"tw-stock-tracker/internal/infra/newsfeed"
	"tw-stock-tracker/internal/infra/notifier"
	"tw-stock-tracker/internal/infra/reportstore"
	"tw-stock-tracker/internal/infra/revenue"
	"tw-stock-tracker/internal/infra/worker"
	"tw-stock-tracker/internal/observability/logging"
	"tw-stock-tracker/internal/observability/tracing"
	"tw-stock-tracker/internal/usecase/track"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting one-shot tracking run")

	metrics := worker.NewWorkerMetrics()
	cfg, err := worker.LoadConfigFromEnv(logger, metrics)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownTracing := tracing.Setup(nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		logger.Error("failed to load watchlist",
			slog.String("path", cfg.WatchlistPath),
			slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.FetchParallelism > 0 {
		watchlist.FetchParallelism = cfg.FetchParallelism
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}

	news := newsfeed.NewGoogleNewsFetcher(httpClient, newsfeed.Config{
		QueryKeywords: watchlist.IncludeKeywords,
	})
	twse := revenue.NewTWSEClient(httpClient, revenue.Config{})
	store := reportstore.NewFileStore(cfg.ReportsDir)
	service := track.NewService(news, twse, watchlist)

	var notify notifier.Notifier = notifier.NewNoOpNotifier()
	if cfg.SlackEnabled {
		notify = notifier.NewSlackNotifier(notifier.SlackConfig{
			Enabled:    true,
			WebhookURL: cfg.SlackWebhookURL,
			Timeout:    cfg.SlackTimeout,
		})
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, falling back to UTC",
			slog.String("timezone", cfg.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	report, stats, err := service.TrackAll(ctx, time.Now().In(loc))
	if err != nil {
		logger.Error("tracking run failed", slog.Any("error", err))
		os.Exit(1)
	}

	path, err := store.Save(report.GeneratedAt, track.RenderReport(report))
	if err != nil {
		logger.Error("report save failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := notify.NotifyReport(ctx, notifier.ReportNotice{
		Date:          report.GeneratedAt,
		Path:          path,
		Securities:    stats.Securities,
		Qualifying:    stats.Qualifying,
		NewsErrors:    stats.NewsErrors,
		RevenueMisses: stats.RevenueMisses,
	}); err != nil {
		logger.Error("report notification failed", slog.Any("error", err))
	}

	logger.Info("tracking run completed",
		slog.String("report", path),
		slog.Int("securities", stats.Securities),
		slog.Int64("qualifying", stats.Qualifying),
		slog.Int64("news_errors", stats.NewsErrors),
		slog.Int64("revenue_misses", stats.RevenueMisses),
		slog.Duration("duration", stats.Duration))
}
