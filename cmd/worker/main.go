// Worker runs the tracking pipeline on a cron schedule. Each run fetches
// news and revenue for every configured security, writes the markdown report
// and the index, and optionally notifies Slack.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

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

	logger.Info("starting tracker worker")

	metrics := worker.NewWorkerMetrics()

	cfg, err := worker.LoadConfigFromEnv(logger, metrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("run_timeout", cfg.RunTimeout),
		slog.String("watchlist_path", cfg.WatchlistPath),
		slog.String("reports_dir", cfg.ReportsDir),
		slog.Bool("slack_enabled", cfg.SlackEnabled))

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

	logger.Info("watchlist loaded",
		slog.Int("securities", len(watchlist.Securities)),
		slog.Int("lookback_days", watchlist.LookbackDays),
		slog.Int("fetch_parallelism", watchlist.FetchParallelism))

	httpClient := createHTTPClient()

	news := newsfeed.NewGoogleNewsFetcher(httpClient, newsfeed.Config{
		QueryKeywords: watchlist.IncludeKeywords,
	})
	twse := revenue.NewTWSEClient(httpClient, revenue.Config{})
	store := reportstore.NewFileStore(cfg.ReportsDir)
	service := track.NewService(news, twse, watchlist)
	notify := buildNotifier(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startMetricsServer(ctx, logger)

	healthServer := worker.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server exited", slog.Any("error", err))
		}
	}()

	startCronWorker(cfg, &service, store, notify, metrics, healthServer, logger)
}

// createHTTPClient builds the shared outbound HTTP client. Both sources are
// public endpoints; one pooled client covers them.
func createHTTPClient() *http.Client {
	return &http.Client{
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
}

// buildNotifier returns the Slack notifier when enabled and configured,
// otherwise a no-op so the run flow never branches on notification settings.
func buildNotifier(cfg *worker.WorkerConfig, logger *slog.Logger) notifier.Notifier {
	if !cfg.SlackEnabled {
		logger.Info("slack notifications disabled, using no-op notifier")
		return notifier.NewNoOpNotifier()
	}

	logger.Info("slack notifications enabled")
	return notifier.NewSlackNotifier(notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: cfg.SlackWebhookURL,
		Timeout:    cfg.SlackTimeout,
	})
}

// startCronWorker schedules the tracking run and blocks forever. The
// schedule is evaluated in the configured timezone so the report date
// matches the local trading day.
func startCronWorker(
	cfg *worker.WorkerConfig,
	service *track.Service,
	store *reportstore.FileStore,
	notify notifier.Notifier,
	metrics *worker.WorkerMetrics,
	healthServer *worker.HealthServer,
	logger *slog.Logger,
) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, falling back to UTC",
			slog.String("timezone", cfg.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runTrackJob(cfg, service, store, notify, metrics, loc, logger)
	})
	if err != nil {
		logger.Error("failed to schedule tracking job",
			slog.String("schedule", cfg.CronSchedule),
			slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()
	healthServer.SetReady(true)

	logger.Info("cron worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", loc.String()))

	select {}
}

// runTrackJob executes one scheduled tracking run end to end: track, render,
// save, notify. A notification failure is logged but does not fail the run;
// the report is already on disk at that point.
func runTrackJob(
	cfg *worker.WorkerConfig,
	service *track.Service,
	store *reportstore.FileStore,
	notify notifier.Notifier,
	metrics *worker.WorkerMetrics,
	loc *time.Location,
	logger *slog.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	logger.Info("tracking job starting")

	report, stats, err := service.TrackAll(ctx, time.Now().In(loc))
	if err != nil {
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(start).Seconds())
		logger.Error("tracking job failed", slog.Any("error", err))
		return
	}

	path, err := store.Save(report.GeneratedAt, track.RenderReport(report))
	if err != nil {
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(start).Seconds())
		logger.Error("report save failed", slog.Any("error", err))
		return
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

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(start).Seconds())
	metrics.RecordSecuritiesProcessed(stats.Securities)
	metrics.RecordLastSuccess()

	logger.Info("tracking job completed",
		slog.String("report", path),
		slog.Int("securities", stats.Securities),
		slog.Int64("qualifying", stats.Qualifying),
		slog.Int64("news_errors", stats.NewsErrors),
		slog.Int64("revenue_misses", stats.RevenueMisses),
		slog.Duration("duration", time.Since(start)))
}
