// Package worker provides the scheduled-run infrastructure: environment
// configuration, health endpoints, and Prometheus metrics for the cron worker.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"tw-stock-tracker/internal/pkg/config"
)

// WorkerConfig holds the configuration for the worker component: the cron
// schedule, run limits, watchlist and report locations, and notification
// settings.
//
// Configuration is loaded from environment variables via LoadConfigFromEnv
// with fail-open semantics: an invalid value falls back to its default with a
// warning rather than keeping the worker from starting.
type WorkerConfig struct {
	// CronSchedule is the cron expression for run scheduling.
	// Default: "30 6 * * *" (every day at 06:30).
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in. The report
	// date comes from this zone too, so a run after midnight UTC still dates
	// the report correctly for Taiwan.
	// Default: "Asia/Taipei".
	Timezone string

	// RunTimeout bounds a single tracking run end to end.
	// Default: 10 minutes.
	RunTimeout time.Duration

	// FetchParallelism overrides the watchlist's fetch parallelism when
	// positive. Zero defers to the watchlist value.
	FetchParallelism int

	// HealthPort is the port for the health check HTTP server.
	// Default: 9091.
	HealthPort int

	// WatchlistPath is the path of the tracked-securities YAML file.
	// Default: "config/securities.yaml".
	WatchlistPath string

	// ReportsDir is the directory reports are written to.
	// Default: "reports".
	ReportsDir string

	// SlackEnabled toggles run-completion Slack notifications.
	SlackEnabled bool

	// SlackWebhookURL is the Slack Incoming Webhook URL. Required when
	// SlackEnabled is true.
	SlackWebhookURL string

	// SlackTimeout is the HTTP timeout for Slack webhook calls.
	// Default: 10 seconds.
	SlackTimeout time.Duration
}

// DefaultConfig returns a WorkerConfig with production defaults: a daily run
// at 06:30 Taipei time, a 10-minute run budget, and notifications disabled.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:     "30 6 * * *",
		Timezone:         "Asia/Taipei",
		RunTimeout:       10 * time.Minute,
		FetchParallelism: 0,
		HealthPort:       9091,
		WatchlistPath:    "config/securities.yaml",
		ReportsDir:       "reports",
		SlackEnabled:     false,
		SlackWebhookURL:  "",
		SlackTimeout:     10 * time.Second,
	}
}

// Validate checks the configuration values, collecting all field errors.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}

	// Zero defers to the watchlist setting.
	if err := config.ValidateIntRange(c.FetchParallelism, 0, 16); err != nil {
		errs = append(errs, fmt.Errorf("fetch parallelism: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if c.WatchlistPath == "" {
		errs = append(errs, fmt.Errorf("watchlist path: cannot be empty"))
	}

	if c.ReportsDir == "" {
		errs = append(errs, fmt.Errorf("reports dir: cannot be empty"))
	}

	if c.SlackEnabled && c.SlackWebhookURL == "" {
		errs = append(errs, fmt.Errorf("slack webhook url: required when slack is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// Environment variables:
//   - CRON_SCHEDULE: Cron expression (default: "30 6 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Asia/Taipei")
//   - RUN_TIMEOUT: Duration 1m-2h (default: 10m)
//   - FETCH_PARALLELISM: Integer 0-16, 0 defers to watchlist (default: 0)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - WATCHLIST_PATH: Watchlist YAML path (default: "config/securities.yaml")
//   - REPORTS_DIR: Report output directory (default: "reports")
//   - SLACK_ENABLED: Boolean (default: false)
//   - SLACK_WEBHOOK_URL: Slack Incoming Webhook URL
//   - SLACK_TIMEOUT: Duration (default: 10s)
//
// The returned configuration is always valid; the error is always nil and
// exists for call-site symmetry with stricter loaders.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	warn := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	warn("cron_schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	warn("timezone", result)

	result = config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 2*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	warn("run_timeout", result)

	result = config.LoadEnvInt("FETCH_PARALLELISM", cfg.FetchParallelism, func(v int) error {
		return config.ValidateIntRange(v, 0, 16)
	})
	cfg.FetchParallelism = result.Value.(int)
	warn("fetch_parallelism", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	warn("health_port", result)

	cfg.WatchlistPath = config.LoadEnvString("WATCHLIST_PATH", cfg.WatchlistPath)
	cfg.ReportsDir = config.LoadEnvString("REPORTS_DIR", cfg.ReportsDir)

	result = config.LoadEnvBool("SLACK_ENABLED", cfg.SlackEnabled)
	cfg.SlackEnabled = result.Value.(bool)
	warn("slack_enabled", result)

	cfg.SlackWebhookURL = config.LoadEnvString("SLACK_WEBHOOK_URL", cfg.SlackWebhookURL)

	result = config.LoadEnvDuration("SLACK_TIMEOUT", cfg.SlackTimeout, config.ValidatePositiveDuration)
	cfg.SlackTimeout = result.Value.(time.Duration)
	warn("slack_timeout", result)

	// A webhook cannot be defaulted; disable notifications instead of
	// letting every run fail its notify step.
	if cfg.SlackEnabled && cfg.SlackWebhookURL == "" {
		fallbackApplied = true
		metrics.RecordValidationError("slack_webhook_url")
		metrics.RecordFallback("slack_webhook_url", "disabled")
		logger.Warn("Configuration fallback applied",
			slog.String("field", "slack_webhook_url"),
			slog.String("warning", "SLACK_ENABLED=true but SLACK_WEBHOOK_URL is empty, disabling notifications"))
		cfg.SlackEnabled = false
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
