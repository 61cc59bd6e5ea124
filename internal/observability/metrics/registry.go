// Package metrics provides centralized Prometheus metrics for the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track per-security fetch and filter behaviour.
var (
	// NewsCandidatesTotal counts fetched news candidates per security
	NewsCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_news_candidates_total",
			Help: "Total number of news candidates fetched, per security code",
		},
		[]string{"code"},
	)

	// NewsQualifiedTotal counts news items that passed the relevance filter
	NewsQualifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_news_qualified_total",
			Help: "Total number of news items kept after relevance filtering, per security code",
		},
		[]string{"code"},
	)

	// SourceErrorsTotal counts degraded fetches by security and source kind
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_source_errors_total",
			Help: "Total number of news/revenue source failures degraded to empty data",
		},
		[]string{"code", "source"},
	)

	// RevenueRowsTotal counts rows received from the revenue disclosure source
	RevenueRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_revenue_rows_total",
			Help: "Total number of revenue disclosure rows fetched across runs",
		},
	)

	// RunDuration measures end-to-end tracking run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_run_duration_seconds",
			Help:    "Duration of a full tracking run in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// ReportsWrittenTotal counts report documents persisted by the store
	ReportsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_reports_written_total",
			Help: "Total number of report documents written, by status",
		},
		[]string{"status"},
	)
)
