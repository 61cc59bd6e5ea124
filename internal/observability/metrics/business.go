package metrics

import "time"

// RecordNewsCandidates records the number of candidates fetched for a security.
func RecordNewsCandidates(code string, count int) {
	NewsCandidatesTotal.WithLabelValues(code).Add(float64(count))
}

// RecordNewsQualified records the number of items kept after filtering.
func RecordNewsQualified(code string, count int) {
	NewsQualifiedTotal.WithLabelValues(code).Add(float64(count))
}

// RecordSourceError records a degraded news or revenue fetch.
// Source should be "news" or "revenue".
func RecordSourceError(code, source string) {
	SourceErrorsTotal.WithLabelValues(code, source).Inc()
}

// RecordRevenueRows records the number of disclosure rows received in one fetch.
func RecordRevenueRows(count int) {
	RevenueRowsTotal.Add(float64(count))
}

// RecordRunDuration observes the duration of a full tracking run.
func RecordRunDuration(duration time.Duration) {
	RunDuration.Observe(duration.Seconds())
}

// RecordReportWritten records the outcome of persisting a report.
// Status should be either "success" or "failure".
func RecordReportWritten(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ReportsWrittenTotal.WithLabelValues(status).Inc()
}
