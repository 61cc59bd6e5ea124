// Package notifier provides abstraction for announcing completed tracking
// runs. It defines the Notifier interface which allows different notification
// mechanisms (Slack, email, etc.) to be used interchangeably through
// dependency injection.
//
// The package includes a Slack webhook implementation and a no-op notifier
// for when notifications are disabled.
package notifier

import (
	"context"
	"time"
)

// ReportNotice summarizes one completed tracking run for notification.
type ReportNotice struct {
	// Date is the report's generation date.
	Date time.Time

	// Path is where the report was written.
	Path string

	// Securities is the number of tracked securities.
	Securities int

	// Qualifying is the number of news items that made the report.
	Qualifying int64

	// NewsErrors counts securities whose news fetch degraded.
	NewsErrors int64

	// RevenueMisses counts securities without a revenue row this run.
	RevenueMisses int64
}

// Notifier is an interface for sending run-completion notifications.
// Implementations should handle rate limiting, retries, and error logging
// internally; a failed notification never fails the run that produced it.
type Notifier interface {
	// NotifyReport announces a completed run. It returns a non-nil error
	// only after all retry attempts are exhausted.
	NotifyReport(ctx context.Context, notice ReportNotice) error
}
