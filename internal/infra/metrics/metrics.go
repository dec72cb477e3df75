// internal/infra/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	RemindersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_reminders_processed_total",
			Help: "Due subscriptions handled by the reminder sweep, by outcome",
		},
		[]string{"outcome"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_reminder_sweep_duration_seconds",
			Help:    "Duration of one due-notification sweep",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_reminder_sweep_errors_total",
			Help: "Sweeps that failed before processing any subscription",
		},
	)

	ReviewsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_generated_total",
			Help: "Review texts composed from descriptor selections",
		},
	)
)
