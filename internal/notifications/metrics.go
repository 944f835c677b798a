package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "safetydesk"

var (
	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total notifications processed by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	notificationSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time to send a notification",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "queue_depth",
			Help:      "Number of notifications waiting in the background queue",
		},
	)

	queueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "queue_dropped_total",
			Help:      "Notifications dropped because the background queue was full",
		},
	)
)

// recordSent records a processed notification by kind and outcome.
func recordSent(kind, status string) {
	notificationsSent.WithLabelValues(kind, status).Inc()
}

// recordSendDuration records how long a send took.
func recordSendDuration(kind string, duration time.Duration) {
	notificationSendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
