// Package metrics defines the application's Prometheus collectors.
// Everything registers through promauto under the safetydesk namespace;
// the notifications package adds its own collectors in the same way.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "safetydesk"

// HTTPRequestDuration observes request latency per method, route
// pattern, and status code.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
	[]string{"method", "route", "status_code"},
)

// DBPoolConnections gauges pgx pool connections by state.
var DBPoolConnections = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "pool_connections",
		Help:      "Number of database connections by state",
	},
	[]string{"state"},
)
