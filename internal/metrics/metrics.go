// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "inkpress"
)

var (
	// HTTP metrics - track request volume and latency
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Mail metrics - track async mail delivery
	MailEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "events_total",
			Help:      "Total number of mail events processed by type and result",
		},
		[]string{"type", "result"},
	)

	// Reaction metrics - track like/dislike toggles
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactions",
			Name:      "total",
			Help:      "Total number of reaction toggles by reaction and outcome",
		},
		[]string{"reaction", "outcome"},
	)
)

// ObserveMailEvent records the outcome of a processed mail event.
func ObserveMailEvent(eventType string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	MailEventsTotal.WithLabelValues(eventType, result).Inc()
}

// ObserveReaction records a reaction toggle outcome ("added", "removed", "switched").
func ObserveReaction(reaction, outcome string) {
	ReactionsTotal.WithLabelValues(reaction, outcome).Inc()
}
