package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accountant_backend_calls_total",
			Help: "Assistant backend calls by outcome",
		},
		[]string{"outcome"},
	)

	BackendLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "accountant_backend_latency_seconds",
			Help:    "Assistant backend call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accountant_fallback_replies_total",
			Help: "Fallback replies appended, by error kind and topic",
		},
		[]string{"kind", "topic"},
	)

	Toasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accountant_toasts_total",
			Help: "Toasts raised by severity",
		},
		[]string{"severity"},
	)

	ActiveAssistants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "accountant_active_assistants",
			Help: "Number of live assistant controllers",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accountant_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	TurnsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accountant_turns_submitted_total",
			Help: "Turns accepted by the conversation controller",
		},
	)
)

// ObserveBackendCall records one backend call outcome and its latency.
func ObserveBackendCall(outcome string, elapsed time.Duration) {
	BackendCalls.WithLabelValues(outcome).Inc()
	BackendLatency.Observe(elapsed.Seconds())
}
