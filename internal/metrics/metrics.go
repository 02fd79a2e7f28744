package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_webhook_events_total",
			Help: "Webhook events processed by the ledger, by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	CASRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_ledger_cas_retries_total",
		Help: "Compare-and-set attempts that lost a race and were retried",
	})

	Anomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_ledger_anomalies_total",
			Help: "Ledger anomalies such as decrements clamped at zero",
		},
		[]string{"kind"},
	)

	FallbackRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_fallback_records_total",
			Help: "Events written to a fallback sink, by sink and result",
		},
		[]string{"sink", "result"},
	)

	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrollment_store_latency_seconds",
			Help:    "Ledger store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		WebhookEvents,
		CASRetries,
		Anomalies,
		FallbackRecords,
		StoreLatency,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
