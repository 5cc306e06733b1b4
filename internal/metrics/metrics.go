package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	Validations      *prometheus.CounterVec
	AdvisorFallbacks prometheus.Counter
	QueueDepth       prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "validoc_http_requests_total",
			Help: "Total number of HTTP requests by method, path and status code",
		}, []string{"method", "path", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "validoc_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "validoc_validations_total",
			Help: "Total number of document validations by document type and outcome",
		}, []string{"document_type", "status"}),
		AdvisorFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "validoc_advisor_fallbacks_total",
			Help: "Total number of times the primary advisor failed over to a secondary",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "validoc_queue_claimed_documents",
			Help: "Number of documents currently claimed by the validation worker",
		}),
	}
}

// RecordValidation records one completed validation attempt.
func (m *Metrics) RecordValidation(documentType, status string) {
	m.Validations.WithLabelValues(documentType, status).Inc()
}
