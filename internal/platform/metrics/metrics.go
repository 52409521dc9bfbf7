package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Each instance owns
// its registry so tests can build as many routers as they like.
type Metrics struct {
	registry *prometheus.Registry

	SubmissionsCreated prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	RateLimited        *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SubmissionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "udyam_submissions_created_total",
			Help: "Total number of registration submissions accepted",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_validation_failures_total",
			Help: "Field level validation failures on submitted forms",
		}, []string{"field"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_rate_limited_requests_total",
			Help: "Requests rejected by the admission check",
		}, []string{"route"}),
		EventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "udyam_event_publish_errors_total",
			Help: "Submission events that could not be published",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "udyam_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementSubmissionsCreated increments the submissions counter by 1
func (m *Metrics) IncrementSubmissionsCreated() {
	m.SubmissionsCreated.Inc()
}

// RecordValidationFailures counts one failure per offending field.
func (m *Metrics) RecordValidationFailures(fields map[string]string) {
	for field := range fields {
		m.ValidationFailures.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) IncrementRateLimited(route string) {
	m.RateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) IncrementEventPublishErrors() {
	m.EventPublishErrors.Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
