package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{
		requests: requests,
		duration: duration,
	}
}

// ObserveRequest records a completed request.
func (m *HTTPMetrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, status).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// InferenceMetrics records outcomes of model calls.
type InferenceMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewInferenceMetrics registers the inference metrics on the provided registerer.
func NewInferenceMetrics(reg prometheus.Registerer) *InferenceMetrics {
	if reg == nil {
		return &InferenceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inference_duration_seconds",
		Help:    "Duration of model calls in seconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_success",
		Help: "Successful model calls.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_failure",
		Help: "Failed model calls.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure)
	return &InferenceMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one model call outcome.
func (m *InferenceMetrics) Observe(operation string, elapsed time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err != nil {
		m.failure.WithLabelValues(operation).Inc()
		return
	}
	m.success.WithLabelValues(operation).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
