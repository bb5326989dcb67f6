// Package metrics provides Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry manages Prometheus metrics registration and exposure. It carries
// the service's HTTP and cache collectors plus Go runtime metrics.
type Registry struct {
	registry *prometheus.Registry

	requestCount   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	activeRequests *prometheus.GaugeVec
	errorCount     *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
}

// NewRegistry creates a metrics registry with the service collectors and
// default Go runtime collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		activeRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_requests_active",
				Help: "Number of active HTTP requests",
			},
			[]string{"method"},
		),
		errorCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "endpoint", "error_type"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	r.registry.MustRegister(
		r.requestCount,
		r.requestLatency,
		r.activeRequests,
		r.errorCount,
		r.cacheHits,
		r.cacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Register registers a custom Prometheus collector.
func (r *Registry) Register(collector prometheus.Collector) error {
	return r.registry.Register(collector)
}

// RecordRequest records one completed HTTP request.
func (r *Registry) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	r.requestCount.WithLabelValues(method, endpoint, statusStr).Inc()
	r.requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if status >= 500 {
		r.errorCount.WithLabelValues(method, endpoint, "server_error").Inc()
	} else if status >= 400 {
		r.errorCount.WithLabelValues(method, endpoint, "client_error").Inc()
	}
}

// RequestStarted increments the active-requests gauge for method.
func (r *Registry) RequestStarted(method string) {
	r.activeRequests.WithLabelValues(method).Inc()
}

// RequestFinished decrements the active-requests gauge for method.
func (r *Registry) RequestFinished(method string) {
	r.activeRequests.WithLabelValues(method).Dec()
}

// RecordCacheHit records a response cache hit.
func (r *Registry) RecordCacheHit(cacheType string) {
	r.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a response cache miss.
func (r *Registry) RecordCacheMiss(cacheType string) {
	r.cacheMisses.WithLabelValues(cacheType).Inc()
}

// Handler returns an HTTP handler exposing the registry in Prometheus
// format, mounted on the metrics listener at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gather exposes the underlying gatherer, primarily for tests.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
