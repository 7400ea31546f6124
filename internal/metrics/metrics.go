// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GRPCServerHandlingSeconds is a histogram for gRPC server request latencies
	GRPCServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of gRPC that had been application-level handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "code"},
	)

	// HTTPServerHandlingSeconds is a histogram for HTTP request latencies
	HTTPServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of HTTP requests handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "code"},
	)

	// PreprocessLatencySeconds is a histogram for resize + normalization time
	PreprocessLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preprocess_latency_seconds",
			Help:    "Histogram of image preprocessing latency (seconds).",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	// InferenceLatencySeconds is a histogram for forward-pass latency
	InferenceLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of backend forward-pass latency (seconds).",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"backend"},
	)

	// ClassificationsTotal counts classification requests by outcome
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifications_total",
			Help: "Total number of classification requests.",
		},
		[]string{"backend", "outcome"},
	)

	// CacheRequestsTotal counts result cache lookups
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of result cache lookups.",
		},
		[]string{"result"},
	)

	// BackendLoaded is 1 while a backend holds a loaded model
	BackendLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backend_loaded",
			Help: "Whether the backend holds a loaded model (1 = loaded, 0 = not loaded).",
		},
		[]string{"backend"},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordGRPCLatency records the latency of a gRPC method call
func RecordGRPCLatency(method, code string, seconds float64) {
	GRPCServerHandlingSeconds.WithLabelValues(method, code).Observe(seconds)
}

// RecordHTTPLatency records the latency of an HTTP request
func RecordHTTPLatency(method, path, code string, seconds float64) {
	HTTPServerHandlingSeconds.WithLabelValues(method, path, code).Observe(seconds)
}

// RecordPreprocessLatency records the latency of image preprocessing
func RecordPreprocessLatency(seconds float64) {
	PreprocessLatencySeconds.Observe(seconds)
}

// RecordInferenceLatency records the latency of a forward pass
func RecordInferenceLatency(backend string, seconds float64) {
	InferenceLatencySeconds.WithLabelValues(backend).Observe(seconds)
}

// RecordClassification counts a classification with outcome "ok" or "error"
func RecordClassification(backend, outcome string) {
	ClassificationsTotal.WithLabelValues(backend, outcome).Inc()
}

// RecordCacheHit counts a result cache hit
func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a result cache miss
func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

// RecordCacheError counts a failed cache lookup
func RecordCacheError() {
	CacheRequestsTotal.WithLabelValues("error").Inc()
}

// SetBackendLoaded flips the backend_loaded gauge
func SetBackendLoaded(backend string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	BackendLoaded.WithLabelValues(backend).Set(v)
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
