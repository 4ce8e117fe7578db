// Package metrics provides Prometheus instrumentation for Mosaic.
//
// It pre-defines the standard HTTP metrics plus catalog-specific counters
// for job runs, validation failures and exported rows.
//
// Wire it up once in internal/server:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Built-in HTTP metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, route path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mosaic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mosaic",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// JobsProcessed counts finished job runs by job code and final status.
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Total job runs that reached a terminal status.",
		},
		[]string{"job", "status"}, // status: "DONE" | "FAILED"
	)

	// JobDuration tracks how long job runs take end to end.
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mosaic",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of job runs in seconds.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"job"},
	)

	// ValidationFailures counts attribute values rejected by the validator.
	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "catalog",
			Name:      "validation_failures_total",
			Help:      "Total attribute values rejected during validation.",
		},
		[]string{"attribute_type"},
	)

	// ExportRows counts rows written to export artifacts.
	ExportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "jobs",
			Name:      "export_rows_total",
			Help:      "Total rows written to export files.",
		},
		[]string{"job"},
	)

	// QueueDepth tracks pending messages per queue.
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mosaic",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Number of pending messages in a queue.",
	}, []string{"queue"})
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by Mosaic.
// Register your own metrics against this.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory)
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	// OS process metrics (CPU, open FDs)
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		JobsProcessed,
		JobDuration,
		ValidationFailures,
		ExportRows,
		QueueDepth,
	)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware returns an http.Handler middleware that records Prometheus
// metrics for every request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path // raw path; normalize in high-cardinality APIs

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Handler returns an http.HandlerFunc that exposes the Prometheus metrics page.
// Mount it on GET /metrics in your router.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// RecordJob records a terminal job run.
func RecordJob(job, status string, start time.Time) {
	JobsProcessed.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
