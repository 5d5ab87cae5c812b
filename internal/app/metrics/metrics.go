// Package metrics exposes the Prometheus collectors of the marketplace core.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "marketplace_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	applicationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace_layer",
			Subsystem: "applications",
			Name:      "operations_total",
			Help:      "Total number of application lifecycle operations.",
		},
		[]string{"operation", "status"},
	)

	migrationRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace_layer",
			Subsystem: "migration",
			Name:      "records_total",
			Help:      "Total number of legacy records processed by outcome.",
		},
		[]string{"outcome"},
	)

	migrationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace_layer",
			Subsystem: "migration",
			Name:      "runs_total",
			Help:      "Total number of migration pipeline runs.",
		},
		[]string{"success"},
	)

	migrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "marketplace_layer",
			Subsystem: "migration",
			Name:      "run_duration_seconds",
			Help:      "Duration of migration pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	registrarNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace_layer",
			Subsystem: "registrar",
			Name:      "notifications_total",
			Help:      "Total number of plugin registrar notifications.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applicationOps,
		migrationRecords,
		migrationRuns,
		migrationDuration,
		registrarNotifications,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordApplicationOp counts a lifecycle operation by outcome.
func RecordApplicationOp(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	applicationOps.WithLabelValues(operation, status).Inc()
}

// RecordMigrationRecord counts one processed legacy record.
func RecordMigrationRecord(outcome string) {
	migrationRecords.WithLabelValues(outcome).Inc()
}

// RecordMigrationRun records a finished (or aborted) pipeline run.
func RecordMigrationRun(duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	migrationRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	migrationDuration.Observe(duration.Seconds())
}

// RecordRegistrarNotification counts a fire-and-forget registrar call.
func RecordRegistrarNotification(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	registrarNotifications.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "applications" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/applications"
	}
	if len(parts) == 2 {
		return "/applications/:id"
	}
	return "/applications/:id/" + parts[2]
}
