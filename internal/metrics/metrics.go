package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors plus the Go and process ones.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	backupOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "backup",
			Name:      "operations_total",
			Help:      "Backup operations by kind and result.",
		},
		[]string{"operation", "result"},
	)

	backupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "backup",
			Name:      "duration_seconds",
			Help:      "Duration of backup create and restore runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"operation"},
	)

	backupLastSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "backup",
			Name:      "last_archive_bytes",
			Help:      "Size of the most recently created archive.",
		},
	)

	sessionsAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "enrollment",
			Name:      "sessions_added_total",
			Help:      "Sessions consumed from packages and service sessions.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		backupOperations,
		backupDuration,
		backupLastSize,
		sessionsAdded,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the matched
// route template, so ids in paths do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordBackup counts one backup operation ("create", "restore", "delete",
// "download", "upload").
func RecordBackup(operation string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	backupOperations.WithLabelValues(operation, result).Inc()
	if duration > 0 {
		backupDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

func SetLastArchiveSize(bytes int64) {
	backupLastSize.Set(float64(bytes))
}

func RecordSessionAdded(kind string) {
	sessionsAdded.WithLabelValues(kind).Inc()
}
