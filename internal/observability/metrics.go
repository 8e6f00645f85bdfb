// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Forecast metrics
	ForecastRequestsTotal *prometheus.CounterVec
	ForecastDuration      *prometheus.HistogramVec
	ForecastPointsTotal   prometheus.Counter
	ForecastErrors        *prometheus.CounterVec

	// Scorer metrics
	ScorerCallsTotal *prometheus.CounterVec
	ScorerLatency    *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulForecast prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "agriprice_lab"
	}

	return &Metrics{
		// Forecast metrics
		ForecastRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "requests_total",
			Help:      "Total number of forecast requests by status",
		}, []string{"status"}),
		ForecastDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "duration_seconds",
			Help:      "Forecast generation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scorer"}),
		ForecastPointsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "points_total",
			Help:      "Total number of forecast points generated",
		}),
		ForecastErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "errors_total",
			Help:      "Total number of forecast errors by type",
		}, []string{"error_type"}),

		// Scorer metrics
		ScorerCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "calls_total",
			Help:      "Total number of scorer calls by kind and status",
		}, []string{"kind", "status"}),
		ScorerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "latency_seconds",
			Help:      "Scorer call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		// Cache metrics
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of forecast cache hits",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of forecast cache misses",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulForecast: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_forecast_timestamp",
			Help:      "Unix timestamp of last successful forecast",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordForecast records a completed forecast request.
func RecordForecast(scorerKind, status string, durationSeconds float64, points int) {
	DefaultMetrics.ForecastRequestsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ForecastDuration.WithLabelValues(scorerKind).Observe(durationSeconds)
	if points > 0 {
		DefaultMetrics.ForecastPointsTotal.Add(float64(points))
	}
}

// RecordForecastError records a forecast error by type.
func RecordForecastError(errorType string) {
	DefaultMetrics.ForecastErrors.WithLabelValues(errorType).Inc()
}

// RecordScorerCall records one scorer invocation.
func RecordScorerCall(kind string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.ScorerCallsTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.ScorerLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	DefaultMetrics.CacheHitsTotal.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	DefaultMetrics.CacheMissesTotal.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// MarkForecastSuccess updates the last successful forecast timestamp.
func MarkForecastSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulForecast.Set(float64(unixSeconds))
}
