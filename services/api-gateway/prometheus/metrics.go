package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	AuthErrorsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Proxy metrics
	ProxyRequestsCounter *prometheus.CounterVec
	ProxyDuration        *prometheus.HistogramVec

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics with the given name prefix.
// Only the first call registers collectors.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		AuthErrorsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of rejected credentials by reason",
			},
			[]string{"reason"},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)

		ProxyRequestsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_proxy_requests_total",
				Help: "Total number of proxied requests by upstream and status",
			},
			[]string{"upstream", "status"},
		)

		ProxyDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_proxy_duration_seconds",
				Help:    "Duration of proxied requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"upstream"},
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthError increments the rejected credential counter
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordProxyRequest records one proxied request
func RecordProxyRequest(upstream, status string, duration time.Duration) {
	ProxyRequestsCounter.WithLabelValues(upstream, status).Inc()
	ProxyDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}
