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

	// Onboarding metrics
	OnboardingOperationsCounter *prometheus.CounterVec
	InvitationsCounter          *prometheus.CounterVec

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

		OnboardingOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_operations_total",
				Help: "Total number of onboarding operations by type",
			},
			[]string{"operation"},
		)

		InvitationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_invitations_total",
				Help: "Total number of invitation state changes by outcome",
			},
			[]string{"outcome"},
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

// RecordOperation counts a completed onboarding operation
func RecordOperation(operation string) {
	OnboardingOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordInvitation counts invitations sent, accepted, expired or revoked
func RecordInvitation(outcome string) {
	InvitationsCounter.WithLabelValues(outcome).Inc()
}
