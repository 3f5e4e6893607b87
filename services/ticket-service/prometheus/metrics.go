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

	// Ticket metrics
	TicketsCreatedCounter    *prometheus.CounterVec
	TicketTransitionsCounter *prometheus.CounterVec
	TicketActivitiesCounter  prometheus.Counter
	ScheduleUpsertsCounter   *prometheus.CounterVec

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

		TicketsCreatedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_tickets_created_total",
				Help: "Total number of service tickets raised",
			},
			[]string{"priority"},
		)

		TicketTransitionsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_ticket_transitions_total",
				Help: "Total number of ticket status transitions",
			},
			[]string{"from", "to"},
		)

		TicketActivitiesCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_ticket_activities_total",
				Help: "Total number of free-form ticket activities appended",
			},
		)

		ScheduleUpsertsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_schedule_upserts_total",
				Help: "Total number of ticket schedule upserts",
			},
			[]string{"result"},
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

// RecordTicketCreated increments the created counter
func RecordTicketCreated(priority string) {
	TicketsCreatedCounter.WithLabelValues(priority).Inc()
}

// RecordTransition increments the transition counter
func RecordTransition(from, to string) {
	TicketTransitionsCounter.WithLabelValues(from, to).Inc()
}

// RecordActivity increments the free-form activity counter
func RecordActivity() {
	TicketActivitiesCounter.Inc()
}

// RecordScheduleUpsert counts schedule writes as "created" or "updated"
func RecordScheduleUpsert(created bool) {
	result := "updated"
	if created {
		result = "created"
	}
	ScheduleUpsertsCounter.WithLabelValues(result).Inc()
}
