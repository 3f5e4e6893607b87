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

	// Invoice metrics
	InvoicesDraftedCounter   *prometheus.CounterVec
	InvoiceLinesHistogram    prometheus.Histogram
	ComplianceSourceCounter  *prometheus.CounterVec
	InvoiceRejectionsCounter *prometheus.CounterVec

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

		InvoicesDraftedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_invoices_drafted_total",
				Help: "Total number of invoices drafted by currency",
			},
			[]string{"currency"},
		)

		InvoiceLinesHistogram = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_invoice_lines",
				Help:    "Number of lines per drafted invoice",
				Buckets: []float64{1, 2, 5, 10, 25, 50},
			},
		)

		ComplianceSourceCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_compliance_disclosures_total",
				Help: "Total number of compliance disclosures resolved by source",
			},
			[]string{"source"},
		)

		InvoiceRejectionsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_invoice_rejections_total",
				Help: "Total number of rejected invoice drafts by error kind",
			},
			[]string{"kind"},
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

// RecordInvoiceDrafted records a drafted invoice and its line count
func RecordInvoiceDrafted(currency string, lines int) {
	InvoicesDraftedCounter.WithLabelValues(currency).Inc()
	InvoiceLinesHistogram.Observe(float64(lines))
}

// RecordComplianceSource counts where a disclosure came from
func RecordComplianceSource(source string) {
	ComplianceSourceCounter.WithLabelValues(source).Inc()
}

// RecordRejection counts a rejected draft by apperror kind
func RecordRejection(kind string) {
	InvoiceRejectionsCounter.WithLabelValues(kind).Inc()
}
