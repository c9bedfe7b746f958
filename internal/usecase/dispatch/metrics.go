package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for dispatch run monitoring
var (
	// dispatchRunsTotal tracks dispatch run outcomes per platform
	dispatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_runs_total",
			Help: "Total number of dispatch runs",
		},
		[]string{"platform", "result"}, // result: completed|skipped|aborted
	)

	// subscribersConsideredTotal tracks subscribers streamed from the store
	subscribersConsideredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_subscribers_considered_total",
			Help: "Total number of subscribers considered during fan-out",
		},
		[]string{"platform"},
	)

	// sendsTotal tracks provider submissions per platform and status
	sendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_sends_total",
			Help: "Total number of push submissions",
		},
		[]string{"platform", "status"}, // status: sent|failed
	)

	// sendDuration tracks individual provider submission duration
	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "push_send_duration_seconds",
			Help:    "Push submission duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"platform"},
	)

	// pagesTotal tracks processed subscriber pages
	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_pages_total",
			Help: "Total number of subscriber pages processed",
		},
		[]string{"platform"},
	)

	// ledgerRowsTotal tracks delivery ledger rows written
	ledgerRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_ledger_rows_total",
			Help: "Total number of delivery ledger rows written",
		},
		[]string{"platform"},
	)

	// flushErrorsTotal tracks failed gateway flushes (batching providers)
	flushErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_gateway_flush_errors_total",
			Help: "Total number of failed gateway flushes",
		},
		[]string{"platform"},
	)

	// inFlightSends tracks currently in-flight provider submissions
	inFlightSends = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_in_flight_sends",
			Help: "Number of in-flight push submissions",
		},
	)
)

// RecordRun records the outcome of a dispatch run.
// result must be one of "completed", "skipped", "aborted".
func RecordRun(platform string, result string) {
	dispatchRunsTotal.WithLabelValues(platform, result).Inc()
}

// RecordPage records one processed subscriber page and the number of
// subscribers it contained.
func RecordPage(platform string, considered int) {
	pagesTotal.WithLabelValues(platform).Inc()
	subscribersConsideredTotal.WithLabelValues(platform).Add(float64(considered))
}

// RecordSend records one provider submission with its outcome and duration.
func RecordSend(platform string, failed bool, duration time.Duration) {
	status := "sent"
	if failed {
		status = "failed"
	}
	sendsTotal.WithLabelValues(platform, status).Inc()
	sendDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordLedgerRows records delivery ledger rows written for a page.
func RecordLedgerRows(platform string, rows int) {
	ledgerRowsTotal.WithLabelValues(platform).Add(float64(rows))
}

// RecordFlushError records a failed gateway flush.
func RecordFlushError(platform string) {
	flushErrorsTotal.WithLabelValues(platform).Inc()
}

// IncrementInFlightSends increments the in-flight sends gauge by 1.
func IncrementInFlightSends() {
	inFlightSends.Inc()
}

// DecrementInFlightSends decrements the in-flight sends gauge by 1.
func DecrementInFlightSends() {
	inFlightSends.Dec()
}
