// Package metrics provides Prometheus metrics for the import pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcomes for RowsStaged.
const (
	RowClean   = "clean"
	RowBlocked = "blocked"
)

// Submission statuses for SubmissionsTotal.
const (
	SubmissionOK          = "ok"
	SubmissionUnavailable = "unavailable"
	SubmissionEmpty       = "empty"
)

// Record outcomes for SubmittedRecords.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

var (
	// Staging metrics
	RowsStaged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockstage_rows_staged_total",
			Help: "Total number of rows staged, by outcome",
		},
		[]string{"outcome"},
	)

	IssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockstage_validation_issues_total",
			Help: "Total number of validation issues raised while mapping rows",
		},
		[]string{"reason"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockstage_imports_total",
			Help: "Total number of import attempts",
		},
		[]string{"status"},
	)

	// Submission metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockstage_submissions_total",
			Help: "Total number of submit calls, by status",
		},
		[]string{"status"},
	)

	SubmittedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockstage_submitted_records_total",
			Help: "Total number of records handled by submit calls, by outcome",
		},
		[]string{"outcome"},
	)

	SubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockstage_submit_duration_seconds",
			Help:    "Time taken by submit calls, including the inventory round trip",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// Session metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockstage_sessions_active",
			Help: "Number of open import sessions",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockstage_sessions_expired_total",
			Help: "Total number of import sessions dropped for inactivity",
		},
	)
)

// RecordRows records the outcome of a loaded batch.
func RecordRows(clean, blocked int) {
	RowsStaged.WithLabelValues(RowClean).Add(float64(clean))
	RowsStaged.WithLabelValues(RowBlocked).Add(float64(blocked))
}

// RecordIssue counts one validation issue.
func RecordIssue(reason string) {
	IssuesTotal.WithLabelValues(reason).Inc()
}

// RecordImport counts one import attempt.
func RecordImport(status string) {
	ImportsTotal.WithLabelValues(status).Inc()
}

// RecordSubmission records one submit call.
func RecordSubmission(status string, d time.Duration) {
	SubmissionsTotal.WithLabelValues(status).Inc()
	SubmitDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordOutcome adds n records to an outcome. Zero is a no-op.
func RecordOutcome(outcome string, n int) {
	if n <= 0 {
		return
	}
	SubmittedRecords.WithLabelValues(outcome).Add(float64(n))
}
