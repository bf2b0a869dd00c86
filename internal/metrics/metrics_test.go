package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOutcome(t *testing.T) {
	before := testutil.ToFloat64(SubmittedRecords.WithLabelValues(OutcomeCommitted))

	RecordOutcome(OutcomeCommitted, 3)
	RecordOutcome(OutcomeCommitted, 0)

	after := testutil.ToFloat64(SubmittedRecords.WithLabelValues(OutcomeCommitted))
	if got := after - before; got != 3 {
		t.Errorf("committed delta = %v, want 3", got)
	}
}

func TestRecordRows(t *testing.T) {
	clean := testutil.ToFloat64(RowsStaged.WithLabelValues(RowClean))
	blocked := testutil.ToFloat64(RowsStaged.WithLabelValues(RowBlocked))

	RecordRows(4, 1)

	if got := testutil.ToFloat64(RowsStaged.WithLabelValues(RowClean)) - clean; got != 4 {
		t.Errorf("clean delta = %v, want 4", got)
	}
	if got := testutil.ToFloat64(RowsStaged.WithLabelValues(RowBlocked)) - blocked; got != 1 {
		t.Errorf("blocked delta = %v, want 1", got)
	}
}

func TestRecordSubmission(t *testing.T) {
	before := testutil.ToFloat64(SubmissionsTotal.WithLabelValues(SubmissionEmpty))

	RecordSubmission(SubmissionEmpty, 5*time.Millisecond)

	if got := testutil.ToFloat64(SubmissionsTotal.WithLabelValues(SubmissionEmpty)) - before; got != 1 {
		t.Errorf("empty submissions delta = %v, want 1", got)
	}
}
