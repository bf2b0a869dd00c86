package core

// submit.go commits staged records to the inventory.
//
// One Submit call makes at most one collaborator call. Eligible records are
// moved to submitting together, the batch is sent without holding the store
// lock, and the response is reconciled in a single step:
//   - accepted records are removed from the batch
//   - rejected records become failed with the collaborator's reason
//   - a transport error returns every in-flight record to staged
//
// No record is left submitting when Submit returns, including when the
// collaborator panics.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/stockstage/internal/metrics"
)

// reasonNotReported is recorded for in-flight records the collaborator
// neither accepted nor rejected.
const reasonNotReported = "no result reported by inventory"

// InventoryClient is the external collaborator that persists products.
type InventoryClient interface {
	// SubmitBatch persists items and reports which were accepted and which
	// were rejected. A returned error means nothing was persisted.
	SubmitBatch(ctx context.Context, items []BatchItem) (BatchResponse, error)
}

// BatchItem is one product sent to the inventory, tagged with its record index.
type BatchItem struct {
	Index   int     `json:"index"`
	Product Product `json:"product"`
}

// Rejection is a per-record refusal from the inventory.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResponse is the inventory's per-record verdict on a batch.
type BatchResponse struct {
	Accepted []int       `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// Controller submits a store's eligible records to an InventoryClient.
type Controller struct {
	client InventoryClient
}

// NewController creates a controller for client.
func NewController(client InventoryClient) *Controller {
	return &Controller{client: client}
}

// Submit sends every eligible record of store in one batch and reconciles
// the result. Blocked records are reported as skipped and never sent.
// A collaborator failure wraps ErrSubmissionUnavailable; in that case no
// record changes state and CommittedCount is zero.
func (c *Controller) Submit(ctx context.Context, store *Store) (result SubmissionResult, err error) {
	start := time.Now()

	eligible, skipped := store.beginSubmit()
	result.Skipped = skipped
	metrics.RecordOutcome(metrics.OutcomeSkipped, len(skipped))

	if len(eligible) == 0 {
		metrics.RecordSubmission(metrics.SubmissionEmpty, time.Since(start))
		return result, nil
	}

	inFlight := make([]int, len(eligible))
	for i, rec := range eligible {
		inFlight[i] = rec.Index
	}

	reconciled := false
	defer func() {
		if reconciled {
			return
		}
		store.revert(inFlight)
		if r := recover(); r != nil {
			slog.Error("panic in inventory submit", "panic", r, "records", len(inFlight))
			metrics.RecordSubmission(metrics.SubmissionUnavailable, time.Since(start))
			result = SubmissionResult{Skipped: skipped}
			err = fmt.Errorf("%w: inventory panicked: %v", ErrSubmissionUnavailable, r)
		}
	}()

	items := make([]BatchItem, 0, len(eligible))
	for _, rec := range eligible {
		product, convErr := ToProduct(rec.Fields)
		if convErr != nil {
			return SubmissionResult{Skipped: skipped}, fmt.Errorf("record %d: %w", rec.Index, convErr)
		}
		items = append(items, BatchItem{Index: rec.Index, Product: product})
	}

	if err := ctx.Err(); err != nil {
		metrics.RecordSubmission(metrics.SubmissionUnavailable, time.Since(start))
		return SubmissionResult{Skipped: skipped}, fmt.Errorf("%w: %w", ErrSubmissionUnavailable, err)
	}

	resp, callErr := c.client.SubmitBatch(ctx, items)
	if callErr != nil {
		slog.Warn("inventory submit failed", "error", callErr, "records", len(inFlight))
		metrics.RecordSubmission(metrics.SubmissionUnavailable, time.Since(start))
		return SubmissionResult{Skipped: skipped}, fmt.Errorf("%w: %w", ErrSubmissionUnavailable, callErr)
	}

	warnUnknownIndices(resp, inFlight)

	rejected := make([]FailedRecord, len(resp.Rejected))
	for i, rej := range resp.Rejected {
		rejected[i] = FailedRecord{Index: rej.Index, Reason: rej.Reason}
	}

	committed, failed := store.reconcile(inFlight, resp.Accepted, rejected, reasonNotReported)
	reconciled = true

	result.CommittedCount = committed
	result.Failed = failed

	metrics.RecordSubmission(metrics.SubmissionOK, time.Since(start))
	metrics.RecordOutcome(metrics.OutcomeCommitted, committed)
	metrics.RecordOutcome(metrics.OutcomeFailed, len(failed))

	slog.Info("submission finished",
		"committed", committed,
		"failed", len(failed),
		"skipped", len(skipped),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// warnUnknownIndices logs indices the collaborator reported that were never sent.
func warnUnknownIndices(resp BatchResponse, inFlight []int) {
	sent := make(map[int]bool, len(inFlight))
	for _, idx := range inFlight {
		sent[idx] = true
	}
	var unknown []int
	for _, idx := range resp.Accepted {
		if !sent[idx] {
			unknown = append(unknown, idx)
		}
	}
	for _, rej := range resp.Rejected {
		if !sent[rej.Index] {
			unknown = append(unknown, rej.Index)
		}
	}
	if len(unknown) > 0 {
		slog.Warn("inventory reported unknown record indices", "indices", unknown)
	}
}
