package core

// staging.go holds the authoritative in-memory import batch.
//
// The Store is the only owner of StagedRecord state. Callers receive deep
// copies and change records only through Store operations. All writers hold
// the write lock for the whole transition, so readers never observe a batch
// that is half moved to submitting or half reconciled.

import (
	"fmt"
	"sync"
)

// Store owns one import batch.
type Store struct {
	mapper *Mapper

	mu      sync.RWMutex
	header  []string
	records []*StagedRecord
	byIndex map[int]*StagedRecord
}

// NewStore creates an empty store that maps rows with mapper.
func NewStore(mapper *Mapper) *Store {
	return &Store{
		mapper:  mapper,
		byIndex: make(map[int]*StagedRecord),
	}
}

// LoadBatch replaces the current batch with the rows of table.
// Every row is read before anything is replaced, so a malformed file leaves
// the previous batch untouched.
func (s *Store) LoadBatch(table RawTable) (BatchSummary, error) {
	header := table.Header()

	var staged []*StagedRecord
	summary := BatchSummary{}
	for row, err := range table.Rows() {
		if err != nil {
			return BatchSummary{}, fmt.Errorf("load batch: %w", err)
		}
		fields, issues := s.mapper.MapRow(row, header)
		rec := &StagedRecord{
			Index:  len(staged),
			Line:   row.Line,
			Fields: fields,
			Issues: issues,
			State:  StateStaged,
		}
		staged = append(staged, rec)

		summary.Total++
		if rec.Blocked() {
			summary.Blocked++
		} else {
			summary.Clean++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.State == StateSubmitting {
			return BatchSummary{}, ErrBatchLocked
		}
	}

	s.header = header
	s.records = staged
	s.byIndex = make(map[int]*StagedRecord, len(staged))
	for _, rec := range staged {
		s.byIndex[rec.Index] = rec
	}
	return summary, nil
}

// EditField re-coerces one field of a staged record from newRaw.
// Only that field's value and issues change.
func (s *Store) EditField(index int, field, newRaw string) (StagedRecord, error) {
	v, fieldIssues, err := s.mapper.MapField(field, newRaw, true)
	if err != nil {
		return StagedRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byIndex[index]
	if !ok {
		return StagedRecord{}, fmt.Errorf("%w: %d", ErrUnknownIndex, index)
	}
	if rec.State == StateSubmitting {
		return StagedRecord{}, fmt.Errorf("%w: %d", ErrRecordLocked, index)
	}

	rec.Fields[field] = v
	rec.Issues = replaceFieldIssues(rec.Issues, field, fieldIssues, s.mapper)
	if rec.State == StateFailed {
		rec.State = StateStaged
		rec.FailureReason = ""
	}
	return rec.clone(), nil
}

// ListStaged returns a snapshot of the batch in index order.
func (s *Store) ListStaged() []StagedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StagedRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.clone()
	}
	return out
}

// Get returns a snapshot of one record.
func (s *Store) Get(index int) (StagedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byIndex[index]
	if !ok {
		return StagedRecord{}, fmt.Errorf("%w: %d", ErrUnknownIndex, index)
	}
	return rec.clone(), nil
}

// Header returns the header of the loaded file, or nil in positional mode.
func (s *Store) Header() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.header...)
}

// Len returns the number of records in the batch.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// InFlight reports whether any record is being submitted.
func (s *Store) InFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.State == StateSubmitting {
			return true
		}
	}
	return false
}

// RemoveCommitted marks the given records committed and drops them from the
// batch. Unknown indices are ignored. Returns how many records were removed.
func (s *Store) RemoveCommitted(indices []int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeCommittedLocked(indices)
}

// MarkFailed moves a record to failed with reason. The record stays in the batch.
func (s *Store) MarkFailed(index int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markFailedLocked(index, reason)
}

func (s *Store) removeCommittedLocked(indices []int) int {
	drop := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if rec, ok := s.byIndex[idx]; ok {
			rec.State = StateCommitted
			drop[idx] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := s.records[:0]
	for _, rec := range s.records {
		if drop[rec.Index] {
			delete(s.byIndex, rec.Index)
			continue
		}
		kept = append(kept, rec)
	}
	// Clear the tail so removed records can be collected.
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return len(drop)
}

func (s *Store) markFailedLocked(index int, reason string) error {
	rec, ok := s.byIndex[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownIndex, index)
	}
	rec.State = StateFailed
	rec.FailureReason = reason
	return nil
}

// beginSubmit moves every eligible record to submitting in one step and
// returns them with the indices of blocked records.
func (s *Store) beginSubmit() (eligible []StagedRecord, skipped []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		switch rec.State {
		case StateStaged, StateFailed:
		default:
			continue
		}
		if rec.Blocked() {
			skipped = append(skipped, rec.Index)
			continue
		}
		rec.State = StateSubmitting
		rec.FailureReason = ""
		eligible = append(eligible, rec.clone())
	}
	return eligible, skipped
}

// reconcile applies a collaborator response in one step. Records in inFlight
// that are neither accepted nor rejected are marked failed with missingReason.
func (s *Store) reconcile(inFlight []int, accepted []int, rejected []FailedRecord, missingReason string) (committed int, failed []FailedRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[int]bool, len(inFlight))
	for _, idx := range inFlight {
		pending[idx] = true
	}

	var commit []int
	for _, idx := range accepted {
		if pending[idx] {
			commit = append(commit, idx)
			delete(pending, idx)
		}
	}
	for _, rej := range rejected {
		if !pending[rej.Index] {
			continue
		}
		delete(pending, rej.Index)
		if err := s.markFailedLocked(rej.Index, rej.Reason); err == nil {
			failed = append(failed, rej)
		}
	}
	for _, idx := range inFlight {
		if !pending[idx] {
			continue
		}
		if err := s.markFailedLocked(idx, missingReason); err == nil {
			failed = append(failed, FailedRecord{Index: idx, Reason: missingReason})
		}
	}

	committed = s.removeCommittedLocked(commit)
	return committed, failed
}

// revert returns in-flight records to staged.
func (s *Store) revert(indices []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, idx := range indices {
		if rec, ok := s.byIndex[idx]; ok && rec.State == StateSubmitting {
			rec.State = StateStaged
		}
	}
}

// replaceFieldIssues swaps the issues of one field, keeping every other issue
// in place and the result in schema order.
func replaceFieldIssues(issues []ValidationIssue, field string, replacement []ValidationIssue, m *Mapper) []ValidationIssue {
	out := make([]ValidationIssue, 0, len(issues)+len(replacement))
	inserted := false
	pos := m.byName[field]

	for _, issue := range issues {
		if issue.Field == field {
			continue
		}
		if !inserted && issue.Field != "" && m.byName[issue.Field] > pos {
			out = append(out, replacement...)
			inserted = true
		}
		out = append(out, issue)
	}
	if !inserted {
		out = append(out, replacement...)
	}
	return out
}
