// Package healing implements the repair side of the growth engine:
// the buffer of rejected submissions, the nearest-neighbor scaffold
// search that rescues deeply stuck repairs, and the bounded retry
// runner that drives the reflection collaborator.
package healing

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// FailureBuffer owns every FailureRecord for the lifetime of a run.
// Records are appended by Capture and mutated only by the Runner;
// they are never deleted, forming the audit trail of the run.
type FailureBuffer struct {
	mu      sync.Mutex
	records []*types.FailureRecord
}

// NewFailureBuffer creates an empty buffer.
func NewFailureBuffer() *FailureBuffer {
	return &FailureBuffer{}
}

// Capture appends a pending FailureRecord for a rejected submission.
// Capture never fails; it is the universal landing point for anything
// the store turned away.
func (b *FailureBuffer) Capture(sub types.Submission, reason string, report types.ValidationReport) *types.FailureRecord {
	rec := &types.FailureRecord{
		ID:            uuid.NewString(),
		Submission:    sub,
		FailureReason: reason,
		Validation:    report,
		CapturedAt:    time.Now(),
		Status:        types.StatusPending,
	}

	b.mu.Lock()
	b.records = append(b.records, rec)
	n := len(b.records)
	b.mu.Unlock()

	logging.Healing("captured %q: %s (buffer=%d)", sub.Name, reason, n)
	return rec
}

// Filter selects records by status and/or language; zero values match all.
type Filter struct {
	Status   types.FailureStatus
	Language string
}

// GetCaptured returns the records matching the filter, in capture order.
// Callers receive the live records; only the Runner may mutate them.
func (b *FailureBuffer) GetCaptured(f Filter) []*types.FailureRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*types.FailureRecord
	for _, rec := range b.records {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.Language != "" && rec.Submission.Language != f.Language {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Len returns the total number of captured records.
func (b *FailureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// CountByStatus tallies records per lifecycle state.
func (b *FailureBuffer) CountByStatus() map[types.FailureStatus]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[types.FailureStatus]int)
	for _, rec := range b.records {
		counts[rec.Status]++
	}
	return counts
}
