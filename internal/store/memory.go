package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// MemoryStore is an in-process PatternStore. Registration is serialized
// through a single mutex so the name-uniqueness check and the append are
// atomic with respect to each other.
type MemoryStore struct {
	mu        sync.Mutex
	validator *Validator
	threshold float64
	order     []string
	patterns  map[string]types.Pattern
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore(threshold float64) *MemoryStore {
	if threshold <= 0 {
		threshold = DefaultAcceptanceThreshold
	}
	return &MemoryStore{
		validator: NewValidator(),
		threshold: threshold,
		patterns:  make(map[string]types.Pattern),
	}
}

// AcceptanceThreshold returns the minimum coherency total for acceptance.
func (s *MemoryStore) AcceptanceThreshold() float64 { return s.threshold }

// Register validates sub and appends it to the catalog. Idempotent by
// name: an existing name reports registered without a second entry.
func (s *MemoryStore) Register(ctx context.Context, sub types.Submission) (types.RegisterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.patterns[sub.Name]; ok {
		logging.StoreDebug("register %q: already present, no-op", sub.Name)
		p := existing
		return types.RegisterResult{
			Registered: true,
			Pattern:    &p,
			Reason:     "already registered",
			Validation: types.ValidationReport{CoherencyScore: existing.Coherency},
		}, nil
	}

	report := s.validator.Validate(ctx, sub)
	if len(report.Errors) > 0 || report.CoherencyScore.Total < s.threshold {
		reason := "coherency below acceptance threshold"
		if len(report.Errors) > 0 {
			reason = strings.Join(report.Errors, "; ")
		}
		logging.Store("register %q rejected: %s", sub.Name, reason)
		return types.RegisterResult{
			Registered: false,
			Reason:     reason,
			Validation: report,
		}, nil
	}

	pattern := types.Pattern{
		ID:           uuid.NewString(),
		Name:         sub.Name,
		Language:     sub.Language,
		Tags:         append([]string(nil), sub.Tags...),
		Code:         sub.Code,
		TestCode:     sub.TestCode,
		Description:  sub.Description,
		PatternType:  sub.PatternType,
		Coherency:    report.CoherencyScore,
		RegisteredAt: time.Now(),
	}
	s.patterns[sub.Name] = pattern
	s.order = append(s.order, sub.Name)

	logging.Store("register %q accepted: total=%.2f lang=%s",
		sub.Name, report.CoherencyScore.Total, sub.Language)
	p := pattern
	return types.RegisterResult{
		Registered: true,
		Pattern:    &p,
		Validation: report,
	}, nil
}

// GetAll returns the catalog in insertion order. Entries are copies;
// callers cannot mutate store state through them.
func (s *MemoryStore) GetAll(ctx context.Context) ([]types.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Pattern, 0, len(s.order))
	for _, name := range s.order {
		p := s.patterns[name]
		p.Tags = append([]string(nil), p.Tags...)
		if p.Coherency.Breakdown != nil {
			breakdown := make(map[string]float64, len(p.Coherency.Breakdown))
			for dim, score := range p.Coherency.Breakdown {
				breakdown[dim] = score
			}
			p.Coherency.Breakdown = breakdown
		}
		out = append(out, p)
	}
	return out, nil
}

// Len returns the number of accepted patterns.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Close releases validator resources.
func (s *MemoryStore) Close() {
	s.validator.Close()
}
