package engine

import (
	"context"
	"sync"

	"patternforge/internal/types"
)

// --- MockReflector ---

// MockReflector echoes its input unless ImproveFunc is set. An echo is
// the least helpful reflector possible: swaps become no-ops and heal
// attempts resubmit the code unchanged.
type MockReflector struct {
	mu          sync.Mutex
	ImproveFunc func(ctx context.Context, req types.ImproveRequest) (types.ImproveResult, error)

	Requests []types.ImproveRequest
}

func (m *MockReflector) Improve(ctx context.Context, req types.ImproveRequest) (types.ImproveResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.ImproveFunc != nil {
		return m.ImproveFunc(ctx, req)
	}
	return types.ImproveResult{Code: req.Code}, nil
}
