package healing

import (
	"context"
	"sync"

	"patternforge/internal/types"
)

// --- MockPatternStore ---

type MockPatternStore struct {
	mu           sync.Mutex
	RegisterFunc func(ctx context.Context, sub types.Submission) (types.RegisterResult, error)
	GetAllFunc   func(ctx context.Context) ([]types.Pattern, error)
	Threshold    float64

	// State for verification
	Registered []types.Submission
}

func (m *MockPatternStore) Register(ctx context.Context, sub types.Submission) (types.RegisterResult, error) {
	m.mu.Lock()
	m.Registered = append(m.Registered, sub)
	m.mu.Unlock()
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, sub)
	}
	return types.RegisterResult{Registered: true}, nil
}

func (m *MockPatternStore) GetAll(ctx context.Context) ([]types.Pattern, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockPatternStore) AcceptanceThreshold() float64 {
	if m.Threshold > 0 {
		return m.Threshold
	}
	return 0.5
}

// --- MockReflector ---

type MockReflector struct {
	mu          sync.Mutex
	ImproveFunc func(ctx context.Context, req types.ImproveRequest) (types.ImproveResult, error)

	// State for verification
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
