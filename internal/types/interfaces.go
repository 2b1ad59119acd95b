package types

import "context"

// PatternStore is the canonical fragment catalog and validator.
// Register must be idempotent by name: an already-present name counts
// as registered, never as a duplicate entry.
type PatternStore interface {
	Register(ctx context.Context, sub Submission) (RegisterResult, error)
	GetAll(ctx context.Context) ([]Pattern, error)
	AcceptanceThreshold() float64
}

// Reflector is the iterative code-improvement collaborator. The engine
// treats it as a black box that may be slow; errors from it are contained
// at the per-item boundary.
type Reflector interface {
	Improve(ctx context.Context, req ImproveRequest) (ImproveResult, error)
}

// CollaboratorError wraps an unexpected failure from a store or reflector
// call during processing of one submission. It is recorded against that
// item and never aborts the enclosing wave.
type CollaboratorError struct {
	Collaborator string // "store" or "reflection"
	Op           string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return e.Collaborator + " " + e.Op + ": " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
