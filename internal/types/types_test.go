package types

import (
	"errors"
	"strings"
	"testing"
)

func TestFailureStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to FailureStatus
		want     bool
	}{
		{StatusPending, StatusHealing, true},
		{StatusHealing, StatusRecycled, true},
		{StatusHealing, StatusExhausted, true},
		{StatusPending, StatusRecycled, false},
		{StatusPending, StatusExhausted, false},
		{StatusHealing, StatusPending, false},
		{StatusRecycled, StatusHealing, false},
		{StatusExhausted, StatusHealing, false},
		{StatusRecycled, StatusExhausted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestFailureStatus_Terminal(t *testing.T) {
	for status, want := range map[FailureStatus]bool{
		StatusPending:   false,
		StatusHealing:   false,
		StatusRecycled:  true,
		StatusExhausted: true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestCollaboratorError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &CollaboratorError{Collaborator: "reflection", Op: "improve", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	msg := err.Error()
	for _, want := range []string{"reflection", "improve", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
