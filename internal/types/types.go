// Package types defines the shared data model for patternforge:
// submissions, accepted patterns, failure records, and the interfaces
// the engine uses to talk to its collaborators (the pattern store and
// the reflection improver). Every other internal package depends on
// this one and nothing here depends back, keeping the import graph flat.
package types

import (
	"time"
)

// =============================================================================
// SUBMISSIONS AND PATTERNS
// =============================================================================

// GenerationMethod identifies how a derived submission was produced.
type GenerationMethod string

const (
	// GeneratedByPort marks a cross-language port of an accepted pattern.
	GeneratedByPort GenerationMethod = "language-port"
	// GeneratedBySwap marks an algorithmic approach swap of an accepted pattern.
	GeneratedBySwap GenerationMethod = "approach-swap"
)

// Submission is a candidate code fragment offered to the store.
// Identity is Name: re-submitting an existing name is a no-op success.
// A Submission is immutable once handed to the engine; repaired payloads
// are attached to the owning FailureRecord, never written back here.
type Submission struct {
	Name             string           `json:"name" yaml:"name"`
	Code             string           `json:"code" yaml:"code"`
	TestCode         string           `json:"test_code,omitempty" yaml:"test_code,omitempty"`
	Language         string           `json:"language" yaml:"language"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	Tags             []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	PatternType      string           `json:"pattern_type,omitempty" yaml:"pattern_type,omitempty"`
	ParentPattern    string           `json:"parent_pattern,omitempty" yaml:"parent_pattern,omitempty"`
	GenerationMethod GenerationMethod `json:"generation_method,omitempty" yaml:"generation_method,omitempty"`
}

// CoherencyScore is the store's quality verdict for a fragment.
type CoherencyScore struct {
	Total     float64            `json:"total"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// ValidationReport is returned by the store for every registration attempt.
type ValidationReport struct {
	CoherencyScore CoherencyScore `json:"coherency_score"`
	Errors         []string       `json:"errors,omitempty"`
}

// Pattern is an accepted fragment in the library catalog.
type Pattern struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Language     string         `json:"language"`
	Tags         []string       `json:"tags,omitempty"`
	Code         string         `json:"code"`
	TestCode     string         `json:"test_code,omitempty"`
	Description  string         `json:"description,omitempty"`
	PatternType  string         `json:"pattern_type,omitempty"`
	Coherency    CoherencyScore `json:"coherency_score"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// RegisterResult reports the outcome of a single registration attempt.
type RegisterResult struct {
	Registered bool             `json:"registered"`
	Pattern    *Pattern         `json:"pattern,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Validation ValidationReport `json:"validation"`
}

// =============================================================================
// FAILURE RECORDS
// =============================================================================

// FailureStatus is the closed lifecycle of a FailureRecord.
// Transitions only move forward: pending -> healing -> recycled|exhausted.
type FailureStatus string

const (
	StatusPending   FailureStatus = "pending"
	StatusHealing   FailureStatus = "healing"
	StatusRecycled  FailureStatus = "recycled"
	StatusExhausted FailureStatus = "exhausted"
)

// CanTransition reports whether moving from s to next is a legal step.
func (s FailureStatus) CanTransition(next FailureStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusHealing
	case StatusHealing:
		return next == StatusRecycled || next == StatusExhausted
	default:
		return false
	}
}

// Terminal reports whether the record can no longer change state.
func (s FailureStatus) Terminal() bool {
	return s == StatusRecycled || s == StatusExhausted
}

// HealOutcome is the result of one heal attempt.
type HealOutcome string

const (
	HealRegistered  HealOutcome = "registered"
	HealStillFailed HealOutcome = "still_failed"
)

// HealAttempt records one pass through the repair loop.
type HealAttempt struct {
	AttemptIndex    int         `json:"attempt_index"`
	BeforeCoherence float64     `json:"before_coherence"`
	AfterCoherence  float64     `json:"after_coherence"`
	ScaffoldUsed    string      `json:"scaffold_used,omitempty"`
	Outcome         HealOutcome `json:"outcome"`
}

// FailureRecord is the audit-trail entry for a rejected submission.
// The buffer owns its lifetime; records are never deleted.
type FailureRecord struct {
	ID            string           `json:"id"`
	Submission    Submission       `json:"submission"`
	FailureReason string           `json:"failure_reason"`
	Validation    ValidationReport `json:"validation"`
	CapturedAt    time.Time        `json:"captured_at"`
	Attempts      int              `json:"attempts"`
	Status        FailureStatus    `json:"status"`
	HealHistory   []HealAttempt    `json:"heal_history,omitempty"`
}

// =============================================================================
// COHERENCE
// =============================================================================

// CoherenceState is a value recomputed from the full accepted set;
// it is never patched incrementally.
type CoherenceState struct {
	XiGlobal     float64 `json:"xi_global"`
	AvgIAM       float64 `json:"avg_iam"`
	CascadeBoost float64 `json:"cascade_boost"`
}

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// ScaffoldContext carries a healthy sibling pattern's structure into a
// reflection call. It is a structured parameter, not text smuggled into
// the code payload.
type ScaffoldContext struct {
	Name      string   `json:"name"`
	Code      string   `json:"code"`
	Tags      []string `json:"tags,omitempty"`
	Coherence float64  `json:"coherence"`
}

// SwapDirective asks the reflector to apply one named structural rewrite.
type SwapDirective struct {
	Name string `json:"name"`
	Hint string `json:"hint"`
}

// ImproveRequest is the full input to a reflection call.
type ImproveRequest struct {
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Description     string           `json:"description,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	MaxLoops        int              `json:"max_loops"`
	TargetCoherence float64          `json:"target_coherence"`
	CascadeBoost    float64          `json:"cascade_boost"`
	Scaffold        *ScaffoldContext `json:"scaffold,omitempty"`
	SwapDirective   *SwapDirective   `json:"swap_directive,omitempty"`
}

// Trajectory summarizes the coherence movement across improvement loops.
type Trajectory struct {
	Initial     float64 `json:"initial"`
	Final       float64 `json:"final"`
	Improvement float64 `json:"improvement"`
}

// ImproveResult is the output of a reflection call.
type ImproveResult struct {
	Code       string             `json:"code"`
	Loops      int                `json:"loops"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
	Trajectory Trajectory         `json:"trajectory"`
}
