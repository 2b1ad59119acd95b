package healing

import (
	"context"
	"fmt"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// RunnerConfig bounds the repair loop.
type RunnerConfig struct {
	MaxHealAttempts      int     // Hard cap on attempts per record
	VoidThreshold        float64 // Coherence below which a scaffold is consulted
	TargetCoherence      float64 // Handed to the reflector as the goal
	LoopBudget           int     // Reflector loop budget per attempt
	ScaffoldMinCoherence float64 // Health floor for scaffold candidates
}

// DefaultRunnerConfig returns the standard repair bounds.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxHealAttempts:      3,
		VoidThreshold:        0.3,
		TargetCoherence:      0.8,
		LoopBudget:           3,
		ScaffoldMinCoherence: DefaultScaffoldMinCoherence,
	}
}

// Runner drives the bounded retry loop for failed submissions. It is
// the only mutator of FailureRecords after capture.
type Runner struct {
	store     types.PatternStore
	reflector types.Reflector
	buffer    *FailureBuffer
	cfg       RunnerConfig
}

// NewRunner creates a healing runner over the given buffer.
func NewRunner(store types.PatternStore, reflector types.Reflector, buffer *FailureBuffer, cfg RunnerConfig) *Runner {
	if cfg.MaxHealAttempts <= 0 {
		cfg.MaxHealAttempts = DefaultRunnerConfig().MaxHealAttempts
	}
	if cfg.VoidThreshold <= 0 {
		cfg.VoidThreshold = DefaultRunnerConfig().VoidThreshold
	}
	if cfg.TargetCoherence <= 0 {
		cfg.TargetCoherence = DefaultRunnerConfig().TargetCoherence
	}
	if cfg.LoopBudget <= 0 {
		cfg.LoopBudget = DefaultRunnerConfig().LoopBudget
	}
	return &Runner{store: store, reflector: reflector, buffer: buffer, cfg: cfg}
}

// RecycleOptions selects which pending records a pass works on.
type RecycleOptions struct {
	MaxPatterns int    // 0 = no cap
	Language    string // "" = all languages
}

// RecycleReport summarizes one healing pass.
type RecycleReport struct {
	Processed   int
	Healed      int
	Exhausted   int
	HealedNames []string
}

// RecycleFailed runs the bounded repair loop over pending records.
// Every selected record ends terminal: recycled or exhausted, never
// left healing. cascadeBoost is the current latitude scalar for the
// reflector.
func (r *Runner) RecycleFailed(ctx context.Context, opts RecycleOptions, cascadeBoost float64) RecycleReport {
	timer := logging.StartTimer(logging.CategoryHealing, "recycle pass")
	defer timer.Stop()

	pending := r.buffer.GetCaptured(Filter{Status: types.StatusPending, Language: opts.Language})
	if opts.MaxPatterns > 0 && len(pending) > opts.MaxPatterns {
		pending = pending[:opts.MaxPatterns]
	}

	report := RecycleReport{}
	for _, rec := range pending {
		if !rec.Status.CanTransition(types.StatusHealing) {
			continue
		}
		rec.Status = types.StatusHealing
		report.Processed++

		if r.healOne(ctx, rec, cascadeBoost) {
			rec.Status = types.StatusRecycled
			report.Healed++
			report.HealedNames = append(report.HealedNames, rec.Submission.Name)
		} else {
			rec.Status = types.StatusExhausted
			report.Exhausted++
		}
	}

	logging.Healing("recycle pass: processed=%d healed=%d exhausted=%d",
		report.Processed, report.Healed, report.Exhausted)
	return report
}

// healOne runs up to MaxHealAttempts repair attempts for one record.
// Each attempt builds on the previous attempt's transformed code, never
// restarting from the original payload, so the loop cannot walk the
// same failure path twice.
func (r *Runner) healOne(ctx context.Context, rec *types.FailureRecord, cascadeBoost float64) bool {
	currentCode := rec.Submission.Code
	lastCoherence := rec.Validation.CoherencyScore.Total

	for attempt := 1; attempt <= r.cfg.MaxHealAttempts; attempt++ {
		rec.Attempts = attempt
		entry := types.HealAttempt{
			AttemptIndex:    attempt,
			BeforeCoherence: lastCoherence,
			Outcome:         types.HealStillFailed,
		}

		req := types.ImproveRequest{
			Code:            currentCode,
			Language:        rec.Submission.Language,
			Description:     rec.Submission.Description,
			Tags:            rec.Submission.Tags,
			MaxLoops:        r.cfg.LoopBudget,
			TargetCoherence: r.cfg.TargetCoherence,
			CascadeBoost:    cascadeBoost,
		}

		// Deep void: bootstrap from a healthy sibling's structure.
		if lastCoherence < r.cfg.VoidThreshold {
			if scaffold := r.findScaffold(ctx, rec.Submission); scaffold != nil {
				entry.ScaffoldUsed = scaffold.Name
				req.Scaffold = &types.ScaffoldContext{
					Name:      scaffold.Name,
					Code:      scaffold.Code,
					Tags:      scaffold.Tags,
					Coherence: scaffold.Coherency.Total,
				}
			}
		}

		result, err := r.improve(ctx, req)
		if err != nil {
			cerr := &types.CollaboratorError{Collaborator: "reflection", Op: "improve", Err: err}
			logging.Get(logging.CategoryHealing).Error("heal %q attempt %d: %v", rec.Submission.Name, attempt, cerr)
			entry.AfterCoherence = lastCoherence
			rec.HealHistory = append(rec.HealHistory, entry)
			continue
		}

		// The transformed payload registers under the original name; the
		// original Submission snapshot is never mutated.
		regSub := rec.Submission
		regSub.Code = result.Code

		regResult, err := r.store.Register(ctx, regSub)
		if err != nil {
			cerr := &types.CollaboratorError{Collaborator: "store", Op: "register", Err: err}
			logging.Get(logging.CategoryHealing).Error("heal %q attempt %d: %v", rec.Submission.Name, attempt, cerr)
			entry.AfterCoherence = lastCoherence
			rec.HealHistory = append(rec.HealHistory, entry)
			currentCode = result.Code
			continue
		}

		entry.AfterCoherence = regResult.Validation.CoherencyScore.Total
		if regResult.Registered {
			entry.Outcome = types.HealRegistered
			rec.HealHistory = append(rec.HealHistory, entry)
			logging.Healing("healed %q on attempt %d (coherence %.2f -> %.2f)",
				rec.Submission.Name, attempt, entry.BeforeCoherence, entry.AfterCoherence)
			return true
		}

		rec.HealHistory = append(rec.HealHistory, entry)
		currentCode = result.Code
		lastCoherence = entry.AfterCoherence
	}

	logging.Healing("exhausted %q after %d attempts", rec.Submission.Name, rec.Attempts)
	return false
}

// improve calls the reflector with panic containment. A collaborator
// panic is recorded against the attempt like any other collaborator
// failure; one bad fragment must never abort the whole recycle pass.
func (r *Runner) improve(ctx context.Context, req types.ImproveRequest) (result types.ImproveResult, err error) {
	defer func() {
		if v := recover(); v != nil {
			result = types.ImproveResult{}
			err = fmt.Errorf("improve panicked: %v", v)
		}
	}()
	return r.reflector.Improve(ctx, req)
}

func (r *Runner) findScaffold(ctx context.Context, sub types.Submission) *types.Pattern {
	patterns, err := r.store.GetAll(ctx)
	if err != nil {
		logging.Get(logging.CategoryHealing).Error("scaffold lookup failed: %v",
			fmt.Errorf("store getAll: %w", err))
		return nil
	}
	return FindScaffold(sub, patterns, r.cfg.ScaffoldMinCoherence)
}
