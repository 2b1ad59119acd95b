// Package engine drives growth runs: bounded exponential waves that
// register seed submissions, heal the rejects, multiply the accepted
// survivors into ports and approach swaps, and recompute library
// health after every wave. The engine orchestrates; all domain
// judgment lives in the store, the healing runner, and the variant
// generator.
//
// A run of depth d executes exactly d+1 waves:
//
//  1. Wave 0 registers the caller's seeds.
//  2. Each later wave sources the previous wave's accepted
//     canonical-language fragments and registers their variants.
//  3. Every wave ends with a healing pass over its rejects and a
//     coherence recompute, so the cascade boost the next wave sees
//     reflects everything registered so far.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"patternforge/internal/coherence"
	"patternforge/internal/healing"
	"patternforge/internal/logging"
	"patternforge/internal/types"
	"patternforge/internal/variants"
)

// sourceFanoutFactor caps how many accepted fragments a wave may use
// as variant sources, as a multiple of MaxVariantsPerPattern. Without
// it a healthy library grows faster than any budget can bound.
const sourceFanoutFactor = 10

// Options bound one growth run.
type Options struct {
	// Depth is the number of expansion waves after the seed wave.
	Depth int
	// MaxVariantsPerPattern caps candidates generated per source.
	MaxVariantsPerPattern int
	// GenConcurrency bounds concurrent candidate generation.
	GenConcurrency int
}

// DefaultOptions returns the standard run bounds.
func DefaultOptions() Options {
	return Options{
		Depth:                 2,
		MaxVariantsPerPattern: 4,
		GenConcurrency:        4,
	}
}

// Engine composes the store, the healing loop, and the variant
// generator into a wave scheduler. Safe for one Run at a time.
type Engine struct {
	store     types.PatternStore
	buffer    *healing.FailureBuffer
	runner    *healing.Runner
	generator *variants.Generator
	canonical string
}

// New assembles an engine. canonical is the seed language variants are
// sourced from.
func New(store types.PatternStore, buffer *healing.FailureBuffer, runner *healing.Runner, generator *variants.Generator, canonical string) *Engine {
	return &Engine{
		store:     store,
		buffer:    buffer,
		runner:    runner,
		generator: generator,
		canonical: canonical,
	}
}

// Run executes one bounded growth run over the given seeds. The
// returned report always carries opts.Depth+1 wave records unless the
// context is cancelled mid-run.
func (e *Engine) Run(ctx context.Context, seeds []types.Submission, opts Options) (*Report, error) {
	if opts.Depth < 0 {
		opts.Depth = 0
	}
	if opts.MaxVariantsPerPattern <= 0 {
		opts.MaxVariantsPerPattern = DefaultOptions().MaxVariantsPerPattern
	}
	if opts.GenConcurrency <= 0 {
		opts.GenConcurrency = DefaultOptions().GenConcurrency
	}

	timer := logging.StartTimer(logging.CategoryWaves, "growth run")
	defer timer.Stop()
	logging.Waves("run start: seeds=%d depth=%d maxVariants=%d",
		len(seeds), opts.Depth, opts.MaxVariantsPerPattern)

	report := &Report{Depth: opts.Depth}
	state := types.CoherenceState{CascadeBoost: 1.0}

	// Wave 0: seeds.
	accepted, err := e.runWave(ctx, report, 0, "seed", seeds, &state)
	if err != nil {
		return report, err
	}

	// Expansion waves 1..depth.
	for wave := 1; wave <= opts.Depth; wave++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sources, err := e.selectSources(ctx, accepted, opts)
		if err != nil {
			return report, err
		}

		candidates := e.generate(ctx, sources, state.CascadeBoost, opts)
		accepted, err = e.runWave(ctx, report, wave, "expansion", candidates, &state)
		if err != nil {
			return report, err
		}
	}

	patterns, err := e.store.GetAll(ctx)
	if err != nil {
		return report, &types.CollaboratorError{Collaborator: "store", Op: "getAll", Err: err}
	}
	report.Total = len(patterns)
	report.XiGlobal = state.XiGlobal
	report.CascadeBoost = state.CascadeBoost

	logging.Waves("run done: registered=%d failed=%d recycled=%d total=%d boost=%.4f",
		report.Registered, report.Failed, report.Recycled, report.Total, report.CascadeBoost)
	return report, nil
}

// runWave registers one wave's submissions, heals its rejects, and
// recomputes coherence. It returns the names accepted this wave,
// healed records included, for the next wave to source from.
func (e *Engine) runWave(ctx context.Context, report *Report, index int, label string, subs []types.Submission, state *types.CoherenceState) ([]string, error) {
	rec := WaveRecord{Index: index, Label: label}
	var acceptedNames []string

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch sub.GenerationMethod {
		case types.GeneratedByPort:
			report.Variants.Spawned++
			rec.VariantsSpawned++
		case types.GeneratedBySwap:
			report.Approaches.Spawned++
			rec.VariantsSpawned++
		}

		if e.registerOne(ctx, sub) {
			rec.Registered++
			report.Registered++
			acceptedNames = append(acceptedNames, sub.Name)
			switch sub.GenerationMethod {
			case types.GeneratedByPort:
				report.Variants.Accepted++
			case types.GeneratedBySwap:
				report.Approaches.Accepted++
			}
		} else {
			rec.Failed++
			report.Failed++
		}
	}

	// Heal with the boost the library has earned so far, then settle
	// the wave's final state.
	if err := e.recompute(ctx, state); err != nil {
		return nil, err
	}
	heal := e.runner.RecycleFailed(ctx, healing.RecycleOptions{}, state.CascadeBoost)
	rec.Healed = heal.Healed
	report.Recycled += heal.Healed
	acceptedNames = append(acceptedNames, heal.HealedNames...)

	if err := e.recompute(ctx, state); err != nil {
		return nil, err
	}
	rec.CascadeBoost = state.CascadeBoost
	report.Waves = append(report.Waves, rec)

	logging.Waves("wave %d (%s): registered=%d failed=%d healed=%d boost=%.4f",
		index, label, rec.Registered, rec.Failed, rec.Healed, rec.CascadeBoost)
	return acceptedNames, nil
}

// registerOne pushes one submission through the store, containing
// panics and collaborator errors to this item. Anything short of
// acceptance lands in the failure buffer.
func (e *Engine) registerOne(ctx context.Context, sub types.Submission) (accepted bool) {
	defer func() {
		if p := recover(); p != nil {
			logging.Get(logging.CategoryWaves).Error("register %q panicked: %v", sub.Name, p)
			e.buffer.Capture(sub, fmt.Sprintf("register panicked: %v", p), types.ValidationReport{})
			accepted = false
		}
	}()

	result, err := e.store.Register(ctx, sub)
	if err != nil {
		cerr := &types.CollaboratorError{Collaborator: "store", Op: "register", Err: err}
		logging.Get(logging.CategoryWaves).Error("register %q: %v", sub.Name, cerr)
		e.buffer.Capture(sub, cerr.Error(), types.ValidationReport{})
		return false
	}
	if !result.Registered {
		e.buffer.Capture(sub, result.Reason, result.Validation)
		return false
	}
	return true
}

// selectSources resolves the previous wave's accepted names to stored
// canonical-language patterns and applies the fan-out cap.
func (e *Engine) selectSources(ctx context.Context, acceptedNames []string, opts Options) ([]types.Pattern, error) {
	patterns, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, &types.CollaboratorError{Collaborator: "store", Op: "getAll", Err: err}
	}

	byName := make(map[string]types.Pattern, len(patterns))
	for _, p := range patterns {
		byName[p.Name] = p
	}

	maxSources := opts.MaxVariantsPerPattern * sourceFanoutFactor
	var sources []types.Pattern
	seen := make(map[string]bool, len(acceptedNames))
	for _, name := range acceptedNames {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := byName[name]
		if !ok || p.Language != e.canonical {
			continue
		}
		sources = append(sources, p)
		if len(sources) >= maxSources {
			logging.WavesDebug("fan-out cap hit at %d sources", maxSources)
			break
		}
	}
	return sources, nil
}

// generate produces candidate submissions for every source pattern.
// Generation runs concurrently but the result keeps source order, so
// registration stays deterministic.
func (e *Engine) generate(ctx context.Context, sources []types.Pattern, cascadeBoost float64, opts Options) []types.Submission {
	batches := make([]variants.Batch, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.GenConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			batches[i] = e.generator.Candidates(gctx, src, cascadeBoost, opts.MaxVariantsPerPattern)
			return nil
		})
	}
	// Workers only report context cancellation; partial batches are
	// still registered.
	_ = g.Wait()

	var out []types.Submission
	for _, b := range batches {
		out = append(out, b.Ports...)
		out = append(out, b.Swaps...)
	}
	return out
}

// recompute refreshes the coherence state from the full accepted set.
func (e *Engine) recompute(ctx context.Context, state *types.CoherenceState) error {
	patterns, err := e.store.GetAll(ctx)
	if err != nil {
		return &types.CollaboratorError{Collaborator: "store", Op: "getAll", Err: err}
	}
	*state = coherence.Recompute(patterns, e.store.AcceptanceThreshold())
	return nil
}
