// Package variants multiplies accepted patterns into related candidate
// submissions: cross-language ports gated by per-target admissibility,
// and algorithmic approach swaps delegated to the reflection
// collaborator. Every candidate carries its parent's name; no variant
// exists without a resolvable parent at generation time.
package variants

import (
	"context"
	"fmt"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// PortTarget is one configured port destination. Port returns the
// translated code and true, or false when the source is inadmissible or
// the rewrite left source-language residue; both produce zero variants
// silently, not a failure.
type PortTarget interface {
	Name() string
	Language() string
	Port(code string) (string, bool)
}

// Generator produces variant submissions from accepted patterns whose
// language matches the engine's canonical seed language.
type Generator struct {
	canonical      string
	targets        []PortTarget
	swaps          []SwapDefinition
	reflector      types.Reflector
	swapLoopBudget int
}

// NewGenerator assembles a generator over the given port targets and
// swap catalog. swapLoopBudget is the (small) reflector budget per swap.
func NewGenerator(canonical string, targets []PortTarget, swaps []SwapDefinition, reflector types.Reflector, swapLoopBudget int) *Generator {
	if swapLoopBudget <= 0 {
		swapLoopBudget = 2
	}
	return &Generator{
		canonical:      canonical,
		targets:        targets,
		swaps:          swaps,
		reflector:      reflector,
		swapLoopBudget: swapLoopBudget,
	}
}

// Batch is one pattern's worth of candidates, ports and swaps separated
// so the scheduler can account for them independently.
type Batch struct {
	Ports []types.Submission
	Swaps []types.Submission
}

// Candidates generates the port and swap candidates for one accepted
// pattern. Patterns outside the canonical language yield an empty batch.
// max caps the combined candidate count (0 = no cap).
func (g *Generator) Candidates(ctx context.Context, parent types.Pattern, cascadeBoost float64, max int) Batch {
	var batch Batch
	if parent.Language != g.canonical {
		return batch
	}

	batch.Ports = g.portCandidates(parent)
	batch.Swaps = g.swapCandidates(ctx, parent, cascadeBoost)

	if max > 0 {
		total := len(batch.Ports) + len(batch.Swaps)
		if total > max {
			if len(batch.Ports) > max {
				batch.Ports = batch.Ports[:max]
				batch.Swaps = nil
			} else {
				batch.Swaps = batch.Swaps[:max-len(batch.Ports)]
			}
		}
	}

	logging.VariantsDebug("candidates for %q: ports=%d swaps=%d",
		parent.Name, len(batch.Ports), len(batch.Swaps))
	return batch
}

func (g *Generator) portCandidates(parent types.Pattern) []types.Submission {
	var out []types.Submission
	for _, target := range g.targets {
		ported, ok := target.Port(parent.Code)
		if !ok {
			// Declined port: zero variants, logged only as a count.
			logging.VariantsDebug("port %q -> %s declined", parent.Name, target.Name())
			continue
		}

		sub := types.Submission{
			Name:             parent.Name + "-" + target.Name(),
			Code:             ported,
			Language:         target.Language(),
			Description:      fmt.Sprintf("%s port of %s", target.Name(), parent.Name),
			Tags:             appendTag(parent.Tags, target.Name()),
			PatternType:      parent.PatternType,
			ParentPattern:    parent.Name,
			GenerationMethod: types.GeneratedByPort,
		}

		// Test code ports best-effort: residue drops the test, not the
		// variant.
		if parent.TestCode != "" {
			if test, ok := target.Port(parent.TestCode); ok {
				sub.TestCode = test
			}
		}

		out = append(out, sub)
	}
	return out
}

func (g *Generator) swapCandidates(ctx context.Context, parent types.Pattern, cascadeBoost float64) []types.Submission {
	var out []types.Submission
	for _, swap := range g.swaps {
		if !swap.Detect(parent.Code) {
			continue
		}

		result, err := g.improve(ctx, types.ImproveRequest{
			Code:            parent.Code,
			Language:        parent.Language,
			Description:     parent.Description,
			Tags:            parent.Tags,
			MaxLoops:        g.swapLoopBudget,
			TargetCoherence: 1.0,
			CascadeBoost:    cascadeBoost,
			SwapDirective: &types.SwapDirective{
				Name: swap.Name,
				Hint: swap.Hint,
			},
		})
		if err != nil {
			cerr := &types.CollaboratorError{Collaborator: "reflection", Op: "swap " + swap.Name, Err: err}
			logging.Get(logging.CategoryVariants).Error("swap %q on %q: %v", swap.Name, parent.Name, cerr)
			continue
		}
		if result.Code == parent.Code {
			// The reflector produced a no-op; nothing worth submitting.
			continue
		}

		out = append(out, types.Submission{
			Name:             parent.Name + "-" + swap.TargetLabel,
			Code:             result.Code,
			TestCode:         parent.TestCode,
			Language:         parent.Language,
			Description:      fmt.Sprintf("%s rewritten as %s", parent.Name, swap.TargetLabel),
			Tags:             appendTag(parent.Tags, swap.TargetLabel),
			PatternType:      parent.PatternType,
			ParentPattern:    parent.Name,
			GenerationMethod: types.GeneratedBySwap,
		})
	}
	return out
}

// improve calls the reflector with panic containment; a panicking
// collaborator costs one swap candidate, not the generation batch.
func (g *Generator) improve(ctx context.Context, req types.ImproveRequest) (result types.ImproveResult, err error) {
	defer func() {
		if v := recover(); v != nil {
			result = types.ImproveResult{}
			err = fmt.Errorf("improve panicked: %v", v)
		}
	}()
	return g.reflector.Improve(ctx, req)
}

func appendTag(tags []string, tag string) []string {
	out := append([]string(nil), tags...)
	for _, t := range out {
		if t == tag {
			return out
		}
	}
	return append(out, tag)
}
