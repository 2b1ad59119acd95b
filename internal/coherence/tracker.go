// Package coherence derives aggregate library health from the accepted
// pattern catalog. The tracker is a pure function of a store snapshot:
// it never holds mutable state of its own, so recomputation is
// deterministic and order-independent.
package coherence

import (
	"math"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// Cascade boost constants. The boost is a smooth, monotonically
// increasing, bounded multiplier handed opaquely to the reflection
// collaborator: close to 1.0 for an unhealthy library and rising toward
// roughly 1.15x as both xiGlobal and avgIAM approach 1.
const (
	cascadeGamma = 0.05
	cascadeBeta  = 2.5
)

// MaxCascadeBoost is the upper bound of the boost range, 1 + 0.05*e^2.5.
var MaxCascadeBoost = 1 + cascadeGamma*math.Exp(cascadeBeta)

// Recompute derives a fresh CoherenceState from the full accepted set.
// threshold is the store's acceptance threshold; fragments below it
// contribute zero to avgIAM.
//
// xiGlobal  = mean of per-fragment coherence totals (0 for an empty library)
// avgIAM    = mean of (total if total >= threshold, else 0)
// boost     = 1 + gamma * e^(beta*xiGlobal) * avgIAM
func Recompute(patterns []types.Pattern, threshold float64) types.CoherenceState {
	state := types.CoherenceState{CascadeBoost: 1.0}
	if len(patterns) == 0 {
		logging.CoherenceDebug("recompute on empty library: xi=0 boost=1")
		return state
	}

	var sum, iamSum float64
	for _, p := range patterns {
		total := p.Coherency.Total
		sum += total
		if total >= threshold {
			iamSum += total
		}
	}

	n := float64(len(patterns))
	state.XiGlobal = sum / n
	state.AvgIAM = iamSum / n
	state.CascadeBoost = 1 + cascadeGamma*math.Exp(cascadeBeta*state.XiGlobal)*state.AvgIAM

	logging.CoherenceDebug("recomputed: n=%d xi=%.4f avgIAM=%.4f boost=%.4f",
		len(patterns), state.XiGlobal, state.AvgIAM, state.CascadeBoost)
	return state
}
