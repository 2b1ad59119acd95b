package healing

import (
	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// Scaffold search weights: stored health dominates slightly less than
// topical closeness, so a same-domain sibling beats a marginally
// healthier stranger.
const (
	scaffoldCoherenceWeight = 0.4
	scaffoldTagWeight       = 0.6

	// DefaultScaffoldMinCoherence is the floor below which a pattern is
	// not healthy enough to serve as a scaffold.
	DefaultScaffoldMinCoherence = 0.8
)

// FindScaffold returns the best same-language, high-health sibling for
// a stuck submission, or nil when none qualifies. Pure function of the
// catalog snapshot; ties keep the first candidate in iteration order.
func FindScaffold(sub types.Submission, patterns []types.Pattern, minCoherence float64) *types.Pattern {
	if minCoherence <= 0 {
		minCoherence = DefaultScaffoldMinCoherence
	}

	var best *types.Pattern
	bestScore := 0.0
	for i := range patterns {
		p := &patterns[i]
		if p.Language != sub.Language {
			continue
		}
		if p.Coherency.Total < minCoherence {
			continue
		}
		score := scaffoldCoherenceWeight*p.Coherency.Total +
			scaffoldTagWeight*tagOverlapRatio(sub.Tags, p.Tags)
		if best == nil || score > bestScore {
			best = p
			bestScore = score
		}
	}

	if best != nil {
		logging.HealingDebug("scaffold for %q: %q (score=%.3f)", sub.Name, best.Name, bestScore)
	}
	return best
}

// tagOverlapRatio is |intersection| / |submission tags|; a submission
// with no tags overlaps nothing.
func tagOverlapRatio(subTags, patternTags []string) float64 {
	if len(subTags) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(patternTags))
	for _, t := range patternTags {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range subTags {
		if _, ok := set[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(subTags))
}
