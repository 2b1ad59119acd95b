// Package reflection implements the iterative code-improvement
// collaborator. Two implementations exist: a deterministic heuristic
// improver (the default, and the one tests exercise) and a Gemini-backed
// improver selected when an API key is configured. Both receive repair
// context as structured request
// fields (scaffold patterns, swap directives), never as markers embedded
// in the code payload.
package reflection

import (
	"context"
	"regexp"
	"strings"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// HeuristicReflector repairs fragments with purely structural rewrites:
// delimiter balancing, documentation padding, and the subset of swap
// directives that have a mechanical textual form. It is deterministic,
// which keeps engine runs reproducible without an LLM in the loop.
type HeuristicReflector struct{}

// NewHeuristicReflector creates the deterministic improver.
func NewHeuristicReflector() *HeuristicReflector {
	return &HeuristicReflector{}
}

// Improve runs up to req.MaxLoops repair passes, stopping early when the
// estimated coherence reaches the target or a pass changes nothing.
// CascadeBoost stretches the loop budget: a healthy library buys the
// improver more latitude per call.
func (r *HeuristicReflector) Improve(ctx context.Context, req types.ImproveRequest) (types.ImproveResult, error) {
	timer := logging.StartTimer(logging.CategoryReflection, "heuristic improve")
	defer timer.Stop()

	budget := req.MaxLoops
	if budget <= 0 {
		budget = 1
	}
	if req.CascadeBoost > 1 {
		budget = int(float64(budget)*req.CascadeBoost + 0.5)
	}

	code := req.Code
	initial := EstimateCoherence(code)
	loops := 0

	if req.SwapDirective != nil {
		code = applySwap(code, req.SwapDirective.Name)
	}

	for i := 0; i < budget; i++ {
		if ctx.Err() != nil {
			return types.ImproveResult{}, ctx.Err()
		}
		next := repairPass(code, req)
		loops++
		if next == code {
			break
		}
		code = next
		if EstimateCoherence(code) >= req.TargetCoherence {
			break
		}
	}

	final := EstimateCoherence(code)
	logging.ReflectionDebug("heuristic improve: loops=%d initial=%.2f final=%.2f swap=%v scaffold=%v",
		loops, initial, final, req.SwapDirective != nil, req.Scaffold != nil)

	return types.ImproveResult{
		Code:  code,
		Loops: loops,
		Dimensions: map[string]float64{
			"structure":     structureScore(code),
			"documentation": docScore(code),
		},
		Trajectory: types.Trajectory{
			Initial:     initial,
			Final:       final,
			Improvement: final - initial,
		},
	}, nil
}

// repairPass applies one round of structural fixes.
func repairPass(code string, req types.ImproveRequest) string {
	out := balanceDelimiters(code)
	out = stripTrailingSpace(out)

	// A fragment with no commentary at all gets its description as a
	// header; the scaffold's tags seed one when the description is empty.
	if !strings.ContainsAny(out, "#") && !strings.Contains(out, "//") && !strings.Contains(out, "/*") {
		header := strings.TrimSpace(req.Description)
		if header == "" && req.Scaffold != nil {
			header = "based on " + req.Scaffold.Name
		}
		if header != "" {
			out = "// " + header + "\n" + out
		}
	}
	return out
}

// balanceDelimiters appends missing closers and drops orphan closers so
// the fragment at least parses as a balanced token stream.
func balanceDelimiters(code string) string {
	openers := map[rune]rune{'(': ')', '[': ']', '{': '}'}
	closers := map[rune]rune{')': '(', ']': '[', '}': '{'}

	var stack []rune
	var sb strings.Builder
	for _, r := range code {
		if _, ok := openers[r]; ok {
			stack = append(stack, r)
			sb.WriteRune(r)
			continue
		}
		if want, ok := closers[r]; ok {
			if len(stack) > 0 && stack[len(stack)-1] == want {
				stack = stack[:len(stack)-1]
				sb.WriteRune(r)
			}
			// Orphan closer: dropped.
			continue
		}
		sb.WriteRune(r)
	}

	out := strings.TrimRight(sb.String(), " \t\n")
	for i := len(stack) - 1; i >= 0; i-- {
		out += "\n" + string(openers[stack[i]])
	}
	return out
}

func stripTrailingSpace(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

var (
	compoundAssign = regexp.MustCompile(`(\b\w+)\s*([+\-*])=\s*(.+?);`)
	pushCall       = regexp.MustCompile(`(\b\w+)\.push\(`)
)

// applySwap applies the named rewrite when a mechanical textual form
// exists. Directives with no mechanical form return the input unchanged;
// the variant generator discards unchanged results as no-ops.
func applySwap(code, name string) string {
	switch name {
	case "mutable-state-to-immutable":
		return compoundAssign.ReplaceAllString(code, "$1 = $1 $2 ($3);")
	case "imperative-mutation-to-declarative":
		return pushCall.ReplaceAllStringFunc(code, func(m string) string {
			sub := pushCall.FindStringSubmatch(m)
			return sub[1] + " = " + sub[1] + ".concat("
		})
	default:
		return code
	}
}

// EstimateCoherence is a cheap local proxy for the store's coherency
// total, used for trajectories. It tracks the same dimensions the store
// scores so repair loops converge toward acceptance.
func EstimateCoherence(code string) float64 {
	if strings.TrimSpace(code) == "" {
		return 0
	}
	return 0.6*structureScore(code) + 0.2*docScore(code) + 0.2*lengthScore(code)
}

func structureScore(code string) float64 {
	if balanceDelimiters(code) == strings.TrimRight(code, " \t\n") {
		return 1.0
	}
	return 0.2
}

func docScore(code string) float64 {
	if strings.Contains(code, "//") || strings.Contains(code, "/*") || strings.Contains(code, "#") {
		return 1.0
	}
	return 0.0
}

func lengthScore(code string) float64 {
	n := len(strings.Split(code, "\n"))
	if n <= 200 {
		return 1.0
	}
	return 0.5
}
