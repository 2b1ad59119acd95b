package reflection

import (
	"context"
	"strings"
	"testing"

	"patternforge/internal/types"
)

// =============================================================================
// HEURISTIC REFLECTOR TESTS
// =============================================================================

func TestHeuristicReflector_BalancesDelimiters(t *testing.T) {
	r := NewHeuristicReflector()

	result, err := r.Improve(context.Background(), types.ImproveRequest{
		Code:            "function add(a, b) {\n  return a + b;",
		Language:        "javascript",
		Description:     "adds two numbers",
		MaxLoops:        3,
		TargetCoherence: 0.8,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(strings.TrimSpace(result.Code), "}") {
		t.Errorf("missing closer:\n%s", result.Code)
	}
	if !strings.Contains(result.Code, "// adds two numbers") {
		t.Errorf("missing description header:\n%s", result.Code)
	}
	if result.Trajectory.Improvement <= 0 {
		t.Errorf("Improvement = %v, want positive", result.Trajectory.Improvement)
	}
}

func TestHeuristicReflector_StopsWhenNothingChanges(t *testing.T) {
	r := NewHeuristicReflector()
	code := "// already fine\nfunction f() { return 1; }"

	result, err := r.Improve(context.Background(), types.ImproveRequest{
		Code:            code,
		MaxLoops:        5,
		TargetCoherence: 1.0,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Code != code {
		t.Errorf("stable code changed:\n%s", result.Code)
	}
	if result.Loops != 1 {
		t.Errorf("Loops = %d, want 1", result.Loops)
	}
}

func TestHeuristicReflector_CascadeBoostStretchesBudget(t *testing.T) {
	r := NewHeuristicReflector()

	// Each pass fixes at most one thing; verify the boosted run is
	// allowed to keep going where the unboosted one would stop.
	req := types.ImproveRequest{
		Code:            "function f(a) {\n  return g(a;",
		Description:     "wraps g",
		MaxLoops:        1,
		TargetCoherence: 1.0,
	}

	plain, err := r.Improve(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	req.CascadeBoost = 2.0
	boosted, err := r.Improve(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if boosted.Loops < plain.Loops {
		t.Errorf("boosted loops %d < plain loops %d", boosted.Loops, plain.Loops)
	}
}

func TestHeuristicReflector_AppliesMechanicalSwaps(t *testing.T) {
	r := NewHeuristicReflector()
	ctx := context.Background()

	immutable, err := r.Improve(ctx, types.ImproveRequest{
		Code:            "// sum\ntotal += x;",
		MaxLoops:        1,
		TargetCoherence: 1.0,
		SwapDirective:   &types.SwapDirective{Name: "mutable-state-to-immutable"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(immutable.Code, "total = total + (x);") {
		t.Errorf("compound assignment survived:\n%s", immutable.Code)
	}

	declarative, err := r.Improve(ctx, types.ImproveRequest{
		Code:            "// collect\nout.push(x);",
		MaxLoops:        1,
		TargetCoherence: 1.0,
		SwapDirective:   &types.SwapDirective{Name: "imperative-mutation-to-declarative"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(declarative.Code, "out = out.concat(x);") {
		t.Errorf("push survived:\n%s", declarative.Code)
	}
}

func TestHeuristicReflector_NonMechanicalSwapIsNoOp(t *testing.T) {
	r := NewHeuristicReflector()
	code := "// stable\nfunction f() { return f(); }"

	result, err := r.Improve(context.Background(), types.ImproveRequest{
		Code:            code,
		MaxLoops:        1,
		TargetCoherence: 1.0,
		SwapDirective:   &types.SwapDirective{Name: "recursion-to-iteration"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Code != code {
		t.Errorf("non-mechanical swap changed code:\n%s", result.Code)
	}
}

func TestHeuristicReflector_ScaffoldSeedsHeader(t *testing.T) {
	r := NewHeuristicReflector()

	result, err := r.Improve(context.Background(), types.ImproveRequest{
		Code:            "function f() { return 1; }",
		MaxLoops:        1,
		TargetCoherence: 1.0,
		Scaffold:        &types.ScaffoldContext{Name: "quick-sort", Coherence: 0.9},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Code, "// based on quick-sort") {
		t.Errorf("missing scaffold header:\n%s", result.Code)
	}
}

func TestHeuristicReflector_CancelledContext(t *testing.T) {
	r := NewHeuristicReflector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Improve(ctx, types.ImproveRequest{Code: "x", MaxLoops: 3})
	if err == nil {
		t.Fatal("Improve with cancelled context returned nil error")
	}
}

func TestEstimateCoherence(t *testing.T) {
	balancedDocumented := EstimateCoherence("// doc\nfunction f() { return 1; }")
	unbalanced := EstimateCoherence("function f() { return 1;")

	if balancedDocumented != 1.0 {
		t.Errorf("balanced documented = %v, want 1.0", balancedDocumented)
	}
	if unbalanced >= balancedDocumented {
		t.Errorf("unbalanced %v >= balanced %v", unbalanced, balancedDocumented)
	}
	if EstimateCoherence("   ") != 0 {
		t.Errorf("blank code should estimate 0")
	}
}
