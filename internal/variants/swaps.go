package variants

import (
	"regexp"
	"strings"
)

// =============================================================================
// APPROACH SWAP CATALOG
// =============================================================================
// A swap rewrites a fragment to a different algorithmic approach in the
// same language. Each definition pairs a cheap structural detector with
// a hint the reflector uses to steer the rewrite. The catalog order is
// stable so repeated runs propose the same swaps for the same fragment.

// SwapDefinition describes one algorithmic rewrite the generator can
// propose for an accepted fragment.
type SwapDefinition struct {
	// Name identifies the swap in directives and logs.
	Name string
	// TargetLabel suffixes the variant's name, e.g. "sort-iterative".
	TargetLabel string
	// Detect reports whether the fragment exhibits the source approach.
	Detect func(code string) bool
	// Hint steers the reflector's rewrite.
	Hint string
}

var (
	funcName       = regexp.MustCompile(`function\s+(\w+)\s*\(`)
	countedLoop    = regexp.MustCompile(`for\s*\([^)]*\+\+[^)]*\)`)
	compoundAssign = regexp.MustCompile(`\b\w+\s*[+\-*]=`)
	elementCompare = regexp.MustCompile(`\w+\[\w+\]\s*===`)
)

// DefaultSwapCatalog returns the built-in approach swaps in evaluation
// order.
func DefaultSwapCatalog() []SwapDefinition {
	return []SwapDefinition{
		{
			Name:        "recursion-to-iteration",
			TargetLabel: "iterative",
			Detect: func(code string) bool {
				m := funcName.FindStringSubmatch(code)
				if m == nil {
					return false
				}
				body := code[strings.Index(code, m[0])+len(m[0]):]
				return strings.Contains(body, m[1]+"(")
			},
			Hint: "Replace the recursive calls with an explicit loop and, if needed, a stack.",
		},
		{
			Name:        "counted-loop-to-higher-order",
			TargetLabel: "higher-order",
			Detect: func(code string) bool {
				return countedLoop.MatchString(code)
			},
			Hint: "Replace the counted for loop with map, filter, or reduce over the collection.",
		},
		{
			Name:        "imperative-mutation-to-declarative",
			TargetLabel: "declarative",
			Detect: func(code string) bool {
				return countedLoop.MatchString(code) && strings.Contains(code, ".push(")
			},
			Hint: "Build the result collection declaratively instead of pushing inside a loop.",
		},
		{
			Name:        "linear-scan-to-binary-search",
			TargetLabel: "binary-search",
			Detect: func(code string) bool {
				return countedLoop.MatchString(code) &&
					elementCompare.MatchString(code) &&
					strings.Contains(code, "return")
			},
			Hint: "Assume the input is sorted and replace the linear scan with binary search.",
		},
		{
			Name:        "mutable-state-to-immutable",
			TargetLabel: "immutable",
			Detect: func(code string) bool {
				return compoundAssign.MatchString(code)
			},
			Hint: "Avoid reassigning accumulators in place; derive new values instead.",
		},
	}
}
