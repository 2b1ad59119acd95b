package variants

import "testing"

// =============================================================================
// SWAP CATALOG TESTS
// =============================================================================

func catalogByName(t *testing.T) map[string]SwapDefinition {
	t.Helper()
	out := make(map[string]SwapDefinition)
	for _, def := range DefaultSwapCatalog() {
		out[def.Name] = def
	}
	return out
}

func TestDefaultSwapCatalog_StableOrder(t *testing.T) {
	want := []string{
		"recursion-to-iteration",
		"counted-loop-to-higher-order",
		"imperative-mutation-to-declarative",
		"linear-scan-to-binary-search",
		"mutable-state-to-immutable",
	}
	catalog := DefaultSwapCatalog()
	if len(catalog) != len(want) {
		t.Fatalf("catalog size = %d, want %d", len(catalog), len(want))
	}
	for i, def := range catalog {
		if def.Name != want[i] {
			t.Errorf("catalog[%d] = %q, want %q", i, def.Name, want[i])
		}
		if def.TargetLabel == "" || def.Hint == "" {
			t.Errorf("%q has empty label or hint", def.Name)
		}
	}
}

func TestSwapDetectors(t *testing.T) {
	defs := catalogByName(t)

	recursive := "function fact(n) {\n  if (n <= 1) return 1;\n  return n * fact(n - 1);\n}"
	counted := "function total(arr) {\n  let sum = 0;\n  for (let i = 0; i < arr.length; i++) {\n    sum += arr[i];\n  }\n  return sum;\n}"
	pushing := "function evens(arr) {\n  let out = [];\n  for (let i = 0; i < arr.length; i++) {\n    out.push(arr[i]);\n  }\n  return out;\n}"
	scanning := "function find(arr, x) {\n  for (let i = 0; i < arr.length; i++) {\n    if (arr[i] === x) return i;\n  }\n  return -1;\n}"
	straight := "function double(x) {\n  return x * 2;\n}"

	tests := []struct {
		swap string
		code string
		want bool
	}{
		{"recursion-to-iteration", recursive, true},
		{"recursion-to-iteration", counted, false},
		{"counted-loop-to-higher-order", counted, true},
		{"counted-loop-to-higher-order", straight, false},
		{"imperative-mutation-to-declarative", pushing, true},
		{"imperative-mutation-to-declarative", counted, false},
		{"linear-scan-to-binary-search", scanning, true},
		{"linear-scan-to-binary-search", pushing, false},
		{"mutable-state-to-immutable", counted, true},
		{"mutable-state-to-immutable", straight, false},
	}
	for _, tt := range tests {
		t.Run(tt.swap+"/"+firstWord(tt.code), func(t *testing.T) {
			if got := defs[tt.swap].Detect(tt.code); got != tt.want {
				t.Errorf("Detect = %v, want %v", got, tt.want)
			}
		})
	}
}

func firstWord(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] == '(' {
			return code[9:i]
		}
	}
	return code
}
