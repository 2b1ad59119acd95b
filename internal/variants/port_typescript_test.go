package variants

import (
	"strings"
	"testing"
)

// =============================================================================
// TYPESCRIPT PORT TESTS
// =============================================================================

func TestTypeScriptTarget_AlwaysPorts(t *testing.T) {
	target := NewTypeScriptTarget()

	// Fragments the python gate would decline still port to TypeScript.
	for _, code := range []string{
		`class Stack { push(x) {} }`,
		`async function f() { await g(); }`,
		`const copy = [...items];`,
	} {
		if _, ok := target.Port(code); !ok {
			t.Errorf("Port(%q) declined, want best-effort success", code)
		}
	}
}

func TestTypeScriptTarget_NormalizesVar(t *testing.T) {
	got, ok := NewTypeScriptTarget().Port("var x = 1;\nvar y = 2;")
	if !ok {
		t.Fatal("Port declined")
	}
	if strings.Contains(got, "var ") {
		t.Errorf("var survived normalization:\n%s", got)
	}
	if !strings.Contains(got, "let x = 1;") {
		t.Errorf("missing let rewrite:\n%s", got)
	}
}

func TestTypeScriptTarget_AnnotatesFromUsage(t *testing.T) {
	code := "function scale(n, factor) {\n  return n * factor;\n}"

	got, ok := NewTypeScriptTarget().Port(code)
	if !ok {
		t.Fatal("Port declined")
	}
	if !strings.Contains(got, "function scale(n: number, factor: number)") {
		t.Errorf("missing inferred annotations:\n%s", got)
	}
}

func TestTypeScriptTarget_AnnotatesFromNaming(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{
			"function greet(name) {\n  return name;\n}",
			"function greet(name: string)",
		},
		{
			"function first(arr) {\n  return arr[0];\n}",
			"function first(arr: number[])",
		},
		{
			"function toggle(isOpen) {\n  return isOpen;\n}",
			"function toggle(isOpen: boolean)",
		},
		{
			"function id(payload) {\n  return payload;\n}",
			"function id(payload: any)",
		},
	}
	for _, tt := range tests {
		got, ok := NewTypeScriptTarget().Port(tt.code)
		if !ok {
			t.Fatalf("Port(%q) declined", tt.code)
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("port of %q missing %q:\n%s", tt.code, tt.want, got)
		}
	}
}

func TestTypeScriptTarget_LeavesAnnotatedParamsAlone(t *testing.T) {
	code := "function add(a: number, b: number) {\n  return a + b;\n}"

	got, ok := NewTypeScriptTarget().Port(code)
	if !ok {
		t.Fatal("Port declined")
	}
	if strings.Contains(got, ": number: number") || strings.Count(got, ": number") != 2 {
		t.Errorf("existing annotations disturbed:\n%s", got)
	}
}
