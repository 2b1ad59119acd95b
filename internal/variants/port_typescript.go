package variants

import (
	"regexp"
	"strings"
)

// =============================================================================
// BEST-EFFORT TYPING TARGET: JAVASCRIPT -> TYPESCRIPT
// =============================================================================
// TypeScript is the best-effort typing target: no admissibility gate,
// every fragment produces a variant. Parameter annotations are inferred
// from naming conventions and usage patterns; declaration keywords are
// normalized; everything else passes through unchanged.

// TypeScriptTarget ports canonical-language fragments to TypeScript.
type TypeScriptTarget struct{}

// NewTypeScriptTarget creates the best-effort TypeScript port target.
func NewTypeScriptTarget() *TypeScriptTarget { return &TypeScriptTarget{} }

func (t *TypeScriptTarget) Name() string     { return "typescript" }
func (t *TypeScriptTarget) Language() string { return "typescript" }

var (
	varKeyword = regexp.MustCompile(`\bvar\s+`)
	tsFuncDecl = regexp.MustCompile(`(function\s+\w+\s*\()([^)]*)(\))`)

	numberNames = map[string]bool{
		"i": true, "j": true, "k": true, "n": true, "m": true, "x": true, "y": true,
		"idx": true, "index": true, "count": true, "num": true, "len": true,
		"size": true, "total": true, "sum": true, "depth": true, "limit": true,
	}
	stringNames = map[string]bool{
		"s": true, "str": true, "text": true, "name": true, "word": true,
		"msg": true, "message": true, "prefix": true, "suffix": true, "char": true,
	}
	boolNames = map[string]bool{
		"flag": true, "done": true, "ok": true, "enabled": true, "found": true,
	}
	arrayNames = map[string]bool{
		"arr": true, "items": true, "list": true, "values": true, "nums": true,
		"elements": true, "array": true,
	}
)

// Port normalizes declarations and annotates untyped parameters.
// Always succeeds.
func (t *TypeScriptTarget) Port(code string) (string, bool) {
	out := varKeyword.ReplaceAllString(code, "let ")

	out = tsFuncDecl.ReplaceAllStringFunc(out, func(m string) string {
		sub := tsFuncDecl.FindStringSubmatch(m)
		params := strings.Split(sub[2], ",")
		for i, p := range params {
			p = strings.TrimSpace(p)
			if p == "" || strings.Contains(p, ":") || strings.Contains(p, "=") {
				continue
			}
			params[i] = p + ": " + inferParamType(p, code)
		}
		return sub[1] + strings.Join(params, ", ") + sub[3]
	})

	return out, true
}

// inferParamType guesses an annotation from the parameter's name and
// how it is used in the fragment body.
func inferParamType(param, body string) string {
	lower := strings.ToLower(param)

	// Usage patterns beat naming conventions.
	if regexp.MustCompile(regexp.QuoteMeta(param) + `\s*\[`).MatchString(body) ||
		strings.Contains(body, param+".length") {
		if arrayNames[lower] {
			return "number[]"
		}
		return "any[]"
	}
	if regexp.MustCompile(regexp.QuoteMeta(param) + `\s*[-*/%]|[-*/%]\s*` + regexp.QuoteMeta(param)).MatchString(body) {
		return "number"
	}
	if regexp.MustCompile(regexp.QuoteMeta(param) + `\.(charAt|slice|substring|trim|indexOf)\(`).MatchString(body) {
		return "string"
	}

	switch {
	case numberNames[lower]:
		return "number"
	case stringNames[lower]:
		return "string"
	case boolNames[lower] || strings.HasPrefix(lower, "is") || strings.HasPrefix(lower, "has"):
		return "boolean"
	case arrayNames[lower]:
		return "number[]"
	default:
		return "any"
	}
}
