// Package store implements the canonical pattern catalog and the
// validator that decides whether a submitted fragment is accepted.
// Two backends exist: an in-memory store used by the engine and in
// tests, and a SQLite-backed catalog used by the CLI so libraries
// accumulate across runs. Both share the same validator.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// DefaultAcceptanceThreshold is the minimum coherency total a fragment
// needs to enter the catalog.
const DefaultAcceptanceThreshold = 0.5

// Validator scores a submission and reports blocking errors.
// Syntax is checked with tree-sitter for the languages we have grammars
// for; unknown languages fall back to a delimiter-balance scan.
type Validator struct {
	mu      sync.Mutex
	parsers map[string]*sitter.Parser
}

// NewValidator creates a validator with parsers for the supported grammars.
func NewValidator() *Validator {
	v := &Validator{parsers: make(map[string]*sitter.Parser)}

	for lang, grammar := range map[string]*sitter.Language{
		"javascript": javascript.GetLanguage(),
		"typescript": typescript.GetLanguage(),
		"python":     python.GetLanguage(),
	} {
		p := sitter.NewParser()
		p.SetLanguage(grammar)
		v.parsers[lang] = p
	}
	return v
}

// Close releases parser resources.
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.parsers {
		p.Close()
	}
	v.parsers = nil
}

// unconditionalThrow matches a throw statement that opens its own line,
// i.e. one not guarded by a same-line conditional. A test fragment whose
// only control flow is such a throw can never pass.
var unconditionalThrow = regexp.MustCompile(`(?m)^\s*(throw\b|raise\b)`)

// Validate scores a submission. Blocking problems land in Errors; the
// coherency breakdown is always filled so callers can reason about
// near-misses.
func (v *Validator) Validate(ctx context.Context, sub types.Submission) types.ValidationReport {
	report := types.ValidationReport{
		CoherencyScore: types.CoherencyScore{Breakdown: map[string]float64{}},
	}

	if strings.TrimSpace(sub.Name) == "" {
		report.Errors = append(report.Errors, "submission has no name")
	}
	if strings.TrimSpace(sub.Code) == "" {
		report.Errors = append(report.Errors, "submission has no code")
		return report
	}

	structure := 1.0
	if err := v.checkSyntax(ctx, sub.Language, sub.Code); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("code: %v", err))
		structure = 0.0
	}
	report.CoherencyScore.Breakdown["structure"] = structure

	tests := 0.0
	if strings.TrimSpace(sub.TestCode) != "" {
		tests = 1.0
		if err := v.checkSyntax(ctx, sub.Language, sub.TestCode); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("test: %v", err))
			tests = 0.0
		} else if unconditionalThrow.MatchString(sub.TestCode) {
			report.Errors = append(report.Errors, "test: throws unconditionally")
			tests = 0.0
		}
	}
	report.CoherencyScore.Breakdown["tests"] = tests

	report.CoherencyScore.Breakdown["documentation"] = scoreDocumentation(sub)
	report.CoherencyScore.Breakdown["clarity"] = scoreClarity(sub.Code)

	// Weighted total: structure dominates, the rest refine.
	b := report.CoherencyScore.Breakdown
	report.CoherencyScore.Total = 0.5*b["structure"] + 0.2*b["tests"] +
		0.15*b["documentation"] + 0.15*b["clarity"]

	logging.StoreDebug("validated %q: total=%.2f errors=%d",
		sub.Name, report.CoherencyScore.Total, len(report.Errors))
	return report
}

// checkSyntax parses code with the language's grammar, or falls back to
// a delimiter balance scan when no grammar is available.
func (v *Validator) checkSyntax(ctx context.Context, language, code string) error {
	v.mu.Lock()
	parser, ok := v.parsers[strings.ToLower(language)]
	v.mu.Unlock()
	if !ok {
		return checkBalance(code)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	tree, err := parser.ParseCtx(ctx, nil, []byte(code))
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	defer tree.Close()

	if tree.RootNode().HasError() {
		return fmt.Errorf("syntax error")
	}
	return nil
}

// checkBalance is the grammar-free fallback: (), [], {} must nest.
func checkBalance(code string) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for _, r := range code {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Errorf("unbalanced %q", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

func scoreDocumentation(sub types.Submission) float64 {
	score := 0.0
	if strings.TrimSpace(sub.Description) != "" {
		score += 0.5
	}
	if strings.Contains(sub.Code, "//") || strings.Contains(sub.Code, "/*") ||
		strings.Contains(sub.Code, "#") {
		score += 0.3
	}
	if len(sub.Tags) > 0 {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func scoreClarity(code string) float64 {
	lines := strings.Split(code, "\n")
	if len(lines) == 0 {
		return 0
	}
	long := 0
	for _, line := range lines {
		if len(line) > 120 {
			long++
		}
	}
	score := 1.0 - float64(long)/float64(len(lines))
	// Very large fragments read worse than focused ones.
	if len(lines) > 200 {
		score *= 0.8
	}
	if score < 0 {
		score = 0
	}
	return score
}
