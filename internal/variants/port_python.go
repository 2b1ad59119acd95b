package variants

import (
	"regexp"
	"strings"

	"patternforge/internal/logging"
)

// =============================================================================
// STRICT-SUBSET PORT TARGET: JAVASCRIPT -> PYTHON
// =============================================================================
// Python is the strict-subset target: only fragments confined to a small,
// mechanically translatable slice of JavaScript are ported at all. The
// admissibility gate runs first; anything it declines produces zero
// variants. Admissible fragments go through an ordered sequence of
// line-level rewrites, and the result is discarded if any
// JavaScript-only syntax survives.

// PythonTarget ports canonical-language fragments to Python.
type PythonTarget struct{}

// NewPythonTarget creates the strict-subset Python port target.
func NewPythonTarget() *PythonTarget { return &PythonTarget{} }

func (t *PythonTarget) Name() string     { return "python" }
func (t *PythonTarget) Language() string { return "python" }

// admissibilityRule names one construct that cannot survive the port.
type admissibilityRule struct {
	name string
	re   *regexp.Regexp
}

var pythonGate = []admissibilityRule{
	{"regex-literal", regexp.MustCompile(`\.(match|replace|test|search|split)\(\s*/|=\s*/[^/= \n]`)},
	{"type-inspection", regexp.MustCompile(`\btypeof\b|\binstanceof\b`)},
	{"closure-return", regexp.MustCompile(`return\s+function\b|return\s+\([^)]*\)\s*=>|return\s+\w+\s*=>`)},
	{"collection-constructor", regexp.MustCompile(`\bnew\s+(Set|Map|WeakSet|WeakMap)\b`)},
	{"async-construct", regexp.MustCompile(`\basync\b|\bawait\b|\bPromise\b|\.then\(`)},
	{"class-syntax", regexp.MustCompile(`\bclass\s+\w`)},
	{"structural-reflection", regexp.MustCompile(`\bObject\.(keys|values|entries|assign)\b|\bJSON\.(stringify|parse)\b`)},
	{"spread-rest", regexp.MustCompile(`\.\.\.`)},
	{"iterable-iteration", regexp.MustCompile(`\bfor\s*\(\s*(const\s+|let\s+|var\s+)?\w+\s+(of|in)\s|\.forEach\(`)},
	{"unsigned-shift", regexp.MustCompile(`>>>`)},
	{"empty-separator-split-join", regexp.MustCompile(`\.split\(\s*(''|"")\s*\)|\.join\(\s*(''|"")\s*\)`)},
	{"multi-variable-declaration", regexp.MustCompile(`\b(let|var|const)\s+\w+(\s*=[^,;\n]+)?\s*,\s*\w+`)},
	{"loop-condition-assignment", regexp.MustCompile(`while\s*\(\s*\(?\s*[\w.\[\]]+\s*=[^=]`)},
	{"case-folding", regexp.MustCompile(`\.toUpperCase\(|\.toLowerCase\(`)},
	{"single-line-loop-body", regexp.MustCompile(`(?m)^\s*(for|while)\s*\([^)]*\)\s*[^\s{]`)},
	{"default-via-or", regexp.MustCompile(`(?m)(?:^|[^=!<>])=\s*[^=\n]*\|\|`)},
}

// ternaryOp finds conditional operators; more than two on one line
// means nesting too deep to port.
var ternaryOp = regexp.MustCompile(`[^?]\?[^.?:]`)

// Admissible runs the gate over source code, returning the first rule
// that declines it.
func (t *PythonTarget) Admissible(code string) (bool, string) {
	for _, rule := range pythonGate {
		if rule.re.MatchString(code) {
			return false, rule.name
		}
	}
	for _, line := range strings.Split(code, "\n") {
		if len(ternaryOp.FindAllString(line, -1)) > 2 {
			return false, "nested-conditionals"
		}
	}
	return true, ""
}

// Ordered rewrite rules. Earlier rules feed later ones: declaration
// keywords go first so the loop shapes below see bare identifiers, and
// built-in call mapping runs before loop recognition so range bounds
// arrive already translated.
var (
	declKeyword = regexp.MustCompile(`\b(let|const|var)\s+`)

	funcDecl = regexp.MustCompile(`^(\s*)function\s+(\w+)\s*\(([^)]*)\)\s*\{\s*$`)

	assertNotEqual = regexp.MustCompile(`^(\s*)if\s*\((.+?)\s*!==?\s*(.+?)\)\s*\{?\s*throw new Error\((.+?)\);?\s*\}?\s*$`)
	assertEqual    = regexp.MustCompile(`^(\s*)if\s*\((.+?)\s*===?\s*(.+?)\)\s*\{?\s*throw new Error\((.+?)\);?\s*\}?\s*$`)
	consoleAssert2 = regexp.MustCompile(`^(\s*)console\.assert\((.+),\s*((?:'[^']*'|"[^"]*"))\);?\s*$`)
	consoleAssert1 = regexp.MustCompile(`^(\s*)console\.assert\((.+)\);?\s*$`)
	bareThrow      = regexp.MustCompile(`\bthrow new Error\(`)

	lengthProp = regexp.MustCompile(`(\w+)\.length\b`)

	builtinCalls = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\bconsole\.log\(`), "print("},
		{regexp.MustCompile(`\bMath\.floor\(`), "math.floor("},
		{regexp.MustCompile(`\bMath\.ceil\(`), "math.ceil("},
		{regexp.MustCompile(`\bMath\.sqrt\(`), "math.sqrt("},
		{regexp.MustCompile(`\bMath\.abs\(`), "abs("},
		{regexp.MustCompile(`\bMath\.max\(`), "max("},
		{regexp.MustCompile(`\bMath\.min\(`), "min("},
		{regexp.MustCompile(`\bMath\.pow\(`), "pow("},
		{regexp.MustCompile(`\.push\(`), ".append("},
	}

	loopAscending  = regexp.MustCompile(`^(\s*)for\s*\(\s*(\w+)\s*=\s*0\s*;\s*(\w+)\s*<\s*(.+?)\s*;\s*(\w+)\+\+\s*\)\s*\{\s*$`)
	loopDescending = regexp.MustCompile(`^(\s*)for\s*\(\s*(\w+)\s*=\s*(.+?)\s*-\s*1\s*;\s*(\w+)\s*>=\s*0\s*;\s*(\w+)--\s*\)\s*\{\s*$`)

	elifHeader  = regexp.MustCompile(`^(\s*)\}\s*else\s+if\s*\((.+)\)\s*\{\s*$`)
	elseHeader  = regexp.MustCompile(`^(\s*)\}\s*else\s*\{\s*$`)
	ifHeader    = regexp.MustCompile(`^(\s*)if\s*\((.+)\)\s*\{\s*$`)
	whileHeader = regexp.MustCompile(`^(\s*)while\s*\((.+)\)\s*\{\s*$`)

	ternaryAssign = regexp.MustCompile(`^(\s*)(.+?)\s*=\s*([^?]+?)\s*\?\s*([^:]+?)\s*:\s*(.+?)$`)
	ternaryReturn = regexp.MustCompile(`^(\s*)return\s+([^?]+?)\s*\?\s*([^:]+?)\s*:\s*(.+?)$`)

	notOp     = regexp.MustCompile(`!([A-Za-z_(])`)
	andOp     = regexp.MustCompile(`\s*&&\s*`)
	orOp      = regexp.MustCompile(`\s*\|\|\s*`)
	loneBrace = regexp.MustCompile(`^\s*\}?;?\s*$`)

	// Anything matching these after rewriting means the port failed.
	pythonResidue = regexp.MustCompile(`\bfunction\b|=>|[{}]|;|===|!==|\bvar\b|\bnew\b|console\.|&&|\|\||\+\+`)
)

// matchAscendingLoop recognizes `for (i = 0; i < bound; i++) {`. The
// grammar cannot express "same identifier in all three clauses", so each
// clause captures its own and agreement is checked here.
func matchAscendingLoop(line string) (indent, loopVar, bound string, ok bool) {
	m := loopAscending.FindStringSubmatch(line)
	if m == nil || m[3] != m[2] || m[5] != m[2] {
		return "", "", "", false
	}
	return m[1], m[2], m[4], true
}

// matchDescendingLoop recognizes `for (i = bound - 1; i >= 0; i--) {`.
func matchDescendingLoop(line string) (indent, loopVar, bound string, ok bool) {
	m := loopDescending.FindStringSubmatch(line)
	if m == nil || m[4] != m[2] || m[5] != m[2] {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// Port gates and rewrites code, returning false when the gate declines
// or residue survives the rewrite.
func (t *PythonTarget) Port(code string) (string, bool) {
	if ok, rule := t.Admissible(code); !ok {
		logging.VariantsDebug("python gate declined: %s", rule)
		return "", false
	}

	var out []string
	needsMath := false
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimRight(line, " \t")
		line = declKeyword.ReplaceAllString(line, "")

		// Assertion shapes translate as whole statements before the
		// generic operator pass rewrites their comparisons.
		switch {
		case assertNotEqual.MatchString(line):
			line = assertNotEqual.ReplaceAllString(line, "${1}assert $2 == $3, $4")
			out = append(out, line)
			continue
		case assertEqual.MatchString(line):
			line = assertEqual.ReplaceAllString(line, "${1}assert $2 != $3, $4")
			out = append(out, line)
			continue
		case consoleAssert2.MatchString(line):
			line = consoleAssert2.ReplaceAllString(line, "${1}assert $2, $3")
			out = append(out, translateOperators(line))
			continue
		case consoleAssert1.MatchString(line):
			line = consoleAssert1.ReplaceAllString(line, "${1}assert $2")
			out = append(out, translateOperators(line))
			continue
		}

		line = bareThrow.ReplaceAllString(line, "raise Exception(")

		line = lengthProp.ReplaceAllString(line, "len($1)")
		for _, b := range builtinCalls {
			line = b.re.ReplaceAllString(line, b.repl)
		}
		if strings.Contains(line, "math.") {
			needsMath = true
		}

		if indent, loopVar, bound, ok := matchAscendingLoop(line); ok {
			out = append(out, indent+"for "+loopVar+" in range("+bound+"):")
			continue
		}
		if indent, loopVar, bound, ok := matchDescendingLoop(line); ok {
			out = append(out, indent+"for "+loopVar+" in range("+bound+" - 1, -1, -1):")
			continue
		}

		switch {
		case funcDecl.MatchString(line):
			line = funcDecl.ReplaceAllString(line, "${1}def $2($3):")
		case elifHeader.MatchString(line):
			line = elifHeader.ReplaceAllString(line, "${1}elif $2:")
			line = translateOperators(line)
		case elseHeader.MatchString(line):
			line = elseHeader.ReplaceAllString(line, "${1}else:")
		case ifHeader.MatchString(line):
			line = ifHeader.ReplaceAllString(line, "${1}if $2:")
			line = translateOperators(line)
		case whileHeader.MatchString(line):
			line = whileHeader.ReplaceAllString(line, "${1}while $2:")
			line = translateOperators(line)
		case loneBrace.MatchString(line):
			continue
		default:
			line = strings.TrimSuffix(line, ";")
			line = translateOperators(line)
			if ternaryReturn.MatchString(line) {
				line = ternaryReturn.ReplaceAllString(line, "${1}return $3 if $2 else $4")
			} else if ternaryAssign.MatchString(line) {
				line = ternaryAssign.ReplaceAllString(line, "${1}$2 = $4 if $3 else $5")
			}
		}

		out = append(out, rewriteLineComment(line))
	}

	result := strings.Join(out, "\n")
	result = strings.TrimRight(result, "\n") + "\n"
	if needsMath {
		result = "import math\n\n" + result
	}

	if pythonResidue.MatchString(result) {
		logging.VariantsDebug("python port discarded: residue remains")
		return "", false
	}
	return result, true
}

// rewriteLineComment turns a trailing // comment marker into #. Only a
// marker outside string literals is a comment; a // inside a quoted
// string (a URL, say) is payload and stays untouched.
func rewriteLineComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i] + "#" + line[i+2:]
		}
	}
	return line
}

// translateOperators maps equality, boolean, and literal tokens.
func translateOperators(line string) string {
	line = strings.ReplaceAll(line, "===", "==")
	line = strings.ReplaceAll(line, "!==", "!=")
	line = andOp.ReplaceAllString(line, " and ")
	line = orOp.ReplaceAllString(line, " or ")
	line = notOp.ReplaceAllString(line, "not $1")
	line = trueLit.ReplaceAllString(line, "True")
	line = falseLit.ReplaceAllString(line, "False")
	line = nullLit.ReplaceAllString(line, "None")
	line = undefinedLit.ReplaceAllString(line, "None")
	return line
}

var (
	trueLit      = regexp.MustCompile(`\btrue\b`)
	falseLit     = regexp.MustCompile(`\bfalse\b`)
	nullLit      = regexp.MustCompile(`\bnull\b`)
	undefinedLit = regexp.MustCompile(`\bundefined\b`)
)
