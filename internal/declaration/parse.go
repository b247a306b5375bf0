package declaration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed marks a declaration that cannot be interpreted. It is fatal to
// the whole run.
var ErrMalformed = errors.New("malformed test declaration")

const (
	kwCompile        = "compile"
	kwJavaRun        = "java_run"
	kwExpect         = "expect"
	kwExpectContains = "expect_contains"
	kwExpectTimeout  = "expect_timeout"
)

// Kind selects how a directive judges the REPL outcome.
type Kind int

const (
	// ExactMatch passes when the trimmed output equals Expected.
	ExactMatch Kind = iota
	// ContainsMatch passes when the trimmed output contains Expected.
	ContainsMatch
	// TimeoutExpected passes only when the evaluation outlives Limit.
	TimeoutExpected
)

func (k Kind) String() string {
	switch k {
	case ExactMatch:
		return kwExpect
	case ContainsMatch:
		return kwExpectContains
	case TimeoutExpected:
		return kwExpectTimeout
	default:
		return "unknown"
	}
}

// Directive is one java_run line paired with its expectation.
type Directive struct {
	// Line is the 1-based line of the java_run within the block.
	Line       int
	Expression string
	Kind       Kind
	Expected   string
	// Limit is the wall-clock limit in seconds for TimeoutExpected.
	Limit float64
}

// Declaration is the parsed directive block of one test.
type Declaration struct {
	// CompileFlags replaces the adapter's default flags when HasCompileFlags is set.
	CompileFlags    []string
	HasCompileFlags bool
	Directives      []Directive
}

type line struct {
	num     int
	keyword string
	rest    string
}

// Parse interprets a directive block.
func Parse(text string) (Declaration, error) {
	lines := splitLines(text)
	var decl Declaration

	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch l.keyword {
		case kwCompile:
			decl.CompileFlags = strings.Fields(l.rest)
			decl.HasCompileFlags = true
		case kwJavaRun:
			if l.rest == "" {
				return Declaration{}, malformed(l.num, "java_run without an expression")
			}
			if i+1 >= len(lines) {
				return Declaration{}, malformed(l.num, "java_run %q is not followed by an expectation", l.rest)
			}
			i++
			d, err := parseExpectation(lines[i])
			if err != nil {
				return Declaration{}, err
			}
			d.Line = l.num
			d.Expression = l.rest
			decl.Directives = append(decl.Directives, d)
		case kwExpect, kwExpectContains, kwExpectTimeout:
			return Declaration{}, malformed(l.num, "%s without a preceding java_run", l.keyword)
		}
	}
	return decl, nil
}

func parseExpectation(l line) (Directive, error) {
	switch l.keyword {
	case kwExpect:
		return Directive{Kind: ExactMatch, Expected: l.rest}, nil
	case kwExpectContains:
		if l.rest == "" {
			return Directive{}, malformed(l.num, "expect_contains without a substring")
		}
		return Directive{Kind: ContainsMatch, Expected: l.rest}, nil
	case kwExpectTimeout:
		fields := strings.Fields(l.rest)
		if len(fields) != 2 || (fields[1] != "seconds" && fields[1] != "second") {
			return Directive{}, malformed(l.num, "expect_timeout wants \"<N> seconds\", got %q", l.rest)
		}
		limit, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || limit <= 0 {
			return Directive{}, malformed(l.num, "expect_timeout limit %q is not a positive number", fields[0])
		}
		return Directive{Kind: TimeoutExpected, Limit: limit}, nil
	default:
		return Directive{}, malformed(l.num, "java_run must be followed by expect, expect_contains or expect_timeout")
	}
}

// splitLines drops blank lines and splits each remaining line into its
// leading keyword and the trimmed remainder.
func splitLines(text string) []line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]line, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		keyword, rest := r, ""
		if idx := strings.IndexAny(r, " \t"); idx >= 0 {
			keyword, rest = r[:idx], strings.TrimSpace(r[idx+1:])
		}
		out = append(out, line{num: i + 1, keyword: keyword, rest: rest})
	}
	return out
}

func malformed(num int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, num, fmt.Sprintf(format, args...))
}
