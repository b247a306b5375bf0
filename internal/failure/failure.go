package failure

import (
	"fmt"
	"strconv"
	"strings"
)

// Failure describes why one pipeline stage did not succeed.
// The set of implementations is closed to this package.
type Failure interface {
	// Short is a one-line summary.
	Short() string
	// Detail is the full rendering, which may span several lines.
	Detail() string
	failure()
}

// TimeoutFailure reports a subprocess that exceeded its wall-clock limit.
type TimeoutFailure struct {
	Command string
	Seconds float64
}

func (f TimeoutFailure) Short() string {
	return fmt.Sprintf("Command %s timed out after %s seconds", f.Command, formatSeconds(f.Seconds))
}

func (f TimeoutFailure) Detail() string { return f.Short() }

func (TimeoutFailure) failure() {}

// NoTimeoutFailure reports an expect_timeout check whose process finished in time.
type NoTimeoutFailure struct {
	Seconds float64
}

func (f NoTimeoutFailure) Short() string {
	return fmt.Sprintf("Expected a timeout after %s seconds, but the command finished", formatSeconds(f.Seconds))
}

func (f NoTimeoutFailure) Detail() string { return f.Short() }

func (NoTimeoutFailure) failure() {}

// AssertFailure reports REPL output that did not match the expectation.
// Contains is set when the expectation was a substring match.
type AssertFailure struct {
	Expected string
	Found    string
	Contains bool
}

func (f AssertFailure) Short() string {
	if f.Contains {
		return fmt.Sprintf("Expected output containing %q, found %q", f.Expected, firstLine(f.Found))
	}
	return fmt.Sprintf("Expected %q, found %q", f.Expected, firstLine(f.Found))
}

func (f AssertFailure) Detail() string {
	verb := "Expected"
	if f.Contains {
		verb = "Expected output containing"
	}
	return fmt.Sprintf("%s:\n  %s\nFound:\n  %s", verb, indent(f.Expected), indent(f.Found))
}

func (AssertFailure) failure() {}

// StatusCodeFailure reports a subprocess that exited nonzero.
type StatusCodeFailure struct {
	Command  string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (f StatusCodeFailure) Short() string {
	return fmt.Sprintf("Command %s failed with status code %d", f.Command, f.ExitCode)
}

func (f StatusCodeFailure) Detail() string {
	return fmt.Sprintf("Command %s failed with status code %d.\nStderr:\n  %s\nStdout:\n  %s.",
		f.Command, f.ExitCode, indent(string(f.Stderr)), indent(string(f.Stdout)))
}

func (StatusCodeFailure) failure() {}

// CompileFailure wraps a failure from the compile or package stage.
type CompileFailure struct {
	Language string
	Segment  string
	Inner    Failure
}

func (f CompileFailure) Short() string {
	return fmt.Sprintf("Failed to compile %s/%s: %s", f.Language, f.Segment, f.Inner.Short())
}

func (f CompileFailure) Detail() string {
	return fmt.Sprintf("Failed to compile %s/%s: %s", f.Language, f.Segment, f.Inner.Detail())
}

func (CompileFailure) failure() {}

// TestFailure wraps a failure from the run stage.
type TestFailure struct {
	Language string
	Segment  string
	Inner    Failure
}

func (f TestFailure) Short() string {
	return fmt.Sprintf("Test %s/%s failed: %s", f.Language, f.Segment, f.Inner.Short())
}

func (f TestFailure) Detail() string {
	return fmt.Sprintf("Test %s/%s failed: %s", f.Language, f.Segment, f.Inner.Detail())
}

func (TestFailure) failure() {}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
