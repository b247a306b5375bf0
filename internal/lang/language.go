package lang

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/danmuck/jvlmtest/internal/failure"
)

// ErrUnsupported is returned for capabilities an adapter does not provide.
var ErrUnsupported = errors.New("operation not supported by language")

// Language is the capability set of one test language.
type Language interface {
	// Name is the language id, also the directory name under the test root.
	Name() string
	// NormalizeTestSegment canonicalizes raw; ok is false when raw names no test.
	NormalizeTestSegment(raw string) (segment string, ok bool)
	// ListAllTests lazily yields segments under dir. An empty dir means the
	// language root.
	ListAllTests(dir string, recurse bool) iter.Seq[string]
	// CompileToArtifact builds the packaged archive for segment. A stage
	// failure is returned as a Failure; the error is reserved for fatal
	// conditions.
	CompileToArtifact(ctx context.Context, segment string) (string, failure.Failure, error)
	// DumpIntermediateRepresentation writes segment's textual IR to w.
	DumpIntermediateRepresentation(ctx context.Context, segment string, w io.Writer) (failure.Failure, error)
	// Declaration returns segment's directive block, or "" when it has none.
	Declaration(segment string) (string, error)
}

// Test is one (language, segment) identity.
type Test struct {
	Language string
	Segment  string
}

func (t Test) String() string {
	return t.Language + "/" + t.Segment
}
