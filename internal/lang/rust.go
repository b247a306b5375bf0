package lang

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/declaration"
	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	RustName     = "rust"
	rustManifest = "Cargo.toml"
	// EnvRustFlags carries the codegen backend override to cargo.
	EnvRustFlags = "CARGO_ENCODED_RUSTFLAGS"
)

// declarationSources are probed in order for a Rust test's directive block.
var declarationSources = []string{"src/main.rs", "src/lib.rs"}

// RustLanguage is the directory-based adapter: every direct child of the
// language root holding a Cargo.toml is one test. Nested tests are not
// supported.
type RustLanguage struct {
	base           string
	cargo          string
	codegenBackend string
	timeout        time.Duration
	runner         tools.CommandRunner

	// Locate maps a built test to its archive. cargo owns the real output
	// layout, so this is the extension point for it.
	Locate func(segment string) string
}

// NewRustLanguage builds the Rust adapter rooted at <TestRoot>/rust.
func NewRustLanguage(cfg config.Config, runner tools.CommandRunner) *RustLanguage {
	r := &RustLanguage{
		base:           filepath.Join(cfg.TestRoot, RustName),
		cargo:          cfg.Rust.Cargo,
		codegenBackend: cfg.Rust.CodegenBackend,
		timeout:        cfg.CompileTimeout,
		runner:         runner,
	}
	template := cfg.Rust.Artifact
	r.Locate = func(segment string) string {
		rel := strings.ReplaceAll(template, "{name}", segment)
		return filepath.Join(r.testDir(segment), filepath.FromSlash(rel))
	}
	return r
}

func (r *RustLanguage) Name() string { return RustName }

func (r *RustLanguage) NormalizeTestSegment(raw string) (string, bool) {
	seg, ok := cleanSegment(raw)
	if !ok {
		return "", false
	}
	first, _, _ := strings.Cut(seg, "/")
	if !isRegularFile(filepath.Join(r.testDir(first), rustManifest)) {
		return "", false
	}
	return first, true
}

func (r *RustLanguage) ListAllTests(dir string, recurse bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		if scope, ok := cleanDir(dir); !ok || scope != "" {
			return
		}
		entries, err := os.ReadDir(r.base)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warn().Err(err).Str("lang", RustName).Msg("test listing aborted")
			}
			return
		}
		for _, e := range entries {
			if !e.IsDir() || !isRegularFile(filepath.Join(r.testDir(e.Name()), rustManifest)) {
				continue
			}
			if !yield(e.Name()) {
				return
			}
		}
	}
}

func (r *RustLanguage) CompileToArtifact(ctx context.Context, segment string) (string, failure.Failure, error) {
	log.Info().Str("lang", RustName).Str("segment", segment).Msg("compiling")
	cmd := tools.Command{
		Name:    r.cargo,
		Args:    []string{"build", "--release"},
		Dir:     r.testDir(segment),
		Env:     []string{fmt.Sprintf("%s=-Zcodegen-backend=%s", EnvRustFlags, r.codegenBackend)},
		Timeout: r.timeout,
	}
	res, err := r.runner.Run(ctx, cmd)
	if err != nil {
		return "", nil, err
	}
	if f := failure.FromResult(cmd, res); f != nil {
		return "", f, nil
	}
	return r.Locate(segment), nil, nil
}

func (r *RustLanguage) DumpIntermediateRepresentation(context.Context, string, io.Writer) (failure.Failure, error) {
	return nil, fmt.Errorf("%w: %s has no IR dump", ErrUnsupported, RustName)
}

func (r *RustLanguage) Declaration(segment string) (string, error) {
	for _, rel := range declarationSources {
		src, err := os.ReadFile(filepath.Join(r.testDir(segment), filepath.FromSlash(rel)))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read declaration %s/%s: %w", RustName, segment, err)
		}
		block, _ := declaration.ExtractBlock(string(src))
		return block, nil
	}
	return "", nil
}

func (r *RustLanguage) testDir(segment string) string {
	return filepath.Join(r.base, segment)
}
