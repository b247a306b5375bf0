package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/declaration"
	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	CName   = "c"
	cSuffix = ".c"
)

// byproductSuffixes are build outputs that may sit next to tests but are
// never tests themselves.
var byproductSuffixes = []string{".bc", ".ll", ".o", ".so", ".out"}

var errStopWalk = errors.New("stop walk")

// CLanguage is the single-file adapter: every .c file is one test.
type CLanguage struct {
	base        string
	outDir      string
	projectRoot string
	compiler    string
	flags       []string
	packager    config.ToolConfig
	timeout     time.Duration
	runner      tools.CommandRunner
}

// NewCLanguage builds the C adapter rooted at <TestRoot>/c.
func NewCLanguage(cfg config.Config, runner tools.CommandRunner) *CLanguage {
	return &CLanguage{
		base:        filepath.Join(cfg.TestRoot, CName),
		outDir:      filepath.Join(cfg.OutDir, CName),
		projectRoot: cfg.ProjectRoot,
		compiler:    cfg.C.Compiler,
		flags:       cfg.C.Flags,
		packager:    cfg.Packager,
		timeout:     cfg.CompileTimeout,
		runner:      runner,
	}
}

func (c *CLanguage) Name() string { return CName }

func (c *CLanguage) NormalizeTestSegment(raw string) (string, bool) {
	seg, ok := cleanSegment(raw)
	if !ok {
		return "", false
	}
	for _, suffix := range byproductSuffixes {
		if strings.HasSuffix(seg, suffix) {
			return "", false
		}
	}
	if !strings.HasSuffix(seg, cSuffix) {
		seg += cSuffix
	}
	if !isRegularFile(c.sourcePath(seg)) {
		return "", false
	}
	return seg, true
}

func (c *CLanguage) ListAllTests(dir string, recurse bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		scope, ok := cleanDir(dir)
		if !ok {
			return
		}
		root := filepath.Join(c.base, filepath.FromSlash(scope))
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return
		}
		pattern := "*" + cSuffix
		if recurse {
			pattern = "**/" + pattern
		}
		err := doublestar.GlobWalk(os.DirFS(root), pattern, func(p string, d fs.DirEntry) error {
			if d.IsDir() {
				return nil
			}
			if !yield(path.Join(scope, p)) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			log.Warn().Err(err).Str("lang", CName).Str("dir", scope).Msg("test listing aborted")
		}
	}
}

func (c *CLanguage) CompileToArtifact(ctx context.Context, segment string) (string, failure.Failure, error) {
	flags, err := c.compileFlags(segment)
	if err != nil {
		return "", nil, err
	}
	bitcode := c.outputPath(segment, ".bc")
	archive := c.outputPath(segment, ".jar")
	if err := os.MkdirAll(filepath.Dir(bitcode), 0o755); err != nil {
		return "", nil, fmt.Errorf("create output dir for %s/%s: %w", CName, segment, err)
	}

	log.Info().Str("lang", CName).Str("segment", segment).Str("out", bitcode).Msg("compiling")
	args := append(append([]string{}, flags...), "-emit-llvm", "-c", c.sourcePath(segment), "-o", bitcode)
	if f, err := c.run(ctx, tools.Command{Name: c.compiler, Args: args, Timeout: c.timeout}); f != nil || err != nil {
		return "", f, err
	}

	log.Info().Str("lang", CName).Str("segment", segment).Str("out", archive).Msg("packaging")
	pack := tools.Command{
		Name:    c.packager.Command,
		Args:    expand(c.packager.Args, map[string]string{"{input}": bitcode, "{output}": archive}),
		Dir:     c.projectRoot,
		Timeout: c.timeout,
	}
	if f, err := c.run(ctx, pack); f != nil || err != nil {
		return "", f, err
	}
	return archive, nil, nil
}

func (c *CLanguage) DumpIntermediateRepresentation(ctx context.Context, segment string, w io.Writer) (failure.Failure, error) {
	flags, err := c.compileFlags(segment)
	if err != nil {
		return nil, err
	}
	args := append(append([]string{}, flags...), "-emit-llvm", "-S", c.sourcePath(segment), "-o", "-")
	return c.run(ctx, tools.Command{Name: c.compiler, Args: args, Timeout: c.timeout, Stdout: w})
}

func (c *CLanguage) Declaration(segment string) (string, error) {
	src, err := os.ReadFile(c.sourcePath(segment))
	if err != nil {
		return "", fmt.Errorf("read declaration %s/%s: %w", CName, segment, err)
	}
	block, _ := declaration.ExtractBlock(string(src))
	return block, nil
}

// compileFlags returns the declaration's compile override, or the defaults.
func (c *CLanguage) compileFlags(segment string) ([]string, error) {
	text, err := c.Declaration(segment)
	if err != nil {
		return nil, err
	}
	decl, err := declaration.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", CName, segment, err)
	}
	if decl.HasCompileFlags {
		return decl.CompileFlags, nil
	}
	return c.flags, nil
}

func (c *CLanguage) run(ctx context.Context, cmd tools.Command) (failure.Failure, error) {
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return failure.FromResult(cmd, res), nil
}

func (c *CLanguage) sourcePath(segment string) string {
	return filepath.Join(c.base, filepath.FromSlash(segment))
}

// outputPath mirrors segment under the output tree with ext replacing .c.
func (c *CLanguage) outputPath(segment, ext string) string {
	stem := strings.TrimSuffix(segment, cSuffix)
	return filepath.Join(c.outDir, filepath.FromSlash(stem)+ext)
}

func expand(args []string, values map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		for k, v := range values {
			a = strings.ReplaceAll(a, k, v)
		}
		out[i] = a
	}
	return out
}
