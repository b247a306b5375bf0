package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/declaration"
	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/lang"
	"github.com/danmuck/jvlmtest/internal/selector"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is everything a run needs, resolved once at startup.
type Config struct {
	Registry *lang.Registry
	Selector *selector.Selector
	Runner   tools.CommandRunner
	Executor *declaration.Executor
	Javap    config.ToolConfig
	Stdout   io.Writer
	Stderr   io.Writer
}

// NewConfig wires the default registry, selector and REPL executor for cfg.
func NewConfig(cfg config.Config, workDir string, runner tools.CommandRunner) Config {
	registry := lang.NewDefaultRegistry(cfg, runner)
	return Config{
		Registry: registry,
		Selector: selector.New(registry, cfg.TestRoot, workDir),
		Runner:   runner,
		Executor: declaration.NewExecutor(runner, cfg.REPL),
		Javap:    cfg.Javap,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Orchestrator runs one mode over a working set.
type Orchestrator struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) *Orchestrator {
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	return &Orchestrator{
		cfg: cfg,
		log: log.With().Str("run_id", uuid.NewString()).Logger(),
	}
}

// Run resolves specs and executes mode. Stage failures yield an *ExitError;
// any other error is fatal.
func (o *Orchestrator) Run(ctx context.Context, mode Mode, specs []string) error {
	tests := o.cfg.Selector.Select(specs)
	o.log.Info().Str("mode", string(mode)).Int("tests", len(tests)).Msg("working set resolved")

	switch mode {
	case ModeDryRun:
		return o.dryRun(tests)
	case ModeShowIR:
		return o.showIR(ctx, tests)
	case ModeJar:
		return o.jar(ctx, tests)
	case ModeJavap:
		return o.javap(ctx, tests)
	case ModeTest:
		return o.test(ctx, tests)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func (o *Orchestrator) dryRun(tests []lang.Test) error {
	for _, t := range tests {
		fmt.Fprintln(o.cfg.Stdout, t.String())
	}
	return nil
}

func (o *Orchestrator) showIR(ctx context.Context, tests []lang.Test) error {
	var failures []failure.Failure
	for _, t := range tests {
		l, err := o.cfg.Registry.Lookup(t.Language)
		if err != nil {
			return err
		}
		f, err := l.DumpIntermediateRepresentation(ctx, t.Segment, o.cfg.Stdout)
		if errors.Is(err, lang.ErrUnsupported) {
			o.log.Warn().Str("test", t.String()).Msg("no IR dump for this language, skipped")
			continue
		}
		if err != nil {
			return err
		}
		if f != nil {
			failures = append(failures, failure.CompileFailure{Language: t.Language, Segment: t.Segment, Inner: f})
		}
	}
	failure.Report(o.cfg.Stdout, failures)
	return nil
}

func (o *Orchestrator) jar(ctx context.Context, tests []lang.Test) error {
	var failures []failure.Failure
	err := o.compileEach(ctx, tests, func(t lang.Test, artifact string, f failure.Failure) error {
		if f != nil {
			failures = append(failures, f)
			return nil
		}
		fmt.Fprintln(o.cfg.Stdout, artifact)
		return nil
	})
	if err != nil {
		return err
	}
	return o.finish(failures)
}

func (o *Orchestrator) test(ctx context.Context, tests []lang.Test) error {
	var failures []failure.Failure
	err := o.compileEach(ctx, tests, func(t lang.Test, artifact string, f failure.Failure) error {
		if f != nil {
			failures = append(failures, f)
			return nil
		}
		testFailures, checks, err := o.runChecks(ctx, t, artifact)
		if err != nil {
			return err
		}
		if len(testFailures) == 0 {
			fmt.Fprintf(o.cfg.Stdout, "ok %s (%d checks)\n", t, checks)
			return nil
		}
		failures = append(failures, testFailures...)
		return nil
	})
	if err != nil {
		return err
	}
	return o.finish(failures)
}

// runChecks parses t's declaration and executes every runner against artifact.
func (o *Orchestrator) runChecks(ctx context.Context, t lang.Test, artifact string) ([]failure.Failure, int, error) {
	l, err := o.cfg.Registry.Lookup(t.Language)
	if err != nil {
		return nil, 0, err
	}
	text, err := l.Declaration(t.Segment)
	if err != nil {
		return nil, 0, err
	}
	decl, err := declaration.Parse(text)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", t, err)
	}

	runners := declaration.Compile(decl, o.cfg.Executor)
	var failures []failure.Failure
	for i, run := range runners {
		f, err := run(ctx, artifact)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: check %d: %w", t, i+1, err)
		}
		if f != nil {
			o.log.Debug().Str("test", t.String()).Int("check", i+1).Str("failure", f.Short()).Msg("check failed")
			failures = append(failures, failure.TestFailure{Language: t.Language, Segment: t.Segment, Inner: f})
		}
	}
	return failures, len(runners), nil
}

// compileEach compiles tests in order and hands each outcome to fn. Compile
// failures arrive wrapped as CompileFailure.
func (o *Orchestrator) compileEach(ctx context.Context, tests []lang.Test, fn func(lang.Test, string, failure.Failure) error) error {
	for _, t := range tests {
		l, err := o.cfg.Registry.Lookup(t.Language)
		if err != nil {
			return err
		}
		artifact, f, err := l.CompileToArtifact(ctx, t.Segment)
		if err != nil {
			return err
		}
		if f != nil {
			o.log.Debug().Str("test", t.String()).Str("failure", f.Short()).Msg("compile failed")
			f = failure.CompileFailure{Language: t.Language, Segment: t.Segment, Inner: f}
		}
		if err := fn(t, artifact, f); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) finish(failures []failure.Failure) error {
	failure.Report(o.cfg.Stdout, failures)
	if len(failures) > 0 {
		return &ExitError{Code: ExitFailures}
	}
	return nil
}
