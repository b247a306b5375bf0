package declaration

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/rs/zerolog/log"
)

// Runner executes one compiled directive against an artifact. A nil Failure
// means the check passed; the error is reserved for fatal conditions.
type Runner func(ctx context.Context, artifact string) (failure.Failure, error)

// Executor evaluates directives in the JVM REPL.
type Executor struct {
	Runner tools.CommandRunner
	REPL   config.REPLConfig
}

// NewExecutor binds the REPL configuration to a command runner.
func NewExecutor(runner tools.CommandRunner, repl config.REPLConfig) *Executor {
	return &Executor{Runner: runner, REPL: repl}
}

// Compile turns a declaration into one Runner per directive, in order.
func Compile(decl Declaration, exec *Executor) []Runner {
	runners := make([]Runner, 0, len(decl.Directives))
	for _, d := range decl.Directives {
		runners = append(runners, func(ctx context.Context, artifact string) (failure.Failure, error) {
			return exec.Check(ctx, d, artifact)
		})
	}
	return runners
}

// Check evaluates d's expression with artifact on the class path and judges
// the outcome by d.Kind.
func (e *Executor) Check(ctx context.Context, d Directive, artifact string) (failure.Failure, error) {
	cmd := e.command(d, artifact)
	res, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if d.Kind == TimeoutExpected {
		if res.TimedOut {
			return nil, nil
		}
		return failure.NoTimeoutFailure{Seconds: d.Limit}, nil
	}
	if f := failure.FromResult(cmd, res); f != nil {
		return f, nil
	}

	found := strings.TrimSpace(string(res.Stdout))
	log.Debug().Str("expr", d.Expression).Str("kind", d.Kind.String()).Str("found", found).Msg("repl result")
	switch d.Kind {
	case ContainsMatch:
		if !strings.Contains(found, d.Expected) {
			return failure.AssertFailure{Expected: d.Expected, Found: found, Contains: true}, nil
		}
	default:
		if found != d.Expected {
			return failure.AssertFailure{Expected: d.Expected, Found: found}, nil
		}
	}
	return nil, nil
}

func (e *Executor) command(d Directive, artifact string) tools.Command {
	if abs, err := filepath.Abs(artifact); err == nil {
		artifact = abs
	}
	args := make([]string, len(e.REPL.Args))
	for i, a := range e.REPL.Args {
		args[i] = strings.ReplaceAll(a, "{artifact}", artifact)
	}
	timeout := e.REPL.Timeout
	if d.Kind == TimeoutExpected {
		timeout = time.Duration(d.Limit * float64(time.Second))
	}
	return tools.Command{
		Name:    e.REPL.Command,
		Args:    args,
		Stdin:   strings.ReplaceAll(e.REPL.Input, "{expr}", d.Expression),
		Timeout: timeout,
		Combine: true,
	}
}
