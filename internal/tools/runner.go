package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long Wait lingers on inherited pipes after a kill.
const waitDelay = 2 * time.Second

// Command is one external tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the parent environment.
	Env   []string
	Stdin string
	// Timeout is the wall-clock limit; zero means unbounded.
	Timeout time.Duration
	// Combine captures stdout and stderr into a single interleaved stream
	// reported as Result.Stdout. Stderr is ignored when set.
	Combine bool
	// Stdout and Stderr, when set, receive output as it is produced in
	// addition to the captured copy.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a command that was launched.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	// TimedOut is set when Command.Timeout expired before the process exited.
	TimedOut bool
	Duration time.Duration
}

// CommandRunner abstracts external tool execution.
//
// The returned error is reserved for invocations that could not be carried
// out at all (missing binary, cancelled parent context). A nonzero exit or an
// expired timeout is reported through Result.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	configureProcess(cmd)
	cmd.WaitDelay = waitDelay

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, c.Stdout)
	if c.Combine {
		// Identical writers make os/exec share one pipe for both streams.
		cmd.Stderr = cmd.Stdout
	} else {
		cmd.Stderr = tee(&stderr, c.Stderr)
	}

	log.Debug().Str("cmd", c.String()).Str("dir", c.Dir).Dur("timeout", c.Timeout).Msg("exec")
	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("run %s: %w", c.Name, ctx.Err())
	}
	if c.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		log.Debug().Str("cmd", c.Name).Dur("elapsed", res.Duration).Msg("exec timed out")
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", c.Name, err)
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
