// Package fakerun provides a recording tools.CommandRunner for tests.
package fakerun

import (
	"context"
	"sync"

	"github.com/danmuck/jvlmtest/internal/tools"
)

// Runner records every command and answers with Handler. A nil Handler
// reports success with empty output.
type Runner struct {
	Handler func(cmd tools.Command) (tools.Result, error)

	mu    sync.Mutex
	calls []tools.Command
}

func (r *Runner) Run(_ context.Context, cmd tools.Command) (tools.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()
	if r.Handler == nil {
		return tools.Result{}, nil
	}
	return r.Handler(cmd)
}

// Calls returns a copy of the recorded commands.
func (r *Runner) Calls() []tools.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tools.Command(nil), r.calls...)
}

// Names returns the recorded command names in order.
func (r *Runner) Names() []string {
	calls := r.Calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return names
}

// Output answers every command with stdout and a zero exit.
func Output(stdout string) func(tools.Command) (tools.Result, error) {
	return func(tools.Command) (tools.Result, error) {
		return tools.Result{Stdout: []byte(stdout)}, nil
	}
}
