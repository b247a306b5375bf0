package declaration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/testutil/fakerun"
	"github.com/danmuck/jvlmtest/internal/testutil/testlog"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testREPL() config.REPLConfig {
	return config.Default("/tmp/test").REPL
}

func compileText(t *testing.T, text string, runner tools.CommandRunner) []Runner {
	t.Helper()
	decl, err := Parse(text)
	require.NoError(t, err)
	return Compile(decl, NewExecutor(runner, testREPL()))
}

func TestExactMatchRunner(t *testing.T) {
	testlog.Start(t)
	fake := &fakerun.Runner{Handler: fakerun.Output("2\n")}
	runners := compileText(t, "compile -O2\njava_run 1+1\nexpect 2", fake)
	require.Len(t, runners, 1)

	f, err := runners[0](context.Background(), "/out/c/a.jar")
	require.NoError(t, err)
	assert.Nil(t, f)

	fake.Handler = fakerun.Output("3")
	f, err = runners[0](context.Background(), "/out/c/a.jar")
	require.NoError(t, err)
	assert.Equal(t, failure.AssertFailure{Expected: "2", Found: "3"}, f)
}

func TestREPLCommandShape(t *testing.T) {
	testlog.Start(t)
	fake := &fakerun.Runner{Handler: fakerun.Output("34")}
	runners := compileText(t, "java_run jvlm.ternary.ternary(5)\nexpect 34", fake)
	_, err := runners[0](context.Background(), "/out/c/basic_ternary.jar")
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "jshell", calls[0].Name)
	assert.Contains(t, calls[0].Args, "/out/c/basic_ternary.jar")
	assert.Equal(t, "System.out.println(jvlm.ternary.ternary(5));\n/exit\n", calls[0].Stdin)
	assert.True(t, calls[0].Combine)
	assert.Equal(t, time.Minute, calls[0].Timeout)
}

func TestContainsRunner(t *testing.T) {
	testlog.Start(t)
	fake := &fakerun.Runner{Handler: fakerun.Output("java.lang.Exception: Stack trace\n\tat java.base/java.lang.Thread.dumpStack(Thread.java:1380)\n")}
	runners := compileText(t, "java_run jvlm.main.main()\nexpect_contains at java.base/java.lang.Thread.dumpStack", fake)
	f, err := runners[0](context.Background(), "a.jar")
	require.NoError(t, err)
	assert.Nil(t, f)

	fake.Handler = fakerun.Output("nothing")
	f, err = runners[0](context.Background(), "a.jar")
	require.NoError(t, err)
	assert.Equal(t, failure.AssertFailure{Expected: "at java.base/java.lang.Thread.dumpStack", Found: "nothing", Contains: true}, f)
}

func TestTimeoutExpectedRunner(t *testing.T) {
	testlog.Start(t)
	fake := &fakerun.Runner{Handler: func(cmd tools.Command) (tools.Result, error) {
		return tools.Result{TimedOut: true, ExitCode: -1}, nil
	}}
	runners := compileText(t, "java_run spin()\nexpect_timeout 1 seconds", fake)
	f, err := runners[0](context.Background(), "a.jar")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, time.Second, fake.Calls()[0].Timeout)

	fake.Handler = fakerun.Output("done")
	f, err = runners[0](context.Background(), "a.jar")
	require.NoError(t, err)
	assert.Equal(t, failure.NoTimeoutFailure{Seconds: 1}, f)
}

func TestUnexpectedTimeoutAndStatus(t *testing.T) {
	testlog.Start(t)
	fake := &fakerun.Runner{Handler: func(cmd tools.Command) (tools.Result, error) {
		return tools.Result{TimedOut: true, ExitCode: -1}, nil
	}}
	runners := compileText(t, "java_run f()\nexpect 1", fake)
	f, err := runners[0](context.Background(), "a.jar")
	require.NoError(t, err)
	assert.Equal(t, failure.TimeoutFailure{Command: "jshell", Seconds: 60}, f)

	fake.Handler = func(cmd tools.Command) (tools.Result, error) {
		return tools.Result{ExitCode: 1, Stdout: []byte("|  Error")}, nil
	}
	f, err = runners[0](context.Background(), "a.jar")
	require.NoError(t, err)
	assert.IsType(t, failure.StatusCodeFailure{}, f)
}

func TestLaunchErrorIsFatal(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("exec: jshell: not found")
	fake := &fakerun.Runner{Handler: func(cmd tools.Command) (tools.Result, error) {
		return tools.Result{}, boom
	}}
	runners := compileText(t, "java_run f()\nexpect 1", fake)
	f, err := runners[0](context.Background(), "a.jar")
	assert.Nil(t, f)
	assert.ErrorIs(t, err, boom)
}

func TestCompilePreservesOrder(t *testing.T) {
	testlog.Start(t)
	fake := &fakerun.Runner{Handler: fakerun.Output("x")}
	runners := compileText(t, "java_run a()\nexpect x\njava_run b()\nexpect x\njava_run c()\nexpect x", fake)
	require.Len(t, runners, 3)
	for _, r := range runners {
		_, err := r(context.Background(), "a.jar")
		require.NoError(t, err)
	}
	calls := fake.Calls()
	assert.Contains(t, calls[0].Stdin, "a()")
	assert.Contains(t, calls[1].Stdin, "b()")
	assert.Contains(t, calls[2].Stdin, "c()")
}
