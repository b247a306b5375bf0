package tools

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/danmuck/jvlmtest/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesOutputAndExitCode(t *testing.T) {
	testlog.Start(t)
	requireShell(t)

	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
}

func TestExecRunnerCombineAndStdin(t *testing.T) {
	testlog.Start(t)
	requireShell(t)

	var streamed bytes.Buffer
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "read line; echo \"got $line\"; echo warn >&2"},
		Stdin:   "hello\n",
		Combine: true,
		Stdout:  &streamed,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Stdout), "got hello")
	assert.Contains(t, string(res.Stdout), "warn")
	assert.Empty(t, res.Stderr)
	assert.Equal(t, string(res.Stdout), streamed.String())
}

func TestExecRunnerEnvAndDir(t *testing.T) {
	testlog.Start(t)
	requireShell(t)

	dir := t.TempDir()
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo \"$JVLM_VALUE\"; pwd"},
		Dir:  dir,
		Env:  []string{"JVLM_VALUE=set"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), "set\n")
	assert.Contains(t, string(res.Stdout), dir)
}

func TestExecRunnerTimeoutIsAResult(t *testing.T) {
	testlog.Start(t)
	requireShell(t)

	start := time.Now()
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 5 & wait"},
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecRunnerMissingBinaryIsAnError(t *testing.T) {
	testlog.Start(t)
	_, err := ExecRunner{}.Run(context.Background(), Command{Name: "jvlmtest-definitely-missing-binary"})
	require.Error(t, err)
}

func TestExecRunnerCancelledParentIsAnError(t *testing.T) {
	testlog.Start(t)
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExecRunner{}.Run(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 1"}})
	require.Error(t, err)
}

func TestCommandString(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, "javap", Command{Name: "javap"}.String())
	assert.Equal(t, "clang -O3 -c a.c", Command{Name: "clang", Args: []string{"-O3", "-c", "a.c"}}.String())
}
