package lang

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/testutil/fakerun"
	"github.com/danmuck/jvlmtest/internal/testutil/testlog"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRustFixture(t *testing.T) (*RustLanguage, *fakerun.Runner) {
	t.Helper()
	cfg := testConfig(t)
	writeTree(t, filepath.Join(cfg.TestRoot, "rust"), map[string]string{
		"adder/Cargo.toml":       "[package]\nname = \"adder\"\n",
		"adder/src/lib.rs":       "/*\njava_run jvlm.adder.add(1, 2)\nexpect 3\n*/\n",
		"hello/Cargo.toml":       "[package]\nname = \"hello\"\n",
		"hello/src/main.rs":      "fn main() {}\n",
		"scratch/README.md":      "no manifest here",
		"group/inner/Cargo.toml": "[package]\nname = \"inner\"\n",
		"loose.rs":               "fn main() {}\n",
	})
	fake := &fakerun.Runner{}
	return NewRustLanguage(cfg, fake), fake
}

func TestRustNormalizeTestSegment(t *testing.T) {
	testlog.Start(t)
	r, _ := newRustFixture(t)

	cases := map[string]string{
		"adder":             "adder",
		"adder/":            "adder",
		"adder/Cargo.toml":  "adder",
		"hello/src/main.rs": "hello",
		"./hello":           "hello",
	}
	for raw, want := range cases {
		got, ok := r.NormalizeTestSegment(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
		again, ok := r.NormalizeTestSegment(got)
		assert.True(t, ok)
		assert.Equal(t, got, again)
	}
	for _, raw := range []string{"scratch", "group", "group/inner", "missing", "loose.rs", "", "../rust/adder"} {
		_, ok := r.NormalizeTestSegment(raw)
		assert.False(t, ok, raw)
	}
}

func TestRustListAllTests(t *testing.T) {
	testlog.Start(t)
	r, _ := newRustFixture(t)

	all := slices.Collect(r.ListAllTests("", true))
	assert.Equal(t, []string{"adder", "hello"}, all)
	assert.Equal(t, all, slices.Collect(r.ListAllTests("/", false)))
	assert.Empty(t, slices.Collect(r.ListAllTests("group", true)))
	assert.Empty(t, slices.Collect(r.ListAllTests("adder", false)))

	for _, seg := range all {
		got, ok := r.NormalizeTestSegment(seg)
		assert.True(t, ok)
		assert.Equal(t, seg, got)
	}
}

func TestRustListMissingRoot(t *testing.T) {
	testlog.Start(t)
	r := NewRustLanguage(testConfig(t), &fakerun.Runner{})
	assert.Empty(t, slices.Collect(r.ListAllTests("", true)))
}

func TestRustCompileToArtifact(t *testing.T) {
	testlog.Start(t)
	r, fake := newRustFixture(t)

	artifact, f, err := r.CompileToArtifact(context.Background(), "adder")
	require.NoError(t, err)
	require.Nil(t, f)
	assert.Equal(t, filepath.Join(r.base, "adder", "target", "release", "adder.jar"), artifact)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "cargo", calls[0].Name)
	assert.Equal(t, []string{"build", "--release"}, calls[0].Args)
	assert.Equal(t, filepath.Join(r.base, "adder"), calls[0].Dir)
	require.Len(t, calls[0].Env, 1)
	assert.Equal(t, "CARGO_ENCODED_RUSTFLAGS=-Zcodegen-backend="+r.codegenBackend, calls[0].Env[0])
}

func TestRustCompileLocateOverride(t *testing.T) {
	testlog.Start(t)
	r, _ := newRustFixture(t)
	r.Locate = func(segment string) string { return "/custom/" + segment + ".jar" }

	artifact, f, err := r.CompileToArtifact(context.Background(), "hello")
	require.NoError(t, err)
	require.Nil(t, f)
	assert.Equal(t, "/custom/hello.jar", artifact)
}

func TestRustCompileFailure(t *testing.T) {
	testlog.Start(t)
	r, fake := newRustFixture(t)
	fake.Handler = func(cmd tools.Command) (tools.Result, error) {
		return tools.Result{ExitCode: 101, Stderr: []byte("error[E0425]")}, nil
	}
	artifact, f, err := r.CompileToArtifact(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, artifact)
	assert.Equal(t, 101, f.(failure.StatusCodeFailure).ExitCode)
}

func TestRustDumpUnsupported(t *testing.T) {
	testlog.Start(t)
	r, fake := newRustFixture(t)
	_, err := r.DumpIntermediateRepresentation(context.Background(), "adder", &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Empty(t, fake.Calls())
}

func TestRustDeclaration(t *testing.T) {
	testlog.Start(t)
	r, _ := newRustFixture(t)

	text, err := r.Declaration("adder")
	require.NoError(t, err)
	assert.Contains(t, text, "expect 3")

	text, err = r.Declaration("hello")
	require.NoError(t, err)
	assert.Empty(t, text)
}
