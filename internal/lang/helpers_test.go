package lang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative slash paths) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := filepath.Join(t.TempDir(), "test")
	require.NoError(t, os.MkdirAll(root, 0o755))
	return config.Default(root)
}

const ternarySource = `/*
compile -O1 -g

java_run jvlm.ternary.ternary(5)
expect 34
*/

int ternary(int a) {
    return a > 5 ? 15 : 34;
}
`
