package lang

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// cleanSegment normalizes separators and rejects paths escaping the
// language root.
func cleanSegment(raw string) (string, bool) {
	s := path.Clean(filepath.ToSlash(raw))
	if s == "." || s == "" || path.IsAbs(s) || s == ".." || strings.HasPrefix(s, "../") {
		return "", false
	}
	return s, true
}

// cleanDir is cleanSegment for listing scopes, where the root is allowed.
func cleanDir(raw string) (string, bool) {
	raw = strings.Trim(filepath.ToSlash(raw), "/")
	if raw == "" || raw == "." {
		return "", true
	}
	return cleanSegment(raw)
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
