package selector

import (
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/jvlmtest/internal/lang"
	"github.com/rs/zerolog/log"
)

const (
	recursiveWildcard = "**/*"
	flatWildcard      = "*"
)

// Selector resolves specifiers against a language registry.
type Selector struct {
	Registry *lang.Registry
	// TestRoot is the absolute directory holding one subdirectory per language.
	TestRoot string
	// WorkDir is the absolute directory specifiers were typed in. When it
	// differs from TestRoot, existing paths are re-based onto TestRoot.
	WorkDir string
}

// New builds a Selector. Both directories are made absolute.
func New(registry *lang.Registry, testRoot, workDir string) *Selector {
	return &Selector{Registry: registry, TestRoot: absClean(testRoot), WorkDir: absClean(workDir)}
}

// Select returns the deduplicated working set for specs in first-occurrence
// order. No specs selects every test of every language.
func (s *Selector) Select(specs []string) []lang.Test {
	var all iter.Seq[lang.Test]
	if len(specs) == 0 {
		all = s.everything()
	} else {
		all = func(yield func(lang.Test) bool) {
			for _, spec := range specs {
				for t := range s.Resolve(spec) {
					if !yield(t) {
						return
					}
				}
			}
		}
	}
	return unique(all)
}

// Resolve lazily yields the tests one specifier names, possibly with
// duplicates.
func (s *Selector) Resolve(spec string) iter.Seq[lang.Test] {
	return func(yield func(lang.Test) bool) {
		raw := spec
		spec = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(spec)), "./")

		l, rest, ok := s.match(spec)
		if !ok && s.WorkDir != s.TestRoot {
			if rebased, exists := s.rebase(spec); exists {
				l, rest, ok = s.match(rebased)
			}
		}
		if !ok {
			log.Debug().Str("spec", raw).Msg("specifier matches no language")
			return
		}

		for seg := range segments(l, rest) {
			if !yield(lang.Test{Language: l.Name(), Segment: seg}) {
				return
			}
		}
	}
}

func (s *Selector) everything() iter.Seq[lang.Test] {
	return func(yield func(lang.Test) bool) {
		for _, l := range s.Registry.Languages() {
			for seg := range l.ListAllTests("", true) {
				if !yield(lang.Test{Language: l.Name(), Segment: seg}) {
					return
				}
			}
		}
	}
}

// match finds the first registered language whose id prefixes spec, either
// at the start or right after a leading separator.
func (s *Selector) match(spec string) (lang.Language, string, bool) {
	for _, l := range s.Registry.Languages() {
		name := l.Name()
		if strings.HasPrefix(spec, name) {
			return l, spec[len(name):], true
		}
		if strings.HasPrefix(spec, "/"+name) {
			return l, spec[len(name)+1:], true
		}
	}
	return nil, "", false
}

// rebase re-expresses an existing path relative to the test root.
func (s *Selector) rebase(spec string) (string, bool) {
	p := filepath.FromSlash(spec)
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.WorkDir, p)
	}
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	rel, err := filepath.Rel(s.TestRoot, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	log.Debug().Str("spec", spec).Str("rebased", rel).Msg("specifier rebased onto test root")
	return rel, true
}

// segments interprets the part of a specifier after the language id.
func segments(l lang.Language, rest string) iter.Seq[string] {
	if rest == "" || rest == "/" {
		return l.ListAllTests("", true)
	}
	if !strings.HasPrefix(rest, "/") {
		return none
	}
	expr := rest[1:]
	switch {
	case strings.HasSuffix(expr, recursiveWildcard):
		return l.ListAllTests(strings.TrimSuffix(expr, recursiveWildcard), true)
	case strings.HasSuffix(expr, flatWildcard):
		return l.ListAllTests(strings.TrimSuffix(expr, flatWildcard), false)
	default:
		return func(yield func(string) bool) {
			if seg, ok := l.NormalizeTestSegment(expr); ok {
				yield(seg)
			}
		}
	}
}

func none(func(string) bool) {}

func unique(seq iter.Seq[lang.Test]) []lang.Test {
	seen := make(map[lang.Test]struct{})
	out := make([]lang.Test, 0)
	for t := range seq {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
