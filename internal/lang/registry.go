package lang

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/tools"
)

var (
	ErrLanguageExists  = errors.New("language already registered")
	ErrLanguageNil     = errors.New("language is nil")
	ErrInvalidName     = errors.New("invalid language name")
	ErrUnknownLanguage = errors.New("unknown language")
)

// Registry stores languages in registration order. The order decides
// specifier prefix priority and default enumeration order.
type Registry struct {
	order []Language
	items map[string]Language
}

// NewRegistry creates an empty language registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Language)}
}

// NewDefaultRegistry registers the C and Rust adapters, in that order.
func NewDefaultRegistry(cfg config.Config, runner tools.CommandRunner) *Registry {
	r := NewRegistry()
	for _, l := range []Language{NewCLanguage(cfg, runner), NewRustLanguage(cfg, runner)} {
		if err := r.Register(l); err != nil {
			panic(err)
		}
	}
	return r
}

// Register appends a language to the registry.
func (r *Registry) Register(l Language) error {
	if l == nil {
		return ErrLanguageNil
	}
	name := l.Name()
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrLanguageExists, name)
	}
	r.items[name] = l
	r.order = append(r.order, l)
	return nil
}

// Resolve returns a language by id.
func (r *Registry) Resolve(name string) (Language, bool) {
	l, ok := r.items[name]
	return l, ok
}

// Lookup returns a language by id or ErrUnknownLanguage.
func (r *Registry) Lookup(name string) (Language, error) {
	l, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
	}
	return l, nil
}

// Languages returns the registered languages in registration order.
func (r *Registry) Languages() []Language {
	return append([]Language(nil), r.order...)
}

// Names returns the registered ids in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, l := range r.order {
		names[i] = l.Name()
	}
	return names
}

func isValidName(name string) bool {
	if name == "" || strings.TrimSpace(name) != name {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		if !(isLower || isDigit || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
