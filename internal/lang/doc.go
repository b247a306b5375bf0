// Package lang owns the per-language test adapters.
//
// Ownership boundary:
// - the Language capability set
//
// - the single-file (C) and directory-based (Rust) adapters
//
// - the insertion-ordered language registry
//
// Segments always use forward slashes and are relative to the language's
// directory under the test root.
package lang
