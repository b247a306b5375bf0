// Package selector resolves command-line specifiers into the working set of
// tests.
//
// Ownership boundary:
// - specifier to language matching in registry order
//
// - wildcard and single-test segment expressions
//
// - first-occurrence deduplication of the working set
//
// Specifier shapes, relative to the test root:
//
//	c                    every C test
//	c/                   every C test
//	c/extern/**/*        C tests under extern/, recursively
//	c/extern/*           C tests directly in extern/
//	c/extern/sleep       one C test (suffix optional)
//	rust/adder           one Rust test
//
// Specifiers matching no language contribute nothing.
package selector
