// Package declaration owns the directive mini-language embedded in test sources.
//
// Ownership boundary:
// - locating the directive block inside a source file
//
// - parsing directive text into a typed Declaration
//
// - compiling directives into Runner values executed by one shared Executor
//
// Grammar (one directive per line, blank lines ignored):
//
//	compile <flags...>
//	java_run <expression>
//	expect <exact text>
//	expect_contains <substring>
//	expect_timeout <seconds> seconds
//
// Every java_run must be followed by exactly one expect line. Other lines are
// treated as commentary.
package declaration
