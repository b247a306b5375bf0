// Package tools provides the subprocess execution layer used by every pipeline stage.
//
// Ownership boundary:
// - blocking command execution with optional wall-clock limits
//
// - stdout/stderr capture, streaming and stdin feeding
//
// - process-group cleanup when a limit expires
//
// Every external tool (compiler, build tool, packager, REPL, disassembler) is
// invoked through CommandRunner so the orchestrator can be exercised with fakes.
package tools
