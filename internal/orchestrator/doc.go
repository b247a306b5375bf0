// Package orchestrator drives the working set through the build and run
// pipeline for one mode.
//
// Ownership boundary:
// - mode names and their exit codes
//
// - per-test stage sequencing (compile, package, declaration, checks)
//
// - failure accumulation and the end-of-run report
//
// Execution is sequential in selection order. A stage failure ends only the
// affected test; fatal errors end the run.
package orchestrator
