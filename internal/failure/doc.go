// Package failure owns the closed set of stage failure values.
//
// Ownership boundary:
// - failure variants and their short/detailed renderings
//
// - conversion of subprocess results into failures
//
// - aggregate reporting policy for a finished run
package failure
