// Package logging configures the process-wide zerolog logger.
//
// Ownership boundary:
// - runtime and test logging profiles
//
// - environment overrides for level, timestamps and color
package logging
