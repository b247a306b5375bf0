// Package config resolves the tool and layout configuration of a test run.
//
// Ownership boundary:
// - defaults matching the upstream toolchain
//
// - jvlmtest.toml decoding and .env/environment overrides
//
// - validation of the resolved value
package config
