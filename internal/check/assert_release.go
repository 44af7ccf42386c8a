//go:build !debug

// Package check holds invariant assertions that compile to no-ops unless
// the debug build tag is set.
package check

// Assert is a no-op in release builds.
func Assert(_ bool, _ string) {}

// Assertf is a no-op in release builds.
func Assertf(_ bool, _ string, _ ...any) {}
