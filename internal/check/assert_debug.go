//go:build debug

// Package check holds invariant assertions that compile to no-ops unless
// the debug build tag is set.
package check

import "fmt"

// Assert panics when cond is false. Debug builds only.
func Assert(cond bool, msg string) {
	if !cond {
		panic("invariant violated: " + msg)
	}
}

// Assertf is Assert with a formatted message. Debug builds only.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("invariant violated: " + fmt.Sprintf(format, args...))
	}
}
