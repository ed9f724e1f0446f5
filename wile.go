// Package wile compiles programs written in a small WHILE language into
// jump-addressed instructions and explores them both concretely and as an
// explicit-state transition system.
package wile

import (
	"fmt"
)

// Identifiers lists the variable names representable in symbolic states.
const Identifiers = "abcdefghijklmnopqrstuvwxyz"

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
