// Package z3 decides logic formulas over Bool and Int with an embedded Z3.
//
// The solver links against libz3 through cgo and is only compiled with the
// z3 build tag.
package z3
