package wile

import (
	"fmt"
)

// Op is an operator of the language.
type Op int

// Operators.
const (
	OpTrue = Op(iota)
	OpFalse
	OpNot
	OpNeg
	OpID

	OpLT
	OpLE
	OpEQ
	OpGE
	OpGT
	OpNE
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow

	OpAll
	OpAny
	OpSum
	OpProduct

	opCount
)

// Fixity is the syntactic position of an operator.
type Fixity int

const (
	Prefix = Fixity(iota)
	Infix
)

// Variadic is the arity of operators taking any number of arguments.
const Variadic = -1

type opInfo struct {
	name   string
	fixity Fixity
	arity  int
	eval   func(args []int64) (int64, error)
}

var ops = [...]opInfo{
	OpTrue:  {"TRUE", Prefix, 0, func([]int64) (int64, error) { return 1, nil }},
	OpFalse: {"FALSE", Prefix, 0, func([]int64) (int64, error) { return 0, nil }},
	OpNot:   {"NOT", Prefix, 1, func(a []int64) (int64, error) { return b2i(a[0] == 0), nil }},
	OpNeg:   {"--", Prefix, 1, func(a []int64) (int64, error) { return -a[0], nil }},
	OpID:    {"ID", Prefix, 1, func(a []int64) (int64, error) { return a[0], nil }},

	OpLT:  {"<", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] < a[1]), nil }},
	OpLE:  {"<=", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] <= a[1]), nil }},
	OpEQ:  {"==", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] == a[1]), nil }},
	OpGE:  {">=", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] >= a[1]), nil }},
	OpGT:  {">", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] > a[1]), nil }},
	OpNE:  {"!=", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] != a[1]), nil }},
	OpAnd: {"AND", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] != 0 && a[1] != 0), nil }},
	OpOr:  {"OR", Infix, 2, func(a []int64) (int64, error) { return b2i(a[0] != 0 || a[1] != 0), nil }},
	OpAdd: {"+", Infix, 2, func(a []int64) (int64, error) { return a[0] + a[1], nil }},
	OpSub: {"-", Infix, 2, func(a []int64) (int64, error) { return a[0] - a[1], nil }},
	OpMul: {"*", Infix, 2, func(a []int64) (int64, error) { return a[0] * a[1], nil }},
	OpDiv: {"/", Infix, 2, floorDiv},
	OpMod: {"%", Infix, 2, floorMod},
	OpPow: {"^", Infix, 2, pow},

	OpAll: {"ALL", Prefix, Variadic, func(a []int64) (int64, error) {
		for _, v := range a {
			if v == 0 {
				return 0, nil
			}
		}
		return 1, nil
	}},
	OpAny: {"ANY", Prefix, Variadic, func(a []int64) (int64, error) {
		for _, v := range a {
			if v != 0 {
				return 1, nil
			}
		}
		return 0, nil
	}},
	OpSum: {"SUM", Prefix, Variadic, func(a []int64) (int64, error) {
		var n int64
		for _, v := range a {
			n += v
		}
		return n, nil
	}},
	OpProduct: {"PRODUCT", Prefix, Variadic, func(a []int64) (int64, error) {
		n := int64(1)
		for _, v := range a {
			n *= v
		}
		return n, nil
	}},
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(ops))
	for op := range ops {
		m[ops[op].name] = Op(op)
	}
	return m
}()

// Ops returns every operator in declaration order.
func Ops() []Op {
	a := make([]Op, opCount)
	for i := range a {
		a[i] = Op(i)
	}
	return a
}

// LookupOp returns the operator with the given name.
func LookupOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

// IsValid returns true if op is a declared operator.
func (op Op) IsValid() bool { return op >= 0 && op < opCount }

// String returns the source name of the operator.
func (op Op) String() string {
	if op.IsValid() {
		return ops[op].name
	}
	return fmt.Sprintf("Op<%d>", int(op))
}

// Fixity returns whether the operator is written prefix or infix.
func (op Op) Fixity() Fixity { return ops[op].fixity }

// Arity returns the number of arguments, or Variadic.
func (op Op) Arity() int { return ops[op].arity }

// IsBool returns true if the operator always yields 0 or 1.
func (op Op) IsBool() bool {
	switch op {
	case OpTrue, OpFalse, OpNot, OpLT, OpLE, OpEQ, OpGE, OpGT, OpNE, OpAnd, OpOr, OpAll, OpAny:
		return true
	default:
		return false
	}
}

// Accepts returns true if op can be applied to n arguments.
func (op Op) Accepts(n int) bool {
	return op.IsValid() && (op.Arity() == Variadic || op.Arity() == n)
}

// Eval applies the operator to concrete arguments.
func (op Op) Eval(args []int64) (int64, error) {
	assert(op.Accepts(len(args)), "%s: invalid argument count: %d", op, len(args))
	return ops[op].eval(args)
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a []int64) (int64, error) {
	x, y := a[0], a[1]
	if y == 0 {
		return 0, ErrDivisionByZero
	}
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q, nil
}

// floorMod returns a remainder with the sign of the divisor.
func floorMod(a []int64) (int64, error) {
	x, y := a[0], a[1]
	if y == 0 {
		return 0, ErrDivisionByZero
	}
	r := x % y
	if r != 0 && ((r < 0) != (y < 0)) {
		r += y
	}
	return r, nil
}

func pow(a []int64) (int64, error) {
	base, exp := a[0], a[1]
	if exp < 0 {
		switch {
		case base == 1:
			return 1, nil
		case base == -1 && exp%2 == 0:
			return 1, nil
		case base == -1:
			return -1, nil
		case base == 0:
			return 0, ErrDivisionByZero
		}
		return 0, nil
	}

	n := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			n *= base
		}
		base *= base
		exp >>= 1
	}
	return n, nil
}
