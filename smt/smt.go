// Package smt encodes program integers as native integer terms.
package smt

import (
	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/symbolic"
)

// maxPowExponent is the largest literal exponent expanded into a product.
const maxPowExponent = 64

// Encoding represents integers as Int-sorted formulas.
type Encoding struct{}

var _ symbolic.Encoding[logic.Expr] = Encoding{}

// Name returns "smt".
func (Encoding) Name() string { return "smt" }

// Variable returns an Int variable.
func (Encoding) Variable(name string) logic.Expr {
	return logic.NewVar(name, logic.IntSort)
}

// Literal returns an Int constant.
func (Encoding) Literal(v int64) logic.Expr { return logic.Int(v) }

// Equal returns "a == b".
func (Encoding) Equal(a, b logic.Expr) logic.Expr { return logic.Eq(a, b) }

// Restrict returns "result == op(args...)".
func (enc Encoding) Restrict(op wile.Op, args []logic.Expr, result logic.Expr) (logic.Expr, error) {
	if !op.Accepts(len(args)) {
		return nil, &symbolic.UnsupportedOperatorError{Encoding: enc.Name(), Op: op}
	}
	if op.IsBool() {
		cond, err := enc.Condition(op, args)
		if err != nil {
			return nil, err
		}
		return logic.Eq(result, FromBool(cond)), nil
	}

	v, err := enc.value(op, args)
	if err != nil {
		return nil, err
	}
	return logic.Eq(result, v), nil
}

// Condition returns "op(args...) != 0".
func (enc Encoding) Condition(op wile.Op, args []logic.Expr) (logic.Expr, error) {
	if !op.Accepts(len(args)) {
		return nil, &symbolic.UnsupportedOperatorError{Encoding: enc.Name(), Op: op}
	}

	switch op {
	case wile.OpTrue:
		return logic.True, nil
	case wile.OpFalse:
		return logic.False, nil
	case wile.OpNot:
		return logic.Eq(args[0], logic.Int(0)), nil
	case wile.OpLT:
		return logic.Lt(args[0], args[1]), nil
	case wile.OpLE:
		return logic.Le(args[0], args[1]), nil
	case wile.OpEQ:
		return logic.Eq(args[0], args[1]), nil
	case wile.OpGE:
		return logic.Ge(args[0], args[1]), nil
	case wile.OpGT:
		return logic.Gt(args[0], args[1]), nil
	case wile.OpNE:
		return logic.Distinct(args[0], args[1]), nil
	case wile.OpAnd, wile.OpAll:
		return logic.And(truths(args)...), nil
	case wile.OpOr, wile.OpAny:
		return logic.Or(truths(args)...), nil
	}

	v, err := enc.value(op, args)
	if err != nil {
		return nil, err
	}
	return ToBool(v), nil
}

// value returns the term computed by an integer-valued operator.
func (enc Encoding) value(op wile.Op, args []logic.Expr) (logic.Expr, error) {
	switch op {
	case wile.OpID:
		return args[0], nil
	case wile.OpNeg:
		return logic.Neg(args[0]), nil
	case wile.OpAdd, wile.OpSum:
		return logic.Add(args...), nil
	case wile.OpSub:
		return logic.Sub(args[0], args[1]), nil
	case wile.OpMul, wile.OpProduct:
		return logic.Mul(args...), nil
	case wile.OpDiv, wile.OpMod:
		return logic.Fresh("smt_"+op.String(), logic.IntSort), nil
	case wile.OpPow:
		if k, ok := args[1].(*logic.IntConst); ok && k.Value >= 0 && k.Value <= maxPowExponent {
			factors := make([]logic.Expr, k.Value)
			for i := range factors {
				factors[i] = args[0]
			}
			return logic.Mul(factors...), nil
		}
		return logic.Fresh("smt_pow", logic.IntSort), nil
	default:
		return nil, &symbolic.UnsupportedOperatorError{Encoding: enc.Name(), Op: op}
	}
}

func truths(args []logic.Expr) []logic.Expr {
	a := make([]logic.Expr, len(args))
	for i, arg := range args {
		a[i] = ToBool(arg)
	}
	return a
}

// ToBool returns "v != 0".
func ToBool(v logic.Expr) logic.Expr {
	return logic.Distinct(v, logic.Int(0))
}

// FromBool returns 1 if b holds and 0 otherwise.
func FromBool(b logic.Expr) logic.Expr {
	return logic.Ite(b, logic.Int(1), logic.Int(0))
}
