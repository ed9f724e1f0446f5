package sat

import (
	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/symbolic"
)

// maxPowExponent is the largest literal exponent expanded into products.
const maxPowExponent = 2 * Width

// Encoding represents integers as BitVectors.
type Encoding struct{}

var _ symbolic.Encoding[BitVector] = Encoding{}

// Name returns "sat".
func (Encoding) Name() string { return "sat" }

// Variable returns a vector of named bits.
func (Encoding) Variable(name string) BitVector { return NewBitVector(name) }

// Literal returns the constant vector for v.
func (Encoding) Literal(v int64) BitVector { return Literal(v) }

// Equal returns the bitwise equality of a and b.
func (Encoding) Equal(a, b BitVector) logic.Expr { return Equal(a, b) }

// Restrict returns a formula relating result to op(args...). Arithmetic
// introduces fresh carry variables constrained by the full-adder equations.
func (enc Encoding) Restrict(op wile.Op, args []BitVector, result BitVector) (logic.Expr, error) {
	if !op.Accepts(len(args)) {
		return nil, &symbolic.UnsupportedOperatorError{Encoding: enc.Name(), Op: op}
	}
	if op.IsBool() {
		cond, err := enc.Condition(op, args)
		if err != nil {
			return nil, err
		}
		return Equal(result, FromBool(cond)), nil
	}

	ad := &Adder{Fresh: true}
	v, err := enc.value(ad, op, args)
	if err != nil {
		return nil, err
	}
	return logic.And(ad.Constraint(), Equal(result, v)), nil
}

// Condition returns "op(args...) != 0" without auxiliary constraints.
func (enc Encoding) Condition(op wile.Op, args []BitVector) (logic.Expr, error) {
	if !op.Accepts(len(args)) {
		return nil, &symbolic.UnsupportedOperatorError{Encoding: enc.Name(), Op: op}
	}

	switch op {
	case wile.OpTrue:
		return logic.True, nil
	case wile.OpFalse:
		return logic.False, nil
	case wile.OpNot:
		return logic.Not(ToBool(args[0])), nil
	case wile.OpLT:
		return Less(args[0], args[1]), nil
	case wile.OpLE:
		return logic.Or(Less(args[0], args[1]), Equal(args[0], args[1])), nil
	case wile.OpEQ:
		return Equal(args[0], args[1]), nil
	case wile.OpGE:
		return logic.Not(Less(args[0], args[1])), nil
	case wile.OpGT:
		return logic.And(logic.Not(Less(args[0], args[1])), logic.Not(Equal(args[0], args[1]))), nil
	case wile.OpNE:
		return logic.Not(Equal(args[0], args[1])), nil
	case wile.OpAnd, wile.OpAll:
		return logic.And(truths(args)...), nil
	case wile.OpOr, wile.OpAny:
		return logic.Or(truths(args)...), nil
	}

	ad := &Adder{}
	v, err := enc.value(ad, op, args)
	if err != nil {
		return nil, err
	}
	return ToBool(v), nil
}

// value returns the bits computed by an integer-valued operator.
func (enc Encoding) value(ad *Adder, op wile.Op, args []BitVector) (BitVector, error) {
	switch op {
	case wile.OpID:
		return args[0], nil
	case wile.OpNeg:
		return ad.Neg(args[0]), nil
	case wile.OpAdd, wile.OpSum:
		acc := Literal(0)
		for i, arg := range args {
			if i == 0 {
				acc = arg
				continue
			}
			acc = ad.Add(acc, arg, logic.False)
		}
		return acc, nil
	case wile.OpSub:
		return ad.Sub(args[0], args[1]), nil
	case wile.OpMul, wile.OpProduct:
		acc := Literal(1)
		for i, arg := range args {
			if i == 0 {
				acc = arg
				continue
			}
			acc = ad.Mul(acc, arg)
		}
		return acc, nil
	case wile.OpDiv, wile.OpMod:
		return freshBitVector("sat_" + op.String()), nil
	case wile.OpPow:
		if k, ok := args[1].Constant(); ok && k >= 0 && k <= maxPowExponent {
			acc := Literal(1)
			for i := int64(0); i < k; i++ {
				acc = ad.Mul(acc, args[0])
			}
			return acc, nil
		}
		return freshBitVector("sat_pow"), nil
	default:
		return BitVector{}, &symbolic.UnsupportedOperatorError{Encoding: enc.Name(), Op: op}
	}
}

func truths(args []BitVector) []logic.Expr {
	a := make([]logic.Expr, len(args))
	for i, arg := range args {
		a[i] = ToBool(arg)
	}
	return a
}
