// Package sat encodes program integers as fixed-width vectors of boolean
// formulas so that transition relations are purely propositional.
package sat

import (
	"fmt"

	"github.com/benbjohnson/wile/logic"
)

// Width is the number of bits in a BitVector.
const Width = 16

// BitVector is a two's complement integer. Bit 0 is the least significant.
type BitVector [Width]logic.Expr

// NewBitVector returns a vector of fresh named bits "<name>_b<i>".
func NewBitVector(name string) BitVector {
	var v BitVector
	for i := range v {
		v[i] = logic.NewVar(BitName(name, i), logic.BoolSort)
	}
	return v
}

// BitName returns the name of bit i of the vector called name.
func BitName(name string, i int) string {
	return fmt.Sprintf("%s_b%d", name, i)
}

// Literal returns the constant vector for v modulo 2^Width.
func Literal(v int64) BitVector {
	var bv BitVector
	for i := range bv {
		bv[i] = logic.Bool((uint64(v)>>uint(i))&1 == 1)
	}
	return bv
}

// freshBitVector returns a vector of unconstrained bits.
func freshBitVector(prefix string) BitVector {
	var v BitVector
	for i := range v {
		v[i] = logic.Fresh(prefix, logic.BoolSort)
	}
	return v
}

// Constant returns the signed value of v if every bit is constant.
func (v BitVector) Constant() (int64, bool) {
	var u uint16
	for i, bit := range v {
		c, ok := bit.(*logic.BoolConst)
		if !ok {
			return 0, false
		} else if c.Value {
			u |= 1 << uint(i)
		}
	}
	return int64(int16(u)), true
}

// Equal returns the bitwise equality of a and b.
func Equal(a, b BitVector) logic.Expr {
	conds := make([]logic.Expr, Width)
	for i := range a {
		conds[i] = logic.Eq(a[i], b[i])
	}
	return logic.And(conds...)
}

// ToBool returns "v != 0".
func ToBool(v BitVector) logic.Expr {
	return logic.Or(v[:]...)
}

// FromBool returns 1 if b holds and 0 otherwise.
func FromBool(b logic.Expr) BitVector {
	v := Literal(0)
	v[0] = b
	return v
}

// Not returns the bitwise complement of v.
func (v BitVector) Not() BitVector {
	var other BitVector
	for i := range v {
		other[i] = logic.Not(v[i])
	}
	return other
}

// shift returns v shifted left by n bits.
func (v BitVector) shift(n int) BitVector {
	other := Literal(0)
	for i := n; i < Width; i++ {
		other[i] = v[i-n]
	}
	return other
}

// mask returns v with every bit conjoined with b.
func (v BitVector) mask(b logic.Expr) BitVector {
	var other BitVector
	for i := range v {
		other[i] = logic.And(v[i], b)
	}
	return other
}

// String returns the bits from most to least significant.
func (v BitVector) String() string {
	if c, ok := v.Constant(); ok {
		return fmt.Sprintf("bv(%d)", c)
	}
	s := "["
	for i := Width - 1; i >= 0; i-- {
		s += v[i].String()
		if i > 0 {
			s += " "
		}
	}
	return s + "]"
}

// carry returns the full-adder carry out of a, b and c.
func carry(a, b, c logic.Expr) logic.Expr {
	return logic.Or(logic.And(a, b), logic.And(a, c), logic.And(b, c))
}

// xor3 returns the full-adder sum of a, b and c.
func xor3(a, b, c logic.Expr) logic.Expr {
	return logic.Xor(logic.Xor(a, b), c)
}

// Adder computes sums either functionally, with carries as formulas over the
// operand bits, or relationally, with a fresh variable per carry
// constrained by the full-adder equation.
type Adder struct {
	Fresh bool

	constraints []logic.Expr
}

// Add returns the sum bits of l + r + carryIn.
func (ad *Adder) Add(l, r BitVector, carryIn logic.Expr) BitVector {
	var sum BitVector
	c := carryIn
	for i := 0; i < Width; i++ {
		sum[i] = xor3(l[i], r[i], c)
		next := carry(l[i], r[i], c)
		if ad.Fresh && i < Width-1 {
			fresh := logic.Fresh("carry", logic.BoolSort)
			ad.constraints = append(ad.constraints, logic.Eq(fresh, next))
			next = fresh
		}
		c = next
	}
	return sum
}

// Neg returns -v.
func (ad *Adder) Neg(v BitVector) BitVector {
	return ad.Add(v.Not(), Literal(0), logic.True)
}

// Sub returns l - r.
func (ad *Adder) Sub(l, r BitVector) BitVector {
	return ad.Add(l, r.Not(), logic.True)
}

// Mul returns the low Width bits of l * r by shift-and-add.
func (ad *Adder) Mul(l, r BitVector) BitVector {
	acc := Literal(0)
	for i := 0; i < Width; i++ {
		if logic.IsFalse(r[i]) {
			continue
		}
		acc = ad.Add(acc, l.shift(i).mask(r[i]), logic.False)
	}
	return acc
}

// Constraint returns the conjunction of the carry constraints introduced so far.
func (ad *Adder) Constraint() logic.Expr {
	return logic.And(ad.constraints...)
}

// Less returns the unsigned comparison l < r: at some bit l has 0 and r
// has 1 while every more significant bit is equal.
func Less(l, r BitVector) logic.Expr {
	var disjuncts []logic.Expr
	prefix := []logic.Expr{}
	for i := Width - 1; i >= 0; i-- {
		conds := append(append([]logic.Expr{}, prefix...), logic.Not(l[i]), r[i])
		disjuncts = append(disjuncts, logic.And(conds...))
		prefix = append(prefix, logic.Eq(l[i], r[i]))
	}
	return logic.Or(disjuncts...)
}
