package sat_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/cnf"
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/sat"
	"github.com/benbjohnson/wile/symbolic"
)

// edges are values near the boundaries of a 16-bit vector.
var edges = []int64{0, 1, -1, 2, 7, -999, 1234, 32767, -32768}

func TestLiteral(t *testing.T) {
	for _, v := range edges {
		if got, ok := sat.Literal(v).Constant(); !ok || got != v {
			t.Fatalf("Literal(%d).Constant()=%d, %v", v, got, ok)
		}
	}
	if got, _ := sat.Literal(65537).Constant(); got != 1 {
		t.Fatalf("expected wraparound, got %d", got)
	}
	if _, ok := sat.NewBitVector("x").Constant(); ok {
		t.Fatal("expected variable vector to be non-constant")
	}
	if got, exp := sat.BitName("0_x_value", 3), "0_x_value_b3"; got != exp {
		t.Fatalf("BitName()=%s, expected %s", got, exp)
	}
}

func TestAdder(t *testing.T) {
	t.Run("Constants", func(t *testing.T) {
		for _, a := range edges {
			for _, b := range edges {
				var ad sat.Adder
				l, r := sat.Literal(a), sat.Literal(b)
				mustConstant(t, ad.Add(l, r, logic.False), a+b)
				mustConstant(t, ad.Sub(l, r), a-b)
				mustConstant(t, ad.Mul(l, r), a*b)
				mustConstant(t, ad.Neg(l), -a)
			}
		}
	})

	t.Run("Relational", func(t *testing.T) {
		for _, a := range edges {
			for _, b := range edges {
				ad := &sat.Adder{Fresh: true}
				x, y, s := sat.NewBitVector("x"), sat.NewBitVector("y"), sat.NewBitVector("s")
				f := logic.And(ad.Constraint(), sat.Equal(ad.Add(x, y, logic.False), s))

				e := logic.NewEvaluator()
				bind(e, "x", a)
				bind(e, "y", b)

				bind(e, "s", a+b)
				if !mustSolve(t, e.Simplify(f)) {
					t.Fatalf("%d + %d: expected %d to be admitted", a, b, a+b)
				}
				bind(e, "s", a+b+1)
				if mustSolve(t, e.Simplify(f)) {
					t.Fatalf("%d + %d: expected %d to be rejected", a, b, a+b+1)
				}
			}
		}
	})

	t.Run("Commutative", func(t *testing.T) {
		var ad sat.Adder
		x, y := sat.NewBitVector("x"), sat.NewBitVector("y")
		if mustSolve(t, logic.Not(sat.Equal(ad.Add(x, y, logic.False), ad.Add(y, x, logic.False)))) {
			t.Fatal("expected x + y == y + x")
		}
	})
}

func TestLess(t *testing.T) {
	values := []int64{0, 1, 2, 7, 255, 256, 32767}
	for _, a := range values {
		for _, b := range values {
			got := sat.Less(sat.Literal(a), sat.Literal(b))
			if exp := a < b; !logic.IsTrue(got) && exp {
				t.Fatalf("Less(%d, %d)=%s, expected true", a, b, got)
			} else if !logic.IsFalse(got) && !exp {
				t.Fatalf("Less(%d, %d)=%s, expected false", a, b, got)
			}
		}
	}
}

func TestEncoding_Restrict(t *testing.T) {
	enc := sat.Encoding{}
	for _, op := range wile.Ops() {
		switch op {
		case wile.OpDiv, wile.OpMod, wile.OpPow:
			continue
		}

		t.Run(op.String(), func(t *testing.T) {
			n := op.Arity()
			if n == wile.Variadic {
				n = 3
			}
			vars := make([]sat.BitVector, n)
			for i := range vars {
				vars[i] = enc.Variable(fmt.Sprintf("a%d", i))
			}

			restrict, err := enc.Restrict(op, vars, enc.Variable("r"))
			if err != nil {
				t.Fatal(err)
			}
			cond, err := enc.Condition(op, vars)
			if err != nil {
				t.Fatal(err)
			}

			for _, args := range argLists(n, []int64{0, 1, 2, 5}) {
				exp, err := op.Eval(args)
				if err != nil {
					t.Fatal(err)
				}

				e := logic.NewEvaluator()
				for i, v := range args {
					bind(e, fmt.Sprintf("a%d", i), v)
				}

				if got := e.Simplify(cond); !logic.IsTrue(got) && exp != 0 {
					t.Fatalf("%s%v: Condition()=%s, expected true", op, args, got)
				} else if !logic.IsFalse(got) && exp == 0 {
					t.Fatalf("%s%v: Condition()=%s, expected false", op, args, got)
				}

				bind(e, "r", exp)
				if !mustSolve(t, e.Simplify(restrict)) {
					t.Fatalf("%s%v: expected result %d to be admitted", op, args, exp)
				}
				bind(e, "r", exp+1)
				if mustSolve(t, e.Simplify(restrict)) {
					t.Fatalf("%s%v: expected result %d to be rejected", op, args, exp+1)
				}
			}
		})
	}
}

func TestEncoding_Pow(t *testing.T) {
	enc := sat.Encoding{}
	restrict, err := enc.Restrict(wile.OpPow, []sat.BitVector{enc.Variable("x"), enc.Literal(3)}, enc.Variable("r"))
	if err != nil {
		t.Fatal(err)
	}

	e := logic.NewEvaluator()
	bind(e, "x", -3)
	bind(e, "r", -27)
	if !mustSolve(t, e.Simplify(restrict)) {
		t.Fatal("expected (-3)^3 == -27")
	}
	bind(e, "r", 27)
	if mustSolve(t, e.Simplify(restrict)) {
		t.Fatal("expected (-3)^3 != 27")
	}
}

func TestEncoding_Division(t *testing.T) {
	enc := sat.Encoding{}
	for _, op := range []wile.Op{wile.OpDiv, wile.OpMod} {
		restrict, err := enc.Restrict(op, []sat.BitVector{enc.Variable("x"), enc.Literal(2)}, enc.Variable("r"))
		if err != nil {
			t.Fatal(err)
		}

		// Any result is possible since the quotient is unconstrained.
		e := logic.NewEvaluator()
		bind(e, "x", 4)
		bind(e, "r", 1234)
		if !mustSolve(t, e.Simplify(restrict)) {
			t.Fatalf("%s: expected unconstrained result", op)
		}
	}
}

func TestEncoding_Unsupported(t *testing.T) {
	enc := sat.Encoding{}
	var e *symbolic.UnsupportedOperatorError
	if _, err := enc.Restrict(wile.OpNot, nil, enc.Variable("r")); !errors.As(err, &e) {
		t.Fatalf("unexpected error: %v", err)
	} else if e.Encoding != "sat" {
		t.Fatalf("Encoding=%s", e.Encoding)
	}
}

// Ensure the bit-vector relation agrees with the unrolled system.
func TestAdmits(t *testing.T) {
	for name, src := range programs {
		t.Run(name, func(t *testing.T) {
			p, err := wile.CompileString(src)
			if err != nil {
				t.Fatal(err)
			}
			ts, err := wile.Unroll(p, 10)
			if err != nil {
				t.Fatal(err)
			}
			rel := symbolic.NewRelation[sat.BitVector](p, sat.Encoding{}, sat.Encoding{})

			states := ts.States()
			for _, a := range states {
				for _, b := range states {
					exp := false
					for _, succ := range ts.Successors(a) {
						exp = exp || succ.Equal(b)
					}
					if got, err := sat.Admits(rel, a, b); err != nil {
						t.Fatal(err)
					} else if got != exp {
						t.Fatalf("Admits(%s, %s)=%v, expected %v", a, b, got, exp)
					}
				}
			}
		})
	}
}

var programs = map[string]string{
	"Branch": `
y := 1
INPUT x
IF x < 0 THEN
    OUTPUT x
ELSE
    x := y * -1
    OUTPUT x
END IF
`,
	"Loop": `
INPUT x
WHILE x < 10 DO
    x := x + 1
    y := y + 1
END WHILE
OUTPUT x
OUTPUT y
`,
	"Countdown": `
n := 3
WHILE n > 0 DO
    n := n - 1
    s := s + n
END WHILE
OUTPUT s
`,
}

// argLists returns every argument list of length n drawn from values.
func argLists(n int, values []int64) [][]int64 {
	lists := [][]int64{{}}
	for i := 0; i < n; i++ {
		var next [][]int64
		for _, l := range lists {
			for _, v := range values {
				next = append(next, append(append([]int64{}, l...), v))
			}
		}
		lists = next
	}
	return lists
}

func bind(e *logic.Evaluator, name string, v int64) {
	for i := 0; i < sat.Width; i++ {
		e.SetBool(sat.BitName(name, i), (uint64(v)>>uint(i))&1 == 1)
	}
}

func mustConstant(tb testing.TB, v sat.BitVector, exp int64) {
	tb.Helper()
	if got, ok := v.Constant(); !ok {
		tb.Fatalf("expected constant, got %s", v)
	} else if got != int64(int16(exp)) {
		tb.Fatalf("got %d, expected %d", got, int16(exp))
	}
}

func mustSolve(tb testing.TB, f logic.Expr) bool {
	tb.Helper()
	s := cnf.NewSolver()
	if err := s.Assert(f); err != nil {
		tb.Fatal(err)
	}
	return s.Solve()
}
