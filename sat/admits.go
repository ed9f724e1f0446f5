package sat

import (
	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/cnf"
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/symbolic"
)

// Bind assigns the bits of the symbolic state named prefix from s.
// Unknown variables are bound to zero with a false known flag.
func Bind(e *logic.Evaluator, prefix string, s wile.State) {
	bindBits(e, symbolic.LocationName(prefix), int64(s.Location))
	for _, id := range wile.Identifiers {
		v := s.Get(string(id))
		var n int64
		if v.IsKnown() {
			n = v.Int()
		}
		bindBits(e, symbolic.ValueName(prefix, string(id)), n)
		e.SetBool(symbolic.KnownName(prefix, string(id)), v.IsKnown())
	}
}

func bindBits(e *logic.Evaluator, name string, v int64) {
	for i := 0; i < Width; i++ {
		e.SetBool(BitName(name, i), (uint64(v)>>uint(i))&1 == 1)
	}
}

// Admits reports whether the relation allows a step from a to b. The
// remaining carry and division variables are resolved by the SAT solver.
func Admits(rel *symbolic.Relation[BitVector], a, b wile.State) (bool, error) {
	expr, err := rel.Step(0, 1)
	if err != nil {
		return false, err
	}

	e := logic.NewEvaluator()
	Bind(e, "0", a)
	Bind(e, "1", b)

	s := cnf.NewSolver()
	if err := s.Assert(e.Simplify(expr)); err != nil {
		return false, err
	}
	return s.Solve(), nil
}
