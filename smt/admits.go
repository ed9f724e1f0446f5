package smt

import (
	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/symbolic"
)

// Bind assigns the variables of the symbolic state named prefix from s.
// Unknown variables are bound to zero with a false known flag.
func Bind(e *logic.Evaluator, prefix string, s wile.State) {
	e.SetInt(symbolic.LocationName(prefix), int64(s.Location))
	for _, id := range wile.Identifiers {
		v := s.Get(string(id))
		if v.IsKnown() {
			e.SetInt(symbolic.ValueName(prefix, string(id)), v.Int())
		} else {
			e.SetInt(symbolic.ValueName(prefix, string(id)), 0)
		}
		e.SetBool(symbolic.KnownName(prefix, string(id)), v.IsKnown())
	}
}

// Residual returns the step formula from a to b with both states
// substituted. The result is constant unless it depends on a fresh term.
func Residual(rel *symbolic.Relation[logic.Expr], a, b wile.State) (logic.Expr, error) {
	expr, err := rel.Step(0, 1)
	if err != nil {
		return nil, err
	}

	e := logic.NewEvaluator()
	Bind(e, "0", a)
	Bind(e, "1", b)
	return e.Simplify(expr), nil
}

// Admits reports whether the relation allows a step from a to b. Returns
// logic.ErrUnbound if the answer depends on an unconstrained term such as
// the result of a division.
func Admits(rel *symbolic.Relation[logic.Expr], a, b wile.State) (bool, error) {
	expr, err := Residual(rel, a, b)
	if err != nil {
		return false, err
	}
	return logic.NewEvaluator().EvalBool(expr)
}
