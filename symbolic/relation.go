package symbolic

import (
	"errors"
	"strconv"

	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/logic"
)

// Relation builds the one-step transition relation of a program.
type Relation[T any] struct {
	Program  wile.Program
	Encoding IntEncoding[T]
	Ops      OperatorRestriction[T]
}

// NewRelation returns a relation builder for p.
func NewRelation[T any](p wile.Program, enc IntEncoding[T], ops OperatorRestriction[T]) *Relation[T] {
	return &Relation[T]{Program: p, Encoding: enc, Ops: ops}
}

// Step returns the formula that state j is a successor of state i. The
// formula is rebuilt for each call with variables named after i and j.
func (r *Relation[T]) Step(i, j int) (logic.Expr, error) {
	a := NewStateVariable(strconv.Itoa(i), r.Encoding)
	b := NewStateVariable(strconv.Itoa(j), r.Encoding)
	return r.Transition(a, b)
}

// Transition returns the disjunction of the formulas of every instruction.
func (r *Relation[T]) Transition(a, b *StateVariable[T]) (logic.Expr, error) {
	var disjuncts []logic.Expr
	for loc, inst := range r.Program {
		formulas, err := r.Formulas(loc, inst, a, b)
		if err != nil {
			return nil, err
		}
		disjuncts = append(disjuncts, formulas...)
	}
	return logic.Or(disjuncts...), nil
}

// Formulas returns the disjuncts describing the transitions of inst at loc
// from a to b: two for AssignOp, four for BranchIfZero and one otherwise.
// The first conjunct of every disjunct is "a.location == loc".
func (r *Relation[T]) Formulas(loc int, inst wile.Instruction, a, b *StateVariable[T]) ([]logic.Expr, error) {
	premise := a.AtLocation(loc)

	switch inst := inst.(type) {
	case *wile.AssignOp:
		values, known, err := r.resolve(a, inst.Args)
		if err != nil {
			return nil, err
		}
		target, err := b.Get(wile.Ref(inst.Target))
		if err != nil {
			return nil, err
		}
		restrict, err := r.Ops.Restrict(inst.Op, values, target.Value)
		if err != nil {
			return nil, err
		}
		next, err := r.advance(a, b, 1)
		if err != nil {
			return nil, err
		}
		unchanged := a.VariablesEqualExcept(b, inst.Target)

		return []logic.Expr{
			logic.And(premise, logic.Not(known), logic.Not(target.Known), next, unchanged),
			logic.And(premise, known, target.Known, restrict, next, unchanged),
		}, nil

	case *wile.BranchIfZero:
		values, known, err := r.resolve(a, inst.Args)
		if err != nil {
			return nil, err
		}
		cond, err := r.Ops.Condition(inst.Op, values)
		if err != nil {
			return nil, err
		}
		fallthru, err := r.advance(a, b, 1)
		if err != nil {
			return nil, err
		}
		jump, err := r.advance(a, b, inst.Distance)
		if err != nil {
			return nil, err
		}
		unchanged := a.VariablesEqual(b)

		return []logic.Expr{
			logic.And(premise, logic.Not(known), fallthru, unchanged),
			logic.And(premise, logic.Not(known), jump, unchanged),
			logic.And(premise, known, cond, fallthru, unchanged),
			logic.And(premise, known, logic.Not(cond), jump, unchanged),
		}, nil

	case *wile.Jump:
		next, err := r.advance(a, b, inst.Distance)
		if err != nil {
			return nil, err
		}
		return []logic.Expr{logic.And(premise, next, a.VariablesEqual(b))}, nil

	case *wile.Output:
		next, err := r.advance(a, b, 1)
		if err != nil {
			return nil, err
		}
		return []logic.Expr{logic.And(premise, next, a.VariablesEqual(b))}, nil

	case *wile.Input:
		target, err := b.Get(wile.Ref(inst.Target))
		if err != nil {
			return nil, err
		}
		next, err := r.advance(a, b, 1)
		if err != nil {
			return nil, err
		}
		return []logic.Expr{logic.And(premise, next, a.VariablesEqualExcept(b, inst.Target), logic.Not(target.Known))}, nil

	default:
		return nil, errors.New("illegal instruction")
	}
}

// resolve returns the values of args in a and the formula that all are known.
func (r *Relation[T]) resolve(a *StateVariable[T], args []wile.Arg) ([]T, logic.Expr, error) {
	values := make([]T, len(args))
	known := make([]logic.Expr, len(args))
	for i, arg := range args {
		v, err := a.Get(arg)
		if err != nil {
			return nil, nil, err
		}
		values[i], known[i] = v.Value, v.Known
	}
	return values, logic.And(known...), nil
}

// advance returns the formula "b.location == a.location + d".
func (r *Relation[T]) advance(a, b *StateVariable[T], d int) (logic.Expr, error) {
	return r.Ops.Restrict(wile.OpAdd, []T{a.Location, r.Encoding.Literal(int64(d))}, b.Location)
}
