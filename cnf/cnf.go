// Package cnf decides propositional formulas by converting them to a gini
// circuit and solving its CNF.
package cnf

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/wile/logic"
	"github.com/go-air/gini"
	ginilogic "github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

var (
	// ErrNotPropositional is returned when a formula contains Int terms.
	ErrNotPropositional = errors.New("formula is not propositional")

	// ErrNoModel is returned when reading a value without a satisfying model.
	ErrNoModel = errors.New("no model available")
)

// Solver accumulates assertions and checks them for satisfiability.
type Solver struct {
	c     *ginilogic.C
	vars  map[string]z.Lit
	nodes map[logic.Expr]z.Lit
	roots []z.Lit

	g   *gini.Gini
	sat bool
}

// NewSolver returns a new instance of Solver with no assertions.
func NewSolver() *Solver {
	return &Solver{
		c:     ginilogic.NewC(),
		vars:  make(map[string]z.Lit),
		nodes: make(map[logic.Expr]z.Lit),
	}
}

// Assert adds a Bool formula to the set of constraints.
func (s *Solver) Assert(expr logic.Expr) error {
	if expr.Sort() != logic.BoolSort {
		return fmt.Errorf("assert %s: %w", expr.Sort(), ErrNotPropositional)
	}
	lit, err := s.lit(expr)
	if err != nil {
		return err
	}
	s.roots = append(s.roots, lit)
	s.g = nil
	return nil
}

// Solve reports whether the conjunction of all assertions is satisfiable.
func (s *Solver) Solve() bool {
	g := gini.New()
	s.c.ToCnf(g)
	g.Add(s.c.T)
	g.Add(0)
	for _, lit := range s.roots {
		g.Add(lit)
		g.Add(0)
	}
	s.g, s.sat = g, g.Solve() == 1
	return s.sat
}

// Value returns the value of the named Bool variable in the last model.
// Variables that never appeared in an assertion are reported as false.
func (s *Solver) Value(name string) (bool, error) {
	if s.g == nil || !s.sat {
		return false, ErrNoModel
	}
	lit, ok := s.vars[name]
	if !ok {
		return false, nil
	}
	return s.g.Value(lit), nil
}

// Vars returns the number of distinct variables seen by the solver.
func (s *Solver) Vars() int { return len(s.vars) }

// lit returns the circuit literal for expr. Shared subterms map to the
// same literal.
func (s *Solver) lit(expr logic.Expr) (z.Lit, error) {
	if lit, ok := s.nodes[expr]; ok {
		return lit, nil
	}
	if expr.Sort() != logic.BoolSort {
		return z.LitNull, fmt.Errorf("%s: %w", expr, ErrNotPropositional)
	}

	var lit z.Lit
	switch expr := expr.(type) {
	case *logic.BoolConst:
		if expr.Value {
			lit = s.c.T
		} else {
			lit = s.c.F
		}

	case *logic.Var:
		v, ok := s.vars[expr.Name]
		if !ok {
			v = s.c.Lit()
			s.vars[expr.Name] = v
		}
		lit = v

	case *logic.NotExpr:
		x, err := s.lit(expr.X)
		if err != nil {
			return z.LitNull, err
		}
		lit = x.Not()

	case *logic.NaryExpr:
		args, err := s.lits(expr.Args)
		if err != nil {
			return z.LitNull, err
		}
		switch expr.Op {
		case logic.AND:
			lit = s.c.Ands(args...)
		case logic.OR:
			lit = s.c.Ors(args...)
		default:
			return z.LitNull, fmt.Errorf("%s: %w", expr, ErrNotPropositional)
		}

	case *logic.BinaryExpr:
		switch expr.Op {
		case logic.EQ, logic.XOR:
			if expr.LHS.Sort() != logic.BoolSort {
				return z.LitNull, fmt.Errorf("%s: %w", expr, ErrNotPropositional)
			}
			args, err := s.lits([]logic.Expr{expr.LHS, expr.RHS})
			if err != nil {
				return z.LitNull, err
			}
			lit = s.c.Xor(args[0], args[1])
			if expr.Op == logic.EQ {
				lit = lit.Not()
			}
		default:
			return z.LitNull, fmt.Errorf("%s: %w", expr, ErrNotPropositional)
		}

	case *logic.IteExpr:
		args, err := s.lits([]logic.Expr{expr.Cond, expr.Then, expr.Else})
		if err != nil {
			return z.LitNull, err
		}
		lit = s.c.Choice(args[0], args[1], args[2])

	default:
		return z.LitNull, fmt.Errorf("%s: %w", expr, ErrNotPropositional)
	}

	s.nodes[expr] = lit
	return lit, nil
}

func (s *Solver) lits(exprs []logic.Expr) ([]z.Lit, error) {
	a := make([]z.Lit, len(exprs))
	for i, expr := range exprs {
		lit, err := s.lit(expr)
		if err != nil {
			return nil, err
		}
		a[i] = lit
	}
	return a, nil
}
