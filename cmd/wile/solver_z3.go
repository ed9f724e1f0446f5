//go:build z3

package main

import (
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/z3"
)

func init() {
	decide = func(expr logic.Expr) (bool, error) {
		s := z3.NewSolver()
		defer s.Close()

		ok, _, err := s.Solve([]logic.Expr{expr}, nil)
		return ok, err
	}
}
