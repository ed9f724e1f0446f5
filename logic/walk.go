package logic

import (
	"sort"
)

// Visitor represents a visitor that can be passed to Walk().
type Visitor interface {
	// Executed for every visited node. Children are skipped if the
	// returned visitor is nil.
	Visit(expr Expr) Visitor
}

// Walk traverses expr in depth-first order.
func Walk(v Visitor, expr Expr) {
	if v = v.Visit(expr); v == nil {
		return
	}

	switch expr := expr.(type) {
	case *BoolConst, *IntConst, *Var:
		// nop
	case *NotExpr:
		Walk(v, expr.X)
	case *NegExpr:
		Walk(v, expr.X)
	case *NaryExpr:
		for _, arg := range expr.Args {
			Walk(v, arg)
		}
	case *BinaryExpr:
		Walk(v, expr.LHS)
		Walk(v, expr.RHS)
	case *IteExpr:
		Walk(v, expr.Cond)
		Walk(v, expr.Then)
		Walk(v, expr.Else)
	default:
		panic("unreachable")
	}
}

type inspector func(Expr) bool

func (f inspector) Visit(expr Expr) Visitor {
	if f(expr) {
		return f
	}
	return nil
}

// Inspect calls fn for every node of expr. Children are skipped when fn
// returns false.
func Inspect(expr Expr, fn func(Expr) bool) {
	Walk(inspector(fn), expr)
}

// dagVisitor visits each distinct node once.
type dagVisitor struct {
	seen map[Expr]struct{}
	fn   func(Expr)
}

func (v *dagVisitor) Visit(expr Expr) Visitor {
	if _, ok := v.seen[expr]; ok {
		return nil
	}
	v.seen[expr] = struct{}{}
	if v.fn != nil {
		v.fn(expr)
	}
	return v
}

// FreeVars returns all variables in the expressions, sorted by name.
func FreeVars(exprs ...Expr) []*Var {
	m := make(map[string]*Var)
	v := &dagVisitor{seen: make(map[Expr]struct{}), fn: func(expr Expr) {
		if x, ok := expr.(*Var); ok {
			m[x.Name] = x
		}
	}}
	for _, expr := range exprs {
		Walk(v, expr)
	}

	a := make([]*Var, 0, len(m))
	for _, x := range m {
		a = append(a, x)
	}
	sort.Slice(a, func(i, j int) bool { return a[i].Name < a[j].Name })
	return a
}

// CountNodes returns the number of distinct nodes reachable from exprs.
// Shared subexpressions are counted once.
func CountNodes(exprs ...Expr) int {
	v := &dagVisitor{seen: make(map[Expr]struct{})}
	for _, expr := range exprs {
		Walk(v, expr)
	}
	return len(v.seen)
}
