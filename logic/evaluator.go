package logic

import (
	"errors"
	"fmt"
)

// ErrUnbound is returned when an expression cannot be reduced to a
// constant because it depends on an unassigned variable.
var ErrUnbound = errors.New("expression depends on an unbound variable")

// Evaluator evaluates expressions under a partial variable assignment.
type Evaluator struct {
	m map[string]Expr // variable name to constant
}

// NewEvaluator returns a new instance of Evaluator with no bindings.
func NewEvaluator() *Evaluator {
	return &Evaluator{m: make(map[string]Expr)}
}

// SetBool binds a Bool variable.
func (e *Evaluator) SetBool(name string, v bool) {
	e.m[name] = Bool(v)
}

// SetInt binds an Int variable.
func (e *Evaluator) SetInt(name string, v int64) {
	e.m[name] = Int(v)
}

// Simplify substitutes every bound variable and folds the result.
// Unbound variables are left in place.
func (e *Evaluator) Simplify(expr Expr) Expr {
	return e.simplify(expr, make(map[Expr]Expr))
}

func (e *Evaluator) simplify(expr Expr, memo map[Expr]Expr) Expr {
	if other, ok := memo[expr]; ok {
		return other
	}

	var other Expr
	switch expr := expr.(type) {
	case *BoolConst, *IntConst:
		other = expr
	case *Var:
		other = expr
		if v, ok := e.m[expr.Name]; ok {
			assert(v.Sort() == expr.Type, "binding sort mismatch: %s: %s != %s", expr.Name, v.Sort(), expr.Type)
			other = v
		}
	case *NotExpr:
		other = Not(e.simplify(expr.X, memo))
	case *NegExpr:
		other = Neg(e.simplify(expr.X, memo))
	case *NaryExpr:
		args := make([]Expr, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = e.simplify(arg, memo)

			// Short-circuit junctions.
			if (expr.Op == AND && IsFalse(args[i])) || (expr.Op == OR && IsTrue(args[i])) {
				other = args[i]
				break
			}
		}
		if other == nil {
			switch expr.Op {
			case AND:
				other = And(args...)
			case OR:
				other = Or(args...)
			case ADD:
				other = Add(args...)
			case MUL:
				other = Mul(args...)
			default:
				panic("unreachable")
			}
		}
	case *BinaryExpr:
		lhs, rhs := e.simplify(expr.LHS, memo), e.simplify(expr.RHS, memo)
		switch expr.Op {
		case EQ:
			other = Eq(lhs, rhs)
		case XOR:
			other = Xor(lhs, rhs)
		case SUB:
			other = Sub(lhs, rhs)
		case LT:
			other = Lt(lhs, rhs)
		case LE:
			other = Le(lhs, rhs)
		default:
			panic("unreachable")
		}
	case *IteExpr:
		cond := e.simplify(expr.Cond, memo)
		if c, ok := cond.(*BoolConst); ok {
			if c.Value {
				other = e.simplify(expr.Then, memo)
			} else {
				other = e.simplify(expr.Else, memo)
			}
		} else {
			other = Ite(cond, e.simplify(expr.Then, memo), e.simplify(expr.Else, memo))
		}
	default:
		panic("unreachable")
	}

	memo[expr] = other
	return other
}

// EvalBool evaluates a Bool expression to a constant.
func (e *Evaluator) EvalBool(expr Expr) (bool, error) {
	switch v := e.Simplify(expr).(type) {
	case *BoolConst:
		return v.Value, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnbound, firstVar(v))
	}
}

// EvalInt evaluates an Int expression to a constant.
func (e *Evaluator) EvalInt(expr Expr) (int64, error) {
	switch v := e.Simplify(expr).(type) {
	case *IntConst:
		return v.Value, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnbound, firstVar(v))
	}
}

func firstVar(expr Expr) string {
	if vars := FreeVars(expr); len(vars) > 0 {
		return vars[0].Name
	}
	return expr.String()
}
