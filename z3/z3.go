//go:build z3

package z3

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/benbjohnson/wile/logic"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
#include <stdio.h>
*/
import "C"

var (
	ErrSolverTimeout       = errors.New("Solver timeout")
	ErrSolverCanceled      = errors.New("Solver canceled")
	ErrSolverResourceLimit = errors.New("Solver resource limit")
	ErrSolverUnknown       = errors.New("Solver unknown error")
)

// Solver represents a solver that uses an embedded Z3 solver.
type Solver struct {
	ctx   *Context
	stats Stats
}

// NewSolver returns a new instance of Solver.
func NewSolver() *Solver {
	return &Solver{
		ctx: NewContext(),
	}
}

// Close deletes the underlying Z3 context.
func (s *Solver) Close() error {
	return s.ctx.Close()
}

// Stats returns statistics for the solver.
func (s *Solver) Stats() Stats {
	return s.stats
}

// Solve reports whether the conjunction of constraints is satisfiable.
// Returns the values of the requested Int and Bool variables on success.
func (s *Solver) Solve(constraints []logic.Expr, vars []*logic.Var) (satisfiable bool, values map[string]int64, err error) {
	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	solver := C.Z3_mk_solver(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_solver"); err != nil {
		return false, nil, err
	}
	C.Z3_solver_inc_ref(s.ctx.raw, solver)
	defer C.Z3_solver_dec_ref(s.ctx.raw, solver)

	for _, constraint := range constraints {
		ast, err := s.ctx.toAST(constraint)
		if err != nil {
			return false, nil, err
		}
		C.Z3_solver_assert(s.ctx.raw, solver, ast)
		if err := s.ctx.err("Z3_solver_assert"); err != nil {
			return false, nil, err
		}
	}

	ret := C.Z3_solver_check(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_check"); err != nil {
		return false, nil, err
	} else if ret == C.Z3_L_FALSE {
		return false, nil, nil
	} else if ret == C.Z3_L_UNDEF {
		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.ctx.raw, solver))
		switch {
		case strings.Contains(reason, "timeout"):
			return false, nil, ErrSolverTimeout
		case strings.Contains(reason, "canceled"):
			return false, nil, ErrSolverCanceled
		case strings.Contains(reason, "(resource limits reached)"):
			return false, nil, ErrSolverResourceLimit
		case strings.Contains(reason, "unknown"):
			return false, nil, ErrSolverUnknown
		default:
			return false, nil, fmt.Errorf("z3: %s", reason)
		}
	} else if len(vars) == 0 {
		return true, nil, nil
	}

	model := C.Z3_solver_get_model(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_get_model"); err != nil {
		return true, nil, err
	}
	C.Z3_model_inc_ref(s.ctx.raw, model)
	defer C.Z3_model_dec_ref(s.ctx.raw, model)

	if values, err = s.ctx.eval(model, vars); err != nil {
		return true, nil, err
	}
	return true, values, nil
}

// Benchmark returns expr as an SMT-LIB2 benchmark named name.
func (s *Solver) Benchmark(name string, expr logic.Expr) (string, error) {
	ast, err := s.ctx.toAST(expr)
	if err != nil {
		return "", err
	}

	cname, clogic, cstatus, cattr := C.CString(name), C.CString("ALL"), C.CString("unknown"), C.CString("")
	defer C.free(unsafe.Pointer(cname))
	defer C.free(unsafe.Pointer(clogic))
	defer C.free(unsafe.Pointer(cstatus))
	defer C.free(unsafe.Pointer(cattr))

	str := C.Z3_benchmark_to_smtlib_string(s.ctx.raw, cname, clogic, cstatus, cattr, 0, nil, ast)
	if err := s.ctx.err("Z3_benchmark_to_smtlib_string"); err != nil {
		return "", err
	}
	return C.GoString(str), nil
}

// Context represents a Z3 context object that is used for constructing expressions.
type Context struct {
	raw  C.Z3_context
	memo map[logic.Expr]C.Z3_ast
}

// NewContext returns a new instance of Context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw, memo: make(map[logic.Expr]C.Z3_ast)}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return nil
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// toAST returns the Z3 term for expr. Shared subterms are translated once.
func (ctx *Context) toAST(expr logic.Expr) (C.Z3_ast, error) {
	if ast, ok := ctx.memo[expr]; ok {
		return ast, nil
	}

	var ast C.Z3_ast
	var err error
	switch expr := expr.(type) {
	case *logic.BoolConst:
		if expr.Value {
			ast, err = C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
		} else {
			ast, err = C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
		}
	case *logic.IntConst:
		ast, err = C.Z3_mk_int64(ctx.raw, C.int64_t(expr.Value), C.Z3_mk_int_sort(ctx.raw)), ctx.err("Z3_mk_int64")
	case *logic.Var:
		ast, err = ctx.makeConst(expr)
	case *logic.NotExpr:
		ast, err = ctx.toUnaryAST(expr.X, func(x C.Z3_ast) C.Z3_ast { return C.Z3_mk_not(ctx.raw, x) }, "Z3_mk_not")
	case *logic.NegExpr:
		ast, err = ctx.toUnaryAST(expr.X, func(x C.Z3_ast) C.Z3_ast { return C.Z3_mk_unary_minus(ctx.raw, x) }, "Z3_mk_unary_minus")
	case *logic.NaryExpr:
		ast, err = ctx.toNaryAST(expr)
	case *logic.BinaryExpr:
		ast, err = ctx.toBinaryAST(expr)
	case *logic.IteExpr:
		ast, err = ctx.toIteAST(expr)
	default:
		return nil, fmt.Errorf("z3.Context.toAST: invalid expression type: %T", expr)
	}
	if err != nil {
		return nil, err
	}

	ctx.memo[expr] = ast
	return ast, nil
}

func (ctx *Context) toUnaryAST(x logic.Expr, fn func(C.Z3_ast) C.Z3_ast, op string) (C.Z3_ast, error) {
	src, err := ctx.toAST(x)
	if err != nil {
		return nil, err
	}
	return fn(src), ctx.err(op)
}

func (ctx *Context) toNaryAST(expr *logic.NaryExpr) (C.Z3_ast, error) {
	args := make([]C.Z3_ast, len(expr.Args))
	for i, arg := range expr.Args {
		ast, err := ctx.toAST(arg)
		if err != nil {
			return nil, err
		}
		args[i] = ast
	}

	n := C.uint(len(args))
	switch expr.Op {
	case logic.AND:
		return C.Z3_mk_and(ctx.raw, n, &args[0]), ctx.err("Z3_mk_and")
	case logic.OR:
		return C.Z3_mk_or(ctx.raw, n, &args[0]), ctx.err("Z3_mk_or")
	case logic.ADD:
		return C.Z3_mk_add(ctx.raw, n, &args[0]), ctx.err("Z3_mk_add")
	case logic.MUL:
		return C.Z3_mk_mul(ctx.raw, n, &args[0]), ctx.err("Z3_mk_mul")
	default:
		return nil, fmt.Errorf("z3.Context.toNaryAST: unexpected operation: %s", expr.Op)
	}
}

func (ctx *Context) toBinaryAST(expr *logic.BinaryExpr) (C.Z3_ast, error) {
	lhs, err := ctx.toAST(expr.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := ctx.toAST(expr.RHS)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case logic.EQ:
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	case logic.XOR:
		return C.Z3_mk_xor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_xor")
	case logic.SUB:
		args := []C.Z3_ast{lhs, rhs}
		return C.Z3_mk_sub(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_sub")
	case logic.LT:
		return C.Z3_mk_lt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_lt")
	case logic.LE:
		return C.Z3_mk_le(ctx.raw, lhs, rhs), ctx.err("Z3_mk_le")
	default:
		return nil, fmt.Errorf("z3.Context.toBinaryAST: unexpected operation: %s", expr.Op)
	}
}

func (ctx *Context) toIteAST(expr *logic.IteExpr) (C.Z3_ast, error) {
	cond, err := ctx.toAST(expr.Cond)
	if err != nil {
		return nil, err
	}
	then, err := ctx.toAST(expr.Then)
	if err != nil {
		return nil, err
	}
	els, err := ctx.toAST(expr.Else)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_ite(ctx.raw, cond, then, els), ctx.err("Z3_mk_ite")
}

func (ctx *Context) makeSort(sort logic.Sort) (C.Z3_sort, error) {
	if sort == logic.BoolSort {
		return C.Z3_mk_bool_sort(ctx.raw), ctx.err("Z3_mk_bool_sort")
	}
	return C.Z3_mk_int_sort(ctx.raw), ctx.err("Z3_mk_int_sort")
}

func (ctx *Context) makeConst(v *logic.Var) (C.Z3_ast, error) {
	sort, err := ctx.makeSort(v.Type)
	if err != nil {
		return nil, err
	}

	cname := C.CString(v.Name)
	defer C.free(unsafe.Pointer(cname))
	sym := C.Z3_mk_string_symbol(ctx.raw, cname)

	return C.Z3_mk_const(ctx.raw, sym, sort), ctx.err("Z3_mk_const")
}

// eval reads the model value of each variable. Bools are reported as 0 or 1.
func (ctx *Context) eval(model C.Z3_model, vars []*logic.Var) (map[string]int64, error) {
	values := make(map[string]int64, len(vars))
	for _, v := range vars {
		ast, err := ctx.toAST(v)
		if err != nil {
			return nil, err
		}

		var out C.Z3_ast
		C.Z3_model_eval(ctx.raw, model, ast, C.bool(true), &out)
		if err := ctx.err("Z3_model_eval"); err != nil {
			return nil, err
		}

		if v.Type == logic.BoolSort {
			if C.Z3_get_bool_value(ctx.raw, out) == C.Z3_L_TRUE {
				values[v.Name] = 1
			} else {
				values[v.Name] = 0
			}
			continue
		}

		var n C.int64_t
		C.Z3_get_numeral_int64(ctx.raw, out, &n)
		if err := ctx.err("Z3_get_numeral_int64"); err != nil {
			return nil, err
		}
		values[v.Name] = int64(n)
	}
	return values, nil
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Possible error codes.
const (
	ErrorCodeOK = iota
	ErrorCodeSortError
	ErrorCodeIOB
	ErrorCodeInvalidArg
	ErrorCodeParserError
	ErrorCodeNoParser
	ErrorCodeInvalidPattern
	ErrorCodeMemoutFail
	ErrorCodeFileAccessError
	ErrorCodeInternalFatal
	ErrorCodeInvalidUsage
	ErrorCodeDecRefError
	ErrorCodeException
)

type Stats struct {
	SolveN    int
	SolveTime time.Duration
}
