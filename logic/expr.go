package logic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Sort is the type of a formula.
type Sort int

// Supported sorts.
const (
	BoolSort = Sort(iota + 1)
	IntSort
)

// String returns the SMT-LIB name of the sort.
func (s Sort) String() string {
	switch s {
	case BoolSort:
		return "Bool"
	case IntSort:
		return "Int"
	default:
		return fmt.Sprintf("Sort<%d>", int(s))
	}
}

// Expr represents an immutable formula node.
type Expr interface {
	// Sort returns the sort of the expression.
	Sort() Sort

	// Hash returns a structural hash. Structurally equal expressions
	// always have equal hashes.
	Hash() uint64

	String() string
	expr()
}

func (*BoolConst) expr()  {}
func (*IntConst) expr()   {}
func (*Var) expr()        {}
func (*NotExpr) expr()    {}
func (*NegExpr) expr()    {}
func (*NaryExpr) expr()   {}
func (*BinaryExpr) expr() {}
func (*IteExpr) expr()    {}

// Node kinds used for hashing and ordering.
const (
	kindBoolConst = byte(iota + 1)
	kindIntConst
	kindVar
	kindNot
	kindNeg
	kindNary
	kindBinary
	kindIte
)

// hashNode combines a node kind, an operator and child hashes.
func hashNode(kind byte, op int, children ...uint64) uint64 {
	buf := make([]byte, 0, 2+8*(len(children)+1))
	buf = append(buf, kind, byte(op))
	for _, h := range children {
		buf = binary.LittleEndian.AppendUint64(buf, h)
	}
	return xxhash.Sum64(buf)
}

// BoolConst is a boolean constant. Use True and False.
type BoolConst struct {
	Value bool
	hash  uint64
}

// Boolean constants.
var (
	True  = &BoolConst{Value: true, hash: hashNode(kindBoolConst, 1)}
	False = &BoolConst{Value: false, hash: hashNode(kindBoolConst, 0)}
)

// Bool returns the constant for v.
func Bool(v bool) Expr {
	if v {
		return True
	}
	return False
}

func (e *BoolConst) Sort() Sort   { return BoolSort }
func (e *BoolConst) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *BoolConst) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

// IntConst is an integer constant.
type IntConst struct {
	Value int64
	hash  uint64
}

// Int returns a new integer constant.
func Int(v int64) Expr {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return &IntConst{Value: v, hash: hashNode(kindIntConst, 0, xxhash.Sum64(buf[:]))}
}

func (e *IntConst) Sort() Sort   { return IntSort }
func (e *IntConst) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *IntConst) String() string {
	if e.Value < 0 {
		return "(- " + strconv.FormatUint(uint64(-e.Value), 10) + ")"
	}
	return strconv.FormatInt(e.Value, 10)
}

// Var is a named, uninterpreted constant.
type Var struct {
	Name string
	Type Sort
	hash uint64
}

// NewVar returns a variable with the given name and sort.
func NewVar(name string, sort Sort) *Var {
	return &Var{Name: name, Type: sort, hash: hashNode(kindVar, int(sort), xxhash.Sum64String(name))}
}

func (e *Var) Sort() Sort   { return e.Type }
func (e *Var) Hash() uint64 { return e.hash }

// String returns the variable name, quoted when it is not a simple SMT-LIB symbol.
func (e *Var) String() string { return QuoteSymbol(e.Name) }

var freshN uint64

// Fresh returns a variable with a name that has not been returned before.
func Fresh(prefix string, sort Sort) *Var {
	n := atomic.AddUint64(&freshN, 1)
	return NewVar(fmt.Sprintf("%s!%d", prefix, n), sort)
}

// NotExpr is a boolean negation.
type NotExpr struct {
	X    Expr
	hash uint64
}

// Not returns the negation of x.
func Not(x Expr) Expr {
	assert(x.Sort() == BoolSort, "not: expected Bool, got %s", x.Sort())
	switch x := x.(type) {
	case *BoolConst:
		return Bool(!x.Value)
	case *NotExpr:
		return x.X
	}
	return &NotExpr{X: x, hash: hashNode(kindNot, 0, x.Hash())}
}

func (e *NotExpr) Sort() Sort   { return BoolSort }
func (e *NotExpr) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *NotExpr) String() string { return "(not " + e.X.String() + ")" }

// NegExpr is an integer negation.
type NegExpr struct {
	X    Expr
	hash uint64
}

// Neg returns the negation of x.
func Neg(x Expr) Expr {
	assert(x.Sort() == IntSort, "neg: expected Int, got %s", x.Sort())
	switch x := x.(type) {
	case *IntConst:
		return Int(-x.Value)
	case *NegExpr:
		return x.X
	}
	return &NegExpr{X: x, hash: hashNode(kindNeg, 0, x.Hash())}
}

func (e *NegExpr) Sort() Sort   { return IntSort }
func (e *NegExpr) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *NegExpr) String() string { return "(- " + e.X.String() + ")" }

// NaryOp is an associative, commutative operator.
type NaryOp int

// NaryExpr operations.
const (
	AND = NaryOp(iota + 1)
	OR
	ADD
	MUL
)

var naryOps = [...]string{
	AND: "and",
	OR:  "or",
	ADD: "+",
	MUL: "*",
}

// String returns the SMT-LIB name of the operation.
func (op NaryOp) String() string {
	if op > 0 && int(op) < len(naryOps) {
		return naryOps[op]
	}
	return fmt.Sprintf("NaryOp<%d>", int(op))
}

// NaryExpr applies an associative operator to two or more arguments.
type NaryExpr struct {
	Op   NaryOp
	Args []Expr
	hash uint64
}

func newNaryExpr(op NaryOp, args []Expr) *NaryExpr {
	hashes := make([]uint64, len(args))
	for i, arg := range args {
		hashes[i] = arg.Hash()
	}
	return &NaryExpr{Op: op, Args: args, hash: hashNode(kindNary, int(op), hashes...)}
}

func (e *NaryExpr) Sort() Sort {
	if e.Op == AND || e.Op == OR {
		return BoolSort
	}
	return IntSort
}

func (e *NaryExpr) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *NaryExpr) String() string {
	var buf bytes.Buffer
	buf.WriteString("(")
	buf.WriteString(e.Op.String())
	for _, arg := range e.Args {
		buf.WriteString(" ")
		buf.WriteString(arg.String())
	}
	buf.WriteString(")")
	return buf.String()
}

// And returns the conjunction of args.
func And(args ...Expr) Expr {
	return newJunction(AND, args)
}

// Or returns the disjunction of args.
func Or(args ...Expr) Expr {
	return newJunction(OR, args)
}

// newJunction flattens nested junctions of the same kind, drops neutral
// elements and duplicates, and short-circuits on the absorbing element.
func newJunction(op NaryOp, args []Expr) Expr {
	unit, zero := True, False
	if op == OR {
		unit, zero = False, True
	}

	seen := make(map[uint64][]Expr)
	flat := make([]Expr, 0, len(args))
	var add func(arg Expr) bool
	add = func(arg Expr) bool {
		assert(arg.Sort() == BoolSort, "%s: expected Bool, got %s", op, arg.Sort())
		switch a := arg.(type) {
		case *BoolConst:
			return a != zero
		case *NaryExpr:
			if a.Op == op {
				for _, child := range a.Args {
					if !add(child) {
						return false
					}
				}
				return true
			}
		}
		for _, other := range seen[arg.Hash()] {
			if CompareExpr(arg, other) == 0 {
				return true
			}
		}
		seen[arg.Hash()] = append(seen[arg.Hash()], arg)
		flat = append(flat, arg)
		return true
	}
	for _, arg := range args {
		if !add(arg) {
			return zero
		}
	}

	switch len(flat) {
	case 0:
		return unit
	case 1:
		return flat[0]
	}
	return newNaryExpr(op, flat)
}

// Add returns the sum of args.
func Add(args ...Expr) Expr {
	var k int64
	flat := make([]Expr, 0, len(args))
	var add func(arg Expr)
	add = func(arg Expr) {
		assert(arg.Sort() == IntSort, "+: expected Int, got %s", arg.Sort())
		switch a := arg.(type) {
		case *IntConst:
			k += a.Value
			return
		case *NaryExpr:
			if a.Op == ADD {
				for _, child := range a.Args {
					add(child)
				}
				return
			}
		}
		flat = append(flat, arg)
	}
	for _, arg := range args {
		add(arg)
	}

	if k != 0 {
		flat = append([]Expr{Int(k)}, flat...)
	}
	switch len(flat) {
	case 0:
		return Int(0)
	case 1:
		return flat[0]
	}
	return newNaryExpr(ADD, flat)
}

// Mul returns the product of args.
func Mul(args ...Expr) Expr {
	k := int64(1)
	flat := make([]Expr, 0, len(args))
	var add func(arg Expr)
	add = func(arg Expr) {
		assert(arg.Sort() == IntSort, "*: expected Int, got %s", arg.Sort())
		switch a := arg.(type) {
		case *IntConst:
			k *= a.Value
			return
		case *NaryExpr:
			if a.Op == MUL {
				for _, child := range a.Args {
					add(child)
				}
				return
			}
		}
		flat = append(flat, arg)
	}
	for _, arg := range args {
		add(arg)
	}

	if k == 0 {
		return Int(0)
	} else if k != 1 {
		flat = append([]Expr{Int(k)}, flat...)
	}
	switch len(flat) {
	case 0:
		return Int(1)
	case 1:
		return flat[0]
	}
	return newNaryExpr(MUL, flat)
}

// BinaryOp is a non-associative operator over two arguments.
type BinaryOp int

// BinaryExpr operations.
const (
	EQ = BinaryOp(iota + 1)
	XOR
	SUB
	LT
	LE
)

var binaryOps = [...]string{
	EQ:  "=",
	XOR: "xor",
	SUB: "-",
	LT:  "<",
	LE:  "<=",
}

// String returns the SMT-LIB name of the operation.
func (op BinaryOp) String() string {
	if op > 0 && int(op) < len(binaryOps) {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", int(op))
}

// BinaryExpr applies an operation to two expressions.
type BinaryExpr struct {
	Op   BinaryOp
	LHS  Expr
	RHS  Expr
	hash uint64
}

func newBinaryExpr(op BinaryOp, lhs, rhs Expr) *BinaryExpr {
	return &BinaryExpr{Op: op, LHS: lhs, RHS: rhs, hash: hashNode(kindBinary, int(op), lhs.Hash(), rhs.Hash())}
}

func (e *BinaryExpr) Sort() Sort {
	if e.Op == SUB {
		return IntSort
	}
	return BoolSort
}

func (e *BinaryExpr) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Op, e.LHS, e.RHS)
}

// Eq returns the equality of lhs and rhs, which must have the same sort.
func Eq(lhs, rhs Expr) Expr {
	assert(lhs.Sort() == rhs.Sort(), "=: sort mismatch: %s != %s", lhs.Sort(), rhs.Sort())
	if CompareExpr(lhs, rhs) == 0 {
		return True
	}

	switch l := lhs.(type) {
	case *BoolConst:
		if l.Value {
			return rhs
		}
		return Not(rhs)
	case *IntConst:
		if r, ok := rhs.(*IntConst); ok {
			return Bool(l.Value == r.Value)
		}
	}
	if r, ok := rhs.(*BoolConst); ok {
		if r.Value {
			return lhs
		}
		return Not(lhs)
	}
	return newBinaryExpr(EQ, lhs, rhs)
}

// Distinct returns the disequality of lhs and rhs.
func Distinct(lhs, rhs Expr) Expr {
	return Not(Eq(lhs, rhs))
}

// Xor returns the exclusive or of two booleans.
func Xor(lhs, rhs Expr) Expr {
	assert(lhs.Sort() == BoolSort && rhs.Sort() == BoolSort, "xor: expected Bool")
	if CompareExpr(lhs, rhs) == 0 {
		return False
	}
	if l, ok := lhs.(*BoolConst); ok {
		if l.Value {
			return Not(rhs)
		}
		return rhs
	}
	if r, ok := rhs.(*BoolConst); ok {
		if r.Value {
			return Not(lhs)
		}
		return lhs
	}
	return newBinaryExpr(XOR, lhs, rhs)
}

// Sub returns the difference of lhs and rhs.
func Sub(lhs, rhs Expr) Expr {
	assert(lhs.Sort() == IntSort && rhs.Sort() == IntSort, "-: expected Int")
	if CompareExpr(lhs, rhs) == 0 {
		return Int(0)
	}
	if r, ok := rhs.(*IntConst); ok {
		if r.Value == 0 {
			return lhs
		} else if l, ok := lhs.(*IntConst); ok {
			return Int(l.Value - r.Value)
		}
	}
	return newBinaryExpr(SUB, lhs, rhs)
}

// Lt returns lhs < rhs.
func Lt(lhs, rhs Expr) Expr {
	assert(lhs.Sort() == IntSort && rhs.Sort() == IntSort, "<: expected Int")
	if CompareExpr(lhs, rhs) == 0 {
		return False
	}
	if l, ok := lhs.(*IntConst); ok {
		if r, ok := rhs.(*IntConst); ok {
			return Bool(l.Value < r.Value)
		}
	}
	return newBinaryExpr(LT, lhs, rhs)
}

// Le returns lhs <= rhs.
func Le(lhs, rhs Expr) Expr {
	assert(lhs.Sort() == IntSort && rhs.Sort() == IntSort, "<=: expected Int")
	if CompareExpr(lhs, rhs) == 0 {
		return True
	}
	if l, ok := lhs.(*IntConst); ok {
		if r, ok := rhs.(*IntConst); ok {
			return Bool(l.Value <= r.Value)
		}
	}
	return newBinaryExpr(LE, lhs, rhs)
}

// Gt returns lhs > rhs.
func Gt(lhs, rhs Expr) Expr { return Lt(rhs, lhs) }

// Ge returns lhs >= rhs.
func Ge(lhs, rhs Expr) Expr { return Le(rhs, lhs) }

// IteExpr is an if-then-else over any sort.
type IteExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	hash uint64
}

// Ite returns "if cond then t else e".
func Ite(cond, t, e Expr) Expr {
	assert(cond.Sort() == BoolSort, "ite: condition must be Bool, got %s", cond.Sort())
	assert(t.Sort() == e.Sort(), "ite: branch sort mismatch: %s != %s", t.Sort(), e.Sort())
	if c, ok := cond.(*BoolConst); ok {
		if c.Value {
			return t
		}
		return e
	}
	if CompareExpr(t, e) == 0 {
		return t
	}
	return &IteExpr{Cond: cond, Then: t, Else: e, hash: hashNode(kindIte, 0, cond.Hash(), t.Hash(), e.Hash())}
}

func (e *IteExpr) Sort() Sort   { return e.Then.Sort() }
func (e *IteExpr) Hash() uint64 { return e.hash }

// String returns the string representation of the expression.
func (e *IteExpr) String() string {
	return fmt.Sprintf("(ite %s %s %s)", e.Cond, e.Then, e.Else)
}

// IsTrue returns true if expr is the constant true.
func IsTrue(expr Expr) bool {
	c, ok := expr.(*BoolConst)
	return ok && c.Value
}

// IsFalse returns true if expr is the constant false.
func IsFalse(expr Expr) bool {
	c, ok := expr.(*BoolConst)
	return ok && !c.Value
}

// QuoteSymbol returns name as an SMT-LIB symbol, using |...| quoting
// when name is not a simple symbol.
func QuoteSymbol(name string) string {
	if isSimpleSymbol(name) {
		return name
	}
	return "|" + strings.ReplaceAll(name, "|", "_") + "|"
}

func isSimpleSymbol(name string) bool {
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return false
	}
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case strings.ContainsRune("~!@$%^&*_-+=<>.?/", ch):
		default:
			return false
		}
	}
	return true
}

// CompareExpr returns an integer comparing two expressions.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func CompareExpr(a, b Expr) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}
	if a == b {
		return 0
	}

	if ak, bk := exprKind(a), exprKind(b); ak < bk {
		return -1
	} else if ak > bk {
		return 1
	}
	if ah, bh := a.Hash(), b.Hash(); ah < bh {
		return -1
	} else if ah > bh {
		return 1
	}

	switch a := a.(type) {
	case *BoolConst:
		return compareBool(a.Value, b.(*BoolConst).Value)
	case *IntConst:
		return compareInt(a.Value, b.(*IntConst).Value)
	case *Var:
		b := b.(*Var)
		if cmp := compareInt(int64(a.Type), int64(b.Type)); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.Name, b.Name)
	case *NotExpr:
		return CompareExpr(a.X, b.(*NotExpr).X)
	case *NegExpr:
		return CompareExpr(a.X, b.(*NegExpr).X)
	case *NaryExpr:
		return compareNaryExpr(a, b.(*NaryExpr))
	case *BinaryExpr:
		return compareBinaryExpr(a, b.(*BinaryExpr))
	case *IteExpr:
		b := b.(*IteExpr)
		if cmp := CompareExpr(a.Cond, b.Cond); cmp != 0 {
			return cmp
		} else if cmp := CompareExpr(a.Then, b.Then); cmp != 0 {
			return cmp
		}
		return CompareExpr(a.Else, b.Else)
	default:
		panic("unreachable")
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	} else if !a {
		return -1
	}
	return 1
}

func compareInt(a, b int64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func compareNaryExpr(a, b *NaryExpr) int {
	if cmp := compareInt(int64(a.Op), int64(b.Op)); cmp != 0 {
		return cmp
	}
	if cmp := compareInt(int64(len(a.Args)), int64(len(b.Args))); cmp != 0 {
		return cmp
	}
	for i := range a.Args {
		if cmp := CompareExpr(a.Args[i], b.Args[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func compareBinaryExpr(a, b *BinaryExpr) int {
	if cmp := compareInt(int64(a.Op), int64(b.Op)); cmp != 0 {
		return cmp
	}
	if cmp := CompareExpr(a.LHS, b.LHS); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.RHS, b.RHS)
}

// exprKind returns a numeric value for the type of expression.
// Only used internally for equality checks and sorting.
func exprKind(expr Expr) byte {
	switch expr.(type) {
	case *BoolConst:
		return kindBoolConst
	case *IntConst:
		return kindIntConst
	case *Var:
		return kindVar
	case *NotExpr:
		return kindNot
	case *NegExpr:
		return kindNeg
	case *NaryExpr:
		return kindNary
	case *BinaryExpr:
		return kindBinary
	case *IteExpr:
		return kindIte
	default:
		panic("unreachable")
	}
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
