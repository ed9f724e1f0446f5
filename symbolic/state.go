// Package symbolic builds formulas relating two symbolic program states by
// one execution step, generic over the representation of integers.
package symbolic

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/logic"
)

// IntEncoding represents integers of type T as formulas.
type IntEncoding[T any] interface {
	// Name identifies the encoding in errors.
	Name() string

	// Variable returns a new symbolic integer with the given name.
	Variable(name string) T

	// Literal returns the constant v.
	Literal(v int64) T

	// Equal returns the formula "a == b".
	Equal(a, b T) logic.Expr
}

// OperatorRestriction encodes the operators of the language over T.
type OperatorRestriction[T any] interface {
	// Restrict returns a formula that holds when applying op to args yields result.
	Restrict(op wile.Op, args []T, result T) (logic.Expr, error)

	// Condition returns a formula that holds when op applied to args is
	// nonzero. The formula must not rely on constrained auxiliary
	// variables so that its negation is also meaningful.
	Condition(op wile.Op, args []T) (logic.Expr, error)
}

// Encoding is an integer representation together with its operators.
type Encoding[T any] interface {
	IntEncoding[T]
	OperatorRestriction[T]
}

// LocationName returns the name of the location variable of a state.
func LocationName(prefix string) string { return prefix + "_location" }

// ValueName returns the name of the value variable of an identifier.
func ValueName(prefix, id string) string { return prefix + "_" + id + "_value" }

// KnownName returns the name of the known flag of an identifier.
func KnownName(prefix, id string) string { return prefix + "_" + id + "_is_known" }

// Variable is the symbolic counterpart of a program variable.
type Variable[T any] struct {
	Value T
	Known logic.Expr
}

// StateVariable is a symbolic program state: a location and a value and
// known flag for every identifier.
type StateVariable[T any] struct {
	Prefix    string
	Location  T
	Variables map[string]Variable[T]

	enc IntEncoding[T]
}

// NewStateVariable returns a state whose variables are named after prefix.
func NewStateVariable[T any](prefix string, enc IntEncoding[T]) *StateVariable[T] {
	s := &StateVariable[T]{
		Prefix:    prefix,
		Location:  enc.Variable(LocationName(prefix)),
		Variables: make(map[string]Variable[T], len(wile.Identifiers)),
		enc:       enc,
	}
	for _, id := range identifiers() {
		s.Variables[id] = Variable[T]{
			Value: enc.Variable(ValueName(prefix, id)),
			Known: logic.NewVar(KnownName(prefix, id), logic.BoolSort),
		}
	}
	return s
}

// Get returns the symbolic variable for arg. Literals are always known.
func (s *StateVariable[T]) Get(arg wile.Arg) (Variable[T], error) {
	if !arg.IsVar() {
		return Variable[T]{Value: s.enc.Literal(arg.Value), Known: logic.True}, nil
	}
	v, ok := s.Variables[arg.Name]
	if !ok {
		return Variable[T]{}, &InvalidIdentifierError{Name: arg.Name}
	}
	return v, nil
}

// AtLocation returns the formula "location == loc".
func (s *StateVariable[T]) AtLocation(loc int) logic.Expr {
	return s.enc.Equal(s.Location, s.enc.Literal(int64(loc)))
}

// VariablesEqual returns the formula that every variable of s equals the
// same variable of other, including its known flag.
func (s *StateVariable[T]) VariablesEqual(other *StateVariable[T]) logic.Expr {
	return s.VariablesEqualExcept(other, "")
}

// VariablesEqualExcept is like VariablesEqual but leaves name unconstrained.
func (s *StateVariable[T]) VariablesEqualExcept(other *StateVariable[T], name string) logic.Expr {
	conds := make([]logic.Expr, 0, 2*len(s.Variables))
	for _, id := range identifiers() {
		if id == name {
			continue
		}
		a, b := s.Variables[id], other.Variables[id]
		conds = append(conds, s.enc.Equal(a.Value, b.Value), logic.Eq(a.Known, b.Known))
	}
	return logic.And(conds...)
}

func identifiers() []string {
	return strings.Split(wile.Identifiers, "")
}

// InvalidIdentifierError is returned when a program uses a variable name
// that symbolic states cannot represent.
type InvalidIdentifierError struct {
	Name string
}

// Error returns the error message.
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("identifier %q is not supported for model checking", e.Name)
}

// UnsupportedOperatorError is returned when an encoding has no rule for an operator.
type UnsupportedOperatorError struct {
	Encoding string
	Op       wile.Op
}

// Error returns the error message.
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("%s encoding does not support operator %s", e.Encoding, e.Op)
}
