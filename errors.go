package wile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDivisionByZero is returned when "/", "%" or "^" is applied to a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// ParseError is returned when a source line cannot be compiled.
type ParseError struct {
	LineNo int
	Line   string
	Msg    string
	Err    error
}

// Error returns the error message with line context.
func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("line %d: %s: %q", e.LineNo, msg, strings.TrimSpace(e.Line))
}

func (e *ParseError) Unwrap() error { return e.Err }

// SignatureError is returned when an operator is applied with the wrong
// number of arguments or in the wrong position.
type SignatureError struct {
	Op    Op
	NArgs int
	Infix bool
}

// Error returns the error message.
func (e *SignatureError) Error() string {
	if e.Infix != (e.Op.Fixity() == Infix) {
		if e.Infix {
			return fmt.Sprintf("operator %s cannot be used infix", e.Op)
		}
		return fmt.Sprintf("operator %s must be used infix", e.Op)
	}
	return fmt.Sprintf("operator %s expects %d arguments, got %d", e.Op, e.Op.Arity(), e.NArgs)
}

// UnclosedBlockError is returned at end of input when an IF or WHILE
// block has not been closed.
type UnclosedBlockError struct {
	Block  string
	LineNo int
	Line   string
}

// Error returns the error message.
func (e *UnclosedBlockError) Error() string {
	return fmt.Sprintf("unclosed %s block opened on line %d: %q", e.Block, e.LineNo, strings.TrimSpace(e.Line))
}

// DivisionByZeroError is returned by the interpreter and the unroller when
// an instruction divides by a concrete zero.
type DivisionByZeroError struct {
	Location    int
	Instruction Instruction
}

// Error returns the error message.
func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero at %d: %s", e.Location, e.Instruction)
}

func (e *DivisionByZeroError) Unwrap() error { return ErrDivisionByZero }
