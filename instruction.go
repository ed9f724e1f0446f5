package wile

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Arg is an instruction operand: either a variable name or an integer literal.
type Arg struct {
	Name  string // empty for literals
	Value int64
}

// Lit returns a literal operand.
func Lit(v int64) Arg { return Arg{Value: v} }

// Ref returns a variable operand.
func Ref(name string) Arg { return Arg{Name: name} }

// IsVar returns true if the operand names a variable.
func (a Arg) IsVar() bool { return a.Name != "" }

// String returns the source form of the operand.
func (a Arg) String() string {
	if a.IsVar() {
		return a.Name
	}
	return strconv.FormatInt(a.Value, 10)
}

// Instruction represents a single compiled instruction.
type Instruction interface {
	fmt.Stringer
	instruction()
}

func (*AssignOp) instruction()     {}
func (*BranchIfZero) instruction() {}
func (*Jump) instruction()         {}
func (*Input) instruction()        {}
func (*Output) instruction()       {}

// AssignOp stores the result of applying Op to Args in Target.
type AssignOp struct {
	Target string
	Op     Op
	Args   []Arg
}

// String returns the source form of the instruction.
func (i *AssignOp) String() string {
	return i.Target + " := " + formatApply(i.Op, i.Args)
}

// BranchIfZero evaluates Op over Args and jumps by Distance when the
// result is zero. Otherwise it falls through.
type BranchIfZero struct {
	Op       Op
	Args     []Arg
	Distance int
}

// String returns a readable form of the instruction.
func (i *BranchIfZero) String() string {
	return fmt.Sprintf("IF NOT %s JUMP %+d", formatApply(i.Op, i.Args), i.Distance)
}

// Jump moves the instruction pointer by Distance.
type Jump struct {
	Distance int
}

// String returns a readable form of the instruction.
func (i *Jump) String() string {
	return fmt.Sprintf("JUMP %+d", i.Distance)
}

// Input reads a value from the user into Target.
type Input struct {
	Target string
}

// String returns the source form of the instruction.
func (i *Input) String() string { return "INPUT " + i.Target }

// Output writes the value of Arg.
type Output struct {
	Arg Arg
}

// String returns the source form of the instruction.
func (i *Output) String() string { return "OUTPUT " + i.Arg.String() }

// formatApply returns the source form of an operator application.
func formatApply(op Op, args []Arg) string {
	if op == OpID && len(args) == 1 {
		return args[0].String()
	}
	if op.Fixity() == Infix && len(args) == 2 {
		return args[0].String() + " " + op.String() + " " + args[1].String()
	}

	a := make([]string, 0, len(args)+1)
	a = append(a, op.String())
	for _, arg := range args {
		a = append(a, arg.String())
	}
	return strings.Join(a, " ")
}

// Program is a fully compiled instruction sequence.
type Program []Instruction

// Validate returns an error if any jump leaves the range [0, len(p)].
func (p Program) Validate() error {
	for i, inst := range p {
		var d int
		switch inst := inst.(type) {
		case *BranchIfZero:
			d = inst.Distance
		case *Jump:
			d = inst.Distance
		default:
			continue
		}
		if t := i + d; t < 0 || t > len(p) {
			return fmt.Errorf("instruction %d jumps out of range: %s", i, inst)
		}
	}
	return nil
}

// Source returns an instruction source that yields each instruction in order.
func (p Program) Source() InstructionSource {
	return &programSource{program: p}
}

// String returns a numbered listing of the program.
func (p Program) String() string {
	var buf bytes.Buffer
	for i, inst := range p {
		fmt.Fprintf(&buf, "%3d  %s\n", i, inst)
	}
	return buf.String()
}

// InstructionSource is a one-pass stream of instructions.
// Next returns io.EOF after the last instruction.
type InstructionSource interface {
	Next() (Instruction, error)
}

type programSource struct {
	program Program
	i       int
}

func (s *programSource) Next() (Instruction, error) {
	if s.i >= len(s.program) {
		return nil, io.EOF
	}
	inst := s.program[s.i]
	s.i++
	return inst, nil
}
