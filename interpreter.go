package wile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Env holds the values of the variables assigned during a run.
type Env map[string]int64

// Interpreter executes instruction streams concretely.
type Interpreter struct {
	// Input returns the user's reply to a prompt.
	Input func(prompt string) (string, error)

	// Output receives every value written by OUTPUT.
	Output func(v int64) error

	// Notice receives diagnostics such as rejected input. Optional.
	Notice func(msg string)

	Logger *zap.Logger
}

// NewInterpreter returns an interpreter prompting on w and reading replies from r.
func NewInterpreter(r io.Reader, w io.Writer) *Interpreter {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Interpreter{
		Input: func(prompt string) (string, error) {
			fmt.Fprint(w, prompt)
			line, err := br.ReadString('\n')
			if err == io.EOF && line != "" {
				err = nil
			}
			return line, err
		},
		Output: func(v int64) error {
			_, err := fmt.Fprintln(w, v)
			return err
		},
		Notice: func(msg string) { fmt.Fprintln(w, msg) },
	}
}

// execution is the state of a single run.
type execution struct {
	src    InstructionSource
	buf    []Instruction // instructions read so far
	pc     int
	env    Env
	logger *zap.Logger
}

// Run executes the instructions from src until the instruction pointer
// moves past the last instruction.
func (itp *Interpreter) Run(src InstructionSource) (Env, error) {
	x := &execution{src: src, env: make(Env), logger: itp.Logger}
	if x.logger == nil {
		x.logger = zap.NewNop()
	}

	for {
		inst, err := x.fetch()
		if err == io.EOF {
			return x.env, nil
		} else if err != nil {
			return x.env, err
		}

		x.logger.Debug("exec", zap.Int("pc", x.pc), zap.Stringer("inst", inst))
		if err := itp.executeInstruction(x, inst); err != nil {
			return x.env, err
		}
	}
}

// fetch returns the instruction at the current position, reading from
// the source as far as needed.
func (x *execution) fetch() (Instruction, error) {
	if x.pc < 0 {
		return nil, fmt.Errorf("jump to negative address %d", x.pc)
	}
	for x.pc >= len(x.buf) {
		inst, err := x.src.Next()
		if err != nil {
			return nil, err
		}
		x.buf = append(x.buf, inst)
	}
	return x.buf[x.pc], nil
}

func (x *execution) value(arg Arg) int64 {
	if arg.IsVar() {
		return x.env[arg.Name]
	}
	return arg.Value
}

func (x *execution) apply(op Op, args []Arg) (int64, error) {
	values := make([]int64, len(args))
	for i, arg := range args {
		values[i] = x.value(arg)
	}
	return op.Eval(values)
}

func (itp *Interpreter) executeInstruction(x *execution, inst Instruction) error {
	switch inst := inst.(type) {
	case *AssignOp:
		return itp.executeAssignOp(x, inst)
	case *BranchIfZero:
		return itp.executeBranchIfZero(x, inst)
	case *Jump:
		x.pc += inst.Distance
		return nil
	case *Input:
		return itp.executeInput(x, inst)
	case *Output:
		return itp.executeOutput(x, inst)
	default:
		return errors.New("illegal instruction")
	}
}

func (itp *Interpreter) executeAssignOp(x *execution, inst *AssignOp) error {
	v, err := x.apply(inst.Op, inst.Args)
	if errors.Is(err, ErrDivisionByZero) {
		return &DivisionByZeroError{Location: x.pc, Instruction: inst}
	} else if err != nil {
		return err
	}
	x.env[inst.Target] = v
	x.pc++
	return nil
}

func (itp *Interpreter) executeBranchIfZero(x *execution, inst *BranchIfZero) error {
	v, err := x.apply(inst.Op, inst.Args)
	if errors.Is(err, ErrDivisionByZero) {
		return &DivisionByZeroError{Location: x.pc, Instruction: inst}
	} else if err != nil {
		return err
	}

	if v == 0 {
		x.pc += inst.Distance
	} else {
		x.pc++
	}
	return nil
}

func (itp *Interpreter) executeInput(x *execution, inst *Input) error {
	if itp.Input == nil {
		return errors.New("no input available")
	}

	prompt := fmt.Sprintf("Please enter the value of %s: ", inst.Target)
	for {
		line, err := itp.Input(prompt)
		if err != nil {
			return err
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			x.logger.Debug("invalid input", zap.String("var", inst.Target), zap.String("line", line))
			if itp.Notice != nil {
				itp.Notice("Invalid input.")
			}
			continue
		}
		x.env[inst.Target] = v
		x.pc++
		return nil
	}
}

func (itp *Interpreter) executeOutput(x *execution, inst *Output) error {
	if itp.Output != nil {
		if err := itp.Output(x.value(inst.Arg)); err != nil {
			return err
		}
	}
	x.pc++
	return nil
}
