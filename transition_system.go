package wile

import (
	"bytes"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Step returns the successors of s: none when s is past the end of the
// program, two when a branch depends on an unknown value, otherwise one.
func Step(p Program, s State) ([]State, error) {
	loc := s.Location
	if loc < 0 || loc >= len(p) {
		return nil, nil
	}

	switch inst := p[loc].(type) {
	case *AssignOp:
		v, err := applyValues(inst.Op, inst.Args, s)
		if errors.Is(err, ErrDivisionByZero) {
			return nil, &DivisionByZeroError{Location: loc, Instruction: inst}
		} else if err != nil {
			return nil, err
		}
		return []State{s.At(loc + 1).With(inst.Target, v)}, nil

	case *BranchIfZero:
		v, err := applyValues(inst.Op, inst.Args, s)
		if errors.Is(err, ErrDivisionByZero) {
			return nil, &DivisionByZeroError{Location: loc, Instruction: inst}
		} else if err != nil {
			return nil, err
		}
		switch {
		case !v.IsKnown():
			return []State{s.At(loc + 1), s.At(loc + inst.Distance)}, nil
		case v.Int() == 0:
			return []State{s.At(loc + inst.Distance)}, nil
		default:
			return []State{s.At(loc + 1)}, nil
		}

	case *Jump:
		return []State{s.At(loc + inst.Distance)}, nil

	case *Input:
		return []State{s.At(loc + 1).With(inst.Target, Unknown)}, nil

	case *Output:
		return []State{s.At(loc + 1)}, nil

	default:
		return nil, errors.New("illegal instruction")
	}
}

// applyValues applies op to the values of args in s. The result is unknown
// if any argument is unknown.
func applyValues(op Op, args []Arg, s State) (Value, error) {
	values := make([]int64, len(args))
	for i, arg := range args {
		if !arg.IsVar() {
			values[i] = arg.Value
			continue
		}
		v := s.Get(arg.Name)
		if !v.IsKnown() {
			return Unknown, nil
		}
		values[i] = v.Int()
	}

	v, err := op.Eval(values)
	if err != nil {
		return Unknown, err
	}
	return Known(v), nil
}

// TransitionSystem is the explicit transition graph reached from the
// initial state within a bounded number of steps.
type TransitionSystem struct {
	Depth   int
	Initial State

	transitions map[string][]State
	order       []State // expanded states in insertion order
}

// Successors returns the recorded successors of s, or the sink state if
// s was never expanded or has no successors.
func (ts *TransitionSystem) Successors(s State) []State {
	if succ, ok := ts.transitions[s.String()]; ok {
		return succ
	}
	return []State{SinkState}
}

// Has returns true if s has recorded successors.
func (ts *TransitionSystem) Has(s State) bool {
	_, ok := ts.transitions[s.String()]
	return ok
}

// States returns every state with recorded successors, in expansion order.
func (ts *TransitionSystem) States() []State {
	return ts.order
}

// Len returns the number of states with recorded successors.
func (ts *TransitionSystem) Len() int { return len(ts.order) }

// Map returns the transitions keyed and valued by printed states.
func (ts *TransitionSystem) Map() map[string][]string {
	m := make(map[string][]string, len(ts.transitions))
	for k, succ := range ts.transitions {
		a := make([]string, len(succ))
		for i := range succ {
			a[i] = succ[i].String()
		}
		m[k] = a
	}
	return m
}

// String returns one "state -> succ | succ" line per expanded state.
func (ts *TransitionSystem) String() string {
	var buf bytes.Buffer
	for _, s := range ts.order {
		succ := ts.transitions[s.String()]
		a := make([]string, len(succ))
		for i := range succ {
			a[i] = succ[i].String()
		}
		buf.WriteString(s.String() + " -> " + strings.Join(a, " | ") + "\n")
	}
	return buf.String()
}

// Unroller explores a program breadth-first from its initial state.
type Unroller struct {
	Logger *zap.Logger
}

// Unroll explores p for depth layers with a default Unroller.
func Unroll(p Program, depth int) (*TransitionSystem, error) {
	var u Unroller
	return u.Unroll(p, depth)
}

// Unroll expands depth layers starting from location 0 with every variable
// zero. States already expanded are not expanded again.
func (u *Unroller) Unroll(p Program, depth int) (*TransitionSystem, error) {
	logger := u.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ts := &TransitionSystem{
		Depth:       depth,
		Initial:     NewState(0),
		transitions: make(map[string][]State),
	}

	current := []State{ts.Initial}
	for layer := 0; layer < depth && len(current) > 0; layer++ {
		var next []State
		for _, s := range current {
			if ts.Has(s) {
				continue
			}

			succ, err := Step(p, s)
			if err != nil {
				return nil, err
			} else if len(succ) == 0 {
				continue
			}

			logger.Debug("expand", zap.Int("layer", layer), zap.Stringer("state", s), zap.Int("n", len(succ)))
			ts.transitions[s.String()] = succ
			ts.order = append(ts.order, s)
			for _, other := range succ {
				if !ts.Has(other) {
					next = append(next, other)
				}
			}
		}
		current = next
	}
	return ts, nil
}
