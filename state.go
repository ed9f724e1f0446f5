package wile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Value is a variable value in an explicit state: either a known integer
// or unknown.
type Value struct {
	v     int64
	known bool
}

// Unknown is the value of a variable with no determined value.
var Unknown = Value{}

// Known returns a determined value.
func Known(v int64) Value { return Value{v: v, known: true} }

// IsKnown returns true if the value is determined.
func (v Value) IsKnown() bool { return v.known }

// Int returns the determined value. Panics if the value is unknown.
func (v Value) Int() int64 {
	assert(v.known, "value is unknown")
	return v.v
}

// String returns the integer, or "None" when unknown.
func (v Value) String() string {
	if !v.known {
		return "None"
	}
	return strconv.FormatInt(v.v, 10)
}

// Binding is a variable name and its value.
type Binding struct {
	Name  string
	Value Value
}

// SinkLocation is the location of the sink state.
const SinkLocation = -1

// SinkState is the successor of every state without a recorded transition.
var SinkState = NewState(SinkLocation)

// State is an explicit program state: a location and the values of every
// variable that is not known to be zero. States are immutable.
type State struct {
	Location int
	vars     *immutable.SortedMap // name to Value
}

// NewState returns a state at loc with every variable zero.
func NewState(loc int, bindings ...Binding) State {
	s := State{Location: loc}
	for _, b := range bindings {
		s = s.With(b.Name, b.Value)
	}
	return s
}

// At returns a copy of s at a new location.
func (s State) At(loc int) State {
	s.Location = loc
	return s
}

// With returns a copy of s with name bound to v.
func (s State) With(name string, v Value) State {
	vars := s.vars
	if vars == nil {
		vars = immutable.NewSortedMap(&stringComparer{})
	}
	if v.known && v.v == 0 {
		vars = vars.Delete(name)
	} else {
		vars = vars.Set(name, v)
	}
	if vars.Len() == 0 {
		vars = nil
	}
	return State{Location: s.Location, vars: vars}
}

// Get returns the value of name. Unbound variables are zero.
func (s State) Get(name string) Value {
	if s.vars != nil {
		if v, ok := s.vars.Get(name); ok {
			return v.(Value)
		}
	}
	return Known(0)
}

// Bindings returns the non-zero variables in name order.
func (s State) Bindings() []Binding {
	if s.vars == nil {
		return nil
	}
	a := make([]Binding, 0, s.vars.Len())
	itr := s.vars.Iterator()
	for {
		k, v := itr.Next()
		if k == nil {
			return a
		}
		a = append(a, Binding{Name: k.(string), Value: v.(Value)})
	}
}

// Equal returns true if both states have the same location and values.
func (s State) Equal(other State) bool {
	return s.String() == other.String()
}

// String returns the state as "<loc, a=1, x=None>".
func (s State) String() string {
	var buf bytes.Buffer
	buf.WriteString("<")
	buf.WriteString(strconv.Itoa(s.Location))
	for _, b := range s.Bindings() {
		fmt.Fprintf(&buf, ", %s=%s", b.Name, b.Value)
	}
	buf.WriteString(">")
	return buf.String()
}

// ParseState parses the output of State.String.
func ParseState(str string) (State, error) {
	str = strings.TrimSpace(str)
	if !strings.HasPrefix(str, "<") || !strings.HasSuffix(str, ">") {
		return State{}, fmt.Errorf("invalid state: %q", str)
	}

	fields := strings.Split(str[1:len(str)-1], ",")
	loc, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return State{}, fmt.Errorf("invalid state location: %q", str)
	}

	s := NewState(loc)
	for _, field := range fields[1:] {
		if field = strings.TrimSpace(field); field == "" {
			continue
		}
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return State{}, fmt.Errorf("invalid state binding: %q", field)
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if value == "None" {
			s = s.With(name, Unknown)
			continue
		}
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return State{}, fmt.Errorf("invalid state value: %q", field)
		}
		s = s.With(name, Known(v))
	}
	return s, nil
}

// MustParseState is like ParseState but panics on error.
func MustParseState(str string) State {
	s, err := ParseState(str)
	if err != nil {
		panic(err)
	}
	return s
}

// stringComparer compares two strings. Implements immutable.Comparer.
type stringComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a string.
func (c *stringComparer) Compare(a, b interface{}) int {
	return strings.Compare(a.(string), b.(string))
}
