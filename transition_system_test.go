package wile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/benbjohnson/wile"
	"github.com/google/go-cmp/cmp"
)

func TestState(t *testing.T) {
	t.Run("ZeroOmitted", func(t *testing.T) {
		s := wile.NewState(3).With("x", wile.Known(0)).With("y", wile.Known(2))
		if got, exp := s.String(), "<3, y=2>"; got != exp {
			t.Fatalf("String()=%s, expected %s", got, exp)
		}
		if !s.Equal(wile.NewState(3, wile.Binding{Name: "y", Value: wile.Known(2)})) {
			t.Fatal("expected equal states")
		}
		if v := s.Get("x"); !v.IsKnown() || v.Int() != 0 {
			t.Fatalf("unexpected value: %s", v)
		}
	})

	t.Run("Immutable", func(t *testing.T) {
		a := wile.NewState(0).With("x", wile.Known(1))
		b := a.With("x", wile.Unknown).At(4)
		if got, exp := a.String(), "<0, x=1>"; got != exp {
			t.Fatalf("String()=%s, expected %s", got, exp)
		} else if got, exp := b.String(), "<4, x=None>"; got != exp {
			t.Fatalf("String()=%s, expected %s", got, exp)
		}
	})

	t.Run("Parse", func(t *testing.T) {
		for _, str := range []string{"<0>", "<-1>", "<1, y=1>", "<2, a=-5, b=None, c=7>"} {
			s, err := wile.ParseState(str)
			if err != nil {
				t.Fatal(err)
			} else if got := s.String(); got != str {
				t.Fatalf("String()=%s, expected %s", got, str)
			}
		}
		if s := wile.MustParseState("<0, >"); !s.Equal(wile.NewState(0)) {
			t.Fatalf("unexpected state: %s", s)
		}
		if s := wile.MustParseState("<2, y=1, x=None>"); s.String() != "<2, x=None, y=1>" {
			t.Fatalf("unexpected state: %s", s)
		}
		for _, str := range []string{"", "<>", "<x>", "<1, y>", "<1, y=z>", "1, y=2"} {
			if _, err := wile.ParseState(str); err == nil {
				t.Fatalf("%q: expected error", str)
			}
		}
	})
}

func TestStep(t *testing.T) {
	p := MustCompile(t, "INPUT x\nIF x < 0 THEN\nOUTPUT x\nEND IF\ny := x + 1\n")

	t.Run("Input", func(t *testing.T) {
		succ, err := wile.Step(p, wile.MustParseState("<0, x=4>"))
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff([]string{"<1, x=None>"}, stateStrings(succ)); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("UnknownBranch", func(t *testing.T) {
		succ, err := wile.Step(p, wile.MustParseState("<1, x=None>"))
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff([]string{"<2, x=None>", "<3, x=None>"}, stateStrings(succ)); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("KnownBranch", func(t *testing.T) {
		for str, exp := range map[string]string{"<1, x=-2>": "<2, x=-2>", "<1, x=2>": "<3, x=2>", "<1>": "<3>"} {
			succ, err := wile.Step(p, wile.MustParseState(str))
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff([]string{exp}, stateStrings(succ)); diff != "" {
				t.Fatalf("%s: %s", str, diff)
			}
		}
	})

	t.Run("UnknownPropagates", func(t *testing.T) {
		succ, err := wile.Step(p, wile.MustParseState("<3, x=None, y=5>"))
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff([]string{"<4, x=None, y=None>"}, stateStrings(succ)); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Halted", func(t *testing.T) {
		if succ, err := wile.Step(p, wile.MustParseState("<4, y=1>")); err != nil {
			t.Fatal(err)
		} else if len(succ) != 0 {
			t.Fatalf("unexpected successors: %v", succ)
		}
		if succ, _ := wile.Step(p, wile.SinkState); len(succ) != 0 {
			t.Fatalf("unexpected successors: %v", succ)
		}
	})

	t.Run("DivisionByZero", func(t *testing.T) {
		_, err := wile.Step(MustCompile(t, "x := 1 % y"), wile.NewState(0))
		if !errors.Is(err, wile.ErrDivisionByZero) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestUnroll(t *testing.T) {
	for _, name := range []string{"branch", "loop"} {
		t.Run(name, func(t *testing.T) {
			f := MustReadFixture(t, name)
			ts, err := wile.Unroll(MustCompile(t, f.Program), f.Depth)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(ParseTransitions(t, f.Files["transitions"]), ts.Map()); diff != "" {
				t.Fatalf("%s\n%s", diff, ts)
			}
		})
	}

	t.Run("Sink", func(t *testing.T) {
		ts, err := wile.Unroll(MustCompile(t, MustReadFixture(t, "branch").Program), 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, str := range []string{"<7, y=1, x=-1>", "<3, y=2>"} {
			if diff := cmp.Diff([]string{"<-1>"}, stateStrings(ts.Successors(wile.MustParseState(str)))); diff != "" {
				t.Fatalf("%s: %s", str, diff)
			}
		}
	})

	t.Run("DepthBound", func(t *testing.T) {
		ts, err := wile.Unroll(MustCompile(t, "WHILE TRUE DO\nx := x + 1\nEND WHILE\n"), 7)
		if err != nil {
			t.Fatal(err)
		}

		// Every state of the infinite loop is distinct, so each layer adds one.
		if got, exp := ts.Len(), 7; got != exp {
			t.Fatalf("Len()=%d, expected %d\n%s", got, exp, ts)
		}
		if got, exp := ts.States()[6].String(), "<0, x=2>"; got != exp {
			t.Fatalf("last state=%s, expected %s", got, exp)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		// A program without input follows a single path to the interpreter's result.
		f := MustReadFixture(t, "nested")
		ts, err := wile.Unroll(MustCompile(t, f.Program), f.Depth)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range ts.States() {
			if n := len(ts.Successors(s)); n != 1 {
				t.Fatalf("%s has %d successors", s, n)
			}
		}

		states := ts.States()
		last := ts.Successors(states[len(states)-1])[0]
		if got, exp := last.String(), "<13, e=3, i=5, n=5, o=2>"; got != exp {
			t.Fatalf("final state=%s, expected %s", got, exp)
		}
	})
}

// ParseTransitions parses "state -> succ | succ" lines into normalized form.
func ParseTransitions(tb testing.TB, s string) map[string][]string {
	tb.Helper()
	m := make(map[string][]string)
	for _, line := range Lines(s) {
		lhs, rhs, ok := strings.Cut(line, "->")
		if !ok {
			tb.Fatalf("invalid transition: %q", line)
		}
		var succ []string
		for _, str := range strings.Split(rhs, "|") {
			succ = append(succ, wile.MustParseState(str).String())
		}
		m[wile.MustParseState(lhs).String()] = succ
	}
	return m
}

func stateStrings(a []wile.State) []string {
	other := make([]string, len(a))
	for i := range a {
		other[i] = a[i].String()
	}
	return other
}
