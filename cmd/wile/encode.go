package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/benbjohnson/wile"
	"github.com/benbjohnson/wile/logic"
	"github.com/benbjohnson/wile/sat"
	"github.com/benbjohnson/wile/smt"
	"github.com/benbjohnson/wile/symbolic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// decide resolves formulas that still contain unconstrained Int terms.
// It is nil unless an SMT solver is linked in.
var decide func(expr logic.Expr) (bool, error)

// errUndecided is returned when no solver can resolve a residual formula.
var errUndecided = errors.New("undecided")

func (m *Main) newEncodeCommand() *cobra.Command {
	var encoding, smtlib string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "encode FILE",
		Short: "Print the one-step transition relation of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("encoding") {
				encoding = m.Config.Encoding
			}

			p, err := readProgram(args[0])
			if err != nil {
				return err
			}

			var expr logic.Expr
			switch encoding {
			case "smt":
				expr, err = symbolic.NewRelation[logic.Expr](p, smt.Encoding{}, smt.Encoding{}).Step(0, 1)
			case "sat":
				expr, err = symbolic.NewRelation[sat.BitVector](p, sat.Encoding{}, sat.Encoding{}).Step(0, 1)
			default:
				return fmt.Errorf("unknown encoding %q, expected smt or sat", encoding)
			}
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintln(m.Stdout, expr)
			}
			fmt.Fprintf(m.Stdout, "encoding: %s\n", encoding)
			fmt.Fprintf(m.Stdout, "nodes: %d\n", logic.CountNodes(expr))
			fmt.Fprintf(m.Stdout, "variables: %d\n", len(logic.FreeVars(expr)))

			if smtlib != "" {
				if err := writeSMTLIBFile(smtlib, expr); err != nil {
					return err
				}
				m.Logger.Info("benchmark written", zap.String("path", smtlib))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "smt", "integer encoding: smt or sat")
	cmd.Flags().StringVar(&smtlib, "smtlib", "", "write the formula as an SMT-LIB2 benchmark")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only statistics")
	return cmd
}

func writeSMTLIBFile(path string, expr logic.Expr) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := logic.WriteSMTLIB(f, expr); err != nil {
		return err
	}
	return f.Close()
}

func (m *Main) newCheckCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Cross-check both encodings against the unrolled transition system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("depth") {
				depth = m.Config.Depth
			}

			p, err := readProgram(args[0])
			if err != nil {
				return err
			}
			u := wile.Unroller{Logger: m.Logger}
			ts, err := u.Unroll(p, depth)
			if err != nil {
				return err
			}

			smtRel := symbolic.NewRelation[logic.Expr](p, smt.Encoding{}, smt.Encoding{})
			satRel := symbolic.NewRelation[sat.BitVector](p, sat.Encoding{}, sat.Encoding{})

			var mismatches int
			for _, c := range []struct {
				name   string
				admits func(a, b wile.State) (bool, error)
			}{
				{"smt", func(a, b wile.State) (bool, error) { return admitsSMT(smtRel, a, b) }},
				{"sat", func(a, b wile.State) (bool, error) { return sat.Admits(satRel, a, b) }},
			} {
				r, err := crossCheck(cmd.Context(), ts, c.admits)
				if err != nil {
					return fmt.Errorf("%s: %w", c.name, err)
				}
				fmt.Fprintf(m.Stdout, "%s: %s\n", c.name, r)
				for _, pair := range r.missed {
					m.Logger.Warn("missed transition", zap.String("encoding", c.name), zap.Stringer("from", pair[0]), zap.Stringer("to", pair[1]))
				}
				for _, pair := range r.spurious {
					m.Logger.Info("spurious transition", zap.String("encoding", c.name), zap.Stringer("from", pair[0]), zap.Stringer("to", pair[1]))
				}
				mismatches += len(r.missed)
			}

			if mismatches > 0 {
				return fmt.Errorf("%d transitions of the unrolled system were not admitted", mismatches)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 10, "number of layers to expand")
	return cmd
}

// admitsSMT evaluates the native-integer relation, deferring to an SMT
// solver when the result depends on an unconstrained term.
func admitsSMT(rel *symbolic.Relation[logic.Expr], a, b wile.State) (bool, error) {
	expr, err := smt.Residual(rel, a, b)
	if err != nil {
		return false, err
	}
	if c, ok := expr.(*logic.BoolConst); ok {
		return c.Value, nil
	} else if decide == nil {
		return false, errUndecided
	}
	return decide(expr)
}

// checkResult counts the agreement of an encoding with explicit transitions.
// Spurious admissions are expected where an operator is approximated by an
// unconstrained value; missed transitions are always errors.
type checkResult struct {
	admitted  int
	missed    [][2]wile.State
	rejected  int
	spurious  [][2]wile.State
	undecided int
}

func (r *checkResult) String() string {
	return fmt.Sprintf("%d/%d transitions admitted, %d/%d non-transitions rejected, %d undecided",
		r.admitted, r.admitted+len(r.missed), r.rejected, r.rejected+len(r.spurious), r.undecided)
}

// crossCheck compares admits with every pair of expanded states. Pairs
// whose target is the sink are skipped since no instruction produces them.
func crossCheck(ctx context.Context, ts *wile.TransitionSystem, admits func(a, b wile.State) (bool, error)) (*checkResult, error) {
	var r checkResult
	states := ts.States()
	for _, a := range states {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		succ := ts.Successors(a)
		targets := append([]wile.State{}, succ...)
		for _, b := range states {
			if !containsState(succ, b) {
				targets = append(targets, b)
			}
		}

		for _, b := range targets {
			if b.Location == wile.SinkLocation {
				continue
			}
			exp := containsState(succ, b)

			got, err := admits(a, b)
			if errors.Is(err, errUndecided) {
				r.undecided++
				continue
			} else if err != nil {
				return nil, err
			}

			switch {
			case exp && got:
				r.admitted++
			case exp:
				r.missed = append(r.missed, [2]wile.State{a, b})
			case got:
				r.spurious = append(r.spurious, [2]wile.State{a, b})
			default:
				r.rejected++
			}
		}
	}
	return &r, nil
}

func containsState(a []wile.State, s wile.State) bool {
	for _, other := range a {
		if other.Equal(s) {
			return true
		}
	}
	return false
}
