package main

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/wile"
	"github.com/spf13/cobra"
)

func (m *Main) newUnrollCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "unroll FILE",
		Short: "Print the explicit transition system reachable within a depth",
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
			printTransitionSystem(m, ts)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 10, "number of layers to expand")
	return cmd
}

// printTransitionSystem writes one line per expanded state followed by a
// line for every reached state that leads only to the sink.
func printTransitionSystem(m *Main, ts *wile.TransitionSystem) {
	var leaves []wile.State
	seen := make(map[string]bool)
	for _, s := range ts.States() {
		succ := ts.Successors(s)
		a := make([]string, len(succ))
		for i := range succ {
			a[i] = formatState(succ[i])

			if !ts.Has(succ[i]) && !seen[succ[i].String()] {
				seen[succ[i].String()] = true
				leaves = append(leaves, succ[i])
			}
		}
		fmt.Fprintf(m.Stdout, "%s -> %s\n", s, strings.Join(a, " | "))
	}

	for _, s := range leaves {
		fmt.Fprintf(m.Stdout, "%s -> %s\n", s, formatState(wile.SinkState))
	}
	fmt.Fprintf(m.Stdout, "%d states expanded at depth %d\n", ts.Len(), ts.Depth)
}
