package main

import (
	"fmt"

	"github.com/benbjohnson/wile"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (m *Main) newCompileCommand() *cobra.Command {
	var dump, decompile bool

	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Print the compiled instructions of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProgram(args[0])
			if err != nil {
				return err
			}
			m.Logger.Debug("compiled", zap.String("path", args[0]), zap.Int("n", len(p)))

			switch {
			case dump:
				dumpConfig.Fdump(m.Stdout, p)
			case decompile:
				src, err := wile.Decompile(p)
				if err != nil {
					return err
				}
				fmt.Fprint(m.Stdout, src)
			default:
				fmt.Fprint(m.Stdout, p.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump instruction structures")
	cmd.Flags().BoolVar(&decompile, "decompile", false, "print structured source recovered from the instructions")
	return cmd
}

// dumpConfig prints instruction structures rather than their listing form.
var dumpConfig = &spew.ConfigState{Indent: " ", DisableMethods: true, DisablePointerAddresses: true}
