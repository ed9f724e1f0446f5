package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benbjohnson/wile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (m *Main) newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Interpret a program, reading INPUT values from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			itp := wile.NewInterpreter(m.Stdin, m.Stdout)
			itp.Logger = m.Logger
			env, err := itp.Run(wile.NewCompiler(f))
			if err != nil {
				return err
			}
			m.Logger.Info("finished", zap.Any("env", env))
			return nil
		},
	}
}

func (m *Main) newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [FILE]",
		Short: "Compile and run program lines as they are typed; EXIT ends the program",
		Long: `
Shell reads a program line by line and executes each instruction as soon as
no IF or WHILE block is open. INPUT values are read from the same stream.
A line containing only EXIT ends the program. If FILE is given the program
is read from it instead and only INPUT values come from stdin.
`[1:],
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdin := bufio.NewReader(m.Stdin)

			var src io.Reader = &exitReader{r: stdin}
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = &exitReader{r: bufio.NewReader(f)}
			}

			itp := wile.NewInterpreter(stdin, m.Stdout)
			itp.Logger = m.Logger
			env, err := itp.Run(wile.NewCompiler(src))
			if err != nil {
				return err
			}
			for _, id := range wile.Identifiers {
				if v, ok := env[string(id)]; ok {
					m.Logger.Debug("variable", zap.String("name", string(id)), zap.Int64("value", v))
				}
			}
			fmt.Fprintln(m.Stdout, "Bye.")
			return nil
		},
	}
}

// exitReader returns at most one line per Read and reports io.EOF once a
// line reading EXIT is seen, so a compiler reading from it never consumes
// lines meant for INPUT.
type exitReader struct {
	r       *bufio.Reader
	pending []byte
	done    bool
}

func (r *exitReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}

		line, err := r.r.ReadString('\n')
		if strings.TrimSpace(line) == "EXIT" {
			r.done = true
			return 0, io.EOF
		} else if line == "" {
			return 0, err
		}
		r.pending = []byte(line)
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
