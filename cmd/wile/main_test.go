package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const branchSource = `
y := 1
INPUT x
IF x < 0 THEN
    OUTPUT x
ELSE
    x := y * -1
    OUTPUT x
END IF
`

func TestMain_Compile(t *testing.T) {
	path := MustWriteFile(t, "branch.w", branchSource)

	t.Run("Listing", func(t *testing.T) {
		out, err := RunMain(t, "", "compile", path)
		if err != nil {
			t.Fatal(err)
		}
		exp := []string{
			"0  y := 1",
			"1  INPUT x",
			"2  IF NOT x < 0 JUMP +3",
			"3  OUTPUT x",
			"4  JUMP +3",
			"5  x := y * -1",
			"6  OUTPUT x",
		}
		if diff := cmp.Diff(exp, lines(out)); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Dump", func(t *testing.T) {
		out, err := RunMain(t, "", "compile", "--dump", path)
		if err != nil {
			t.Fatal(err)
		} else if !strings.Contains(out, "BranchIfZero") || strings.Contains(out, "IF NOT") {
			t.Fatalf("unexpected dump: %s", out)
		}
	})

	t.Run("Decompile", func(t *testing.T) {
		out, err := RunMain(t, "", "compile", "--decompile", path)
		if err != nil {
			t.Fatal(err)
		} else if !strings.Contains(out, "ELSE") {
			t.Fatalf("unexpected source: %s", out)
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		path := MustWriteFile(t, "bad.w", "x := 1\nIF x THEN\n")
		if _, err := RunMain(t, "", "compile", path); err == nil || !strings.Contains(err.Error(), "IF") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMain_Run(t *testing.T) {
	path := MustWriteFile(t, "branch.w", branchSource)

	out, err := RunMain(t, "abc\n-4\n", "run", path)
	if err != nil {
		t.Fatal(err)
	}
	exp := "Please enter the value of x: Invalid input.\nPlease enter the value of x: -4\n"
	if out != exp {
		t.Fatalf("output=%q, expected %q", out, exp)
	}
}

func TestMain_Shell(t *testing.T) {
	t.Run("Stdin", func(t *testing.T) {
		out, err := RunMain(t, "INPUT x\n7\nOUTPUT x\nEXIT\nOUTPUT 9\n", "shell")
		if err != nil {
			t.Fatal(err)
		} else if exp := "Please enter the value of x: 7\nBye.\n"; out != exp {
			t.Fatalf("output=%q, expected %q", out, exp)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := MustWriteFile(t, "branch.w", branchSource)
		out, err := RunMain(t, "3\n", "shell", path)
		if err != nil {
			t.Fatal(err)
		} else if exp := "Please enter the value of x: -1\nBye.\n"; out != exp {
			t.Fatalf("output=%q, expected %q", out, exp)
		}
	})
}

func TestExitReader(t *testing.T) {
	r := &exitReader{r: bufio.NewReader(strings.NewReader("a\nb\n EXIT \nc\n"))}
	buf, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	} else if got, exp := string(buf), "a\nb\n"; got != exp {
		t.Fatalf("got %q, expected %q", got, exp)
	}
}

func TestMain_Unroll(t *testing.T) {
	path := MustWriteFile(t, "branch.w", branchSource)

	out, err := RunMain(t, "", "unroll", "--depth", "10", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{
		"<1, y=1> -> <2, x=None, y=1>",
		"<2, x=None, y=1> -> <3, x=None, y=1> | <5, x=None, y=1>",
		"<7, x=-1, y=1> -> <-1>",
		"7 states expanded at depth 10",
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("missing %q in output:\n%s", line, out)
		}
	}
}

func TestMain_Encode(t *testing.T) {
	path := MustWriteFile(t, "branch.w", branchSource)

	for _, encoding := range []string{"smt", "sat"} {
		t.Run(encoding, func(t *testing.T) {
			smtlib := filepath.Join(t.TempDir(), "step.smt2")
			out, err := RunMain(t, "", "encode", "-q", "--encoding", encoding, "--smtlib", smtlib, path)
			if err != nil {
				t.Fatal(err)
			} else if !strings.Contains(out, "encoding: "+encoding+"\n") || !strings.Contains(out, "nodes: ") {
				t.Fatalf("unexpected output: %s", out)
			}

			buf, err := os.ReadFile(smtlib)
			if err != nil {
				t.Fatal(err)
			} else if !strings.HasSuffix(string(buf), "(check-sat)\n") {
				t.Fatalf("unexpected benchmark: %s", buf)
			}
		})
	}

	t.Run("UnknownEncoding", func(t *testing.T) {
		if _, err := RunMain(t, "", "encode", "--encoding", "bdd", path); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMain_Check(t *testing.T) {
	path := MustWriteFile(t, "branch.w", branchSource)

	out, err := RunMain(t, "", "check", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, prefix := range []string{"smt: 8/8 transitions admitted", "sat: 8/8 transitions admitted"} {
		if !strings.Contains(out, prefix) {
			t.Fatalf("missing %q in output:\n%s", prefix, out)
		}
	}
}

func TestReadConfigFile(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.yaml")
		if config, err := ReadConfigFile(path, false); err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
			t.Fatal(diff)
		}
		if _, err := ReadConfigFile(path, true); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Override", func(t *testing.T) {
		path := MustWriteFile(t, "wile.yaml", "depth: 3\nencoding: sat\n")
		config, err := ReadConfigFile(path, true)
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(Config{Encoding: "sat", Depth: 3, LogLevel: "warn"}, config); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Flag", func(t *testing.T) {
		config := MustWriteFile(t, "wile.yaml", "depth: 2\n")
		path := MustWriteFile(t, "branch.w", branchSource)
		out, err := RunMain(t, "", "unroll", "--config", config, path)
		if err != nil {
			t.Fatal(err)
		} else if !strings.Contains(out, "2 states expanded at depth 2") {
			t.Fatalf("unexpected output:\n%s", out)
		}
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		path := MustWriteFile(t, "branch.w", branchSource)
		if _, err := RunMain(t, "", "compile", "--log-level", "loud", path); err == nil {
			t.Fatal("expected error")
		}
	})
}

// RunMain executes the command line args with stdin and returns stdout.
func RunMain(tb testing.TB, stdin string, args ...string) (string, error) {
	tb.Helper()

	var stdout bytes.Buffer
	m := NewMain()
	m.Stdin = strings.NewReader(stdin)
	m.Stdout = &stdout

	cmd := m.Command()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// MustWriteFile writes data to a file in a temporary directory.
func MustWriteFile(tb testing.TB, name, data string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o666); err != nil {
		tb.Fatal(err)
	}
	return path
}

func lines(s string) []string {
	var a []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			a = append(a, line)
		}
	}
	return a
}
