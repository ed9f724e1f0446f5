package wile_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/benbjohnson/wile"
	"golang.org/x/tools/txtar"
)

// Fixture is a test program read from a txtar archive in testdata.
type Fixture struct {
	Depth   int
	Program string
	Files   map[string]string
}

// MustReadFixture reads testdata/<name>.txtar.
func MustReadFixture(tb testing.TB, name string) *Fixture {
	tb.Helper()
	a, err := txtar.ParseFile("testdata/" + name + ".txtar")
	if err != nil {
		tb.Fatal(err)
	}

	f := &Fixture{Files: make(map[string]string)}
	for _, file := range a.Files {
		f.Files[file.Name] = string(file.Data)
	}
	f.Program = f.Files["program"]
	if s := strings.TrimSpace(f.Files["depth"]); s != "" {
		if f.Depth, err = strconv.Atoi(s); err != nil {
			tb.Fatal(err)
		}
	}
	return f
}

// MustCompile compiles src or fails the test.
func MustCompile(tb testing.TB, src string) wile.Program {
	tb.Helper()
	p, err := wile.CompileString(src)
	if err != nil {
		tb.Fatal(err)
	}
	return p
}

// Lines splits s into trimmed, non-empty lines.
func Lines(s string) []string {
	var a []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			a = append(a, line)
		}
	}
	return a
}
