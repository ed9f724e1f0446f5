package wile

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// keywords reserved by the grammar. Identifiers may not start with any of
// these or with an operator name.
var keywords = []string{":=", "IF", "THEN", "ELSE", "END", "INPUT", "OUTPUT", "WHILE", "DO"}

// IsIdentifier returns true if name is usable as a variable name.
func IsIdentifier(name string) bool {
	if name == "" || strings.ContainsAny(name[:1], "+-0123456789") {
		return false
	}
	for _, kw := range keywords {
		if strings.HasPrefix(name, kw) {
			return false
		}
	}
	for _, op := range Ops() {
		if strings.HasPrefix(name, op.String()) {
			return false
		}
	}
	return true
}

// parseArg parses a variable name or integer literal.
func parseArg(tok string) (Arg, bool) {
	if IsIdentifier(tok) {
		return Ref(tok), true
	}
	if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Lit(v), true
	}
	return Arg{}, false
}

type blockKind int

const (
	blockIf = blockKind(iota)
	blockElse
	blockWhile
)

func (k blockKind) String() string {
	if k == blockWhile {
		return "WHILE"
	}
	return "IF"
}

// pending is an instruction waiting for its jump distance.
type pending struct {
	index  int // position in the unflushed buffer
	kind   blockKind
	lineNo int
	line   string
}

// backpatch holds the per-compilation stacks of pending jumps.
type backpatch struct {
	ifs    []pending
	whiles []pending

	// kinds of the open blocks, innermost last.
	nesting []blockKind
}

func (b *backpatch) empty() bool {
	return len(b.ifs) == 0 && len(b.whiles) == 0
}

func (b *backpatch) innermost() (blockKind, bool) {
	if len(b.nesting) == 0 {
		return 0, false
	}
	return b.nesting[len(b.nesting)-1], true
}

func (b *backpatch) pushIf(p pending) {
	b.ifs = append(b.ifs, p)
	b.nesting = append(b.nesting, p.kind)
}

func (b *backpatch) popIf() pending {
	p := b.ifs[len(b.ifs)-1]
	b.ifs, b.nesting = b.ifs[:len(b.ifs)-1], b.nesting[:len(b.nesting)-1]
	return p
}

func (b *backpatch) pushWhile(p pending) {
	b.whiles = append(b.whiles, p)
	b.nesting = append(b.nesting, blockWhile)
}

func (b *backpatch) popWhile() pending {
	p := b.whiles[len(b.whiles)-1]
	b.whiles, b.nesting = b.whiles[:len(b.whiles)-1], b.nesting[:len(b.nesting)-1]
	return p
}

// Compiler translates source lines into instructions.
//
// Instructions are released as soon as no IF or WHILE block is open, so a
// Compiler can be consumed lazily while its input is still being written.
type Compiler struct {
	r      *bufio.Reader
	lineNo int
	ctx    backpatch

	buf   []Instruction // compiled, waiting for open blocks to close
	ready []Instruction // flushed, not yet returned by Next
	err   error
}

// NewCompiler returns a compiler reading lines from r.
// If r is nil, lines must be supplied with CompileLine.
func NewCompiler(r io.Reader) *Compiler {
	c := &Compiler{}
	if r != nil {
		if br, ok := r.(*bufio.Reader); ok {
			c.r = br
		} else {
			c.r = bufio.NewReader(r)
		}
	}
	return c
}

// Compile reads all of r and returns the compiled program.
func Compile(r io.Reader) (Program, error) {
	c := NewCompiler(r)

	var p Program
	for {
		inst, err := c.Next()
		if err == io.EOF {
			return p, nil
		} else if err != nil {
			return nil, err
		}
		p = append(p, inst)
	}
}

// CompileString compiles a program held in a string.
func CompileString(src string) (Program, error) {
	return Compile(strings.NewReader(src))
}

// Next returns the next compiled instruction. Returns io.EOF once the input
// is exhausted and every block has been closed.
func (c *Compiler) Next() (Instruction, error) {
	for len(c.ready) == 0 {
		if c.err != nil {
			return nil, c.err
		} else if c.r == nil {
			return nil, io.EOF
		}

		line, err := c.r.ReadString('\n')
		if err != nil && err != io.EOF {
			c.err = err
			continue
		}
		if line != "" || err == nil {
			if e := c.CompileLine(line); e != nil {
				c.err = e
				continue
			}
		}
		if err == io.EOF {
			c.r = nil
			if e := c.Close(); e != nil {
				c.err = e
			}
		}
	}

	inst := c.ready[0]
	c.ready = c.ready[1:]
	return inst, nil
}

// Pending returns the flushed instructions not yet consumed and clears them.
func (c *Compiler) Pending() []Instruction {
	a := c.ready
	c.ready = nil
	return a
}

// Close returns an error if any block is still open.
func (c *Compiler) Close() error {
	if len(c.ctx.nesting) == 0 {
		return nil
	}

	// Report the outermost open block.
	var p pending
	switch {
	case len(c.ctx.ifs) == 0:
		p = c.ctx.whiles[0]
	case len(c.ctx.whiles) == 0:
		p = c.ctx.ifs[0]
	case c.ctx.ifs[0].lineNo < c.ctx.whiles[0].lineNo:
		p = c.ctx.ifs[0]
	default:
		p = c.ctx.whiles[0]
	}
	return &UnclosedBlockError{Block: p.kind.String(), LineNo: p.lineNo, Line: p.line}
}

// CompileLine compiles a single source line.
func (c *Compiler) CompileLine(line string) error {
	c.lineNo++
	if err := c.compileLine(line); err != nil {
		perr := &ParseError{LineNo: c.lineNo, Line: line}
		var serr *SignatureError
		if errors.As(err, &serr) {
			perr.Err = serr
		} else {
			perr.Msg = err.Error()
		}
		return perr
	}

	if c.ctx.empty() && len(c.buf) > 0 {
		c.ready = append(c.ready, c.buf...)
		c.buf = nil
	}
	return nil
}

func (c *Compiler) compileLine(line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || strings.HasPrefix(tokens[0], "//") {
		return nil
	}
	last := tokens[len(tokens)-1]

	switch {
	case len(tokens) >= 3 && tokens[1] == ":=":
		if !IsIdentifier(tokens[0]) {
			return errors.New("invalid identifier " + strconv.Quote(tokens[0]))
		}
		op, args, err := parseApply(tokens[2:])
		if err != nil {
			return err
		}
		c.buf = append(c.buf, &AssignOp{Target: tokens[0], Op: op, Args: args})

	case tokens[0] == "IF" && last == "THEN" && len(tokens) > 2:
		op, args, err := parseApply(tokens[1 : len(tokens)-1])
		if err != nil {
			return err
		}
		c.ctx.pushIf(pending{index: len(c.buf), kind: blockIf, lineNo: c.lineNo, line: line})
		c.buf = append(c.buf, &BranchIfZero{Op: op, Args: args})

	case tokens[0] == "ELSE" && len(tokens) == 1:
		if kind, ok := c.ctx.innermost(); !ok || kind == blockWhile {
			return errors.New("ELSE without IF")
		} else if kind == blockElse {
			return errors.New("duplicate ELSE")
		}
		p := c.ctx.popIf()
		c.buf[p.index].(*BranchIfZero).Distance = len(c.buf) - p.index + 1
		c.ctx.pushIf(pending{index: len(c.buf), kind: blockElse, lineNo: p.lineNo, line: p.line})
		c.buf = append(c.buf, &Jump{})

	case len(tokens) == 2 && tokens[0] == "END" && tokens[1] == "IF":
		if kind, ok := c.ctx.innermost(); !ok || kind == blockWhile {
			return errors.New("END IF without IF")
		}
		p := c.ctx.popIf()
		switch inst := c.buf[p.index].(type) {
		case *BranchIfZero:
			inst.Distance = len(c.buf) - p.index
		case *Jump:
			inst.Distance = len(c.buf) - p.index
		}

	case tokens[0] == "WHILE" && last == "DO" && len(tokens) > 2:
		op, args, err := parseApply(tokens[1 : len(tokens)-1])
		if err != nil {
			return err
		}
		c.ctx.pushWhile(pending{index: len(c.buf), kind: blockWhile, lineNo: c.lineNo, line: line})
		c.buf = append(c.buf, &BranchIfZero{Op: op, Args: args})

	case len(tokens) == 2 && tokens[0] == "END" && tokens[1] == "WHILE":
		if kind, ok := c.ctx.innermost(); !ok || kind != blockWhile {
			return errors.New("END WHILE without WHILE")
		}
		p := c.ctx.popWhile()
		c.buf[p.index].(*BranchIfZero).Distance = len(c.buf) - p.index + 1
		c.buf = append(c.buf, &Jump{Distance: p.index - len(c.buf)})

	case len(tokens) == 2 && tokens[0] == "INPUT":
		if !IsIdentifier(tokens[1]) {
			return errors.New("invalid identifier " + strconv.Quote(tokens[1]))
		}
		c.buf = append(c.buf, &Input{Target: tokens[1]})

	case len(tokens) == 2 && tokens[0] == "OUTPUT":
		arg, ok := parseArg(tokens[1])
		if !ok {
			return errors.New("invalid argument " + strconv.Quote(tokens[1]))
		}
		c.buf = append(c.buf, &Output{Arg: arg})

	default:
		return errors.New("could not parse line")
	}
	return nil
}

// parseApply parses an operand, an infix application or a prefix application.
func parseApply(tokens []string) (Op, []Arg, error) {
	if len(tokens) == 1 {
		if arg, ok := parseArg(tokens[0]); ok {
			return OpID, []Arg{arg}, nil
		}
	}

	// Infix: a OP b
	if len(tokens) == 3 {
		if op, ok := LookupOp(tokens[1]); ok {
			if op.Fixity() != Infix {
				return 0, nil, &SignatureError{Op: op, NArgs: 2, Infix: true}
			}
			args, err := parseArgs(tokens[0:1], tokens[2:3])
			if err != nil {
				return 0, nil, err
			}
			return op, args, nil
		}
	}

	// Prefix: OP a b ...
	op, ok := LookupOp(tokens[0])
	if !ok {
		if _, isArg := parseArg(tokens[0]); !isArg || len(tokens) == 1 {
			return 0, nil, errors.New("invalid argument " + strconv.Quote(tokens[0]))
		}
		return 0, nil, errors.New("could not parse expression")
	}
	if op.Fixity() != Prefix {
		return 0, nil, &SignatureError{Op: op, NArgs: len(tokens) - 1, Infix: false}
	} else if !op.Accepts(len(tokens) - 1) {
		return 0, nil, &SignatureError{Op: op, NArgs: len(tokens) - 1, Infix: false}
	}
	args, err := parseArgs(tokens[1:])
	if err != nil {
		return 0, nil, err
	}
	return op, args, nil
}

func parseArgs(groups ...[]string) ([]Arg, error) {
	var args []Arg
	for _, tokens := range groups {
		for _, tok := range tokens {
			arg, ok := parseArg(tok)
			if !ok {
				return nil, errors.New("invalid argument " + strconv.Quote(tok))
			}
			args = append(args, arg)
		}
	}
	return args, nil
}
