package wile

import (
	"fmt"
	"strings"
)

// Decompile returns structured source that compiles back to p.
// Returns an error if p contains jumps that no IF or WHILE block produces.
func Decompile(p Program) (string, error) {
	d := &decompiler{program: p}
	lines, err := d.block(0, len(p), 0)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

type decompiler struct {
	program Program
}

// block decompiles the instructions in [lo, hi).
func (d *decompiler) block(lo, hi, depth int) ([]string, error) {
	indent := strings.Repeat("  ", depth)

	var lines []string
	for i := lo; i < hi; {
		switch inst := d.program[i].(type) {
		case *AssignOp, *Input, *Output:
			lines = append(lines, indent+inst.String())
			i++

		case *BranchIfZero:
			a, next, err := d.branch(i, inst, hi, depth)
			if err != nil {
				return nil, err
			}
			lines = append(lines, a...)
			i = next

		case *Jump:
			return nil, fmt.Errorf("unstructured jump at %d", i)

		default:
			panic("unreachable")
		}
	}
	return lines, nil
}

// branch decompiles the block opened by the branch at i and returns the
// index following the block.
func (d *decompiler) branch(i int, inst *BranchIfZero, hi, depth int) ([]string, int, error) {
	indent := strings.Repeat("  ", depth)
	cond := formatApply(inst.Op, inst.Args)

	t := i + inst.Distance
	if t <= i || t > hi {
		return nil, 0, fmt.Errorf("branch at %d leaves its block", i)
	}

	if jmp, ok := d.program[t-1].(*Jump); ok && t-1 > i {
		// WHILE: the block ends with a jump back to the condition.
		if t-1+jmp.Distance == i {
			body, err := d.block(i+1, t-1, depth+1)
			if err != nil {
				return nil, 0, err
			}
			lines := append([]string{indent + "WHILE " + cond + " DO"}, body...)
			return append(lines, indent+"END WHILE"), t, nil
		}

		// IF/ELSE: the then-block ends with a jump over the else-block.
		if e := t - 1 + jmp.Distance; e >= t && e <= hi {
			if then, err := d.block(i+1, t-1, depth+1); err == nil {
				if els, err := d.block(t, e, depth+1); err == nil {
					lines := append([]string{indent + "IF " + cond + " THEN"}, then...)
					lines = append(lines, indent+"ELSE")
					lines = append(lines, els...)
					return append(lines, indent+"END IF"), e, nil
				}
			}
		}
	}

	body, err := d.block(i+1, t, depth+1)
	if err != nil {
		return nil, 0, err
	}
	lines := append([]string{indent + "IF " + cond + " THEN"}, body...)
	return append(lines, indent+"END IF"), t, nil
}
