package logic

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSMTLIB writes an SMT-LIB2 benchmark asserting every expression.
func WriteSMTLIB(w io.Writer, exprs ...Expr) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "(set-logic ALL)")
	for _, v := range FreeVars(exprs...) {
		fmt.Fprintf(bw, "(declare-fun %s () %s)\n", v, v.Type)
	}
	for _, expr := range exprs {
		assert(expr.Sort() == BoolSort, "cannot assert %s expression", expr.Sort())
		fmt.Fprintf(bw, "(assert %s)\n", expr)
	}
	fmt.Fprintln(bw, "(check-sat)")

	return bw.Flush()
}
