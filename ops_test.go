package wile_test

import (
	"errors"
	"math"
	"testing"

	"github.com/benbjohnson/wile"
)

func TestOp_Eval(t *testing.T) {
	for _, tt := range []struct {
		op   wile.Op
		args []int64
		exp  int64
	}{
		{wile.OpTrue, nil, 1},
		{wile.OpFalse, nil, 0},
		{wile.OpNot, []int64{0}, 1},
		{wile.OpNot, []int64{-3}, 0},
		{wile.OpNeg, []int64{4}, -4},
		{wile.OpID, []int64{9}, 9},
		{wile.OpLT, []int64{1, 2}, 1},
		{wile.OpLE, []int64{2, 2}, 1},
		{wile.OpEQ, []int64{2, 3}, 0},
		{wile.OpGE, []int64{2, 3}, 0},
		{wile.OpGT, []int64{3, 2}, 1},
		{wile.OpNE, []int64{3, 2}, 1},
		{wile.OpAnd, []int64{5, 0}, 0},
		{wile.OpOr, []int64{5, 0}, 1},
		{wile.OpAdd, []int64{5, -7}, -2},
		{wile.OpSub, []int64{5, -7}, 12},
		{wile.OpMul, []int64{-3, 7}, -21},
		{wile.OpDiv, []int64{7, 2}, 3},
		{wile.OpDiv, []int64{-7, 2}, -4},
		{wile.OpDiv, []int64{7, -2}, -4},
		{wile.OpDiv, []int64{math.MinInt64, -1}, math.MinInt64},
		{wile.OpMod, []int64{7, 3}, 1},
		{wile.OpMod, []int64{-7, 3}, 2},
		{wile.OpMod, []int64{7, -3}, -2},
		{wile.OpPow, []int64{3, 4}, 81},
		{wile.OpPow, []int64{2, 0}, 1},
		{wile.OpPow, []int64{2, -1}, 0},
		{wile.OpPow, []int64{-1, -3}, -1},
		{wile.OpAll, nil, 1},
		{wile.OpAll, []int64{1, 2, 0}, 0},
		{wile.OpAny, []int64{0, 0, 4}, 1},
		{wile.OpAny, nil, 0},
		{wile.OpSum, []int64{1, 2, 3}, 6},
		{wile.OpProduct, []int64{2, 3, 4}, 24},
		{wile.OpProduct, nil, 1},
	} {
		if got, err := tt.op.Eval(tt.args); err != nil {
			t.Fatalf("%s%v: %s", tt.op, tt.args, err)
		} else if got != tt.exp {
			t.Fatalf("%s%v=%d, expected %d", tt.op, tt.args, got, tt.exp)
		}
	}

	t.Run("DivisionByZero", func(t *testing.T) {
		for _, op := range []wile.Op{wile.OpDiv, wile.OpMod} {
			if _, err := op.Eval([]int64{1, 0}); !errors.Is(err, wile.ErrDivisionByZero) {
				t.Fatalf("%s: unexpected error: %v", op, err)
			}
		}
	})
}

func TestLookupOp(t *testing.T) {
	for _, op := range wile.Ops() {
		if other, ok := wile.LookupOp(op.String()); !ok || other != op {
			t.Fatalf("LookupOp(%q)=%v, %v", op, other, ok)
		}
		if !op.IsBool() {
			continue
		}

		// Boolean operators only ever produce 0 or 1.
		args := make([]int64, 0, 2)
		if op.Arity() > 0 {
			for i := 0; i < op.Arity(); i++ {
				args = append(args, int64(i+3))
			}
		}
		if v, err := op.Eval(args); err != nil {
			t.Fatal(err)
		} else if v != 0 && v != 1 {
			t.Fatalf("%s returned %d", op, v)
		}
	}

	if _, ok := wile.LookupOp("XOR"); ok {
		t.Fatal("expected unknown operator")
	}
}

func TestIsIdentifier(t *testing.T) {
	for name, exp := range map[string]bool{
		"x":      true,
		"count":  true,
		"X":      true,
		"IFFY":   false,
		"ID":     false,
		"SUMx":   false,
		"1x":     false,
		"-x":     false,
		"":       false,
		"<a":     false,
		"ENDING": false,
	} {
		if got := wile.IsIdentifier(name); got != exp {
			t.Errorf("IsIdentifier(%q)=%v, expected %v", name, got, exp)
		}
	}
}
