package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/testprog"
)

func run(t *testing.T, name string, args ...Value) Value {
	t.Helper()
	rt := New(testprog.Program())
	rt.MaxSteps = 100000
	v, err := rt.Call(name, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func TestScalarPrograms(t *testing.T) {
	cases := []struct {
		name string
		args []Value
		want int64
	}{
		{"main", nil, 7},
		{"reversed", nil, 1},
		{"fact", []Value{I64(0)}, 1},
		{"fact", []Value{I64(5)}, 120},
		{"fact", []Value{I64(20)}, 2432902008176640000},
		{"classify", []Value{I32(1)}, 10},
		{"classify", []Value{I32(2)}, 20},
		{"classify", []Value{I32(3)}, 9},
		{"classify", []Value{I32(99)}, -1},
		{"max", []Value{I64(3), I64(-4)}, 3},
		{"max", []Value{I64(-3), I64(4)}, 4},
		{"triangle", []Value{I32(0)}, 0},
		{"triangle", []Value{I32(5)}, 10},
		{"pair_main", []Value{I64(5)}, 20},
		{"mixed_last", []Value{I32(10), I64(1), I32(52)}, 42},
		{"early_exit", []Value{I32(3)}, 42},
		{"call_nop", nil, 7},
	}
	for _, tc := range cases {
		got := run(t, tc.name, tc.args...)
		if got.Int() != tc.want {
			t.Fatalf("%s%v: expected %d, got %s", tc.name, tc.args, tc.want, got)
		}
	}
}

func TestCompositeResults(t *testing.T) {
	p := run(t, "make_pair", I64(1), I64(-2))
	if p.Field(0).Int() != 1 || p.Field(1).Int() != -2 {
		t.Fatalf("expected {1, -2}, got %s", p)
	}
	if len(p.Mem) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(p.Mem))
	}

	r := run(t, "rotate", I32(3), I64(7), I64(9))
	if got := r.String(); got != "{9, 7}" {
		t.Fatalf("expected {9, 7}, got %s", got)
	}
	r = run(t, "rotate", I32(4), I64(7), I64(9))
	if got := r.String(); got != "{7, 9}" {
		t.Fatalf("expected {7, 9}, got %s", got)
	}

	e := run(t, "echo", p)
	if e.String() != p.String() {
		t.Fatalf("expected %s, got %s", p, e)
	}
}

func TestFloat(t *testing.T) {
	got := run(t, "avg", F64(1.5), F64(2.5))
	if got.Float() != 2 {
		t.Fatalf("expected 2, got %s", got)
	}
}

func TestIntegerSemantics(t *testing.T) {
	cases := []struct {
		op   ir.BinOpKind
		t    ir.Type
		a, b Value
		want int64
	}{
		{ir.OpAdd, ir.I32, I32(math.MaxInt32), I32(1), math.MinInt32},
		{ir.OpMul, ir.I64, I64(math.MaxInt64), I64(2), -2},
		{ir.OpDiv, ir.I32, I32(-7), I32(2), -3},
		{ir.OpRem, ir.I32, I32(-7), I32(2), -1},
		{ir.OpRem, ir.I32, I32(math.MinInt32), I32(-1), 0},
		{ir.OpShl, ir.I32, I32(1), I32(33), 2},
		{ir.OpShr, ir.I64, I64(-16), I64(2), -4},
		{ir.OpXor, ir.I64, I64(6), I64(3), 5},
	}
	for _, tc := range cases {
		got, err := intBinOp(tc.op, tc.t, tc.a, tc.b)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.op, tc.t, err)
		}
		if got.Int() != tc.want {
			t.Fatalf("%s %s %s %s: expected %d, got %d", tc.op, tc.t, tc.a, tc.b, tc.want, got.Int())
		}
	}

	if _, err := intBinOp(ir.OpDiv, ir.I32, I32(1), I32(0)); !errors.Is(err, errDivZero) {
		t.Fatalf("expected divide by zero, got %v", err)
	}
	if _, err := intBinOp(ir.OpDiv, ir.I64, I64(math.MinInt64), I64(-1)); !errors.Is(err, errOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestTrapCarriesFunction(t *testing.T) {
	p := &ir.Program{Funcs: map[string]*ir.Func{
		"div": {
			Name:   "div",
			Params: []ir.Param{{Sym: 0, Ty: ir.I32}},
			Ret:    ir.I32,
			Body: &ir.Let{Sym: 1, Ty: ir.I32, Expr: &ir.Literal{Ty: ir.I32},
				Next: &ir.Let{Sym: 2, Ty: ir.I32, Expr: &ir.BinOp{Op: ir.OpDiv, Ty: ir.I32, A: 0, B: 1},
					Next: &ir.Ret{Sym: 2}}},
		},
	}}
	_, err := New(p).Call("div", I32(4))
	var trap *Trap
	if !errors.As(err, &trap) {
		t.Fatalf("expected trap, got %v", err)
	}
	if trap.Func != "div" || !errors.Is(err, errDivZero) {
		t.Fatalf("unexpected trap %v", trap)
	}
}

func TestStepLimit(t *testing.T) {
	spin := &ir.Func{
		Name: "spin",
		Ret:  ir.I32,
		Body: &ir.Join{
			ID:        0,
			Body:      &ir.Jump{Target: 0},
			Remainder: &ir.Jump{Target: 0},
		},
	}
	rt := New(&ir.Program{Funcs: map[string]*ir.Func{"spin": spin}})
	rt.MaxSteps = 50
	if _, err := rt.Call("spin"); !errors.Is(err, errNoFuel) {
		t.Fatalf("expected step limit, got %v", err)
	}
}
