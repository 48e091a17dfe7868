package ir

import (
	"testing"
)

func TestFmtStringExprs(t *testing.T) {
	cases := []struct {
		name string
		e    Expr
		want string
	}{
		{name: "int", e: &Literal{Ty: I32, I: 7}, want: "const i32 7"},
		{name: "float", e: &Literal{Ty: F64, F: 1.5}, want: "const f64 1.5"},
		{name: "binop", e: &BinOp{Op: OpAdd, Ty: I64, A: 0, B: 1}, want: "add i64 %0 %1"},
		{name: "cmp", e: &Cmp{Op: CmpLt, Ty: I32, A: 2, B: 3}, want: "cmp_lt i32 %2 %3"},
		{name: "call", e: &Call{Name: "add", Args: []Sym{0, 1}}, want: "call add(%0, %1)"},
		{name: "call_noargs", e: &Call{Name: "main"}, want: "call main()"},
		{name: "struct", e: &StructInit{Fields: []Sym{4, 5}}, want: "struct {%4, %5}"},
		{name: "field", e: &FieldGet{Recv: 6, Index: 1}, want: "field %6.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.e.fmtString(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatFunc(t *testing.T) {
	f := &Func{
		Name:   "count",
		Params: []Param{{Sym: 0, Ty: I32}},
		Ret:    I32,
		Body: &Join{
			ID:     0,
			Params: []Param{{Sym: 1, Ty: I32}},
			Body:   &Ret{Sym: 1},
			Remainder: &Switch{
				Cond:    0,
				Ty:      I32,
				Cases:   []Case{{Value: 0, Body: &Jump{Target: 0, Args: []Sym{0}}}},
				Default: &Ret{Sym: 0},
			},
		},
	}
	want := `fn count(%0: i32) -> i32 {
  join j0(%1: i32):
    ret %1
  in:
  switch %0: i32
  case 0:
    jump j0(%0)
  default:
    ret %0
}
`
	if got := f.Format(); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
}
