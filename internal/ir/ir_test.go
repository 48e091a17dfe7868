package ir

import (
	"strings"
	"testing"
)

func TestProgramFormatSortsFuncs(t *testing.T) {
	p := &Program{
		Funcs: map[string]*Func{
			"zeta":  {Name: "zeta", Ret: Unit, Body: &Ret{Sym: NoSym}},
			"alpha": {Name: "alpha", Ret: Unit, Body: &Ret{Sym: NoSym}},
		},
	}
	got := p.Format()
	if !strings.HasPrefix(got, "ir v1\n") {
		t.Fatalf("missing header; got:\n%s", got)
	}
	if strings.Index(got, "fn alpha") > strings.Index(got, "fn zeta") {
		t.Fatalf("expected alpha before zeta; got:\n%s", got)
	}
}

func TestSymTypesCoversParamsLetsAndJoinParams(t *testing.T) {
	f := &Func{
		Name:   "f",
		Params: []Param{{Sym: 0, Ty: I64}},
		Ret:    I64,
		Body: &Join{
			ID:        0,
			Params:    []Param{{Sym: 2, Ty: F32}},
			Body:      &Ret{Sym: 0},
			Remainder: &Let{Sym: 1, Ty: F32, Expr: &Literal{Ty: F32, F: 2}, Next: &Jump{Target: 0, Args: []Sym{1}}},
		},
	}
	types := f.SymTypes()
	want := map[Sym]TypeKind{0: TI64, 1: TF32, 2: TF32}
	if len(types) != len(want) {
		t.Fatalf("expected %d symbols, got %d", len(want), len(types))
	}
	for s, k := range want {
		if types[s].K != k {
			t.Fatalf("symbol %s: expected kind %d, got %d", s, k, types[s].K)
		}
	}
	if !HasJoins(f.Body) {
		t.Fatalf("expected HasJoins to report the join point")
	}
}
