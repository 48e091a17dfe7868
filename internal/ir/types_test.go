package ir

import "testing"

func TestStructLayoutNaturalAlignment(t *testing.T) {
	ty := Struct("pair", I32, I64, I32)
	l := ty.Layout
	if err := l.Check(); err != nil {
		t.Fatal(err)
	}
	wantOffsets := []uint32{0, 8, 16}
	for i, f := range l.Fields {
		if f.Offset != wantOffsets[i] {
			t.Fatalf("field %d: expected offset %d, got %d", i, wantOffsets[i], f.Offset)
		}
	}
	if l.Size != 24 || l.Align != 8 {
		t.Fatalf("expected size 24 align 8, got size %d align %d", l.Size, l.Align)
	}
}

func TestStructLayoutNested(t *testing.T) {
	inner := Struct("inner", I32, F32)
	outer := Struct("outer", I32, inner, F64)
	if got := outer.Layout.Fields[1].Offset; got != 4 {
		t.Fatalf("expected nested struct at offset 4, got %d", got)
	}
	if got := outer.Layout.Fields[2].Offset; got != 16 {
		t.Fatalf("expected f64 at offset 16, got %d", got)
	}
	if outer.Size() != 24 {
		t.Fatalf("expected size 24, got %d", outer.Size())
	}
}

func TestStructLayoutCheckRejectsMisalignedField(t *testing.T) {
	l := &StructLayout{Name: "bad", Size: 16, Align: 8, Fields: []Field{{Offset: 4, Ty: I64}}}
	if err := l.Check(); err == nil {
		t.Fatalf("expected misaligned field to be rejected")
	}
	l = &StructLayout{Name: "bad", Size: 12, Align: 8}
	if err := l.Check(); err == nil {
		t.Fatalf("expected size not multiple of alignment to be rejected")
	}
}

func TestTypeEqualComparesShape(t *testing.T) {
	a := Struct("a", I32, I32)
	b := Struct("b", I32, I32)
	c := Struct("c", I32, I64)
	if !a.Equal(b) {
		t.Fatalf("expected same-shape structs to be equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected different-shape structs to differ")
	}
	if I32.Equal(I64) || !F64.Equal(Type{K: TF64}) {
		t.Fatalf("scalar equality broken")
	}
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		ty   Type
		want string
	}{
		{Unit, "unit"},
		{I32, "i32"},
		{I64, "i64"},
		{F32, "f32"},
		{F64, "f64"},
		{Struct("pt", I32, I32), "struct(pt)"},
		{Struct("", I32, I64), "struct{i32@0, i64@8}"},
	}
	for _, tc := range cases {
		if got := tc.ty.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
