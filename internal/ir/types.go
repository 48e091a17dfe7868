package ir

import (
	"fmt"
	"strings"
)

type TypeKind int

const (
	TBad TypeKind = iota
	TUnit
	TI32
	TI64
	TF32
	TF64
	TStruct
)

// Type is the value shape of a symbol: one of the four scalar kinds, unit
// (no value), or a composite described by a StructLayout.
type Type struct {
	K      TypeKind
	Layout *StructLayout // TStruct only
}

var (
	Unit = Type{K: TUnit}
	I32  = Type{K: TI32}
	I64  = Type{K: TI64}
	F32  = Type{K: TF32}
	F64  = Type{K: TF64}
)

// StructLayout describes the memory image of a composite value.
type StructLayout struct {
	Name   string
	Size   uint32
	Align  uint32
	Fields []Field
}

type Field struct {
	Offset uint32
	Ty     Type
}

// Struct lays out fields in declaration order with natural alignment and
// returns the composite type.
func Struct(name string, fields ...Type) Type {
	l := &StructLayout{Name: name, Align: 1}
	var off uint32
	for _, ft := range fields {
		a := ft.Align()
		if a == 0 {
			a = 1
		}
		off = alignUp(off, a)
		l.Fields = append(l.Fields, Field{Offset: off, Ty: ft})
		off += ft.Size()
		if a > l.Align {
			l.Align = a
		}
	}
	l.Size = alignUp(off, l.Align)
	return Type{K: TStruct, Layout: l}
}

func alignUp(n, a uint32) uint32 {
	return (n + a - 1) &^ (a - 1)
}

func (t Type) IsScalar() bool {
	switch t.K {
	case TI32, TI64, TF32, TF64:
		return true
	default:
		return false
	}
}

func (t Type) IsComposite() bool { return t.K == TStruct }

func (t Type) IsFloat() bool { return t.K == TF32 || t.K == TF64 }

// Size returns the number of bytes a value of t occupies in memory.
func (t Type) Size() uint32 {
	switch t.K {
	case TI32, TF32:
		return 4
	case TI64, TF64:
		return 8
	case TStruct:
		if t.Layout == nil {
			return 0
		}
		return t.Layout.Size
	default:
		return 0
	}
}

func (t Type) Align() uint32 {
	switch t.K {
	case TStruct:
		if t.Layout == nil {
			return 1
		}
		return t.Layout.Align
	case TUnit, TBad:
		return 1
	default:
		return t.Size()
	}
}

// Equal reports structural equality. Composite layouts compare by shape,
// not by name.
func (t Type) Equal(u Type) bool {
	if t.K != u.K {
		return false
	}
	if t.K != TStruct {
		return true
	}
	a, b := t.Layout, u.Layout
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Size != b.Size || a.Align != b.Align || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Offset != b.Fields[i].Offset || !a.Fields[i].Ty.Equal(b.Fields[i].Ty) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	switch t.K {
	case TUnit:
		return "unit"
	case TI32:
		return "i32"
	case TI64:
		return "i64"
	case TF32:
		return "f32"
	case TF64:
		return "f64"
	case TStruct:
		if t.Layout == nil {
			return "struct(?)"
		}
		if t.Layout.Name != "" {
			return "struct(" + t.Layout.Name + ")"
		}
		var sb strings.Builder
		sb.WriteString("struct{")
		for i, f := range t.Layout.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s@%d", f.Ty.String(), f.Offset)
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return "<bad>"
	}
}

// Check verifies that a layout is internally consistent: power-of-two
// alignment, size a multiple of alignment, and every field aligned and in
// bounds.
func (l *StructLayout) Check() error {
	if l == nil {
		return fmt.Errorf("nil struct layout")
	}
	if l.Align == 0 || l.Align&(l.Align-1) != 0 {
		return fmt.Errorf("struct %s: alignment %d is not a power of two", l.Name, l.Align)
	}
	if l.Size%l.Align != 0 {
		return fmt.Errorf("struct %s: size %d is not a multiple of alignment %d", l.Name, l.Size, l.Align)
	}
	for i, f := range l.Fields {
		if f.Ty.K == TUnit || f.Ty.K == TBad {
			return fmt.Errorf("struct %s: field %d has no storage type", l.Name, i)
		}
		if f.Ty.K == TStruct {
			if err := f.Ty.Layout.Check(); err != nil {
				return err
			}
		}
		a := f.Ty.Align()
		if a > l.Align {
			return fmt.Errorf("struct %s: field %d alignment %d exceeds struct alignment %d", l.Name, i, a, l.Align)
		}
		if f.Offset%a != 0 {
			return fmt.Errorf("struct %s: field %d offset %d is not %d-aligned", l.Name, i, f.Offset, a)
		}
		if uint64(f.Offset)+uint64(f.Ty.Size()) > uint64(l.Size) {
			return fmt.Errorf("struct %s: field %d overruns size %d", l.Name, i, l.Size)
		}
	}
	return nil
}
