package interp

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dankeyy/roc/internal/ir"
)

// Value is a runtime value. Scalars are held as raw bits in the encoding the
// WebAssembly embedding API uses (i32 zero-extended, floats as IEEE bits);
// composites are held as their little-endian memory image.
type Value struct {
	Ty   ir.Type
	Bits uint64
	Mem  []byte
}

func unit() Value { return Value{Ty: ir.Unit} }

func I32(v int32) Value   { return Value{Ty: ir.I32, Bits: uint64(uint32(v))} }
func I64(v int64) Value   { return Value{Ty: ir.I64, Bits: uint64(v)} }
func F32(v float32) Value { return Value{Ty: ir.F32, Bits: uint64(math.Float32bits(v))} }
func F64(v float64) Value { return Value{Ty: ir.F64, Bits: math.Float64bits(v)} }

// Scalar builds a value of scalar type t from raw bits.
func Scalar(t ir.Type, bits uint64) Value {
	if t.K == ir.TI32 || t.K == ir.TF32 {
		bits &= math.MaxUint32
	}
	return Value{Ty: t, Bits: bits}
}

// Composite builds a value of composite type t from its memory image.
func Composite(t ir.Type, mem []byte) Value {
	return Value{Ty: t, Mem: mem}
}

// Int returns the signed integer held by an i32 or i64 value.
func (v Value) Int() int64 {
	if v.Ty.K == ir.TI32 {
		return int64(int32(uint32(v.Bits)))
	}
	return int64(v.Bits)
}

func (v Value) Float() float64 {
	if v.Ty.K == ir.TF32 {
		return float64(math.Float32frombits(uint32(v.Bits)))
	}
	return math.Float64frombits(v.Bits)
}

func (v Value) String() string {
	switch v.Ty.K {
	case ir.TUnit:
		return "()"
	case ir.TI32, ir.TI64:
		return fmt.Sprintf("%d", v.Int())
	case ir.TF32, ir.TF64:
		return fmt.Sprintf("%g", v.Float())
	case ir.TStruct:
		var out string
		for i := range v.Ty.Layout.Fields {
			if i > 0 {
				out += ", "
			}
			out += v.Field(i).String()
		}
		return "{" + out + "}"
	default:
		return "<bad>"
	}
}

// Field reads field i of a composite value.
func (v Value) Field(i int) Value {
	f := v.Ty.Layout.Fields[i]
	return readValue(f.Ty, v.Mem[f.Offset:f.Offset+f.Ty.Size()])
}

func readValue(t ir.Type, mem []byte) Value {
	switch t.Size() {
	case 4:
		if t.K != ir.TStruct {
			return Scalar(t, uint64(binary.LittleEndian.Uint32(mem)))
		}
	case 8:
		if t.K != ir.TStruct {
			return Scalar(t, binary.LittleEndian.Uint64(mem))
		}
	}
	out := make([]byte, len(mem))
	copy(out, mem)
	return Composite(t, out)
}

func writeValue(mem []byte, v Value) {
	switch {
	case v.Ty.K == ir.TStruct:
		copy(mem, v.Mem)
	case v.Ty.Size() == 4:
		binary.LittleEndian.PutUint32(mem, uint32(v.Bits))
	case v.Ty.Size() == 8:
		binary.LittleEndian.PutUint64(mem, v.Bits)
	}
}
