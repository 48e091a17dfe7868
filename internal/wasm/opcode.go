package wasm

import "fmt"

type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

const blockTypeEmpty = 0x40

type Opcode byte

const (
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpEnd         Opcode = 0x0b
	OpBr          Opcode = 0x0c
	OpBrIf        Opcode = 0x0d
	OpReturn      Opcode = 0x0f
	OpCall        Opcode = 0x10
	OpDrop        Opcode = 0x1a

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2a
	OpF64Load    Opcode = 0x2b
	OpI32Load8U  Opcode = 0x2d
	OpI32Load16U Opcode = 0x2f
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3a
	OpI32Store16 Opcode = 0x3b

	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44

	OpI32Eqz Opcode = 0x45
	OpI32Eq  Opcode = 0x46
	OpI32Ne  Opcode = 0x47
	OpI32LtS Opcode = 0x48
	OpI32GtS Opcode = 0x4a
	OpI32LeS Opcode = 0x4c
	OpI32GeS Opcode = 0x4e

	OpI64Eqz Opcode = 0x50
	OpI64Eq  Opcode = 0x51
	OpI64Ne  Opcode = 0x52
	OpI64LtS Opcode = 0x53
	OpI64GtS Opcode = 0x55
	OpI64LeS Opcode = 0x57
	OpI64GeS Opcode = 0x59

	OpF32Eq Opcode = 0x5b
	OpF32Ne Opcode = 0x5c
	OpF32Lt Opcode = 0x5d
	OpF32Gt Opcode = 0x5e
	OpF32Le Opcode = 0x5f
	OpF32Ge Opcode = 0x60

	OpF64Eq Opcode = 0x61
	OpF64Ne Opcode = 0x62
	OpF64Lt Opcode = 0x63
	OpF64Gt Opcode = 0x64
	OpF64Le Opcode = 0x65
	OpF64Ge Opcode = 0x66

	OpI32Add  Opcode = 0x6a
	OpI32Sub  Opcode = 0x6b
	OpI32Mul  Opcode = 0x6c
	OpI32DivS Opcode = 0x6d
	OpI32RemS Opcode = 0x6f
	OpI32And  Opcode = 0x71
	OpI32Or   Opcode = 0x72
	OpI32Xor  Opcode = 0x73
	OpI32Shl  Opcode = 0x74
	OpI32ShrS Opcode = 0x75

	OpI64Add  Opcode = 0x7c
	OpI64Sub  Opcode = 0x7d
	OpI64Mul  Opcode = 0x7e
	OpI64DivS Opcode = 0x7f
	OpI64RemS Opcode = 0x81
	OpI64And  Opcode = 0x83
	OpI64Or   Opcode = 0x84
	OpI64Xor  Opcode = 0x85
	OpI64Shl  Opcode = 0x86
	OpI64ShrS Opcode = 0x87

	OpF32Add Opcode = 0x92
	OpF32Sub Opcode = 0x93
	OpF32Mul Opcode = 0x94
	OpF32Div Opcode = 0x95

	OpF64Add Opcode = 0xa0
	OpF64Sub Opcode = 0xa1
	OpF64Mul Opcode = 0xa2
	OpF64Div Opcode = 0xa3
)

var opNames = map[Opcode]string{
	OpUnreachable: "unreachable",
	OpNop:         "nop",
	OpBlock:       "block",
	OpLoop:        "loop",
	OpEnd:         "end",
	OpBr:          "br",
	OpBrIf:        "br_if",
	OpReturn:      "return",
	OpCall:        "call",
	OpDrop:        "drop",

	OpLocalGet:  "local.get",
	OpLocalSet:  "local.set",
	OpLocalTee:  "local.tee",
	OpGlobalGet: "global.get",
	OpGlobalSet: "global.set",

	OpI32Load:    "i32.load",
	OpI64Load:    "i64.load",
	OpF32Load:    "f32.load",
	OpF64Load:    "f64.load",
	OpI32Load8U:  "i32.load8_u",
	OpI32Load16U: "i32.load16_u",
	OpI32Store:   "i32.store",
	OpI64Store:   "i64.store",
	OpF32Store:   "f32.store",
	OpF64Store:   "f64.store",
	OpI32Store8:  "i32.store8",
	OpI32Store16: "i32.store16",

	OpI32Const: "i32.const",
	OpI64Const: "i64.const",
	OpF32Const: "f32.const",
	OpF64Const: "f64.const",

	OpI32Eqz: "i32.eqz",
	OpI32Eq:  "i32.eq",
	OpI32Ne:  "i32.ne",
	OpI32LtS: "i32.lt_s",
	OpI32GtS: "i32.gt_s",
	OpI32LeS: "i32.le_s",
	OpI32GeS: "i32.ge_s",

	OpI64Eqz: "i64.eqz",
	OpI64Eq:  "i64.eq",
	OpI64Ne:  "i64.ne",
	OpI64LtS: "i64.lt_s",
	OpI64GtS: "i64.gt_s",
	OpI64LeS: "i64.le_s",
	OpI64GeS: "i64.ge_s",

	OpF32Eq: "f32.eq",
	OpF32Ne: "f32.ne",
	OpF32Lt: "f32.lt",
	OpF32Gt: "f32.gt",
	OpF32Le: "f32.le",
	OpF32Ge: "f32.ge",

	OpF64Eq: "f64.eq",
	OpF64Ne: "f64.ne",
	OpF64Lt: "f64.lt",
	OpF64Gt: "f64.gt",
	OpF64Le: "f64.le",
	OpF64Ge: "f64.ge",

	OpI32Add:  "i32.add",
	OpI32Sub:  "i32.sub",
	OpI32Mul:  "i32.mul",
	OpI32DivS: "i32.div_s",
	OpI32RemS: "i32.rem_s",
	OpI32And:  "i32.and",
	OpI32Or:   "i32.or",
	OpI32Xor:  "i32.xor",
	OpI32Shl:  "i32.shl",
	OpI32ShrS: "i32.shr_s",

	OpI64Add:  "i64.add",
	OpI64Sub:  "i64.sub",
	OpI64Mul:  "i64.mul",
	OpI64DivS: "i64.div_s",
	OpI64RemS: "i64.rem_s",
	OpI64And:  "i64.and",
	OpI64Or:   "i64.or",
	OpI64Xor:  "i64.xor",
	OpI64Shl:  "i64.shl",
	OpI64ShrS: "i64.shr_s",

	OpF32Add: "f32.add",
	OpF32Sub: "f32.sub",
	OpF32Mul: "f32.mul",
	OpF32Div: "f32.div",

	OpF64Add: "f64.add",
	OpF64Sub: "f64.sub",
	OpF64Mul: "f64.mul",
	OpF64Div: "f64.div",
}

func (op Opcode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(0x%02x)", byte(op))
}

// IsMemory reports whether op takes a memarg immediate.
func (op Opcode) IsMemory() bool {
	return op >= OpI32Load && op <= OpI32Store16
}
