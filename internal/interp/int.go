package interp

import (
	"math"

	"github.com/dankeyy/roc/internal/ir"
)

func intBinOp(op ir.BinOpKind, t ir.Type, a, b Value) (Value, error) {
	if t.K == ir.TI32 {
		x, y := int32(a.Int()), int32(b.Int())
		switch op {
		case ir.OpAdd:
			return I32(x + y), nil
		case ir.OpSub:
			return I32(x - y), nil
		case ir.OpMul:
			return I32(x * y), nil
		case ir.OpDiv:
			if y == 0 {
				return Value{}, errDivZero
			}
			if x == math.MinInt32 && y == -1 {
				return Value{}, errOverflow
			}
			return I32(x / y), nil
		case ir.OpRem:
			if y == 0 {
				return Value{}, errDivZero
			}
			if y == -1 {
				return I32(0), nil
			}
			return I32(x % y), nil
		case ir.OpAnd:
			return I32(x & y), nil
		case ir.OpOr:
			return I32(x | y), nil
		case ir.OpXor:
			return I32(x ^ y), nil
		case ir.OpShl:
			return I32(x << (uint32(y) & 31)), nil
		case ir.OpShr:
			return I32(x >> (uint32(y) & 31)), nil
		}
	}
	x, y := a.Int(), b.Int()
	switch op {
	case ir.OpAdd:
		return I64(x + y), nil
	case ir.OpSub:
		return I64(x - y), nil
	case ir.OpMul:
		return I64(x * y), nil
	case ir.OpDiv:
		if y == 0 {
			return Value{}, errDivZero
		}
		if x == math.MinInt64 && y == -1 {
			return Value{}, errOverflow
		}
		return I64(x / y), nil
	case ir.OpRem:
		if y == 0 {
			return Value{}, errDivZero
		}
		if y == -1 {
			return I64(0), nil
		}
		return I64(x % y), nil
	case ir.OpAnd:
		return I64(x & y), nil
	case ir.OpOr:
		return I64(x | y), nil
	case ir.OpXor:
		return I64(x ^ y), nil
	case ir.OpShl:
		return I64(x << (uint64(y) & 63)), nil
	case ir.OpShr:
		return I64(x >> (uint64(y) & 63)), nil
	}
	return Value{}, errBadOp(op, t)
}

func floatBinOp(op ir.BinOpKind, t ir.Type, a, b Value) (Value, error) {
	if t.K == ir.TF32 {
		x, y := float32(a.Float()), float32(b.Float())
		switch op {
		case ir.OpAdd:
			return F32(x + y), nil
		case ir.OpSub:
			return F32(x - y), nil
		case ir.OpMul:
			return F32(x * y), nil
		case ir.OpDiv:
			return F32(x / y), nil
		}
		return Value{}, errBadOp(op, t)
	}
	x, y := a.Float(), b.Float()
	switch op {
	case ir.OpAdd:
		return F64(x + y), nil
	case ir.OpSub:
		return F64(x - y), nil
	case ir.OpMul:
		return F64(x * y), nil
	case ir.OpDiv:
		return F64(x / y), nil
	}
	return Value{}, errBadOp(op, t)
}

func compare(op ir.CmpKind, t ir.Type, a, b Value) Value {
	var r bool
	if t.IsFloat() {
		x, y := a.Float(), b.Float()
		switch op {
		case ir.CmpEq:
			r = x == y
		case ir.CmpNe:
			r = x != y
		case ir.CmpLt:
			r = x < y
		case ir.CmpLe:
			r = x <= y
		case ir.CmpGt:
			r = x > y
		case ir.CmpGe:
			r = x >= y
		}
	} else {
		x, y := a.Int(), b.Int()
		switch op {
		case ir.CmpEq:
			r = x == y
		case ir.CmpNe:
			r = x != y
		case ir.CmpLt:
			r = x < y
		case ir.CmpLe:
			r = x <= y
		case ir.CmpGt:
			r = x > y
		case ir.CmpGe:
			r = x >= y
		}
	}
	if r {
		return I32(1)
	}
	return I32(0)
}
