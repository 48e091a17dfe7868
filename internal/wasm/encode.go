package wasm

import (
	"encoding/binary"
	"fmt"
	"math"
)

func appendULEB(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

func appendSLEB(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		buf = append(buf, b)
		if done {
			return buf
		}
	}
}

func appendName(buf []byte, s string) []byte {
	buf = appendULEB(buf, uint64(len(s)))
	return append(buf, s...)
}

// appendInstr encodes in. Call targets are resolved through funcIndex.
func appendInstr(buf []byte, in Instr, funcIndex map[string]uint32) ([]byte, error) {
	buf = append(buf, byte(in.Op))
	switch {
	case in.Op == OpBlock || in.Op == OpLoop:
		buf = append(buf, blockTypeEmpty)
	case in.Op == OpBr || in.Op == OpBrIf,
		in.Op == OpLocalGet || in.Op == OpLocalSet || in.Op == OpLocalTee,
		in.Op == OpGlobalGet || in.Op == OpGlobalSet:
		if in.Imm < 0 || in.Imm > math.MaxUint32 {
			return nil, fmt.Errorf("%s: immediate %d out of range", in.Op, in.Imm)
		}
		buf = appendULEB(buf, uint64(in.Imm))
	case in.Op == OpCall:
		idx, ok := funcIndex[in.Name]
		if !ok {
			return nil, fmt.Errorf("call to undefined function %q", in.Name)
		}
		buf = appendULEB(buf, uint64(idx))
	case in.Op == OpI32Const:
		buf = appendSLEB(buf, int64(int32(in.Imm)))
	case in.Op == OpI64Const:
		buf = appendSLEB(buf, in.Imm)
	case in.Op == OpF32Const:
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(in.F)))
	case in.Op == OpF64Const:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(in.F))
	case in.Op.IsMemory():
		buf = appendULEB(buf, uint64(in.Align))
		buf = appendULEB(buf, uint64(uint32(in.Imm)))
	}
	return buf, nil
}

type localGroup struct {
	count uint32
	vt    ValType
}

func compactLocals(types []ValType) []localGroup {
	var groups []localGroup
	for _, t := range types {
		if n := len(groups); n > 0 && groups[n-1].vt == t {
			groups[n-1].count++
			continue
		}
		groups = append(groups, localGroup{count: 1, vt: t})
	}
	return groups
}

// EncodeBody encodes a function body: local declarations, instructions and
// the closing end.
func EncodeBody(locals []ValType, body []Instr, funcIndex map[string]uint32) ([]byte, error) {
	groups := compactLocals(locals)
	buf := appendULEB(nil, uint64(len(groups)))
	for _, g := range groups {
		buf = appendULEB(buf, uint64(g.count))
		buf = append(buf, byte(g.vt))
	}
	var err error
	for _, in := range body {
		if buf, err = appendInstr(buf, in, funcIndex); err != nil {
			return nil, err
		}
	}
	return append(buf, byte(OpEnd)), nil
}
