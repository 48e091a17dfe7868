package wasm

import (
	"fmt"
	"strings"
)

// StackPointer is the index of the mutable i32 global that holds the shadow
// stack pointer. It is always the first global of a module.
const StackPointer = 0

// StackPointerExport is the export name of the stack pointer global.
const StackPointerExport = "__stack_pointer"

// MemoryExport is the export name of linear memory 0.
const MemoryExport = "memory"

const pageSize = 65536

// MaxMemoryPages keeps the stack pointer representable as a positive i32.
const MaxMemoryPages = 32767

type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (t FuncType) String() string {
	var sb strings.Builder
	sb.WriteString("(func")
	if len(t.Params) > 0 {
		sb.WriteString(" (param")
		for _, p := range t.Params {
			sb.WriteByte(' ')
			sb.WriteString(p.String())
		}
		sb.WriteByte(')')
	}
	if len(t.Results) > 0 {
		sb.WriteString(" (result")
		for _, r := range t.Results {
			sb.WriteByte(' ')
			sb.WriteString(r.String())
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(')')
	return sb.String()
}

// Func is one function definition. Locals lists the non-parameter locals;
// Body holds the instructions without the closing end.
type Func struct {
	Name   string
	Type   FuncType
	Locals []ValType
	Body   []Instr
}

type Module struct {
	Funcs []Func
	// MemoryPages is the initial (and minimum) size of memory 0.
	MemoryPages uint32
}

// StackBase returns the initial stack pointer value: the end of the initial
// memory.
func (m *Module) StackBase() uint32 {
	return m.MemoryPages * pageSize
}

const (
	secType     = 1
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10

	exportFunc   = 0x00
	exportMemory = 0x02
	exportGlobal = 0x03

	funcTypeTag = 0x60
)

// FuncIndex maps every function name to its index.
func (m *Module) FuncIndex() (map[string]uint32, error) {
	idx := make(map[string]uint32, len(m.Funcs))
	for i, f := range m.Funcs {
		if f.Name == "" {
			return nil, fmt.Errorf("function %d has no name", i)
		}
		if _, dup := idx[f.Name]; dup {
			return nil, fmt.Errorf("duplicate function %q", f.Name)
		}
		if f.Name == MemoryExport || f.Name == StackPointerExport {
			return nil, fmt.Errorf("function %q clashes with a reserved export", f.Name)
		}
		idx[f.Name] = uint32(i)
	}
	return idx, nil
}

// Encode produces the binary module.
func (m *Module) Encode() ([]byte, error) {
	if m.MemoryPages == 0 {
		return nil, fmt.Errorf("module has no memory")
	}
	if m.MemoryPages > MaxMemoryPages {
		return nil, fmt.Errorf("memory of %d pages exceeds %d", m.MemoryPages, MaxMemoryPages)
	}
	funcIndex, err := m.FuncIndex()
	if err != nil {
		return nil, err
	}

	var types []FuncType
	typeIndex := map[string]uint32{}
	funcTypes := make([]uint32, len(m.Funcs))
	for i, f := range m.Funcs {
		key := f.Type.String()
		ti, ok := typeIndex[key]
		if !ok {
			ti = uint32(len(types))
			typeIndex[key] = ti
			types = append(types, f.Type)
		}
		funcTypes[i] = ti
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var sec []byte
	sec = appendULEB(sec, uint64(len(types)))
	for _, t := range types {
		sec = append(sec, funcTypeTag)
		sec = appendValTypes(sec, t.Params)
		sec = appendValTypes(sec, t.Results)
	}
	out = appendSection(out, secType, sec)

	sec = appendULEB(nil, uint64(len(funcTypes)))
	for _, ti := range funcTypes {
		sec = appendULEB(sec, uint64(ti))
	}
	out = appendSection(out, secFunction, sec)

	sec = appendULEB(nil, 1)
	sec = append(sec, 0x00) // limits: min only
	sec = appendULEB(sec, uint64(m.MemoryPages))
	out = appendSection(out, secMemory, sec)

	sec = appendULEB(nil, 1)
	sec = append(sec, byte(I32), 0x01) // mutable
	sec = append(sec, byte(OpI32Const))
	sec = appendSLEB(sec, int64(int32(m.StackBase())))
	sec = append(sec, byte(OpEnd))
	out = appendSection(out, secGlobal, sec)

	sec = appendULEB(nil, uint64(len(m.Funcs)+2))
	for i, f := range m.Funcs {
		sec = appendName(sec, f.Name)
		sec = append(sec, exportFunc)
		sec = appendULEB(sec, uint64(i))
	}
	sec = appendName(sec, MemoryExport)
	sec = append(sec, exportMemory)
	sec = appendULEB(sec, 0)
	sec = appendName(sec, StackPointerExport)
	sec = append(sec, exportGlobal)
	sec = appendULEB(sec, StackPointer)
	out = appendSection(out, secExport, sec)

	sec = appendULEB(nil, uint64(len(m.Funcs)))
	for _, f := range m.Funcs {
		body, err := EncodeBody(f.Locals, f.Body, funcIndex)
		if err != nil {
			return nil, fmt.Errorf("func %s: %w", f.Name, err)
		}
		sec = appendULEB(sec, uint64(len(body)))
		sec = append(sec, body...)
	}
	out = appendSection(out, secCode, sec)
	return out, nil
}

func appendValTypes(buf []byte, vts []ValType) []byte {
	buf = appendULEB(buf, uint64(len(vts)))
	for _, v := range vts {
		buf = append(buf, byte(v))
	}
	return buf
}

func appendSection(buf []byte, id byte, payload []byte) []byte {
	buf = append(buf, id)
	buf = appendULEB(buf, uint64(len(payload)))
	return append(buf, payload...)
}
