package wasm

import "sort"

// Instr is one target instruction. Which immediates are meaningful depends
// on Op: Imm holds integer constants, local/global indices, branch depths and
// memarg offsets; Align holds the memarg alignment exponent; F holds float
// constants; Name holds the callee of a call.
type Instr struct {
	Op    Opcode
	Imm   int64
	F     float64
	Align uint32
	Name  string
}

func Simple(op Opcode) Instr { return Instr{Op: op} }

func LocalGet(idx uint32) Instr  { return Instr{Op: OpLocalGet, Imm: int64(idx)} }
func LocalSet(idx uint32) Instr  { return Instr{Op: OpLocalSet, Imm: int64(idx)} }
func LocalTee(idx uint32) Instr  { return Instr{Op: OpLocalTee, Imm: int64(idx)} }
func GlobalGet(idx uint32) Instr { return Instr{Op: OpGlobalGet, Imm: int64(idx)} }
func GlobalSet(idx uint32) Instr { return Instr{Op: OpGlobalSet, Imm: int64(idx)} }

func I32Const(v int32) Instr { return Instr{Op: OpI32Const, Imm: int64(v)} }
func I64Const(v int64) Instr { return Instr{Op: OpI64Const, Imm: v} }
func F32Const(v float32) Instr {
	return Instr{Op: OpF32Const, F: float64(v)}
}
func F64Const(v float64) Instr { return Instr{Op: OpF64Const, F: v} }

func Br(depth uint32) Instr   { return Instr{Op: OpBr, Imm: int64(depth)} }
func BrIf(depth uint32) Instr { return Instr{Op: OpBrIf, Imm: int64(depth)} }
func Call(name string) Instr  { return Instr{Op: OpCall, Name: name} }

// Mem builds a load or store with the given static offset and alignment
// exponent.
func Mem(op Opcode, offset uint32, alignLog2 uint32) Instr {
	return Instr{Op: op, Imm: int64(offset), Align: alignLog2}
}

// Pos is a stable position in a Code arena. Positions never move: retroactive
// insertions are kept beside the arena and spliced in by Finalize.
type Pos int

// NoPos is the position before the first instruction.
const NoPos Pos = -1

type insertion struct {
	after  Pos
	seq    int
	instrs []Instr
}

// Code is an append-only instruction arena with deferred insertions.
type Code struct {
	instrs     []Instr
	insertions []insertion
}

// Emit appends in and returns its stable position.
func (c *Code) Emit(in ...Instr) Pos {
	c.instrs = append(c.instrs, in...)
	return Pos(len(c.instrs) - 1)
}

// Last returns the position of the most recently emitted instruction.
func (c *Code) Last() Pos { return Pos(len(c.instrs) - 1) }

func (c *Code) Len() int { return len(c.instrs) }

// At returns the instruction emitted at p.
func (c *Code) At(p Pos) Instr { return c.instrs[p] }

// InsertAfter schedules instrs to be placed directly after the instruction
// at p. Insertions at the same position keep their scheduling order.
func (c *Code) InsertAfter(p Pos, instrs ...Instr) {
	c.insertions = append(c.insertions, insertion{after: p, seq: len(c.insertions), instrs: instrs})
}

func (c *Code) Insertions() int { return len(c.insertions) }

// Finalize applies every pending insertion in one pass and returns the
// resulting sequence. The arena is left untouched.
func (c *Code) Finalize() []Instr {
	ins := make([]insertion, len(c.insertions))
	copy(ins, c.insertions)
	sort.SliceStable(ins, func(i, j int) bool {
		if ins[i].after != ins[j].after {
			return ins[i].after < ins[j].after
		}
		return ins[i].seq < ins[j].seq
	})
	total := len(c.instrs)
	for _, in := range ins {
		total += len(in.instrs)
	}
	out := make([]Instr, 0, total)
	k := 0
	for k < len(ins) && ins[k].after == NoPos {
		out = append(out, ins[k].instrs...)
		k++
	}
	for p, in := range c.instrs {
		out = append(out, in)
		for k < len(ins) && ins[k].after == Pos(p) {
			out = append(out, ins[k].instrs...)
			k++
		}
	}
	return out
}
