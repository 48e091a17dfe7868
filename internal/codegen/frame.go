package codegen

import (
	"fmt"
	"math"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/wasm"
)

// frameAlign is the alignment of every frame and of the stack pointer.
const frameAlign = 16

// Frame is the linear-memory region of one activation. Composite locals and
// composite join parameters come first, then buffers that callees write
// composite results into, then staging copies for jumps that permute
// composite join parameters. Composite function parameters are not copied:
// they are addressed through their pointer parameter.
type Frame struct {
	Size uint32

	fp      uint32
	hasFP   bool
	offsets map[ir.Sym]uint32
	aliases map[ir.Sym]uint32
	staging map[ir.JoinID][]uint32
}

type frameLayout struct {
	off      uint64
	joins    map[ir.JoinID]*ir.Join
	outgoing []*ir.Let
}

func (l *frameLayout) reserve(t ir.Type) uint32 {
	a := uint64(t.Align())
	l.off = (l.off + a - 1) &^ (a - 1)
	at := l.off
	l.off += uint64(t.Size())
	if at > math.MaxUint32 {
		// Reported as overflow once the total is known.
		return math.MaxUint32
	}
	return uint32(at)
}

// layoutFrame assigns a frame offset to every composite value of f that is
// not a function parameter. limit bounds the frame size; zero means the
// largest size a 32-bit stack pointer can subtract.
func layoutFrame(f *ir.Func, sig Signature, limit uint32) (*Frame, error) {
	fr := &Frame{
		offsets: map[ir.Sym]uint32{},
		aliases: map[ir.Sym]uint32{},
		staging: map[ir.JoinID][]uint32{},
	}
	for i, p := range f.Params {
		if p.Ty.IsComposite() {
			fr.aliases[p.Sym] = sig.paramLocal(i)
		}
	}
	l := &frameLayout{joins: map[ir.JoinID]*ir.Join{}}

	ir.Walk(f.Body, func(s ir.Stmt) {
		switch st := s.(type) {
		case *ir.Let:
			if !st.Ty.IsComposite() {
				return
			}
			if _, ok := st.Expr.(*ir.Call); ok {
				l.outgoing = append(l.outgoing, st)
				return
			}
			fr.offsets[st.Sym] = l.reserve(st.Ty)
		case *ir.Join:
			l.joins[st.ID] = st
			for _, p := range st.Params {
				if p.Ty.IsComposite() {
					fr.offsets[p.Sym] = l.reserve(p.Ty)
				}
			}
		}
	})
	for _, let := range l.outgoing {
		fr.offsets[let.Sym] = l.reserve(let.Ty)
	}
	ir.Walk(f.Body, func(s ir.Stmt) {
		j, ok := s.(*ir.Jump)
		if !ok {
			return
		}
		target, ok := l.joins[j.Target]
		if !ok || fr.staging[j.Target] != nil || !permutesComposites(target.Params, j.Args) {
			return
		}
		slots := make([]uint32, len(target.Params))
		for i, p := range target.Params {
			if p.Ty.IsComposite() {
				slots[i] = l.reserve(p.Ty)
			}
		}
		fr.staging[j.Target] = slots
	})

	total := (l.off + frameAlign - 1) &^ (frameAlign - 1)
	bound := uint64(math.MaxInt32)
	if limit != 0 && uint64(limit) < bound {
		bound = uint64(limit)
	}
	if total > bound {
		return nil, &FrameOverflowError{Func: f.Name, Size: total, Limit: bound}
	}
	fr.Size = uint32(total)
	return fr, nil
}

// permutesComposites reports whether a jump passes some composite parameter
// of its target to a different parameter of the same target. Copying such
// arguments in place would read a parameter after it was overwritten.
func permutesComposites(params []ir.Param, args []ir.Sym) bool {
	for i, a := range args {
		if i >= len(params) || !params[i].Ty.IsComposite() {
			continue
		}
		for k, p := range params {
			if k != i && p.Sym == a {
				return true
			}
		}
	}
	return false
}

// base returns the local holding the address a composite symbol is relative
// to, and the static offset from it.
func (fr *Frame) base(s ir.Sym) (uint32, uint32) {
	if l, ok := fr.aliases[s]; ok {
		return l, 0
	}
	if off, ok := fr.offsets[s]; ok {
		return fr.fp, off
	}
	panic(fmt.Sprintf("codegen: composite %s has no frame slot", s))
}

// pushAddr emits the address of composite s.
func (fr *Frame) pushAddr(c *wasm.Code, s ir.Sym) {
	l, off := fr.base(s)
	c.Emit(wasm.LocalGet(l))
	if off != 0 {
		c.Emit(wasm.I32Const(int32(off)), wasm.Simple(wasm.OpI32Add))
	}
}

// usesFP reports whether any composite is addressed relative to fp. Empty
// composites still get an offset, so this can hold for a zero-size frame.
func (fr *Frame) usesFP() bool {
	return fr.Size > 0 || len(fr.offsets) > 0 || len(fr.staging) > 0
}

func (fr *Frame) prologue(c *wasm.Code) {
	if !fr.hasFP {
		return
	}
	if fr.Size == 0 {
		c.Emit(wasm.GlobalGet(wasm.StackPointer), wasm.LocalSet(fr.fp))
		return
	}
	c.Emit(
		wasm.GlobalGet(wasm.StackPointer),
		wasm.I32Const(int32(fr.Size)),
		wasm.Simple(wasm.OpI32Sub),
		wasm.LocalTee(fr.fp),
		wasm.GlobalSet(wasm.StackPointer),
	)
}

func (fr *Frame) epilogue(c *wasm.Code) {
	if fr.Size == 0 {
		return
	}
	c.Emit(
		wasm.LocalGet(fr.fp),
		wasm.I32Const(int32(fr.Size)),
		wasm.Simple(wasm.OpI32Add),
		wasm.GlobalSet(wasm.StackPointer),
	)
}

type chunk struct {
	size  uint32
	load  wasm.Opcode
	store wasm.Opcode
	align uint32
}

var chunks = []chunk{
	{8, wasm.OpI64Load, wasm.OpI64Store, 3},
	{4, wasm.OpI32Load, wasm.OpI32Store, 2},
	{2, wasm.OpI32Load16U, wasm.OpI32Store16, 1},
	{1, wasm.OpI32Load8U, wasm.OpI32Store8, 0},
}

// copyMemory copies size bytes from src+srcOff to dst+dstOff using the
// widest accesses the alignment allows.
func copyMemory(c *wasm.Code, dst, dstOff, src, srcOff, size, align uint32) {
	var k uint32
	for k < size {
		ch := chunks[len(chunks)-1]
		for _, cand := range chunks {
			if cand.size <= align && k%cand.size == 0 && size-k >= cand.size {
				ch = cand
				break
			}
		}
		c.Emit(
			wasm.LocalGet(dst),
			wasm.LocalGet(src),
			wasm.Mem(ch.load, srcOff+k, ch.align),
			wasm.Mem(ch.store, dstOff+k, ch.align),
		)
		k += ch.size
	}
}

// copyValue copies composite src into composite dst.
func (fr *Frame) copyValue(c *wasm.Code, dst, src ir.Sym, t ir.Type) {
	dl, doff := fr.base(dst)
	sl, soff := fr.base(src)
	copyMemory(c, dl, doff, sl, soff, t.Size(), t.Align())
}

func loadOp(t ir.Type) (wasm.Opcode, uint32) {
	switch t.K {
	case ir.TI32:
		return wasm.OpI32Load, 2
	case ir.TI64:
		return wasm.OpI64Load, 3
	case ir.TF32:
		return wasm.OpF32Load, 2
	case ir.TF64:
		return wasm.OpF64Load, 3
	default:
		panic(fmt.Sprintf("codegen: no load for %s", t))
	}
}

func storeOp(t ir.Type) (wasm.Opcode, uint32) {
	switch t.K {
	case ir.TI32:
		return wasm.OpI32Store, 2
	case ir.TI64:
		return wasm.OpI64Store, 3
	case ir.TF32:
		return wasm.OpF32Store, 2
	case ir.TF64:
		return wasm.OpF64Store, 3
	default:
		panic(fmt.Sprintf("codegen: no store for %s", t))
	}
}
