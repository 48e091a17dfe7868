package codegen

import (
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/structure"
	"github.com/dankeyy/roc/internal/wasm"
)

// funcCompiler holds everything that is private to compiling one function.
type funcCompiler struct {
	f      *ir.Func
	sig    Signature
	types  map[ir.Sym]ir.Type
	code   wasm.Code
	frame  *Frame
	t      *tracker
	labels []structure.Label
}

func newFuncCompiler(f *ir.Func, sig Signature, types map[ir.Sym]ir.Type, frame *Frame) *funcCompiler {
	fc := &funcCompiler{f: f, sig: sig, types: types, frame: frame}
	fc.t = newTracker(&fc.code, frame, f, sig, types)
	if frame.usesFP() {
		frame.fp = fc.t.newSlot(wasm.I32)
		frame.hasFP = true
	}
	return fc
}

func (fc *funcCompiler) emitFunc(tree *structure.Tree) {
	fc.frame.prologue(&fc.code)
	fc.emitNodes(tree.Body)
}

func (fc *funcCompiler) emitNodes(nodes []structure.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *structure.Scope:
			fc.emitScope(n)
		case *structure.Let:
			fc.emitLet(n)
		case *structure.BrIf:
			fc.emitBrIf(n)
		case *structure.Br:
			fc.emitBr(n)
		case *structure.Ret:
			fc.emitRet(n)
		default:
			panic(fmt.Sprintf("codegen: unsupported node %T", n))
		}
	}
	if structure.EndsInScope(nodes) {
		fc.code.Emit(wasm.Simple(wasm.OpUnreachable))
	}
}

func (fc *funcCompiler) emitScope(s *structure.Scope) {
	op := wasm.OpBlock
	if s.Kind == structure.Loop {
		op = wasm.OpLoop
	}
	fc.code.Emit(wasm.Simple(op))
	fc.labels = append(fc.labels, s.Label)
	saved := fc.t.enterScope()
	fc.emitNodes(s.Body)
	fc.t.exitScope(saved)
	fc.labels = fc.labels[:len(fc.labels)-1]
	fc.code.Emit(wasm.Simple(wasm.OpEnd))
}

// depth returns the branch depth of label l from the innermost open scope.
func (fc *funcCompiler) depth(l structure.Label) uint32 {
	for i := len(fc.labels) - 1; i >= 0; i-- {
		if fc.labels[i] == l {
			return uint32(len(fc.labels) - 1 - i)
		}
	}
	panic(fmt.Sprintf("codegen: label %s is not open", l))
}

func (fc *funcCompiler) emitLet(l *structure.Let) {
	switch e := l.Expr.(type) {
	case *ir.Literal:
		fc.code.Emit(literal(e))
	case *ir.BinOp:
		fc.t.load(e.A, e.B)
		fc.code.Emit(wasm.Simple(binOpcode(e.Op, e.Ty)))
	case *ir.Cmp:
		fc.t.load(e.A, e.B)
		fc.code.Emit(wasm.Simple(cmpOpcode(e.Op, e.Ty)))
	case *ir.Call:
		fc.emitCall(l, e)
		return
	case *ir.StructInit:
		fc.emitStructInit(l, e)
		return
	case *ir.FieldGet:
		fc.emitFieldGet(l, e)
		return
	default:
		panic(fmt.Sprintf("codegen: unsupported expression %T", l.Expr))
	}
	fc.t.define(l.Sym)
}

func (fc *funcCompiler) emitCall(l *structure.Let, c *ir.Call) {
	retPtr := l.Ty.IsComposite()
	if retPtr {
		fc.frame.pushAddr(&fc.code, l.Sym)
		fc.t.pushAnon()
	}
	fc.t.load(c.Args...)
	fc.code.Emit(wasm.Call(c.Name))
	if retPtr {
		fc.t.popAnon()
		return
	}
	fc.t.define(l.Sym)
}

func (fc *funcCompiler) emitStructInit(l *structure.Let, s *ir.StructInit) {
	dst, dstOff := fc.frame.base(l.Sym)
	for i, f := range l.Ty.Layout.Fields {
		src := s.Fields[i]
		if f.Ty.IsComposite() {
			sl, soff := fc.frame.base(src)
			copyMemory(&fc.code, dst, dstOff+f.Offset, sl, soff, f.Ty.Size(), f.Ty.Align())
			continue
		}
		fc.code.Emit(wasm.LocalGet(dst))
		fc.t.pushAnon()
		fc.t.load(src)
		op, align := storeOp(f.Ty)
		fc.code.Emit(wasm.Mem(op, dstOff+f.Offset, align))
		fc.t.popAnon()
	}
}

func (fc *funcCompiler) emitFieldGet(l *structure.Let, g *ir.FieldGet) {
	recv := fc.types[g.Recv]
	f := recv.Layout.Fields[g.Index]
	base, off := fc.frame.base(g.Recv)
	if f.Ty.IsComposite() {
		dst, dstOff := fc.frame.base(l.Sym)
		copyMemory(&fc.code, dst, dstOff, base, off+f.Offset, f.Ty.Size(), f.Ty.Align())
		return
	}
	op, align := loadOp(f.Ty)
	fc.code.Emit(wasm.LocalGet(base), wasm.Mem(op, off+f.Offset, align))
	fc.t.define(l.Sym)
}

func (fc *funcCompiler) emitBrIf(b *structure.BrIf) {
	fc.t.load(b.Cond)
	switch {
	case b.Value == 0 && b.Ty.K == ir.TI32:
		fc.code.Emit(wasm.Simple(wasm.OpI32Eqz))
	case b.Value == 0:
		fc.code.Emit(wasm.Simple(wasm.OpI64Eqz))
	case b.Ty.K == ir.TI32:
		fc.code.Emit(wasm.I32Const(int32(b.Value)), wasm.Simple(wasm.OpI32Eq))
	default:
		fc.code.Emit(wasm.I64Const(b.Value), wasm.Simple(wasm.OpI64Eq))
	}
	fc.code.Emit(wasm.BrIf(fc.depth(b.Target)))
}

// emitBr assigns the jump arguments to the join parameters as one parallel
// move and branches.
func (fc *funcCompiler) emitBr(b *structure.Br) {
	staging := fc.frame.staging[b.Join]
	if staging != nil {
		for i, p := range b.Params {
			a := b.Args[i]
			if p.Ty.IsComposite() && a != p.Sym {
				sl, soff := fc.frame.base(a)
				copyMemory(&fc.code, fc.frame.fp, staging[i], sl, soff, p.Ty.Size(), p.Ty.Align())
			}
		}
	}
	for i, p := range b.Params {
		a := b.Args[i]
		if !p.Ty.IsComposite() || a == p.Sym {
			continue
		}
		dst, dstOff := fc.frame.base(p.Sym)
		if staging != nil {
			copyMemory(&fc.code, dst, dstOff, fc.frame.fp, staging[i], p.Ty.Size(), p.Ty.Align())
			continue
		}
		fc.frame.copyValue(&fc.code, p.Sym, a, p.Ty)
	}

	var args []ir.Sym
	var dsts []uint32
	for i, p := range b.Params {
		a := b.Args[i]
		if p.Ty.IsComposite() || a == p.Sym {
			continue
		}
		args = append(args, a)
		dsts = append(dsts, fc.t.local(p.Sym))
	}
	fc.t.load(args...)
	for i := len(dsts) - 1; i >= 0; i-- {
		fc.code.Emit(wasm.LocalSet(dsts[i]))
	}
	fc.code.Emit(wasm.Br(fc.depth(b.Target)))
	fc.t.terminate()
}

func (fc *funcCompiler) emitRet(r *structure.Ret) {
	ty := fc.types[r.Sym]
	switch {
	case r.Sym == ir.NoSym || ty.K == ir.TUnit:
	case ty.IsComposite():
		sl, soff := fc.frame.base(r.Sym)
		copyMemory(&fc.code, 0, 0, sl, soff, ty.Size(), ty.Align())
	default:
		fc.t.load(r.Sym)
	}
	fc.frame.epilogue(&fc.code)
	fc.code.Emit(wasm.Simple(wasm.OpReturn))
	fc.t.terminate()
}

func literal(e *ir.Literal) wasm.Instr {
	switch e.Ty.K {
	case ir.TI32:
		return wasm.I32Const(int32(e.I))
	case ir.TI64:
		return wasm.I64Const(e.I)
	case ir.TF32:
		return wasm.F32Const(float32(e.F))
	case ir.TF64:
		return wasm.F64Const(e.F)
	default:
		panic(fmt.Sprintf("codegen: literal of type %s", e.Ty))
	}
}

var binOps = map[ir.TypeKind]map[ir.BinOpKind]wasm.Opcode{
	ir.TI32: {
		ir.OpAdd: wasm.OpI32Add, ir.OpSub: wasm.OpI32Sub, ir.OpMul: wasm.OpI32Mul,
		ir.OpDiv: wasm.OpI32DivS, ir.OpRem: wasm.OpI32RemS,
		ir.OpAnd: wasm.OpI32And, ir.OpOr: wasm.OpI32Or, ir.OpXor: wasm.OpI32Xor,
		ir.OpShl: wasm.OpI32Shl, ir.OpShr: wasm.OpI32ShrS,
	},
	ir.TI64: {
		ir.OpAdd: wasm.OpI64Add, ir.OpSub: wasm.OpI64Sub, ir.OpMul: wasm.OpI64Mul,
		ir.OpDiv: wasm.OpI64DivS, ir.OpRem: wasm.OpI64RemS,
		ir.OpAnd: wasm.OpI64And, ir.OpOr: wasm.OpI64Or, ir.OpXor: wasm.OpI64Xor,
		ir.OpShl: wasm.OpI64Shl, ir.OpShr: wasm.OpI64ShrS,
	},
	ir.TF32: {
		ir.OpAdd: wasm.OpF32Add, ir.OpSub: wasm.OpF32Sub, ir.OpMul: wasm.OpF32Mul, ir.OpDiv: wasm.OpF32Div,
	},
	ir.TF64: {
		ir.OpAdd: wasm.OpF64Add, ir.OpSub: wasm.OpF64Sub, ir.OpMul: wasm.OpF64Mul, ir.OpDiv: wasm.OpF64Div,
	},
}

var cmpOps = map[ir.TypeKind]map[ir.CmpKind]wasm.Opcode{
	ir.TI32: {
		ir.CmpEq: wasm.OpI32Eq, ir.CmpNe: wasm.OpI32Ne, ir.CmpLt: wasm.OpI32LtS,
		ir.CmpLe: wasm.OpI32LeS, ir.CmpGt: wasm.OpI32GtS, ir.CmpGe: wasm.OpI32GeS,
	},
	ir.TI64: {
		ir.CmpEq: wasm.OpI64Eq, ir.CmpNe: wasm.OpI64Ne, ir.CmpLt: wasm.OpI64LtS,
		ir.CmpLe: wasm.OpI64LeS, ir.CmpGt: wasm.OpI64GtS, ir.CmpGe: wasm.OpI64GeS,
	},
	ir.TF32: {
		ir.CmpEq: wasm.OpF32Eq, ir.CmpNe: wasm.OpF32Ne, ir.CmpLt: wasm.OpF32Lt,
		ir.CmpLe: wasm.OpF32Le, ir.CmpGt: wasm.OpF32Gt, ir.CmpGe: wasm.OpF32Ge,
	},
	ir.TF64: {
		ir.CmpEq: wasm.OpF64Eq, ir.CmpNe: wasm.OpF64Ne, ir.CmpLt: wasm.OpF64Lt,
		ir.CmpLe: wasm.OpF64Le, ir.CmpGt: wasm.OpF64Gt, ir.CmpGe: wasm.OpF64Ge,
	},
}

func binOpcode(op ir.BinOpKind, t ir.Type) wasm.Opcode {
	if code, ok := binOps[t.K][op]; ok {
		return code
	}
	panic(fmt.Sprintf("codegen: no instruction for %s on %s", op, t))
}

func cmpOpcode(op ir.CmpKind, t ir.Type) wasm.Opcode {
	if code, ok := cmpOps[t.K][op]; ok {
		return code
	}
	panic(fmt.Sprintf("codegen: no instruction for %s on %s", op, t))
}
