package codegen

import (
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/wasm"
)

type storageKind int

const (
	// stPushed: the value is on the operand stack, left by the instruction
	// at pos.
	stPushed storageKind = iota + 1
	// stPopped: the value was consumed straight off the stack and lives
	// nowhere.
	stPopped
	// stLocal: the value is in local slot.
	stLocal
)

type storage struct {
	kind storageKind
	pos  wasm.Pos
	slot uint32
}

// stackEntry models one operand stack value. sym is ir.NoSym for values the
// emitter pushed itself (addresses). Entries from an older gen sit under a
// scope boundary or a terminator and cannot be consumed.
type stackEntry struct {
	sym ir.Sym
	gen int
}

// tracker decides where every scalar value lives while the function body is
// emitted. Values start on the operand stack; a value that is not on top of
// the stack when it is needed is moved into a fresh local after the fact by
// inserting a local.set (or local.tee) right behind its definition.
type tracker struct {
	code    *wasm.Code
	frame   *Frame
	types   map[ir.Sym]ir.Type
	syms    map[ir.Sym]*storage
	joinPrm map[ir.Sym]bool

	stack []stackEntry
	gen   int

	nparams uint32
	slots   []wasm.ValType
}

func newTracker(code *wasm.Code, frame *Frame, f *ir.Func, sig Signature, types map[ir.Sym]ir.Type) *tracker {
	t := &tracker{
		code:    code,
		frame:   frame,
		types:   types,
		syms:    map[ir.Sym]*storage{},
		joinPrm: map[ir.Sym]bool{},
		nparams: uint32(len(sig.Params)),
	}
	for i, p := range f.Params {
		if p.Ty.IsScalar() {
			t.syms[p.Sym] = &storage{kind: stLocal, slot: sig.paramLocal(i)}
		}
	}
	ir.Walk(f.Body, func(s ir.Stmt) {
		if j, ok := s.(*ir.Join); ok {
			for _, p := range j.Params {
				if p.Ty.IsScalar() {
					t.joinPrm[p.Sym] = true
				}
			}
		}
	})
	return t
}

// newSlot creates a local of type vt. Slots are numbered after the
// parameters in creation order and never reused.
func (t *tracker) newSlot(vt wasm.ValType) uint32 {
	idx := t.nparams + uint32(len(t.slots))
	t.slots = append(t.slots, vt)
	return idx
}

// local returns the slot of s, creating it for a join parameter seen for
// the first time.
func (t *tracker) local(s ir.Sym) uint32 {
	st := t.syms[s]
	if st == nil && t.joinPrm[s] {
		st = &storage{kind: stLocal, slot: t.newSlot(valType(t.types[s]))}
		t.syms[s] = st
	}
	if st == nil || st.kind != stLocal {
		panic(fmt.Sprintf("codegen: %s is not in a local", s))
	}
	return st.slot
}

// define records that the last emitted instruction left s on the stack.
func (t *tracker) define(s ir.Sym) {
	if !t.types[s].IsScalar() {
		return
	}
	t.syms[s] = &storage{kind: stPushed, pos: t.code.Last()}
	t.stack = append(t.stack, stackEntry{sym: s, gen: t.gen})
}

func (t *tracker) pushAnon() {
	t.stack = append(t.stack, stackEntry{sym: ir.NoSym, gen: t.gen})
}

func (t *tracker) popAnon() {
	n := len(t.stack)
	if n == 0 || t.stack[n-1].sym != ir.NoSym {
		panic("codegen: operand model out of sync")
	}
	t.stack = t.stack[:n-1]
}

// topMatch returns the length of the longest prefix of syms that equals the
// consumable top of the stack.
func (t *tracker) topMatch(syms []ir.Sym) int {
	for j := min(len(syms), len(t.stack)); j > 0; j-- {
		base := len(t.stack) - j
		ok := true
		for i := 0; i < j; i++ {
			e := t.stack[base+i]
			if e.gen != t.gen || e.sym == ir.NoSym || e.sym != syms[i] {
				ok = false
				break
			}
		}
		if ok {
			return j
		}
	}
	return 0
}

// load leaves syms on the stack in order.
func (t *tracker) load(syms ...ir.Sym) {
	j := t.topMatch(syms)
	for _, s := range syms[:j] {
		t.syms[s].kind = stPopped
	}
	t.stack = t.stack[:len(t.stack)-j]
	for _, s := range syms[j:] {
		t.fetch(s)
	}
}

func (t *tracker) remove(s ir.Sym) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].sym == s {
			t.stack = append(t.stack[:i], t.stack[i+1:]...)
			return
		}
	}
}

func (t *tracker) fetch(s ir.Sym) {
	ty := t.types[s]
	if ty.IsComposite() {
		t.frame.pushAddr(t.code, s)
		return
	}
	st := t.syms[s]
	if st == nil {
		t.code.Emit(wasm.LocalGet(t.local(s)))
		return
	}
	switch st.kind {
	case stPushed:
		slot := t.newSlot(valType(ty))
		t.code.InsertAfter(st.pos, wasm.LocalSet(slot))
		t.remove(s)
		*st = storage{kind: stLocal, slot: slot}
	case stPopped:
		slot := t.newSlot(valType(ty))
		t.code.InsertAfter(st.pos, wasm.LocalTee(slot))
		*st = storage{kind: stLocal, slot: slot}
	}
	t.code.Emit(wasm.LocalGet(st.slot))
}

// enterScope raises the floor: nothing pushed before a block or loop can be
// consumed inside it.
func (t *tracker) enterScope() int {
	saved := t.gen
	t.gen++
	return saved
}

// exitScope drops what the scope pushed and makes the enclosing values
// consumable again.
func (t *tracker) exitScope(saved int) {
	n := len(t.stack)
	for n > 0 && t.stack[n-1].gen > saved {
		n--
	}
	t.stack = t.stack[:n]
	t.gen = saved
}

// terminate raises the floor after an unconditional branch or return.
func (t *tracker) terminate() {
	t.gen++
}

func (t *tracker) slotTypes() []wasm.ValType {
	return t.slots
}
