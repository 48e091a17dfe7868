package codegen

import (
	"github.com/dankeyy/roc/internal/wasm"
)

// Function is the compiled form of one IR function. Calls in Code name
// their callee; the module serializer resolves names to indices.
type Function struct {
	Name string
	Sig  Signature
	// Slots are the locals after the parameters, in index order.
	Slots     []wasm.ValType
	FrameSize uint32
	Code      []wasm.Instr
}

// assemble applies the pending insertions and packages the result.
func (fc *funcCompiler) assemble() *Function {
	return &Function{
		Name:      fc.f.Name,
		Sig:       fc.sig,
		Slots:     fc.t.slotTypes(),
		FrameSize: fc.frame.Size,
		Code:      fc.code.Finalize(),
	}
}

// WasmFunc converts fn for the module serializer.
func (fn *Function) WasmFunc() wasm.Func {
	return wasm.Func{
		Name:   fn.Name,
		Type:   fn.Sig.FuncType(),
		Locals: fn.Slots,
		Body:   fn.Code,
	}
}

// Text renders fn in the text form.
func (fn *Function) Text() string {
	wf := fn.WasmFunc()
	return wasm.FormatFunc(&wf)
}

// BuildModule places fns into one module with the stack pointer at the top
// of memory.
func BuildModule(fns []*Function, memoryPages uint32) *wasm.Module {
	m := &wasm.Module{MemoryPages: memoryPages}
	for _, fn := range fns {
		m.Funcs = append(m.Funcs, fn.WasmFunc())
	}
	return m
}
