package codegen

import (
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/wasm"
)

// Signature is the lowered calling convention of a function. A composite
// result becomes a leading i32 pointer parameter (RetPtr) and the function
// returns nothing; composite arguments are passed as one i32 pointer each.
type Signature struct {
	Params  []wasm.ValType
	Results []wasm.ValType
	RetPtr  bool
}

type Signatures map[string]Signature

func valType(t ir.Type) wasm.ValType {
	switch t.K {
	case ir.TI32, ir.TStruct:
		return wasm.I32
	case ir.TI64:
		return wasm.I64
	case ir.TF32:
		return wasm.F32
	case ir.TF64:
		return wasm.F64
	default:
		panic(fmt.Sprintf("codegen: %s has no value type", t))
	}
}

func SignatureOf(f *ir.Func) Signature {
	params := make([]ir.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Ty
	}
	return callSignature(params, f.Ret)
}

// ProgramSignatures lowers the signature of every function in p.
func ProgramSignatures(p *ir.Program) Signatures {
	sigs := make(Signatures, len(p.Funcs))
	for name, f := range p.Funcs {
		sigs[name] = SignatureOf(f)
	}
	return sigs
}

func (s Signature) FuncType() wasm.FuncType {
	return wasm.FuncType{Params: s.Params, Results: s.Results}
}

// paramLocal returns the local index of logical parameter i.
func (s Signature) paramLocal(i int) uint32 {
	if s.RetPtr {
		return uint32(i + 1)
	}
	return uint32(i)
}

// callSignature derives the signature a call site implies from its argument
// and result types.
func callSignature(args []ir.Type, ret ir.Type) Signature {
	var sig Signature
	if ret.IsComposite() {
		sig.RetPtr = true
		sig.Params = append(sig.Params, wasm.I32)
	} else if ret.IsScalar() {
		sig.Results = []wasm.ValType{valType(ret)}
	}
	for _, t := range args {
		sig.Params = append(sig.Params, valType(t))
	}
	return sig
}

func (s Signature) equal(o Signature) bool {
	if s.RetPtr != o.RetPtr || len(s.Params) != len(o.Params) || len(s.Results) != len(o.Results) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range s.Results {
		if s.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// checkCalls verifies every call site in f against the known callee
// signatures. Unknown callees are left to the module serializer.
func checkCalls(f *ir.Func, types map[ir.Sym]ir.Type, sigs Signatures) error {
	var err error
	ir.Walk(f.Body, func(s ir.Stmt) {
		let, ok := s.(*ir.Let)
		if !ok || err != nil {
			return
		}
		c, ok := let.Expr.(*ir.Call)
		if !ok {
			return
		}
		callee, known := sigs[c.Name]
		if !known {
			return
		}
		argTypes := make([]ir.Type, len(c.Args))
		for i, a := range c.Args {
			argTypes[i] = types[a]
		}
		if site := callSignature(argTypes, let.Ty); !site.equal(callee) {
			err = fmt.Errorf("call %s: site lowers to %v, callee is %v", c.Name, site.FuncType(), callee.FuncType())
		}
	})
	return err
}
