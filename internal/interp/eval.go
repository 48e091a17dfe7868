package interp

import (
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
)

func (rt *Runtime) exec(fr *frame, s ir.Stmt) (Value, error) {
	for {
		rt.steps++
		if rt.MaxSteps > 0 && rt.steps > rt.MaxSteps {
			return unit(), rt.trap(fr, errNoFuel)
		}
		switch st := s.(type) {
		case *ir.Let:
			v, err := rt.eval(fr, st)
			if err != nil {
				return unit(), rt.trap(fr, err)
			}
			fr.vals[st.Sym] = v
			s = st.Next
		case *ir.Ret:
			if st.Sym == ir.NoSym {
				return unit(), nil
			}
			v, err := fr.get(st.Sym)
			if err != nil {
				return unit(), rt.trap(fr, err)
			}
			return v, nil
		case *ir.Switch:
			c, err := fr.get(st.Cond)
			if err != nil {
				return unit(), rt.trap(fr, err)
			}
			s = st.Default
			for _, cs := range st.Cases {
				if c.Int() == cs.Value {
					s = cs.Body
					break
				}
			}
		case *ir.Join:
			fr.joins[st.ID] = st
			s = st.Remainder
		case *ir.Jump:
			j, ok := fr.joins[st.Target]
			if !ok {
				return unit(), rt.trap(fr, fmt.Errorf("jump to %s outside its scope", st.Target))
			}
			if len(st.Args) != len(j.Params) {
				return unit(), rt.trap(fr, fmt.Errorf("jump to %s with %d args, want %d", st.Target, len(st.Args), len(j.Params)))
			}
			// Read every argument before binding any parameter.
			vals := make([]Value, len(st.Args))
			for i, a := range st.Args {
				v, err := fr.get(a)
				if err != nil {
					return unit(), rt.trap(fr, err)
				}
				vals[i] = v
			}
			for i, p := range j.Params {
				fr.vals[p.Sym] = vals[i]
			}
			s = j.Body
		default:
			return unit(), rt.trap(fr, fmt.Errorf("unsupported statement %T", s))
		}
	}
}

func (rt *Runtime) eval(fr *frame, let *ir.Let) (Value, error) {
	operands := func(syms ...ir.Sym) ([]Value, error) {
		out := make([]Value, len(syms))
		for i, s := range syms {
			v, err := fr.get(s)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	switch e := let.Expr.(type) {
	case *ir.Literal:
		if e.Ty.IsFloat() {
			if e.Ty.K == ir.TF32 {
				return F32(float32(e.F)), nil
			}
			return F64(e.F), nil
		}
		if e.Ty.K == ir.TI32 {
			return I32(int32(e.I)), nil
		}
		return I64(e.I), nil
	case *ir.BinOp:
		vs, err := operands(e.A, e.B)
		if err != nil {
			return Value{}, err
		}
		if e.Ty.IsFloat() {
			return floatBinOp(e.Op, e.Ty, vs[0], vs[1])
		}
		return intBinOp(e.Op, e.Ty, vs[0], vs[1])
	case *ir.Cmp:
		vs, err := operands(e.A, e.B)
		if err != nil {
			return Value{}, err
		}
		return compare(e.Op, e.Ty, vs[0], vs[1]), nil
	case *ir.Call:
		args, err := operands(e.Args...)
		if err != nil {
			return Value{}, err
		}
		return rt.call(e.Name, args)
	case *ir.StructInit:
		vs, err := operands(e.Fields...)
		if err != nil {
			return Value{}, err
		}
		l := let.Ty.Layout
		mem := make([]byte, l.Size)
		for i, f := range l.Fields {
			writeValue(mem[f.Offset:], vs[i])
		}
		return Composite(let.Ty, mem), nil
	case *ir.FieldGet:
		vs, err := operands(e.Recv)
		if err != nil {
			return Value{}, err
		}
		return vs[0].Field(e.Index), nil
	default:
		return Value{}, fmt.Errorf("unsupported expression %T", let.Expr)
	}
}
