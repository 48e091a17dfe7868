package ir

import "fmt"

// Validate checks the symbol discipline of f: every symbol is defined once,
// every use refers to a symbol in scope, and operand types agree. Jump
// targets are not checked here; the restructurer owns that.
func (f *Func) Validate() error {
	v := &validator{f: f, defined: map[Sym]bool{}}
	scope := map[Sym]Type{}
	for _, p := range f.Params {
		if err := v.define(scope, p.Sym, p.Ty, true); err != nil {
			return err
		}
	}
	if f.Body == nil {
		return v.errorf("missing body")
	}
	return v.stmt(f.Body, scope)
}

// Validate checks every function and every call site against the callee's
// declared parameter and result types.
func (p *Program) Validate() error {
	for _, name := range p.Names() {
		f := p.Funcs[name]
		if f.Name != name {
			return fmt.Errorf("func %s: registered as %q", f.Name, name)
		}
		if err := f.Validate(); err != nil {
			return err
		}
		types := f.SymTypes()
		var callErr error
		Walk(f.Body, func(s Stmt) {
			let, ok := s.(*Let)
			if !ok || callErr != nil {
				return
			}
			call, ok := let.Expr.(*Call)
			if !ok {
				return
			}
			callee, ok := p.Funcs[call.Name]
			if !ok {
				callErr = fmt.Errorf("func %s: call to unknown function %s", f.Name, call.Name)
				return
			}
			if len(call.Args) != len(callee.Params) {
				callErr = fmt.Errorf("func %s: call %s with %d args, want %d", f.Name, call.Name, len(call.Args), len(callee.Params))
				return
			}
			for i, a := range call.Args {
				if !types[a].Equal(callee.Params[i].Ty) {
					callErr = fmt.Errorf("func %s: call %s arg %d is %s, want %s", f.Name, call.Name, i, types[a], callee.Params[i].Ty)
					return
				}
			}
			if !let.Ty.Equal(callee.Ret) {
				callErr = fmt.Errorf("func %s: call %s bound as %s, returns %s", f.Name, call.Name, let.Ty, callee.Ret)
			}
		})
		if callErr != nil {
			return callErr
		}
	}
	return nil
}

type validator struct {
	f       *Func
	defined map[Sym]bool
}

func (v *validator) errorf(format string, args ...any) error {
	return fmt.Errorf("func %s: %s", v.f.Name, fmt.Sprintf(format, args...))
}

func (v *validator) define(scope map[Sym]Type, s Sym, t Type, storage bool) error {
	if s < 0 {
		return v.errorf("invalid symbol %s", s)
	}
	if v.defined[s] {
		return v.errorf("symbol %s defined more than once", s)
	}
	if t.K == TBad || (storage && t.K == TUnit) {
		return v.errorf("symbol %s has no storage type", s)
	}
	if t.K == TStruct {
		if err := t.Layout.Check(); err != nil {
			return v.errorf("symbol %s: %v", s, err)
		}
	}
	v.defined[s] = true
	scope[s] = t
	return nil
}

func (v *validator) use(scope map[Sym]Type, s Sym) (Type, error) {
	t, ok := scope[s]
	if !ok {
		return Type{}, v.errorf("symbol %s used out of scope", s)
	}
	return t, nil
}

func copyScope(scope map[Sym]Type) map[Sym]Type {
	out := make(map[Sym]Type, len(scope))
	for k, t := range scope {
		out[k] = t
	}
	return out
}

func (v *validator) stmt(s Stmt, scope map[Sym]Type) error {
	for {
		switch st := s.(type) {
		case *Let:
			if err := v.expr(st, scope); err != nil {
				return err
			}
			if err := v.define(scope, st.Sym, st.Ty, false); err != nil {
				return err
			}
			if st.Next == nil {
				return v.errorf("let %s: missing continuation", st.Sym)
			}
			s = st.Next
		case *Ret:
			if st.Sym == NoSym {
				if v.f.Ret.K != TUnit {
					return v.errorf("ret without value in function returning %s", v.f.Ret)
				}
				return nil
			}
			t, err := v.use(scope, st.Sym)
			if err != nil {
				return err
			}
			if !t.Equal(v.f.Ret) {
				return v.errorf("ret %s has type %s, want %s", st.Sym, t, v.f.Ret)
			}
			return nil
		case *Jump:
			for _, a := range st.Args {
				if _, err := v.use(scope, a); err != nil {
					return err
				}
			}
			return nil
		case *Switch:
			t, err := v.use(scope, st.Cond)
			if err != nil {
				return err
			}
			if (t.K != TI32 && t.K != TI64) || !t.Equal(st.Ty) {
				return v.errorf("switch on %s of type %s", st.Cond, t)
			}
			for _, c := range st.Cases {
				if c.Body == nil {
					return v.errorf("switch case %d: missing body", c.Value)
				}
				if t.K == TI32 && int64(int32(c.Value)) != c.Value {
					return v.errorf("switch case %d: out of range for i32", c.Value)
				}
				if err := v.stmt(c.Body, copyScope(scope)); err != nil {
					return err
				}
			}
			if st.Default == nil {
				return v.errorf("switch on %s: missing default", st.Cond)
			}
			s = st.Default
		case *Join:
			inner := copyScope(scope)
			for _, p := range st.Params {
				if err := v.define(inner, p.Sym, p.Ty, true); err != nil {
					return err
				}
			}
			if st.Body == nil || st.Remainder == nil {
				return v.errorf("join %s: missing body or remainder", st.ID)
			}
			if err := v.stmt(st.Body, inner); err != nil {
				return err
			}
			s = st.Remainder
		default:
			return v.errorf("unsupported statement %T", s)
		}
	}
}

func (v *validator) expr(let *Let, scope map[Sym]Type) error {
	operands := func(syms ...Sym) ([]Type, error) {
		out := make([]Type, len(syms))
		for i, s := range syms {
			t, err := v.use(scope, s)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	}
	switch e := let.Expr.(type) {
	case *Literal:
		if !e.Ty.IsScalar() || !e.Ty.Equal(let.Ty) {
			return v.errorf("let %s: literal of type %s bound as %s", let.Sym, e.Ty, let.Ty)
		}
	case *BinOp:
		ts, err := operands(e.A, e.B)
		if err != nil {
			return err
		}
		if !e.Ty.IsScalar() || !ts[0].Equal(e.Ty) || !ts[1].Equal(e.Ty) || !let.Ty.Equal(e.Ty) {
			return v.errorf("let %s: %s on %s, %s", let.Sym, e.Op, ts[0], ts[1])
		}
		if e.Ty.IsFloat() {
			switch e.Op {
			case OpAdd, OpSub, OpMul, OpDiv:
			default:
				return v.errorf("let %s: %s is not defined on %s", let.Sym, e.Op, e.Ty)
			}
		}
	case *Cmp:
		ts, err := operands(e.A, e.B)
		if err != nil {
			return err
		}
		if !e.Ty.IsScalar() || !ts[0].Equal(e.Ty) || !ts[1].Equal(e.Ty) || let.Ty.K != TI32 {
			return v.errorf("let %s: %s on %s, %s", let.Sym, e.Op, ts[0], ts[1])
		}
	case *Call:
		if _, err := operands(e.Args...); err != nil {
			return err
		}
	case *StructInit:
		if !let.Ty.IsComposite() {
			return v.errorf("let %s: struct init bound as %s", let.Sym, let.Ty)
		}
		ts, err := operands(e.Fields...)
		if err != nil {
			return err
		}
		fields := let.Ty.Layout.Fields
		if len(ts) != len(fields) {
			return v.errorf("let %s: %d fields, want %d", let.Sym, len(ts), len(fields))
		}
		for i, t := range ts {
			if !t.Equal(fields[i].Ty) {
				return v.errorf("let %s: field %d is %s, want %s", let.Sym, i, t, fields[i].Ty)
			}
		}
	case *FieldGet:
		ts, err := operands(e.Recv)
		if err != nil {
			return err
		}
		if !ts[0].IsComposite() || e.Index < 0 || e.Index >= len(ts[0].Layout.Fields) {
			return v.errorf("let %s: no field %d in %s", let.Sym, e.Index, ts[0])
		}
		if !ts[0].Layout.Fields[e.Index].Ty.Equal(let.Ty) {
			return v.errorf("let %s: field %d is %s, bound as %s", let.Sym, e.Index, ts[0].Layout.Fields[e.Index].Ty, let.Ty)
		}
	default:
		return v.errorf("let %s: unsupported expression %T", let.Sym, let.Expr)
	}
	if let.Ty.K == TUnit {
		if _, ok := let.Expr.(*Call); !ok {
			return v.errorf("let %s: only calls may produce unit", let.Sym)
		}
	}
	return nil
}
