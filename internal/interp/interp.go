// Package interp executes IR programs directly on their join point graph.
// It is the reference the compiled output is checked against.
package interp

import (
	"errors"
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
)

var (
	errDivZero  = errors.New("integer divide by zero")
	errOverflow = errors.New("integer overflow")
	errNoFuel   = errors.New("step limit exceeded")
)

func errBadOp(op ir.BinOpKind, t ir.Type) error {
	return fmt.Errorf("%s is not defined on %s", op, t)
}

// Trap is a runtime failure inside a function.
type Trap struct {
	Func string
	Err  error
}

func (t *Trap) Error() string { return fmt.Sprintf("trap in %s: %v", t.Func, t.Err) }

func (t *Trap) Unwrap() error { return t.Err }

type Runtime struct {
	prog *ir.Program
	// MaxSteps bounds the statements executed by one Call. Zero means no
	// bound.
	MaxSteps int
	// MaxDepth bounds the call depth. Zero means no bound.
	MaxDepth int

	steps int
	depth int
}

func New(p *ir.Program) *Runtime {
	return &Runtime{prog: p}
}

// Call runs function name with args.
func (rt *Runtime) Call(name string, args ...Value) (Value, error) {
	rt.steps = 0
	rt.depth = 0
	return rt.call(name, args)
}

func (rt *Runtime) call(name string, args []Value) (Value, error) {
	fn, ok := rt.prog.Funcs[name]
	if !ok {
		return unit(), fmt.Errorf("unknown function: %s", name)
	}
	if len(args) != len(fn.Params) {
		return unit(), fmt.Errorf("%s: got %d args, want %d", name, len(args), len(fn.Params))
	}
	rt.depth++
	defer func() { rt.depth-- }()
	if rt.MaxDepth > 0 && rt.depth > rt.MaxDepth {
		return unit(), &Trap{Func: name, Err: errors.New("call stack exhausted")}
	}
	fr := &frame{
		fn:    fn,
		vals:  map[ir.Sym]Value{},
		joins: map[ir.JoinID]*ir.Join{},
	}
	for i, p := range fn.Params {
		if !args[i].Ty.Equal(p.Ty) {
			return unit(), fmt.Errorf("%s: arg %d is %s, want %s", name, i, args[i].Ty, p.Ty)
		}
		fr.vals[p.Sym] = args[i]
	}
	return rt.exec(fr, fn.Body)
}

type frame struct {
	fn    *ir.Func
	vals  map[ir.Sym]Value
	joins map[ir.JoinID]*ir.Join
}

func (fr *frame) get(s ir.Sym) (Value, error) {
	v, ok := fr.vals[s]
	if !ok {
		return Value{}, fmt.Errorf("%s is not defined", s)
	}
	return v, nil
}

func (rt *Runtime) trap(fr *frame, err error) error {
	var t *Trap
	if errors.As(err, &t) {
		return err
	}
	return &Trap{Func: fr.fn.Name, Err: err}
}
