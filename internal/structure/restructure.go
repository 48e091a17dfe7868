// Package structure turns the join point graph of an IR function into
// nested block and loop scopes.
//
// Every join point J that is the target of some jump gets a block B_J around
// its remainder; B_J ends exactly where J's body begins, so a jump from the
// remainder is a branch out of B_J. When J's body jumps back to J, the body is
// wrapped in a loop L_J and those jumps branch to the loop head. Each loop has
// a single re-entry target, so no dispatch variable is needed.
package structure

import (
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
)

type joinInfo struct {
	join     *ir.Join
	forward  int
	backward int
}

type restructurer struct {
	f     *ir.Func
	types map[ir.Sym]ir.Type
	joins map[ir.JoinID]*joinInfo
	next  Label
}

// scanEnv is the chain of join points a statement may jump to. backward is
// set while scanning the join's own body.
type scanEnv struct {
	id       ir.JoinID
	backward bool
	parent   *scanEnv
}

type lowerEnv struct {
	id     ir.JoinID
	label  Label
	parent *lowerEnv
}

func (e *lowerEnv) lookup(id ir.JoinID) Label {
	for ; e != nil; e = e.parent {
		if e.id == id {
			return e.label
		}
	}
	panic(fmt.Sprintf("structure: %s has no scope", id))
}

// Restructure builds the scope tree of f. A function without reachable join
// points maps one to one onto the tree with no wrapper scope.
func Restructure(f *ir.Func) (*Tree, error) {
	r := &restructurer{
		f:     f,
		types: f.SymTypes(),
		joins: map[ir.JoinID]*joinInfo{},
	}
	var dup *ir.Join
	ir.Walk(f.Body, func(s ir.Stmt) {
		j, ok := s.(*ir.Join)
		if !ok {
			return
		}
		if _, seen := r.joins[j.ID]; seen && dup == nil {
			dup = j
		}
		r.joins[j.ID] = &joinInfo{join: j}
	})
	if dup != nil {
		return nil, r.errorf(dup.ID, "join point declared more than once")
	}
	if err := r.scan(f.Body, nil); err != nil {
		return nil, err
	}
	body := r.lower(f.Body, nil)
	return &Tree{Func: f, Body: body, Labels: int(r.next)}, nil
}

func (r *restructurer) errorf(id ir.JoinID, format string, args ...any) error {
	return &StructuringError{Func: r.f.Name, Join: id, Msg: fmt.Sprintf(format, args...)}
}

func (r *restructurer) newLabel() Label {
	l := r.next
	r.next++
	return l
}

// scan checks every jump against the enclosing join points and counts
// forward and backward edges per join point.
func (r *restructurer) scan(s ir.Stmt, env *scanEnv) error {
	for s != nil {
		switch st := s.(type) {
		case *ir.Let:
			s = st.Next
		case *ir.Ret:
			return nil
		case *ir.Jump:
			return r.scanJump(st, env)
		case *ir.Switch:
			for _, c := range st.Cases {
				if err := r.scan(c.Body, env); err != nil {
					return err
				}
			}
			s = st.Default
		case *ir.Join:
			if err := r.scan(st.Body, &scanEnv{id: st.ID, backward: true, parent: env}); err != nil {
				return err
			}
			env = &scanEnv{id: st.ID, parent: env}
			s = st.Remainder
		default:
			return fmt.Errorf("structuring %s: unsupported statement %T", r.f.Name, s)
		}
	}
	return nil
}

func (r *restructurer) scanJump(j *ir.Jump, env *scanEnv) error {
	info, ok := r.joins[j.Target]
	if !ok {
		return r.errorf(j.Target, "jump to undeclared join point")
	}
	e := env
	for e != nil && e.id != j.Target {
		e = e.parent
	}
	if e == nil {
		return r.errorf(j.Target, "jump from outside the join point's body and remainder")
	}
	params := info.join.Params
	if len(j.Args) != len(params) {
		return r.errorf(j.Target, "jump with %d args, want %d", len(j.Args), len(params))
	}
	for i, a := range j.Args {
		if t := r.types[a]; !t.Equal(params[i].Ty) {
			return r.errorf(j.Target, "jump arg %d is %s, want %s", i, t, params[i].Ty)
		}
	}
	if e.backward {
		info.backward++
	} else {
		info.forward++
	}
	return nil
}

func (r *restructurer) lower(s ir.Stmt, env *lowerEnv) []Node {
	var out []Node
	for s != nil {
		switch st := s.(type) {
		case *ir.Let:
			out = append(out, &Let{Sym: st.Sym, Ty: st.Ty, Expr: st.Expr})
			s = st.Next
		case *ir.Ret:
			return append(out, &Ret{Sym: st.Sym})
		case *ir.Jump:
			return append(out, &Br{
				Target: env.lookup(st.Target),
				Join:   st.Target,
				Params: r.joins[st.Target].join.Params,
				Args:   st.Args,
			})
		case *ir.Switch:
			return append(out, r.lowerSwitch(st, env)...)
		case *ir.Join:
			info := r.joins[st.ID]
			if info.forward == 0 {
				// Nothing enters the body.
				s = st.Remainder
				continue
			}
			block := &Scope{Kind: Block, Label: r.newLabel(), Join: st.ID}
			block.Body = r.lower(st.Remainder, &lowerEnv{id: st.ID, label: block.Label, parent: env})
			out = append(out, block)
			if info.backward == 0 {
				return append(out, r.lower(st.Body, env)...)
			}
			loop := &Scope{Kind: Loop, Label: r.newLabel(), Join: st.ID}
			loop.Body = r.lower(st.Body, &lowerEnv{id: st.ID, label: loop.Label, parent: env})
			return append(out, loop)
		default:
			panic(fmt.Sprintf("structure: unsupported statement %T", s))
		}
	}
	return out
}

// lowerSwitch nests one block per case. The innermost block holds the tests
// followed by the default arm; case i runs after the end of block i.
func (r *restructurer) lowerSwitch(st *ir.Switch, env *lowerEnv) []Node {
	if len(st.Cases) == 0 {
		return r.lower(st.Default, env)
	}
	labels := make([]Label, len(st.Cases))
	for i := range labels {
		labels[i] = r.newLabel()
	}
	var body []Node
	for i, c := range st.Cases {
		body = append(body, &BrIf{Cond: st.Cond, Ty: st.Ty, Value: c.Value, Target: labels[i]})
	}
	body = append(body, r.lower(st.Default, env)...)
	for i := len(st.Cases) - 1; i >= 0; i-- {
		scope := &Scope{Kind: Block, Label: labels[i], Join: -1, Body: body}
		body = append([]Node{scope}, r.lower(st.Cases[i].Body, env)...)
	}
	return body
}
