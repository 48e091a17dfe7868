package structure

import (
	"fmt"
	"strings"

	"github.com/dankeyy/roc/internal/ir"
)

// Label names a scope. Labels are unique within a function.
type Label int

func (l Label) String() string { return fmt.Sprintf("L%d", int(l)) }

type ScopeKind int

const (
	Block ScopeKind = iota
	Loop
)

func (k ScopeKind) String() string {
	if k == Loop {
		return "loop"
	}
	return "block"
}

// Node is one element of a structured function body.
type Node interface {
	node()
}

// Scope is a block or loop. A branch to a block continues after its end; a
// branch to a loop continues at its start.
type Scope struct {
	Kind  ScopeKind
	Label Label
	Join  ir.JoinID // join point this scope was opened for; -1 for switch arms
	Body  []Node
}

// Let evaluates Expr and defines Sym.
type Let struct {
	Sym  ir.Sym
	Ty   ir.Type
	Expr ir.Expr
}

// Br assigns Args to Params as one parallel move, then branches to Target.
type Br struct {
	Target Label
	Join   ir.JoinID
	Params []ir.Param
	Args   []ir.Sym
}

// BrIf branches to Target when Cond equals Value.
type BrIf struct {
	Cond   ir.Sym
	Ty     ir.Type
	Value  int64
	Target Label
}

type Ret struct {
	Sym ir.Sym
}

func (*Scope) node() {}
func (*Let) node()   {}
func (*Br) node()    {}
func (*BrIf) node()  {}
func (*Ret) node()   {}

// Tree is the structured form of one function.
type Tree struct {
	Func   *ir.Func
	Body   []Node
	Labels int
}

// EndsInScope reports whether the last top-level node is a scope.
func (t *Tree) EndsInScope() bool { return EndsInScope(t.Body) }

// EndsInScope reports whether nodes end with a scope rather than a branch or
// return. Control never leaves such a scope by falling through its end, but
// the target's validator assumes it can, so the sequence has to be closed
// with an explicit trap.
func EndsInScope(nodes []Node) bool {
	if len(nodes) == 0 {
		return false
	}
	_, ok := nodes[len(nodes)-1].(*Scope)
	return ok
}

// Format renders the tree for debugging and tests.
func (t *Tree) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s:\n", t.Func.Name)
	writeNodes(&sb, t.Body, 1)
	return sb.String()
}

func writeNodes(sb *strings.Builder, nodes []Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch n := n.(type) {
		case *Scope:
			if n.Join >= 0 {
				fmt.Fprintf(sb, "%s%s %s (%s):\n", indent, n.Kind, n.Label, n.Join)
			} else {
				fmt.Fprintf(sb, "%s%s %s:\n", indent, n.Kind, n.Label)
			}
			writeNodes(sb, n.Body, depth+1)
		case *Let:
			fmt.Fprintf(sb, "%slet %s\n", indent, n.Sym)
		case *Br:
			fmt.Fprintf(sb, "%sbr %s", indent, n.Target)
			for i, a := range n.Args {
				fmt.Fprintf(sb, " %s<-%s", n.Params[i].Sym, a)
			}
			sb.WriteByte('\n')
		case *BrIf:
			fmt.Fprintf(sb, "%sbr_if %s==%d %s\n", indent, n.Cond, n.Value, n.Target)
		case *Ret:
			if n.Sym == ir.NoSym {
				fmt.Fprintf(sb, "%sret\n", indent)
			} else {
				fmt.Fprintf(sb, "%sret %s\n", indent, n.Sym)
			}
		}
	}
}
