package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Sym identifies a value. Every symbol has exactly one definition: a
// function parameter, a join point parameter, or a Let.
type Sym int

// NoSym marks an absent value, e.g. the operand of a unit return.
const NoSym Sym = -1

func (s Sym) String() string { return fmt.Sprintf("%%%d", int(s)) }

type JoinID int

func (j JoinID) String() string { return fmt.Sprintf("j%d", int(j)) }

type Program struct {
	Funcs map[string]*Func
}

// Names returns the function names in sorted order.
func (p *Program) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Funcs))
	for name := range p.Funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Func struct {
	Name   string
	Params []Param
	Ret    Type
	Body   Stmt
}

type Param struct {
	Sym Sym
	Ty  Type
}

// Statements. Every statement path ends in a Ret or a Jump.
type Stmt interface {
	stmtNode()
}

type Let struct {
	Sym  Sym
	Ty   Type
	Expr Expr
	Next Stmt
}

func (*Let) stmtNode() {}

type Ret struct {
	Sym Sym // NoSym for unit
}

func (*Ret) stmtNode() {}

type Switch struct {
	Cond    Sym
	Ty      Type // i32 or i64
	Cases   []Case
	Default Stmt
}

type Case struct {
	Value int64
	Body  Stmt
}

func (*Switch) stmtNode() {}

// Join declares join point ID with parameters. Jumps to ID may appear in
// Remainder (forward) and in Body (backward).
type Join struct {
	ID        JoinID
	Params    []Param
	Body      Stmt
	Remainder Stmt
}

func (*Join) stmtNode() {}

type Jump struct {
	Target JoinID
	Args   []Sym
}

func (*Jump) stmtNode() {}

// Expressions
type Expr interface {
	exprNode()
	fmtString() string
}

type Literal struct {
	Ty Type
	I  int64
	F  float64
}

func (*Literal) exprNode() {}
func (e *Literal) fmtString() string {
	if e.Ty.IsFloat() {
		return fmt.Sprintf("const %s %g", e.Ty.String(), e.F)
	}
	return fmt.Sprintf("const %s %d", e.Ty.String(), e.I)
}

type BinOpKind string

const (
	OpAdd BinOpKind = "add"
	OpSub BinOpKind = "sub"
	OpMul BinOpKind = "mul"
	OpDiv BinOpKind = "div"
	OpRem BinOpKind = "rem"
	OpAnd BinOpKind = "and"
	OpOr  BinOpKind = "or"
	OpXor BinOpKind = "xor"
	OpShl BinOpKind = "shl"
	OpShr BinOpKind = "shr"
)

type BinOp struct {
	Op BinOpKind
	Ty Type
	A  Sym
	B  Sym
}

func (*BinOp) exprNode() {}
func (e *BinOp) fmtString() string {
	return fmt.Sprintf("%s %s %s %s", string(e.Op), e.Ty.String(), e.A, e.B)
}

type CmpKind string

const (
	CmpEq CmpKind = "cmp_eq"
	CmpNe CmpKind = "cmp_ne"
	CmpLt CmpKind = "cmp_lt"
	CmpLe CmpKind = "cmp_le"
	CmpGt CmpKind = "cmp_gt"
	CmpGe CmpKind = "cmp_ge"
)

// Cmp compares two operands of type Ty and yields an i32 (0 or 1).
type Cmp struct {
	Op CmpKind
	Ty Type
	A  Sym
	B  Sym
}

func (*Cmp) exprNode() {}
func (e *Cmp) fmtString() string {
	return fmt.Sprintf("%s %s %s %s", string(e.Op), e.Ty.String(), e.A, e.B)
}

type Call struct {
	Name string
	Args []Sym
}

func (*Call) exprNode() {}
func (e *Call) fmtString() string {
	var sb strings.Builder
	sb.WriteString("call ")
	sb.WriteString(e.Name)
	sb.WriteByte('(')
	writeSyms(&sb, e.Args)
	sb.WriteByte(')')
	return sb.String()
}

// StructInit builds a composite of the Let's type from one symbol per field.
type StructInit struct {
	Fields []Sym
}

func (*StructInit) exprNode() {}
func (e *StructInit) fmtString() string {
	var sb strings.Builder
	sb.WriteString("struct {")
	writeSyms(&sb, e.Fields)
	sb.WriteByte('}')
	return sb.String()
}

type FieldGet struct {
	Recv  Sym
	Index int
}

func (*FieldGet) exprNode() {}
func (e *FieldGet) fmtString() string {
	return fmt.Sprintf("field %s.%d", e.Recv, e.Index)
}

func writeSyms(sb *strings.Builder, syms []Sym) {
	for i, s := range syms {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.String())
	}
}

// SymTypes returns the type of every symbol defined in f.
func (f *Func) SymTypes() map[Sym]Type {
	out := map[Sym]Type{}
	for _, p := range f.Params {
		out[p.Sym] = p.Ty
	}
	Walk(f.Body, func(s Stmt) {
		switch st := s.(type) {
		case *Let:
			out[st.Sym] = st.Ty
		case *Join:
			for _, p := range st.Params {
				out[p.Sym] = p.Ty
			}
		}
	})
	return out
}

// Walk calls fn for s and every statement nested in it, in pre-order.
// Join bodies are visited before their remainder.
func Walk(s Stmt, fn func(Stmt)) {
	for s != nil {
		fn(s)
		switch st := s.(type) {
		case *Let:
			s = st.Next
		case *Switch:
			for _, c := range st.Cases {
				Walk(c.Body, fn)
			}
			s = st.Default
		case *Join:
			Walk(st.Body, fn)
			s = st.Remainder
		default:
			return
		}
	}
}

// HasJoins reports whether any join point is declared in s.
func HasJoins(s Stmt) bool {
	found := false
	Walk(s, func(s Stmt) {
		if _, ok := s.(*Join); ok {
			found = true
		}
	})
	return found
}
