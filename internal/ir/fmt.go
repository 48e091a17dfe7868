package ir

import (
	"fmt"
	"strings"
)

func (p *Program) Format() string {
	var sb strings.Builder
	sb.WriteString("ir v1\n")
	if p == nil || len(p.Funcs) == 0 {
		return sb.String()
	}
	for _, name := range p.Names() {
		sb.WriteString(p.Funcs[name].Format())
	}
	return sb.String()
}

func (f *Func) Format() string {
	var sb strings.Builder
	sb.WriteString("fn ")
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	writeParams(&sb, f.Params)
	sb.WriteString(") -> ")
	sb.WriteString(f.Ret.String())
	sb.WriteString(" {\n")
	writeStmt(&sb, f.Body, 1)
	sb.WriteString("}\n")
	return sb.String()
}

func writeParams(sb *strings.Builder, params []Param) {
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Sym.String())
		sb.WriteString(": ")
		sb.WriteString(p.Ty.String())
	}
}

func writeStmt(sb *strings.Builder, s Stmt, depth int) {
	indent := strings.Repeat("  ", depth)
	for s != nil {
		switch st := s.(type) {
		case *Let:
			fmt.Fprintf(sb, "%slet %s: %s = %s\n", indent, st.Sym, st.Ty.String(), st.Expr.fmtString())
			s = st.Next
			continue
		case *Ret:
			if st.Sym == NoSym {
				fmt.Fprintf(sb, "%sret\n", indent)
			} else {
				fmt.Fprintf(sb, "%sret %s\n", indent, st.Sym)
			}
		case *Jump:
			fmt.Fprintf(sb, "%sjump %s(", indent, st.Target)
			writeSyms(sb, st.Args)
			sb.WriteString(")\n")
		case *Switch:
			fmt.Fprintf(sb, "%sswitch %s: %s\n", indent, st.Cond, st.Ty.String())
			for _, c := range st.Cases {
				fmt.Fprintf(sb, "%scase %d:\n", indent, c.Value)
				writeStmt(sb, c.Body, depth+1)
			}
			fmt.Fprintf(sb, "%sdefault:\n", indent)
			writeStmt(sb, st.Default, depth+1)
		case *Join:
			fmt.Fprintf(sb, "%sjoin %s(", indent, st.ID)
			writeParams(sb, st.Params)
			sb.WriteString("):\n")
			writeStmt(sb, st.Body, depth+1)
			fmt.Fprintf(sb, "%sin:\n", indent)
			s = st.Remainder
			continue
		default:
			fmt.Fprintf(sb, "%s<bad stmt %T>\n", indent, s)
		}
		return
	}
}
