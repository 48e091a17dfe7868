package wasm

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders m in a WAT-like text form. Blocks and loops are indented;
// branch depths are printed as numbers.
func Format(m *Module) string {
	var sb strings.Builder
	sb.WriteString("(module\n")
	fmt.Fprintf(&sb, "  (memory (export %q) %d)\n", MemoryExport, m.MemoryPages)
	fmt.Fprintf(&sb, "  (global (export %q) (mut i32) (i32.const %d))\n", StackPointerExport, int32(m.StackBase()))
	for i := range m.Funcs {
		writeFunc(&sb, &m.Funcs[i], "  ")
	}
	sb.WriteString(")\n")
	return sb.String()
}

// FormatFunc renders a single function.
func FormatFunc(f *Func) string {
	var sb strings.Builder
	writeFunc(&sb, f, "")
	return sb.String()
}

func writeFunc(sb *strings.Builder, f *Func, indent string) {
	fmt.Fprintf(sb, "%s(func %s (export %q)", indent, Ident(f.Name), f.Name)
	for _, p := range f.Type.Params {
		fmt.Fprintf(sb, " (param %s)", p)
	}
	for _, r := range f.Type.Results {
		fmt.Fprintf(sb, " (result %s)", r)
	}
	sb.WriteByte('\n')
	if len(f.Locals) > 0 {
		sb.WriteString(indent)
		sb.WriteString("  (local")
		for _, l := range f.Locals {
			sb.WriteByte(' ')
			sb.WriteString(l.String())
		}
		sb.WriteString(")\n")
	}
	depth := 1
	for _, in := range f.Body {
		if in.Op == OpEnd && depth > 1 {
			depth--
		}
		sb.WriteString(indent)
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(FormatInstr(in))
		sb.WriteByte('\n')
		if in.Op == OpBlock || in.Op == OpLoop {
			depth++
		}
	}
	sb.WriteString(indent)
	sb.WriteString(")\n")
}

// FormatInstr renders one instruction with its immediates.
func FormatInstr(in Instr) string {
	name := in.Op.String()
	switch {
	case in.Op == OpBr || in.Op == OpBrIf,
		in.Op == OpLocalGet || in.Op == OpLocalSet || in.Op == OpLocalTee,
		in.Op == OpGlobalGet || in.Op == OpGlobalSet,
		in.Op == OpI32Const || in.Op == OpI64Const:
		return name + " " + strconv.FormatInt(in.Imm, 10)
	case in.Op == OpF32Const:
		return name + " " + strconv.FormatFloat(in.F, 'g', -1, 32)
	case in.Op == OpF64Const:
		return name + " " + strconv.FormatFloat(in.F, 'g', -1, 64)
	case in.Op == OpCall:
		return name + " " + Ident(in.Name)
	case in.Op.IsMemory():
		s := name
		if in.Imm != 0 {
			s += " offset=" + strconv.FormatInt(in.Imm, 10)
		}
		return s + " align=" + strconv.Itoa(1<<in.Align)
	default:
		return name
	}
}
