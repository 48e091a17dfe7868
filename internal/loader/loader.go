// Package loader reads IR programs from YAML fixtures.
//
// A fixture declares composite types and functions. Function bodies are
// statement lists; a join's remainder is the rest of the list it appears in.
//
//	types:
//	  pair: [i64, i64]
//	funcs:
//	  - name: swap
//	    params: [{sym: 0, type: pair}]
//	    ret: pair
//	    body:
//	      - {let: 1, type: i64, field: [0, 1]}
//	      - {let: 2, type: i64, field: [0, 0]}
//	      - {let: 3, type: pair, struct: [1, 2]}
//	      - {ret: 3}
//
// The loader checks shape only; symbol and type discipline is left to
// (*ir.Program).Validate.
package loader

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dankeyy/roc/internal/diag"
	"github.com/dankeyy/roc/internal/ir"
)

// Load reads the fixture at path. Problems in the fixture are returned as
// diagnostics; err is reserved for I/O failures.
func Load(path string) (*ir.Program, *diag.Bag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read fixture: %w", err)
	}
	prog, diags := Parse(path, data)
	return prog, diags, nil
}

// Parse decodes a fixture. The program is nil whenever diagnostics are
// reported.
func Parse(filename string, data []byte) (*ir.Program, *diag.Bag) {
	p := &parser{
		file:  filename,
		diags: &diag.Bag{},
		types: map[string]ir.Type{
			"unit": ir.Unit,
			"i32":  ir.I32,
			"i64":  ir.I64,
			"f32":  ir.F32,
			"f64":  ir.F64,
		},
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		p.yamlError(err)
		return nil, p.diags
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		p.diags.Add(filename, 1, 1, "empty fixture")
		return nil, p.diags
	}
	prog := p.program(doc.Content[0])
	if !p.diags.Empty() {
		return nil, p.diags
	}
	return prog, p.diags
}

type parser struct {
	file  string
	diags *diag.Bag
	types map[string]ir.Type
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func (p *parser) yamlError(err error) {
	line := 1
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	p.diags.Add(p.file, line, 1, err.Error())
}

func (p *parser) loc(n *yaml.Node) diag.Loc {
	if n == nil {
		return diag.Loc{Filename: p.file, Line: 1, Col: 1}
	}
	return diag.Loc{Filename: p.file, Line: n.Line, Col: n.Column}
}

func (p *parser) errorf(n *yaml.Node, format string, args ...any) {
	p.diags.Addf(p.loc(n), format, args...)
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mapping returns the fields of n keyed by name, reporting unknown and
// duplicate keys.
func (p *parser) mapping(n *yaml.Node, what string, allowed ...string) map[string]*yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		p.errorf(n, "%s: expected a mapping", what)
		return nil
	}
	out := map[string]*yaml.Node{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if !slices.Contains(allowed, k.Value) {
			p.errorf(k, "%s: unknown field %q", what, k.Value)
			continue
		}
		if _, dup := out[k.Value]; dup {
			p.errorf(k, "%s: duplicate field %q", what, k.Value)
			continue
		}
		out[k.Value] = deref(v)
	}
	return out
}

func (p *parser) sequence(n *yaml.Node, what string) []*yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		p.errorf(n, "%s: expected a list", what)
		return nil
	}
	return n.Content
}

func (p *parser) str(n *yaml.Node, what string) (string, bool) {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		p.errorf(n, "%s: expected a name", what)
		return "", false
	}
	return n.Value, true
}

func (p *parser) int(n *yaml.Node, what string) (int64, bool) {
	n = deref(n)
	if n == nil {
		p.errorf(nil, "%s: missing", what)
		return 0, false
	}
	var v int64
	if n.Kind != yaml.ScalarNode || n.Decode(&v) != nil {
		p.errorf(n, "%s: expected an integer", what)
		return 0, false
	}
	return v, true
}

func (p *parser) sym(n *yaml.Node, what string) (ir.Sym, bool) {
	v, ok := p.int(n, what)
	if !ok {
		return ir.NoSym, false
	}
	if v < 0 {
		p.errorf(n, "%s: symbol %d is negative", what, v)
		return ir.NoSym, false
	}
	return ir.Sym(v), true
}

func (p *parser) syms(n *yaml.Node, what string) ([]ir.Sym, bool) {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		p.errorf(n, "%s: expected a list of symbols", what)
		return nil, false
	}
	items := n.Content
	out := make([]ir.Sym, 0, len(items))
	ok := true
	for _, it := range items {
		s, good := p.sym(it, what)
		ok = ok && good
		out = append(out, s)
	}
	return out, ok
}

func (p *parser) typ(n *yaml.Node, what string) (ir.Type, bool) {
	name, ok := p.str(n, what)
	if !ok {
		return ir.Type{}, false
	}
	t, ok := p.types[name]
	if !ok {
		p.errorf(n, "%s: unknown type %q", what, name)
		return ir.Type{}, false
	}
	return t, true
}

func (p *parser) program(root *yaml.Node) *ir.Program {
	fields := p.mapping(root, "fixture", "types", "funcs")
	if fields == nil {
		return nil
	}
	if n, ok := fields["types"]; ok {
		p.typeDecls(n)
	}
	prog := &ir.Program{Funcs: map[string]*ir.Func{}}
	n, ok := fields["funcs"]
	if !ok {
		p.errorf(root, "fixture: missing funcs")
		return nil
	}
	for _, fn := range p.sequence(n, "funcs") {
		f := p.fn(fn)
		if f == nil {
			continue
		}
		if _, dup := prog.Funcs[f.Name]; dup {
			p.errorf(fn, "duplicate function %q", f.Name)
			continue
		}
		prog.Funcs[f.Name] = f
	}
	return prog
}

func (p *parser) typeDecls(n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "types: expected a mapping")
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], deref(n.Content[i+1])
		if _, exists := p.types[k.Value]; exists {
			p.errorf(k, "type %q already declared", k.Value)
			continue
		}
		var fields []ir.Type
		ok := true
		for _, fn := range p.sequence(v, "type "+k.Value) {
			t, good := p.typ(fn, "type "+k.Value)
			if good && t.K == ir.TUnit {
				p.errorf(fn, "type %s: unit field", k.Value)
				good = false
			}
			ok = ok && good
			fields = append(fields, t)
		}
		if !ok {
			continue
		}
		if len(fields) == 0 {
			p.errorf(k, "type %s: no fields", k.Value)
			continue
		}
		p.types[k.Value] = ir.Struct(k.Value, fields...)
	}
}

func (p *parser) params(n *yaml.Node, what string) []ir.Param {
	var out []ir.Param
	for _, pn := range p.sequence(n, what) {
		fields := p.mapping(pn, what, "sym", "type")
		if fields == nil {
			continue
		}
		s, ok1 := p.sym(fields["sym"], what)
		t, ok2 := p.typ(fields["type"], what)
		if ok1 && ok2 {
			out = append(out, ir.Param{Sym: s, Ty: t})
		}
	}
	return out
}

func (p *parser) fn(n *yaml.Node) *ir.Func {
	fields := p.mapping(n, "func", "name", "params", "ret", "body")
	if fields == nil {
		return nil
	}
	name, ok := p.str(fields["name"], "func")
	if !ok {
		return nil
	}
	f := &ir.Func{Name: name, Ret: ir.Unit}
	if pn, ok := fields["params"]; ok {
		f.Params = p.params(pn, "func "+name+" params")
	}
	if rn, ok := fields["ret"]; ok {
		f.Ret, _ = p.typ(rn, "func "+name+" ret")
	}
	body, ok := fields["body"]
	if !ok {
		p.errorf(n, "func %s: missing body", name)
		return nil
	}
	f.Body = p.block(body, "func "+name)
	return f
}

func (p *parser) block(n *yaml.Node, what string) ir.Stmt {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		p.errorf(n, "%s: expected a statement list", what)
		return nil
	}
	if len(n.Content) == 0 {
		p.errorf(n, "%s: empty statement list", what)
		return nil
	}
	return p.stmts(n.Content)
}

var (
	binOps = []ir.BinOpKind{
		ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpRem,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr,
	}
	cmpOps = []ir.CmpKind{ir.CmpEq, ir.CmpNe, ir.CmpLt, ir.CmpLe, ir.CmpGt, ir.CmpGe}

	stmtKinds = []string{"let", "ret", "jump", "switch", "join"}
	exprKinds = func() []string {
		out := []string{"const", "call", "struct", "field"}
		for _, op := range binOps {
			out = append(out, string(op))
		}
		for _, op := range cmpOps {
			out = append(out, string(op))
		}
		return out
	}()
)

// kindOf returns the single key of n that is one of kinds.
func (p *parser) kindOf(n *yaml.Node, what string, kinds []string) (string, *yaml.Node) {
	var kind string
	var key *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if !slices.Contains(kinds, k.Value) {
			continue
		}
		if kind != "" {
			p.errorf(k, "%s: both %s and %s", what, kind, k.Value)
			return "", nil
		}
		kind, key = k.Value, k
	}
	if kind == "" {
		p.errorf(n, "%s: expected one of %v", what, kinds)
	}
	return kind, key
}

// stmts lowers a statement list. Lets and joins continue with the rest of
// the list; the other statements must end it.
func (p *parser) stmts(items []*yaml.Node) ir.Stmt {
	n := deref(items[0])
	rest := items[1:]
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "statement: expected a mapping")
		return nil
	}
	kind, _ := p.kindOf(n, "statement", stmtKinds)
	switch kind {
	case "let", "join":
		if len(rest) == 0 {
			p.errorf(n, "%s: missing continuation", kind)
			return nil
		}
		next := p.stmts(rest)
		if kind == "let" {
			if let := p.let(n); let != nil {
				let.Next = next
				return let
			}
			return nil
		}
		if j := p.join(n); j != nil {
			j.Remainder = next
			return j
		}
		return nil
	case "":
		return nil
	}
	if len(rest) > 0 {
		p.errorf(rest[0], "statement after %s", kind)
	}
	switch kind {
	case "ret":
		return p.ret(n)
	case "jump":
		return p.jump(n)
	default:
		return p.switchStmt(n)
	}
}

func (p *parser) ret(n *yaml.Node) ir.Stmt {
	fields := p.mapping(n, "ret", "ret")
	v := fields["ret"]
	if v == nil || v.ShortTag() == "!!null" {
		return &ir.Ret{Sym: ir.NoSym}
	}
	s, ok := p.sym(v, "ret")
	if !ok {
		return nil
	}
	return &ir.Ret{Sym: s}
}

func (p *parser) jump(n *yaml.Node) ir.Stmt {
	fields := p.mapping(n, "jump", "jump", "args")
	target, ok := p.int(fields["jump"], "jump")
	if !ok {
		return nil
	}
	j := &ir.Jump{Target: ir.JoinID(target)}
	if an, ok := fields["args"]; ok {
		if j.Args, ok = p.syms(an, "jump args"); !ok {
			return nil
		}
	}
	return j
}

func (p *parser) join(n *yaml.Node) *ir.Join {
	fields := p.mapping(n, "join", "join", "params", "body")
	id, ok := p.int(fields["join"], "join")
	if !ok {
		return nil
	}
	what := fmt.Sprintf("join %d", id)
	j := &ir.Join{ID: ir.JoinID(id)}
	if pn, ok := fields["params"]; ok {
		j.Params = p.params(pn, what+" params")
	}
	bn, ok := fields["body"]
	if !ok {
		p.errorf(n, "%s: missing body", what)
		return nil
	}
	j.Body = p.block(bn, what)
	return j
}

func (p *parser) switchStmt(n *yaml.Node) ir.Stmt {
	fields := p.mapping(n, "switch", "switch", "type", "cases", "default")
	cond, ok1 := p.sym(fields["switch"], "switch")
	ty, ok2 := p.typ(fields["type"], "switch type")
	if !ok1 || !ok2 {
		return nil
	}
	sw := &ir.Switch{Cond: cond, Ty: ty}
	for _, cn := range p.sequence(fields["cases"], "switch cases") {
		cf := p.mapping(cn, "case", "value", "body")
		if cf == nil {
			continue
		}
		v, ok := p.int(cf["value"], "case value")
		if !ok {
			continue
		}
		if ty.K == ir.TI32 && int64(int32(v)) != v {
			p.errorf(cf["value"], "case value %d out of range for i32", v)
			continue
		}
		sw.Cases = append(sw.Cases, ir.Case{Value: v, Body: p.block(cf["body"], fmt.Sprintf("case %d", v))})
	}
	dn, ok := fields["default"]
	if !ok {
		p.errorf(n, "switch: missing default")
		return nil
	}
	sw.Default = p.block(dn, "switch default")
	return sw
}

func (p *parser) let(n *yaml.Node) *ir.Let {
	allowed := append([]string{"let", "type", "args", "of"}, exprKinds...)
	fields := p.mapping(n, "let", allowed...)
	s, ok1 := p.sym(fields["let"], "let")
	t, ok2 := p.typ(fields["type"], "let type")
	if !ok1 || !ok2 {
		return nil
	}
	what := fmt.Sprintf("let %d", s)
	kind, key := p.kindOf(n, what, exprKinds)
	if kind == "" {
		return nil
	}
	if _, has := fields["args"]; has && kind != "call" {
		p.errorf(key, "%s: args only apply to call", what)
	}
	if _, has := fields["of"]; has && !slices.Contains(cmpOps, ir.CmpKind(kind)) {
		p.errorf(key, "%s: of only applies to comparisons", what)
	}
	e := p.expr(kind, fields, t, what)
	if e == nil {
		return nil
	}
	return &ir.Let{Sym: s, Ty: t, Expr: e}
}

func (p *parser) expr(kind string, fields map[string]*yaml.Node, t ir.Type, what string) ir.Expr {
	v := fields[kind]
	switch {
	case kind == "const":
		lit := &ir.Literal{Ty: t}
		var err error
		switch {
		case v.Kind != yaml.ScalarNode:
			err = fmt.Errorf("not a scalar")
		case t.IsFloat():
			err = v.Decode(&lit.F)
		default:
			err = v.Decode(&lit.I)
		}
		if err != nil {
			p.errorf(v, "%s: bad %s constant %q", what, t, v.Value)
			return nil
		}
		return lit
	case kind == "call":
		name, ok := p.str(v, what)
		if !ok {
			return nil
		}
		c := &ir.Call{Name: name}
		if an, has := fields["args"]; has {
			if c.Args, ok = p.syms(an, what+" args"); !ok {
				return nil
			}
		}
		return c
	case kind == "struct":
		syms, ok := p.syms(v, what)
		if !ok {
			return nil
		}
		return &ir.StructInit{Fields: syms}
	case kind == "field":
		items := p.sequence(v, what)
		if len(items) != 2 {
			p.errorf(v, "%s: field takes [recv, index]", what)
			return nil
		}
		recv, ok1 := p.sym(items[0], what)
		idx, ok2 := p.int(items[1], what)
		if !ok1 || !ok2 {
			return nil
		}
		return &ir.FieldGet{Recv: recv, Index: int(idx)}
	}

	items := p.sequence(v, what)
	if len(items) != 2 {
		p.errorf(v, "%s: %s takes two operands", what, kind)
		return nil
	}
	a, ok1 := p.sym(items[0], what)
	b, ok2 := p.sym(items[1], what)
	if !ok1 || !ok2 {
		return nil
	}
	if op := ir.CmpKind(kind); slices.Contains(cmpOps, op) {
		of, ok := fields["of"]
		if !ok {
			p.errorf(v, "%s: %s needs an operand type (of)", what, kind)
			return nil
		}
		ot, ok := p.typ(of, what+" of")
		if !ok {
			return nil
		}
		return &ir.Cmp{Op: op, Ty: ot, A: a, B: b}
	}
	return &ir.BinOp{Op: ir.BinOpKind(kind), Ty: t, A: a, B: b}
}
