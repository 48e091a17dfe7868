package loader

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankeyy/roc/internal/diag"
	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/testprog"
)

func load(t *testing.T, name string) *ir.Program {
	t.Helper()
	prog, diags, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.True(t, diags.Empty(), "unexpected diagnostics:\n%v", diags)
	require.NotNil(t, prog)
	return prog
}

func TestLoadMatchesBuiltPrograms(t *testing.T) {
	prog := load(t, "fact.yaml")
	assert.Equal(t, []string{"fact"}, prog.Names())
	assert.Equal(t, testprog.Fact().Format(), prog.Funcs["fact"].Format())

	prog = load(t, "pair.yaml")
	for _, want := range []*ir.Func{
		testprog.MakePair(), testprog.SumPair(), testprog.PairMain(),
		testprog.Nop(), testprog.CallNop(), testprog.Avg(),
	} {
		got, ok := prog.Funcs[want.Name]
		require.True(t, ok, want.Name)
		assert.Equal(t, want.Format(), got.Format())
	}
	require.NoError(t, prog.Validate())
}

func TestLoadSharesCompositeLayouts(t *testing.T) {
	prog := load(t, "pair.yaml")
	ret := prog.Funcs["make_pair"].Ret
	arg := prog.Funcs["sum_pair"].Params[0].Ty
	require.Equal(t, ir.TStruct, ret.K)
	assert.True(t, ret.Equal(arg))
	assert.Equal(t, uint32(16), ret.Size())
	assert.Equal(t, []ir.Field{{Offset: 0, Ty: ir.I64}, {Offset: 8, Ty: ir.I64}}, ret.Layout.Fields)
}

func TestLoadReportsPositions(t *testing.T) {
	prog, diags, err := Load(filepath.Join("testdata", "bad.yaml"))
	require.NoError(t, err)
	assert.Nil(t, prog)
	require.Len(t, diags.Items, 3, diags.Error())

	byLine := map[int]diag.Item{}
	for _, it := range diags.Items {
		byLine[it.Line] = it
	}
	assert.Contains(t, byLine[2].Msg, `unknown type "blob"`)
	assert.Equal(t, 15, byLine[2].Col)
	assert.Contains(t, byLine[8].Msg, `unknown field "colour"`)
	assert.Contains(t, byLine[14].Msg, "statement after ret")

	var buf bytes.Buffer
	diag.Print(&buf, diags)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], filepath.Join("testdata", "bad.yaml")+":2:15: error: "), lines[0])
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{
			name: "missing continuation",
			src:  "funcs:\n  - name: f\n    body:\n      - {let: 0, type: i32, const: 1}\n",
			line: 4,
			msg:  "let: missing continuation",
		},
		{
			name: "two statement kinds",
			src:  "funcs:\n  - name: f\n    body:\n      - {ret: 0, jump: 1}\n",
			line: 4,
			msg:  "both ret and jump",
		},
		{
			name: "unknown statement",
			src:  "funcs:\n  - name: f\n    body:\n      - {loop: 1}\n",
			line: 4,
			msg:  "expected one of",
		},
		{
			name: "bad constant",
			src:  "funcs:\n  - name: f\n    ret: i32\n    body:\n      - {let: 0, type: i32, const: x}\n      - {ret: 0}\n",
			line: 5,
			msg:  `bad i32 constant "x"`,
		},
		{
			name: "comparison without operand type",
			src:  "funcs:\n  - name: f\n    ret: i32\n    body:\n      - {let: 0, type: i32, cmp_eq: [1, 2]}\n      - {ret: 0}\n",
			line: 5,
			msg:  "needs an operand type",
		},
		{
			name: "switch without default",
			src:  "funcs:\n  - name: f\n    body:\n      - switch: 0\n        type: i32\n        cases: []\n",
			line: 4,
			msg:  "missing default",
		},
		{
			name: "duplicate function",
			src:  "funcs:\n  - name: f\n    body: [{ret: ~}]\n  - name: f\n    body: [{ret: ~}]\n",
			line: 4,
			msg:  `duplicate function "f"`,
		},
		{
			name: "empty body",
			src:  "funcs:\n  - name: f\n    body: []\n",
			line: 3,
			msg:  "empty statement list",
		},
		{
			name: "unknown top-level field",
			src:  "funcs: []\nglobals: []\n",
			line: 2,
			msg:  `unknown field "globals"`,
		},
		{
			name: "i32 case out of range",
			src:  "funcs:\n  - name: f\n    params: [{sym: 0, type: i32}]\n    ret: i32\n    body:\n      - switch: 0\n        type: i32\n        cases:\n          - {value: 4294967297, body: [{ret: 0}]}\n        default: [{ret: 0}]\n",
			line: 9,
			msg:  "out of range for i32",
		},
		{
			name: "empty",
			src:  "",
			line: 1,
			msg:  "empty fixture",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog, diags := Parse("x.yaml", []byte(tc.src))
			assert.Nil(t, prog)
			require.False(t, diags.Empty())
			it := diags.Items[0]
			assert.Equal(t, "x.yaml", it.Filename)
			assert.Equal(t, tc.line, it.Line, it.Msg)
			assert.Contains(t, it.Msg, tc.msg)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	prog, diags := Parse("x.yaml", []byte("funcs:\n  - name: [f\n"))
	assert.Nil(t, prog)
	require.Len(t, diags.Items, 1)
	assert.Contains(t, diags.Items[0].Msg, "yaml:")
	assert.GreaterOrEqual(t, diags.Items[0].Line, 1)
	assert.Error(t, diags.Err())
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}
