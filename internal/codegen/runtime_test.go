package codegen

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/dankeyy/roc/internal/interp"
	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/testprog"
	"github.com/dankeyy/roc/internal/wasm"
)

const stackTop = 65536

func instantiate(t *testing.T, p *ir.Program) api.Module {
	t.Helper()
	ctx := context.Background()
	bin, _, err := CompileModule(p, Options{Jobs: 4}, 1)
	require.NoError(t, err)

	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	mod, err := r.Instantiate(ctx, bin)
	require.NoError(t, err, "module must validate")
	return mod
}

func stackPointer(t *testing.T, mod api.Module) uint64 {
	t.Helper()
	g := mod.ExportedGlobal(wasm.StackPointerExport)
	require.NotNil(t, g)
	return g.Get()
}

func TestCompiledMatchesInterpreter(t *testing.T) {
	p := testprog.Program()
	mod := instantiate(t, p)
	rt := interp.New(p)
	ctx := context.Background()

	cases := []struct {
		name string
		args []interp.Value
	}{
		{"main", nil},
		{"add", []interp.Value{interp.I32(-5), interp.I32(12)}},
		{"reversed", nil},
		{"fact", []interp.Value{interp.I64(0)}},
		{"fact", []interp.Value{interp.I64(1)}},
		{"fact", []interp.Value{interp.I64(10)}},
		{"fact", []interp.Value{interp.I64(20)}},
		{"classify", []interp.Value{interp.I32(1)}},
		{"classify", []interp.Value{interp.I32(2)}},
		{"classify", []interp.Value{interp.I32(3)}},
		{"classify", []interp.Value{interp.I32(-8)}},
		{"max", []interp.Value{interp.I64(3), interp.I64(-4)}},
		{"max", []interp.Value{interp.I64(-3), interp.I64(4)}},
		{"max", []interp.Value{interp.I64(4), interp.I64(4)}},
		{"triangle", []interp.Value{interp.I32(0)}},
		{"triangle", []interp.Value{interp.I32(1)}},
		{"triangle", []interp.Value{interp.I32(9)}},
		{"pair_main", []interp.Value{interp.I64(5)}},
		{"pair_main", []interp.Value{interp.I64(-11)}},
		{"mixed_last", []interp.Value{interp.I32(10), interp.I64(1), interp.I32(52)}},
		{"early_exit", []interp.Value{interp.I32(0)}},
		{"early_exit", []interp.Value{interp.I32(6)}},
		{"avg", []interp.Value{interp.F64(1.5), interp.F64(2.25)}},
		{"call_nop", nil},
	}
	for _, tc := range cases {
		want, err := rt.Call(tc.name, tc.args...)
		require.NoError(t, err, tc.name)

		args := make([]uint64, len(tc.args))
		for i, a := range tc.args {
			args[i] = a.Bits
		}
		res, err := mod.ExportedFunction(tc.name).Call(ctx, args...)
		require.NoError(t, err, tc.name)
		require.Len(t, res, 1, tc.name)
		assert.Equal(t, want.Bits, res[0], "%s%v: want %s", tc.name, tc.args, want)
		assert.Equal(t, uint64(stackTop), stackPointer(t, mod), "%s restores the stack pointer", tc.name)
	}
}

func TestCompositeResultMatchesInPlaceConstruction(t *testing.T) {
	p := testprog.Program()
	mod := instantiate(t, p)
	rt := interp.New(p)
	ctx := context.Background()
	mem := mod.Memory()
	const out = 1024

	cases := []struct {
		name string
		args []interp.Value
	}{
		{"make_pair", []interp.Value{interp.I64(7), interp.I64(-9)}},
		{"forward", []interp.Value{interp.I64(123)}},
		{"rotate", []interp.Value{interp.I32(0), interp.I64(1), interp.I64(2)}},
		{"rotate", []interp.Value{interp.I32(5), interp.I64(1), interp.I64(2)}},
		{"rotate", []interp.Value{interp.I32(8), interp.I64(1), interp.I64(2)}},
	}
	for _, tc := range cases {
		want, err := rt.Call(tc.name, tc.args...)
		require.NoError(t, err, tc.name)

		require.True(t, mem.Write(out, make([]byte, want.Ty.Size())))
		args := []uint64{out}
		for _, a := range tc.args {
			args = append(args, a.Bits)
		}
		res, err := mod.ExportedFunction(tc.name).Call(ctx, args...)
		require.NoError(t, err, tc.name)
		assert.Empty(t, res)

		got, ok := mem.Read(out, want.Ty.Size())
		require.True(t, ok)
		assert.Equal(t, want.Mem, got, "%s%v", tc.name, tc.args)
		assert.Equal(t, uint64(stackTop), stackPointer(t, mod))
	}
}

func TestCompositeArguments(t *testing.T) {
	mod := instantiate(t, testprog.Program())
	ctx := context.Background()
	mem := mod.Memory()

	const in, out = 2048, 4096
	pair := make([]byte, 16)
	binary.LittleEndian.PutUint64(pair[0:], 40)
	binary.LittleEndian.PutUint64(pair[8:], 2)
	require.True(t, mem.Write(in, pair))

	res, err := mod.ExportedFunction("sum_pair").Call(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res[0])

	_, err = mod.ExportedFunction("echo").Call(ctx, out, in)
	require.NoError(t, err)
	got, ok := mem.Read(out, 16)
	require.True(t, ok)
	assert.Equal(t, pair, got)

	got, ok = mem.Read(in, 16)
	require.True(t, ok)
	assert.Equal(t, pair, got, "argument must not be modified")
}

func TestUnitFunction(t *testing.T) {
	mod := instantiate(t, testprog.Program())
	res, err := mod.ExportedFunction("nop").Call(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestCompileProgramDeterministic(t *testing.T) {
	p := testprog.Program()
	first, _, err := CompileModule(p, Options{Jobs: 1}, 1)
	require.NoError(t, err)
	for _, jobs := range []int{0, 2, 8} {
		bin, _, err := CompileModule(p, Options{Jobs: jobs}, 1)
		require.NoError(t, err)
		assert.Equal(t, first, bin, "jobs=%d", jobs)
	}
}

func TestCompileProgramReportsFirstError(t *testing.T) {
	p := testprog.Program()
	bad := &ir.Func{
		Name:   "aaa_bad",
		Params: []ir.Param{{Sym: 0, Ty: ir.I32}},
		Ret:    ir.I32,
		Body:   &ir.Jump{Target: 1},
	}
	worse := bigFunc(1 << 20)
	worse.Name = "zzz_big"
	p.Funcs[bad.Name] = bad
	p.Funcs[worse.Name] = worse

	fns, err := CompileProgram(p, Options{StackLimit: 1024})
	require.Error(t, err)
	assert.Nil(t, fns)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "aaa_bad", ce.Func)
	assert.True(t, IsStructuringError(err))
}

func TestEmptyCompositeResult(t *testing.T) {
	empty := ir.Struct("empty")
	p := &ir.Program{Funcs: map[string]*ir.Func{
		"mk": {Name: "mk", Ret: empty,
			Body: &ir.Let{Sym: 0, Ty: empty, Expr: &ir.StructInit{}, Next: &ir.Ret{Sym: 0}}},
		"main": {Name: "main", Ret: ir.I64,
			Body: &ir.Let{Sym: 0, Ty: empty, Expr: &ir.Call{Name: "mk"},
				Next: &ir.Let{Sym: 1, Ty: ir.I64, Expr: &ir.Literal{Ty: ir.I64, I: 7}, Next: &ir.Ret{Sym: 1}}}},
	}}
	require.NoError(t, empty.Layout.Check())
	mod := instantiate(t, p)

	res, err := mod.ExportedFunction("main").Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, res)
	assert.Equal(t, uint64(stackTop), stackPointer(t, mod))

	want, err := interp.New(p).Call("main")
	require.NoError(t, err)
	assert.Equal(t, want.Bits, res[0])
}

func TestReservedFunctionNameRejected(t *testing.T) {
	p := &ir.Program{Funcs: map[string]*ir.Func{
		"memory": {Name: "memory", Ret: ir.I32,
			Body: &ir.Let{Sym: 0, Ty: ir.I32, Expr: &ir.Literal{Ty: ir.I32, I: 1}, Next: &ir.Ret{Sym: 0}}},
	}}
	_, _, err := CompileModule(p, Options{}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"memory"`)
}
