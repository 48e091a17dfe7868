package codegen

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/structure"
	"github.com/dankeyy/roc/internal/testprog"
	"github.com/dankeyy/roc/internal/wasm"
)

func layout(t *testing.T, f *ir.Func, limit uint32) *Frame {
	t.Helper()
	fr, err := layoutFrame(f, SignatureOf(f), limit)
	require.NoError(t, err)
	return fr
}

func TestLayoutRegions(t *testing.T) {
	fr := layout(t, testprog.Rotate(), 0)
	assert.Equal(t, uint32(0), fr.offsets[3])
	assert.Equal(t, uint32(16), fr.offsets[4])
	assert.Equal(t, uint32(32), fr.offsets[6], "join parameter")
	assert.Equal(t, uint32(48), fr.offsets[7], "join parameter")
	assert.Equal(t, []uint32{64, 80, 0}, fr.staging[0])
	assert.Equal(t, uint32(96), fr.Size)

	fr = layout(t, testprog.PairMain(), 0)
	assert.Equal(t, uint32(0), fr.offsets[3], "call result buffer")
	assert.Equal(t, uint32(16), fr.Size)
}

func TestLayoutOutgoingAfterLocals(t *testing.T) {
	f := &ir.Func{
		Name:   "f",
		Params: []ir.Param{{Sym: 0, Ty: ir.I64}, {Sym: 3, Ty: ir.I32}},
		Ret:    ir.I64,
		Body: &ir.Let{Sym: 1, Ty: testprog.Pair, Expr: &ir.Call{Name: "make_pair", Args: []ir.Sym{0, 0}},
			Next: &ir.Let{Sym: 2, Ty: testprog.Mixed, Expr: &ir.StructInit{Fields: []ir.Sym{3, 0, 3}},
				Next: &ir.Ret{Sym: 0}}},
	}
	fr := layout(t, f, 0)
	assert.Equal(t, uint32(0), fr.offsets[2])
	assert.Equal(t, uint32(24), fr.offsets[1])
	assert.Equal(t, uint32(48), fr.Size)
}

func TestCompositeParamsAliasPointer(t *testing.T) {
	fr := layout(t, testprog.Echo(), 0)
	assert.Zero(t, fr.Size)
	l, off := fr.base(0)
	assert.Equal(t, uint32(1), l, "local 0 is the result pointer")
	assert.Zero(t, off)
}

func TestPaddedLayout(t *testing.T) {
	fr := layout(t, testprog.MixedInit(), 0)
	assert.Equal(t, uint32(32), fr.Size)
	assert.Equal(t, uint32(24), testprog.Mixed.Size())
	assert.Equal(t, []ir.Field{{Offset: 0, Ty: ir.I32}, {Offset: 8, Ty: ir.I64}, {Offset: 16, Ty: ir.I32}}, testprog.Mixed.Layout.Fields)
}

func bigStruct(size uint32) ir.Type {
	return ir.Type{K: ir.TStruct, Layout: &ir.StructLayout{
		Name:   fmt.Sprintf("big%d", size),
		Size:   size,
		Align:  8,
		Fields: []ir.Field{{Offset: 0, Ty: ir.I64}},
	}}
}

func bigFunc(size uint32) *ir.Func {
	t := bigStruct(size)
	return &ir.Func{
		Name:   "big",
		Params: []ir.Param{{Sym: 0, Ty: ir.I64}},
		Ret:    ir.I64,
		Body: &ir.Let{Sym: 1, Ty: t, Expr: &ir.StructInit{Fields: []ir.Sym{0}},
			Next: &ir.Ret{Sym: 0}},
	}
}

func TestFrameOverflow(t *testing.T) {
	_, err := CompileFunc(bigFunc(8192), nil, Options{StackLimit: 4096})
	require.Error(t, err)
	assert.True(t, IsFrameOverflow(err))
	assert.False(t, IsStructuringError(err))
	var fe *FrameOverflowError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, uint64(8192), fe.Size)
	assert.Equal(t, uint64(4096), fe.Limit)

	_, err = CompileFunc(bigFunc(1<<31), nil, Options{})
	require.Error(t, err)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, uint64(math.MaxInt32), fe.Limit)

	fn, err := CompileFunc(bigFunc(4096), nil, Options{StackLimit: 4096})
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), fn.FrameSize)
}

func TestStructuringErrorSurfaces(t *testing.T) {
	f := &ir.Func{
		Name:   "bad",
		Params: []ir.Param{{Sym: 0, Ty: ir.I32}},
		Ret:    ir.I32,
		Body:   &ir.Jump{Target: 4, Args: []ir.Sym{0}},
	}
	_, err := CompileFunc(f, nil, Options{})
	require.Error(t, err)
	assert.True(t, IsStructuringError(err))
	var se *structure.StructuringError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad", se.Func)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "bad", ce.Func)
}

func TestCopyMemoryChunks(t *testing.T) {
	cases := []struct {
		size, align uint32
		ops         []wasm.Opcode
	}{
		{16, 8, []wasm.Opcode{wasm.OpI64Load, wasm.OpI64Store, wasm.OpI64Load, wasm.OpI64Store}},
		{12, 4, []wasm.Opcode{wasm.OpI32Load, wasm.OpI32Store, wasm.OpI32Load, wasm.OpI32Store, wasm.OpI32Load, wasm.OpI32Store}},
		{6, 2, []wasm.Opcode{wasm.OpI32Load16U, wasm.OpI32Store16, wasm.OpI32Load16U, wasm.OpI32Store16, wasm.OpI32Load16U, wasm.OpI32Store16}},
		{3, 1, []wasm.Opcode{wasm.OpI32Load8U, wasm.OpI32Store8, wasm.OpI32Load8U, wasm.OpI32Store8, wasm.OpI32Load8U, wasm.OpI32Store8}},
		{12, 8, []wasm.Opcode{wasm.OpI64Load, wasm.OpI64Store, wasm.OpI32Load, wasm.OpI32Store}},
	}
	for _, tc := range cases {
		var c wasm.Code
		copyMemory(&c, 1, 100, 2, 200, tc.size, tc.align)
		var ops []wasm.Opcode
		var last wasm.Instr
		for _, in := range c.Finalize() {
			if in.Op.IsMemory() {
				ops = append(ops, in.Op)
				last = in
			}
		}
		assert.Equal(t, tc.ops, ops, "size %d align %d", tc.size, tc.align)
		assert.Equal(t, int64(100+tc.size-chunkSize(last.Op)), last.Imm, "size %d align %d", tc.size, tc.align)
	}
}

func chunkSize(op wasm.Opcode) uint32 {
	for _, ch := range chunks {
		if ch.store == op {
			return ch.size
		}
	}
	return 0
}
