// Package codegen lowers IR functions to WebAssembly instruction sequences.
//
// A function is first restructured into nested scopes, then emitted in one
// pass. Scalars stay on the operand stack where their uses allow it and are
// moved into locals retroactively otherwise; composites live in a
// linear-memory frame carved off the shadow stack.
package codegen

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/structure"
)

type Options struct {
	// Jobs bounds the number of functions compiled concurrently. Zero means
	// GOMAXPROCS.
	Jobs int
	// StackLimit bounds the frame size of a single function in bytes. Zero
	// means no limit beyond what the stack pointer can address.
	StackLimit uint32
}

// CompileFunc compiles f. sigs holds the signatures of the functions f may
// call; calls to functions missing from sigs are not checked.
func CompileFunc(f *ir.Func, sigs Signatures, opts Options) (*Function, error) {
	fn, err := compileFunc(f, sigs, opts)
	if err != nil {
		return nil, &CompileError{Func: f.Name, Err: err}
	}
	return fn, nil
}

func compileFunc(f *ir.Func, sigs Signatures, opts Options) (*Function, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	types := f.SymTypes()
	if err := checkCalls(f, types, sigs); err != nil {
		return nil, err
	}
	tree, err := structure.Restructure(f)
	if err != nil {
		return nil, err
	}
	sig := SignatureOf(f)
	frame, err := layoutFrame(f, sig, opts.StackLimit)
	if err != nil {
		return nil, err
	}
	fc := newFuncCompiler(f, sig, types, frame)
	fc.emitFunc(tree)
	fn := fc.assemble()
	slog.Debug("function compiled",
		"func", f.Name,
		"frame", fn.FrameSize,
		"slots", len(fn.Slots),
		"insertions", fc.code.Insertions(),
		"instrs", len(fn.Code),
	)
	return fn, nil
}

// CompileProgram compiles every function of p, in name order. Functions are
// compiled concurrently; the result does not depend on scheduling. The
// first error in name order is returned and no functions are.
func CompileProgram(p *ir.Program, opts Options) ([]*Function, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	names := p.Names()
	sigs := ProgramSignatures(p)
	out := make([]*Function, len(names))
	errs := make([]error, len(names))
	if len(names) == 0 {
		return out, nil
	}

	workers := compileWorkers(len(names), opts.Jobs)
	slog.Debug("compiling program", "funcs", len(names), "workers", workers)

	workq := make(chan int, len(names))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workq {
				out[idx], errs[idx] = CompileFunc(p.Funcs[names[idx]], sigs, opts)
			}
		}()
	}
	for i := range names {
		workq <- i
	}
	close(workq)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func compileWorkers(funcCount int, jobs int) int {
	if funcCount <= 0 {
		return 1
	}
	if jobs > 0 {
		if jobs > funcCount {
			return funcCount
		}
		return jobs
	}
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > funcCount {
		workers = funcCount
	}
	return workers
}

// CompileModule compiles p and serializes it with the given memory size.
func CompileModule(p *ir.Program, opts Options, memoryPages uint32) ([]byte, []*Function, error) {
	fns, err := CompileProgram(p, opts)
	if err != nil {
		return nil, nil, err
	}
	bin, err := BuildModule(fns, memoryPages).Encode()
	if err != nil {
		return nil, nil, fmt.Errorf("encode module: %w", err)
	}
	return bin, fns, nil
}
