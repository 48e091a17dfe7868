package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"

	"github.com/dankeyy/roc/internal/codegen"
	"github.com/dankeyy/roc/internal/interp"
	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/structure"
	"github.com/dankeyy/roc/internal/wasm"
)

func newIRCommand(opts *rootOptions) *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "ir <fixture.yaml>",
		Short: "Print the IR of a fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !tree {
				fmt.Fprint(out, prog.Format())
				return nil
			}
			for _, name := range prog.Names() {
				t, err := structure.Restructure(prog.Funcs[name])
				if err != nil {
					return err
				}
				fmt.Fprint(out, t.Format())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "print the structured scope tree instead")
	return cmd
}

func newWatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wat <fixture.yaml>",
		Short: "Print the compiled module in text form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, fns, err := opts.compile(cmd, args[0])
			if err != nil {
				return err
			}
			m := codegen.BuildModule(fns, uint32(opts.cfg.MemoryPages))
			fmt.Fprint(cmd.OutOrStdout(), wasm.Format(m))
			return nil
		},
	}
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "build <fixture.yaml>",
		Short: "Write the compiled module as a .wasm binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, fns, err := opts.compile(cmd, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".wasm"
			}
			if err := os.WriteFile(output, bin, 0o644); err != nil {
				return fmt.Errorf("write module: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d functions, %d bytes)\n", output, len(fns), len(bin))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: fixture name with .wasm)")
	return cmd
}

// resultAddr is where run places composite results; it sits below the
// shadow stack, which grows down from the top of memory.
const resultAddr = 1024

func newRunCommand(opts *rootOptions) *cobra.Command {
	var useInterp bool
	cmd := &cobra.Command{
		Use:   "run <fixture.yaml> <func> [args...]",
		Short: "Compile a fixture and call one of its functions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(cmd, args[0])
			if err != nil {
				return err
			}
			f, ok := prog.Funcs[args[1]]
			if !ok {
				return fmt.Errorf("no function %q in %s", args[1], args[0])
			}
			vals, err := parseArgs(f, args[2:])
			if err != nil {
				return err
			}
			var v interp.Value
			if useInterp {
				v, err = interp.New(prog).Call(f.Name, vals...)
			} else {
				v, err = opts.execute(cmd, prog, f, vals)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&useInterp, "interp", false, "evaluate with the reference interpreter instead")
	return cmd
}

func parseArgs(f *ir.Func, args []string) ([]interp.Value, error) {
	if len(args) != len(f.Params) {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", f.Name, len(f.Params), len(args))
	}
	out := make([]interp.Value, len(args))
	for i, a := range args {
		t := f.Params[i].Ty
		var err error
		switch t.K {
		case ir.TI32:
			var n int64
			n, err = strconv.ParseInt(a, 0, 32)
			out[i] = interp.I32(int32(n))
		case ir.TI64:
			var n int64
			n, err = strconv.ParseInt(a, 0, 64)
			out[i] = interp.I64(n)
		case ir.TF32:
			var x float64
			x, err = strconv.ParseFloat(a, 32)
			out[i] = interp.F32(float32(x))
		case ir.TF64:
			var x float64
			x, err = strconv.ParseFloat(a, 64)
			out[i] = interp.F64(x)
		default:
			return nil, fmt.Errorf("argument %d of %s: %s values cannot be passed from the command line", i, f.Name, t)
		}
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, f.Name, err)
		}
	}
	return out, nil
}

func (o *rootOptions) execute(cmd *cobra.Command, prog *ir.Program, f *ir.Func, vals []interp.Value) (interp.Value, error) {
	ctx := cmd.Context()
	fns, err := codegen.CompileProgram(prog, o.cfg.Options())
	if err != nil {
		return interp.Value{}, err
	}
	bin, err := codegen.BuildModule(fns, uint32(o.cfg.MemoryPages)).Encode()
	if err != nil {
		return interp.Value{}, err
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		return interp.Value{}, fmt.Errorf("instantiate: %w", err)
	}

	var params []uint64
	if f.Ret.IsComposite() {
		params = append(params, resultAddr)
	}
	for _, v := range vals {
		params = append(params, v.Bits)
	}
	res, err := mod.ExportedFunction(f.Name).Call(ctx, params...)
	if err != nil {
		return interp.Value{}, fmt.Errorf("call %s: %w", f.Name, err)
	}
	slog.Debug("call returned",
		"func", f.Name,
		"stack_pointer", mod.ExportedGlobal(wasm.StackPointerExport).Get(),
	)

	switch {
	case f.Ret.IsComposite():
		mem, ok := mod.Memory().Read(resultAddr, f.Ret.Size())
		if !ok {
			return interp.Value{}, fmt.Errorf("result of %s out of memory bounds", f.Name)
		}
		return interp.Composite(f.Ret, append([]byte(nil), mem...)), nil
	case f.Ret.K == ir.TUnit:
		return interp.Value{Ty: ir.Unit}, nil
	default:
		return interp.Scalar(f.Ret, res[0]), nil
	}
}
