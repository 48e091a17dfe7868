package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dankeyy/roc/internal/codegen"
	"github.com/dankeyy/roc/internal/config"
	"github.com/dankeyy/roc/internal/diag"
	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/loader"
)

type rootOptions struct {
	verbose     bool
	jobs        int
	stackSize   int64
	memoryPages int64

	cfg config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "genwasm",
		Short:         "Compile join-point IR to WebAssembly",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log compilation details to stderr")
	pf.IntVarP(&opts.jobs, "jobs", "j", 0, "functions compiled concurrently (0: GOMAXPROCS)")
	pf.Int64Var(&opts.stackSize, "stack-size", 0, "largest frame in bytes (0: unbounded)")
	pf.Int64Var(&opts.memoryPages, "memory-pages", 1, "linear memory size in 64KiB pages")

	cmd.AddCommand(newIRCommand(opts))
	cmd.AddCommand(newWatCommand(opts))
	cmd.AddCommand(newBuildCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

// resolve layers the flags the user set over the environment defaults and
// installs the logger.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Debug = o.verbose
	}
	if flags.Changed("jobs") {
		cfg.Jobs = o.jobs
	}
	if flags.Changed("stack-size") {
		cfg.StackLimit = o.stackSize
	}
	if flags.Changed("memory-pages") {
		cfg.MemoryPages = o.memoryPages
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// loadProgram reads and validates a fixture, printing its diagnostics.
func loadProgram(cmd *cobra.Command, path string) (*ir.Program, error) {
	prog, diags, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if !diags.Empty() {
		diag.Print(cmd.ErrOrStderr(), diags)
		return nil, fmt.Errorf("%s: %d problem(s)", path, len(diags.Items))
	}
	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("fixture loaded", "path", path, "funcs", len(prog.Funcs))
	return prog, nil
}

func (o *rootOptions) compile(cmd *cobra.Command, path string) ([]byte, []*codegen.Function, error) {
	prog, err := loadProgram(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	return codegen.CompileModule(prog, o.cfg.Options(), uint32(o.cfg.MemoryPages))
}
