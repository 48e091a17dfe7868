// Package config holds the compiler settings shared by the command-line
// tools. Defaults come from the environment; flags override them.
package config

import (
	"fmt"
	"math"

	"github.com/xyproto/env/v2"

	"github.com/dankeyy/roc/internal/codegen"
	"github.com/dankeyy/roc/internal/wasm"
)

const (
	EnvStackSize   = "GENWASM_STACK_SIZE"
	EnvJobs        = "GENWASM_JOBS"
	EnvDebug       = "GENWASM_DEBUG"
	EnvMemoryPages = "GENWASM_MEMORY_PAGES"
)

type Config struct {
	// StackLimit bounds a single frame in bytes; 0 means unbounded.
	StackLimit int64
	// Jobs bounds concurrent function compilation; 0 means GOMAXPROCS.
	Jobs        int
	Debug       bool
	MemoryPages int64
}

func Default() Config {
	return Config{MemoryPages: 1}
}

// FromEnv returns the defaults overridden by GENWASM_* variables. The
// environment is re-read on every call.
func FromEnv() (Config, error) {
	env.Load()
	c := Default()
	c.StackLimit = env.Int64(EnvStackSize, c.StackLimit)
	c.Jobs = env.Int(EnvJobs, c.Jobs)
	c.Debug = env.Bool(EnvDebug)
	c.MemoryPages = env.Int64(EnvMemoryPages, c.MemoryPages)
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config from environment: %w", err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.StackLimit < 0 || c.StackLimit > math.MaxInt32 {
		return fmt.Errorf("stack size %d out of range [0, %d]", c.StackLimit, math.MaxInt32)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs %d is negative", c.Jobs)
	}
	if c.MemoryPages < 1 || c.MemoryPages > wasm.MaxMemoryPages {
		return fmt.Errorf("memory pages %d out of range [1, %d]", c.MemoryPages, wasm.MaxMemoryPages)
	}
	if c.StackLimit > c.MemoryPages*65536 {
		return fmt.Errorf("stack size %d exceeds %d pages of memory", c.StackLimit, c.MemoryPages)
	}
	return nil
}

func (c Config) Options() codegen.Options {
	return codegen.Options{Jobs: c.Jobs, StackLimit: uint32(c.StackLimit)}
}
