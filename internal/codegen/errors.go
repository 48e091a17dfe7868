package codegen

import (
	"errors"
	"fmt"

	"github.com/dankeyy/roc/internal/structure"
)

// FrameOverflowError reports a frame larger than the stack pointer can
// reserve, or larger than the configured limit.
type FrameOverflowError struct {
	Func  string
	Size  uint64
	Limit uint64
}

func (e *FrameOverflowError) Error() string {
	return fmt.Sprintf("frame of %s needs %d bytes, limit is %d", e.Func, e.Size, e.Limit)
}

// CompileError wraps any failure to compile one function.
type CompileError struct {
	Func string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Func, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// IsFrameOverflow reports whether err wraps a *FrameOverflowError.
func IsFrameOverflow(err error) bool {
	var fe *FrameOverflowError
	return errors.As(err, &fe)
}

// IsStructuringError reports whether err wraps a *structure.StructuringError.
func IsStructuringError(err error) bool {
	return structure.IsStructuringError(err)
}
