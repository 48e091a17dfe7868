package structure

import (
	"errors"
	"fmt"

	"github.com/dankeyy/roc/internal/ir"
)

// StructuringError reports a control-flow graph that cannot be expressed
// with nested scopes.
type StructuringError struct {
	Func string
	Join ir.JoinID
	Msg  string
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("structuring %s: %s: %s", e.Func, e.Join, e.Msg)
}

// IsStructuringError reports whether err wraps a *StructuringError.
func IsStructuringError(err error) bool {
	var se *StructuringError
	return errors.As(err, &se)
}
