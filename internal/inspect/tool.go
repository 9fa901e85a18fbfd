// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"errors"
	"fmt"

	"distcheck/internal/extproc"
)

// ErrToolInvocation is the sentinel error wrapped by ToolInvocationError.
var ErrToolInvocation = errors.New("external checker failed")

// ToolInvocationError reports a non-zero exit from an external checker,
// with the captured diagnostic output for the user. There is no retry.
type ToolInvocationError struct {
	// Tool is the checker binary name.
	Tool string
	// Result is the finished invocation.
	Result extproc.Result
}

func (e *ToolInvocationError) Error() string {
	diag := e.Result.Diagnostic()
	if diag == "" {
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.Result.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.Result.ExitCode, diag)
}

func (e *ToolInvocationError) Unwrap() error { return ErrToolInvocation }
