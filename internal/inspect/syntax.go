// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"context"
	"path/filepath"

	"distcheck/internal/config"
	"distcheck/internal/extproc"
	"distcheck/internal/workspace"
)

// SyntaxChecker verifies compiled output complies with the configured
// ECMAScript target by invoking the external syntax checker per package.
type SyntaxChecker struct {
	bin    string
	target config.SyntaxTarget
}

// NewSyntaxChecker creates a SyntaxChecker for the given binary and target.
func NewSyntaxChecker(bin string, target config.SyntaxTarget) *SyntaxChecker {
	return &SyntaxChecker{bin: bin, target: target}
}

// Check runs the checker against the package's build output. The glob is
// passed through verbatim; the tool performs its own file expansion.
func (c *SyntaxChecker) Check(ctx context.Context, pkg *workspace.Package) error {
	res := extproc.Invoke(ctx, extproc.Command{
		Bin: c.bin,
		Args: []string{
			string(c.target),
			filepath.ToSlash(filepath.Join(pkg.DistDir, "**", "*.js")),
			"--module",
		},
	})
	if !res.Succeeded() {
		return &ToolInvocationError{Tool: c.bin, Result: res}
	}
	return nil
}
