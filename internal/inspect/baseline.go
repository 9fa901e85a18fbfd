// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"context"

	"distcheck/internal/extproc"
)

// BaselineChecker verifies the whole distribution against the baseline
// web-platform API set via one external linter invocation. Unlike the other
// inspectors it runs once per run, not once per package, because the linter
// analyzes the dependency closure across packages.
type BaselineChecker struct {
	bin  string
	root string
}

// NewBaselineChecker creates a BaselineChecker rooted at the packages root.
func NewBaselineChecker(bin, root string) *BaselineChecker {
	return &BaselineChecker{bin: bin, root: root}
}

// Check runs the baseline linter over the packages root.
func (c *BaselineChecker) Check(ctx context.Context) error {
	res := extproc.Invoke(ctx, extproc.Command{
		Bin:  c.bin,
		Args: []string{c.root},
	})
	if !res.Succeeded() {
		return &ToolInvocationError{Tool: c.bin, Result: res}
	}
	return nil
}
