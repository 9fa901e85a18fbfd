// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"context"

	"distcheck/internal/extproc"
	"distcheck/internal/workspace"
)

// MetadataLinter checks a package's publishing metadata (exports map, entry
// points, field consistency) via the external package metadata linter, run
// from the package directory.
type MetadataLinter struct {
	bin string
}

// NewMetadataLinter creates a MetadataLinter for the given binary.
func NewMetadataLinter(bin string) *MetadataLinter {
	return &MetadataLinter{bin: bin}
}

// Check lints the package's manifest and build output.
func (l *MetadataLinter) Check(ctx context.Context, pkg *workspace.Package) error {
	res := extproc.Invoke(ctx, extproc.Command{
		Bin: l.bin,
		Dir: pkg.Dir,
	})
	if !res.Succeeded() {
		return &ToolInvocationError{Tool: l.bin, Result: res}
	}
	return nil
}
