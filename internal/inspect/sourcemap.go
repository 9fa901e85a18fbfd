// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"distcheck/internal/workspace"
)

// sourceMappingURLComment is the reference comment the bundler embeds in
// every compiled file that carries a companion map.
const sourceMappingURLComment = "//# sourceMappingURL="

// ErrInvalidSourcemap is the sentinel error wrapped by InvalidSourcemapError.
var ErrInvalidSourcemap = errors.New("invalid sourcemap")

// InvalidSourcemapError reports a malformed or incomplete sourcemap, or a
// compiled file missing its reference comment.
type InvalidSourcemapError struct {
	// File is the offending file path (the map or the compiled file).
	File string
	// Reason describes the violation.
	Reason string
}

func (e *InvalidSourcemapError) Error() string {
	return fmt.Sprintf("invalid sourcemap: %s: %s", e.File, e.Reason)
}

func (e *InvalidSourcemapError) Unwrap() error { return ErrInvalidSourcemap }

// sourcemap is the subset of the sourcemap v3 format the validator reads.
type sourcemap struct {
	Sources []string `json:"sources"`
}

// CheckSourcemaps validates the package's sourcemaps: every compiled file
// with a companion .map must reference at least one original source, and
// the compiled file must carry the sourceMappingURL comment. Files without
// a companion map are tolerated; the first violation fails the package.
func CheckSourcemaps(pkg *workspace.Package) error {
	files, err := pkg.CompiledFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		mapPath := file + ".map"
		data, err := os.ReadFile(mapPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read sourcemap %s: %w", mapPath, err)
		}

		var sm sourcemap
		if err := json.Unmarshal(data, &sm); err != nil {
			return &InvalidSourcemapError{File: mapPath, Reason: "not valid JSON"}
		}
		if len(sm.Sources) == 0 {
			return &InvalidSourcemapError{File: mapPath, Reason: "references no original sources"}
		}

		compiled, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read compiled file %s: %w", file, err)
		}
		if !strings.Contains(string(compiled), sourceMappingURLComment) {
			return &InvalidSourcemapError{File: file, Reason: "missing sourceMappingURL comment"}
		}
	}

	return nil
}
