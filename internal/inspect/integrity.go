// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"distcheck/internal/workspace"
)

// legacyLoadMarker is the synchronous module-loading call that must never
// appear in ESM-only output: it breaks in strict module-only consumers.
const legacyLoadMarker = "require("

// ErrLegacyModuleLoad is the sentinel error wrapped by LegacyModuleLoadError.
var ErrLegacyModuleLoad = errors.New("legacy module loading in build output")

// LegacyModuleLoadError reports a dist file that falls back to synchronous
// dynamic loading.
type LegacyModuleLoadError struct {
	// File is the offending file path.
	File string
}

func (e *LegacyModuleLoadError) Error() string {
	return fmt.Sprintf("%s contains legacy synchronous module loading (%q)", e.File, legacyLoadMarker)
}

func (e *LegacyModuleLoadError) Unwrap() error { return ErrLegacyModuleLoad }

// CheckModuleIntegrity scans the package's compiled output recursively for
// legacy synchronous module-loading syntax. Any occurrence is a hard
// failure for the package. Sourcemaps are skipped: they quote original
// source text and would false-positive.
func CheckModuleIntegrity(pkg *workspace.Package) error {
	files, err := pkg.DistFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		if filepath.Ext(file) == ".map" {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if strings.Contains(string(data), legacyLoadMarker) {
			return &LegacyModuleLoadError{File: file}
		}
	}

	return nil
}
