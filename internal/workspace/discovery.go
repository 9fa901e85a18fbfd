// SPDX-License-Identifier: MPL-2.0

// Package workspace handles finding workspace packages that have produced
// build output and resolving the internal dependency edges between them.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"distcheck/internal/manifest"
)

// Package is a discovered workspace package with build output. Instances
// are constructed once per discovery pass and are immutable for the run.
type Package struct {
	// Name is the declared manifest name (possibly scoped).
	Name string
	// Dir is the absolute path to the package directory.
	Dir string
	// DistDir is the absolute path to the build output directory.
	DistDir string
	// Manifest is the parsed package.json.
	Manifest *manifest.Manifest
}

// Private reports whether the package is marked internal-only.
func (p *Package) Private() bool {
	return p.Manifest.Private
}

// DistFiles returns the compiled output files under DistDir, relative
// ordering deterministic (lexicographic walk order). Sourcemap companions
// (.map) are included; callers filter as needed.
func (p *Package) DistFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.DistDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk dist of %s: %w", p.Name, err)
	}
	return files, nil
}

// CompiledFiles returns the JavaScript output files under DistDir,
// excluding sourcemaps and declaration files.
func (p *Package) CompiledFiles() ([]string, error) {
	all, err := p.DistFiles()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range all {
		switch filepath.Ext(f) {
		case ".js", ".mjs", ".cjs":
			if !strings.HasSuffix(f, ".d.ts") {
				files = append(files, f)
			}
		}
	}
	return files, nil
}

// Discover enumerates the packages under root that have a distDirName build
// output subdirectory. Workspace members without build output are silently
// excluded: they are either non-publishable or not yet built, which is not
// an error. The result is sorted by directory name for a stable processing
// order.
func Discover(root, distDirName string) ([]*Package, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve packages root: %w", err)
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages root %s: %w", absRoot, err)
	}

	var pkgs []*Package
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(absRoot, entry.Name())
		distDir := filepath.Join(dir, distDirName)
		info, err := os.Stat(distDir)
		if err != nil || !info.IsDir() {
			continue
		}

		m, err := manifest.Load(dir)
		if err != nil {
			return nil, fmt.Errorf("package %s has build output but an unreadable manifest: %w", entry.Name(), err)
		}

		pkgs = append(pkgs, &Package{
			Name:     m.Name,
			Dir:      dir,
			DistDir:  distDir,
			Manifest: m,
		})
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Dir < pkgs[j].Dir })
	return pkgs, nil
}
