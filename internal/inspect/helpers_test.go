// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"distcheck/internal/manifest"
	"distcheck/internal/workspace"
)

// distPkg creates a package with the given dist files (path -> content).
func distPkg(t *testing.T, files map[string]string) *workspace.Package {
	t.Helper()
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(distDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return &workspace.Package{
		Name:     "@embrace/web-sdk",
		Dir:      dir,
		DistDir:  distDir,
		Manifest: &manifest.Manifest{Name: "@embrace/web-sdk", Version: "1.0.0"},
	}
}

// stubChecker writes an executable script and returns its path.
func stubChecker(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub checkers require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}
