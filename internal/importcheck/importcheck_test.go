// SPDX-License-Identifier: MPL-2.0

package importcheck

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"distcheck/internal/manifest"
	"distcheck/internal/npm"
	"distcheck/internal/workspace"

	"github.com/charmbracelet/log"
)

// testPkg creates a package directory whose declared name matches the
// directory basename, which is what the stub npm's archive naming relies on.
func testPkg(t *testing.T, root, name string, deps map[string]string) *workspace.Package {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return &workspace.Package{
		Name: name,
		Dir:  dir,
		Manifest: &manifest.Manifest{
			Name:         name,
			Version:      "1.0.0",
			Dependencies: deps,
		},
	}
}

// stubTools writes npm and node stubs that append invocations to a log
// file. The npm stub packs `<cwd basename>-1.0.0.tgz` into the pack
// destination; failOn makes any invocation containing the marker fail.
func stubTools(t *testing.T, failOn string) (npmBin, nodeBin, logFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tools require a POSIX shell")
	}

	dir := t.TempDir()
	logFile = filepath.Join(dir, "invocations.log")

	npmBin = filepath.Join(dir, "npm")
	npmScript := `#!/bin/sh
echo "npm $* (cwd=$(basename "$PWD"))" >> "` + logFile + `"
case " $* " in *" ` + failOn + ` "*) echo "stub forced failure" >&2; exit 1;; esac
if [ "$1" = "pack" ]; then
  dest=""
  while [ $# -gt 0 ]; do
    if [ "$1" = "--pack-destination" ]; then dest="$2"; shift; fi
    shift
  done
  touch "$dest/$(basename "$PWD")-1.0.0.tgz"
fi
exit 0
`
	if failOn == "" {
		npmScript = strings.Replace(npmScript, `case " $* " in *"  "*) echo "stub forced failure" >&2; exit 1;; esac`+"\n", "", 1)
	}
	if err := os.WriteFile(npmBin, []byte(npmScript), 0755); err != nil {
		t.Fatal(err)
	}

	nodeBin = filepath.Join(dir, "node")
	nodeScript := `#!/bin/sh
echo "node import" >> "` + logFile + `"
exit 0
`
	if err := os.WriteFile(nodeBin, []byte(nodeScript), 0755); err != nil {
		t.Fatal(err)
	}

	return npmBin, nodeBin, logFile
}

func readLog(t *testing.T, logFile string) []string {
	t.Helper()
	data, err := os.ReadFile(logFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// sandboxLeftovers lists sandbox directories remaining under parent.
func sandboxLeftovers(t *testing.T, parent string) []string {
	t.Helper()
	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	var left []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".distcheck-") {
			left = append(left, e.Name())
		}
	}
	return left
}

func newTester(t *testing.T, pkgs []*workspace.Package, npmBin, nodeBin, parent string) *Tester {
	t.Helper()
	logger := log.New(io.Discard)
	return New(workspace.NewResolver(pkgs), npm.NewClient(npmBin, nodeBin), logger, parent)
}

func TestVerify_SuccessWalksAllStagesInOrder(t *testing.T) {
	t.Parallel()

	npmBin, nodeBin, logFile := stubTools(t, "")
	root := t.TempDir()
	dep := testPkg(t, root, "sdk-core", nil)
	target := testPkg(t, root, "web-sdk", map[string]string{"sdk-core": "^1.0.0"})

	parent := t.TempDir()
	tester := newTester(t, []*workspace.Package{dep, target}, npmBin, nodeBin, parent)

	if err := tester.Verify(context.Background(), target); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	lines := readLog(t, logFile)
	if len(lines) != 5 {
		t.Fatalf("expected 5 tool invocations, got %d: %v", len(lines), lines)
	}
	checks := []string{
		"pack", "install", // dependency first
		"pack", "install", // then target
		"node import",
	}
	for i, want := range checks {
		if !strings.Contains(lines[i], want) {
			t.Errorf("invocation %d = %q, want %q", i, lines[i], want)
		}
	}
	// dependency packed from its own directory before the target
	if !strings.Contains(lines[0], "cwd=sdk-core") {
		t.Errorf("dependency must pack first: %q", lines[0])
	}
	if !strings.Contains(lines[2], "cwd=web-sdk") {
		t.Errorf("target must pack after dependencies: %q", lines[2])
	}

	if left := sandboxLeftovers(t, parent); len(left) != 0 {
		t.Errorf("sandbox not torn down: %v", left)
	}
}

func TestVerify_PrivatePackageSkipsEverything(t *testing.T) {
	t.Parallel()

	npmBin, nodeBin, logFile := stubTools(t, "")
	root := t.TempDir()
	target := testPkg(t, root, "internal-only", nil)
	target.Manifest.Private = true

	parent := t.TempDir()
	tester := newTester(t, []*workspace.Package{target}, npmBin, nodeBin, parent)

	if err := tester.Verify(context.Background(), target); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if lines := readLog(t, logFile); len(lines) != 0 {
		t.Errorf("private package must not invoke any tool: %v", lines)
	}
	if left := sandboxLeftovers(t, parent); len(left) != 0 {
		t.Errorf("private package must not provision a sandbox: %v", left)
	}
}

func TestVerify_InstallFailureStopsAndTearsDown(t *testing.T) {
	t.Parallel()

	npmBin, nodeBin, logFile := stubTools(t, "install")
	root := t.TempDir()
	dep := testPkg(t, root, "sdk-core", nil)
	target := testPkg(t, root, "web-sdk", map[string]string{"sdk-core": "^1.0.0"})

	parent := t.TempDir()
	tester := newTester(t, []*workspace.Package{dep, target}, npmBin, nodeBin, parent)

	err := tester.Verify(context.Background(), target)
	if err == nil {
		t.Fatal("expected failure")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %T: %v", err, err)
	}
	if stageErr.Stage != StageInstallDependency {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, StageInstallDependency)
	}

	for _, line := range readLog(t, logFile) {
		if strings.Contains(line, "node import") {
			t.Error("module load must not run after an install failure")
		}
	}
	if left := sandboxLeftovers(t, parent); len(left) != 0 {
		t.Errorf("sandbox must be torn down on failure: %v", left)
	}
}

func TestVerify_CycleFailsBeforeSandbox(t *testing.T) {
	t.Parallel()

	npmBin, nodeBin, _ := stubTools(t, "")
	root := t.TempDir()
	a := testPkg(t, root, "a", map[string]string{"b": "*"})
	b := testPkg(t, root, "b", map[string]string{"a": "*"})

	parent := t.TempDir()
	tester := newTester(t, []*workspace.Package{a, b}, npmBin, nodeBin, parent)

	err := tester.Verify(context.Background(), a)
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if stageErr.Stage != StageResolve {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, StageResolve)
	}
	var cycleErr *workspace.CycleError
	if !errors.As(err, &cycleErr) {
		t.Errorf("expected wrapped CycleError, got %v", err)
	}
	if left := sandboxLeftovers(t, parent); len(left) != 0 {
		t.Errorf("no sandbox should exist after a resolve failure: %v", left)
	}
}

func TestVerify_MissingArtifact(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("stub tools require a POSIX shell")
	}

	dir := t.TempDir()
	npmBin := filepath.Join(dir, "npm")
	// pack succeeds but produces an archive under an unexpected name
	script := `#!/bin/sh
if [ "$1" = "pack" ]; then
  dest=""
  while [ $# -gt 0 ]; do
    if [ "$1" = "--pack-destination" ]; then dest="$2"; shift; fi
    shift
  done
  touch "$dest/unexpected-9.9.9.tgz"
fi
exit 0
`
	if err := os.WriteFile(npmBin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	root := t.TempDir()
	target := testPkg(t, root, "web-sdk", nil)

	parent := t.TempDir()
	tester := newTester(t, []*workspace.Package{target}, npmBin, "node", parent)

	err := tester.Verify(context.Background(), target)
	if !errors.Is(err, npm.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePackTarget {
		t.Errorf("expected failure at %q, got %v", StagePackTarget, err)
	}
	if left := sandboxLeftovers(t, parent); len(left) != 0 {
		t.Errorf("sandbox must be torn down: %v", left)
	}
}
