// SPDX-License-Identifier: MPL-2.0

// Package sandbox provides exclusively-owned ephemeral install roots. A
// Sandbox stages archives and receives a clean install for exactly one
// import test; Remove is forced and must run on every exit path.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// dirPrefix keeps sandbox directories recognizable (and ignorable) in the
// workspace root.
const dirPrefix = ".distcheck-"

// rootManifest declares only module-format intent so the install graph is
// exactly what the import tester places in the sandbox, with no
// interference from the outer project's own dependency graph.
const rootManifest = `{"type":"module"}` + "\n"

// Sandbox is an ephemeral, exclusively-owned directory set up as a minimal
// installable root.
type Sandbox struct {
	// Dir is the absolute path to the sandbox directory.
	Dir string

	removed bool
}

// New allocates a fresh sandbox under parent. The generated name is unique
// per invocation; uniqueness is the only protection the shared temp-dir
// namespace needs since nothing runs concurrently.
func New(parent string) (*Sandbox, error) {
	dir := filepath.Join(parent, dirPrefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(rootManifest), 0644); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write sandbox manifest: %w", err)
	}

	return &Sandbox{Dir: dir}, nil
}

// Remove deletes the sandbox recursively. Removal is best-effort and
// idempotent: errors are swallowed, never surfaced as a run failure.
func (s *Sandbox) Remove() {
	if s.removed {
		return
	}
	s.removed = true
	_ = os.RemoveAll(s.Dir)
}
