// SPDX-License-Identifier: MPL-2.0

// Package manifest models the npm package.json metadata the validator
// consumes: declared name, version, the private flag, and the dependency
// mappings used to resolve workspace-internal edges.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the npm manifest file name.
const FileName = "package.json"

// ErrInvalidManifest is the sentinel error wrapped by all manifest
// validation failures.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the subset of package.json the validator reads. Instances are
// constructed once per discovery pass and never mutated afterwards.
type Manifest struct {
	// Name is the declared package name (possibly scoped, e.g. "@org/pkg").
	Name string `json:"name"`
	// Version is the declared semantic version.
	Version string `json:"version"`
	// Private marks the package as internal-only; publishing contracts do
	// not apply to private packages.
	Private bool `json:"private"`
	// Dependencies maps dependency name to version range.
	Dependencies map[string]string `json:"dependencies"`
	// PeerDependencies maps peer dependency name to version range.
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// Load reads and parses the package.json inside dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("%w: %s has no name", ErrInvalidManifest, path)
	}

	return &m, nil
}

// DeclaredDependencies returns the union of the dependency and peer
// dependency mappings. A name present in both keeps the dependencies range;
// only key membership matters to the resolver.
func (m *Manifest) DeclaredDependencies() map[string]string {
	union := make(map[string]string, len(m.Dependencies)+len(m.PeerDependencies))
	for name, rng := range m.PeerDependencies {
		union[name] = rng
	}
	for name, rng := range m.Dependencies {
		union[name] = rng
	}
	return union
}
