// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError indicates a dependency cycle between workspace packages, which
// makes a valid install order impossible.
type CycleError struct {
	// Cycle is the dependency path forming the cycle, first node repeated
	// at the end.
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("workspace dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// Resolver computes internal dependency edges over the discovered package
// set. A dependency or peer dependency is internal iff its name matches
// another discovered package's declared name; external registry names are
// silently omitted since only internal packages need local installation.
type Resolver struct {
	index map[string]*Package
}

// NewResolver builds a Resolver over the discovered packages.
func NewResolver(pkgs []*Package) *Resolver {
	index := make(map[string]*Package, len(pkgs))
	for _, p := range pkgs {
		index[p.Name] = p
	}
	return &Resolver{index: index}
}

// InternalDependencies returns the discovered packages that p directly
// depends on, sorted by name. The set union of dependencies and peer
// dependencies is matched against declared names of discovered packages.
func (r *Resolver) InternalDependencies(p *Package) []*Package {
	var deps []*Package
	for name := range p.Manifest.DeclaredDependencies() {
		if dep, ok := r.index[name]; ok && dep != p {
			deps = append(deps, dep)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}

// InstallOrder returns target's transitive internal dependency closure in
// topological order: every package appears after all of its own internal
// dependencies, so installing in slice order always satisfies import
// resolution. The target itself is not included. A cycle anywhere in the
// closure returns CycleError with the offending path.
func (r *Resolver) InstallOrder(target *Package) ([]*Package, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int)
	var path []string
	var order []*Package

	var visit func(p *Package) error
	visit = func(p *Package) error {
		state[p.Name] = visiting
		path = append(path, p.Name)

		for _, dep := range r.InternalDependencies(p) {
			switch state[dep.Name] {
			case visiting:
				// Slice the current path from the first occurrence of the
				// dependency to close the cycle.
				start := 0
				for i, name := range path {
					if name == dep.Name {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), dep.Name)
				return &CycleError{Cycle: cycle}
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[p.Name] = done
		path = path[:len(path)-1]
		if p != target {
			order = append(order, p)
		}
		return nil
	}

	if err := visit(target); err != nil {
		return nil, err
	}
	return order, nil
}
