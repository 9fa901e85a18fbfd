// SPDX-License-Identifier: MPL-2.0

// Package importcheck proves a package is importable exactly as an external
// consumer would import it: its internal dependency closure and the package
// itself are packed into archives, installed into an ephemeral sandbox in
// topological order, and loaded for real by the module runtime.
package importcheck

import (
	"context"
	"fmt"

	"distcheck/internal/npm"
	"distcheck/internal/sandbox"
	"distcheck/internal/workspace"

	"github.com/charmbracelet/log"
)

// Stage identifies how far the import test progressed before failing.
type Stage string

const (
	// StageResolve computes the internal dependency install order.
	StageResolve Stage = "resolve"
	// StageSandbox provisions the ephemeral install root.
	StageSandbox Stage = "sandbox"
	// StagePackDependency packs one internal dependency.
	StagePackDependency Stage = "pack dependency"
	// StageInstallDependency installs one internal dependency.
	StageInstallDependency Stage = "install dependency"
	// StagePackTarget packs the package under test.
	StagePackTarget Stage = "pack target"
	// StageInstallTarget installs the package under test.
	StageInstallTarget Stage = "install target"
	// StageImport performs the module-load verification.
	StageImport Stage = "import"
)

// StageError reports which stage of the import test failed. The sandbox is
// torn down before the error is returned, whatever the stage.
type StageError struct {
	Stage Stage
	Pkg   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("import test of %s failed at %s: %v", e.Pkg, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Tester runs isolated import tests. One Tester serves the whole run; each
// Verify call owns a fresh sandbox for its duration.
type Tester struct {
	resolver *workspace.Resolver
	client   *npm.Client
	logger   *log.Logger

	// sandboxParent is the directory sandboxes are rooted under. Distinct
	// generated names keep sequential invocations collision-free.
	sandboxParent string
}

// New creates a Tester.
func New(resolver *workspace.Resolver, client *npm.Client, logger *log.Logger, sandboxParent string) *Tester {
	return &Tester{
		resolver:      resolver,
		client:        client,
		logger:        logger,
		sandboxParent: sandboxParent,
	}
}

// Verify runs the import test for pkg. Private packages trivially succeed:
// they are never installed by external consumers, so publishing contracts
// do not apply and no sandbox is provisioned.
func (t *Tester) Verify(ctx context.Context, pkg *workspace.Package) error {
	if pkg.Private() {
		t.logger.Debug("skipping import test for private package", "pkg", pkg.Name)
		return nil
	}

	deps, err := t.resolver.InstallOrder(pkg)
	if err != nil {
		return &StageError{Stage: StageResolve, Pkg: pkg.Name, Err: err}
	}

	sb, err := sandbox.New(t.sandboxParent)
	if err != nil {
		return &StageError{Stage: StageSandbox, Pkg: pkg.Name, Err: err}
	}
	// Teardown runs on every exit path below, success or failure.
	defer sb.Remove()

	t.logger.Debug("sandbox provisioned", "pkg", pkg.Name, "dir", sb.Dir, "deps", len(deps))

	// Dependencies install strictly before the target, in topological
	// order, so the target's import resolution can find every one of them.
	for _, dep := range deps {
		archive, err := t.client.Pack(ctx, dep.Dir, sb.Dir, dep.Name, dep.Manifest.Version)
		if err != nil {
			return &StageError{Stage: StagePackDependency, Pkg: pkg.Name, Err: err}
		}
		if err := t.client.Install(ctx, sb.Dir, archive); err != nil {
			return &StageError{Stage: StageInstallDependency, Pkg: pkg.Name, Err: err}
		}
		t.logger.Debug("dependency installed", "pkg", pkg.Name, "dep", dep.Name)
	}

	archive, err := t.client.Pack(ctx, pkg.Dir, sb.Dir, pkg.Name, pkg.Manifest.Version)
	if err != nil {
		return &StageError{Stage: StagePackTarget, Pkg: pkg.Name, Err: err}
	}
	if err := t.client.Install(ctx, sb.Dir, archive); err != nil {
		return &StageError{Stage: StageInstallTarget, Pkg: pkg.Name, Err: err}
	}

	if err := t.client.LoadModule(ctx, sb.Dir, pkg.Name); err != nil {
		return &StageError{Stage: StageImport, Pkg: pkg.Name, Err: err}
	}

	t.logger.Debug("import verified", "pkg", pkg.Name)
	return nil
}
