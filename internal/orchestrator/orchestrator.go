// SPDX-License-Identifier: MPL-2.0

// Package orchestrator sequences the validation stages over the discovered
// packages, isolates stage failures from one another, and aggregates the
// run's pass/fail outcome into a structured Report for the CLI to render.
package orchestrator

import (
	"context"
	"errors"
	"path/filepath"

	"distcheck/internal/config"
	"distcheck/internal/importcheck"
	"distcheck/internal/inspect"
	"distcheck/internal/issue"
	"distcheck/internal/npm"
	"distcheck/internal/workspace"

	"github.com/charmbracelet/log"
)

// Stage names, in fixed execution order. StageBaseline runs once per run
// (the baseline linter analyzes the distribution as a whole); every other
// stage runs once per package.
const (
	StageExports    = "exports"
	StageMetadata   = "metadata"
	StageSyntax     = "syntax"
	StageSourcemaps = "sourcemaps"
	StageSize       = "size"
	StageESMPurity  = "esm-purity"
	StageBaseline   = "baseline"
)

// PackageStages is the per-package stage order.
var PackageStages = []string{
	StageExports,
	StageMetadata,
	StageSyntax,
	StageSourcemaps,
	StageSize,
	StageESMPurity,
}

// ErrNoBuiltPackages is returned when discovery finds nothing to validate.
// This is the one condition that aborts the run instead of becoming a
// per-stage result.
var ErrNoBuiltPackages = errors.New("no built packages found")

type (
	// StageResult is a recorded per-stage outcome. Results never mutate
	// once recorded.
	StageResult struct {
		// Passed is the stage's boolean outcome.
		Passed bool
		// Detail carries diagnostic text for failures, or a warning note
		// for observational stages. Empty on a clean pass.
		Detail string
	}

	// PackageReport collects one package's stage results.
	PackageReport struct {
		// Package is the validated package.
		Package *workspace.Package
		// Results maps stage name to outcome, one entry per PackageStages.
		Results map[string]StageResult
		// Metrics holds the package's bundle size figures.
		Metrics inspect.BundleMetrics
	}

	// Report is the whole run's outcome.
	Report struct {
		// Packages holds per-package reports in discovery order.
		Packages []*PackageReport
		// Baseline is the distribution-wide baseline stage outcome.
		Baseline StageResult
	}

	// ImportVerifier runs the isolated import test for one package.
	ImportVerifier interface {
		Verify(ctx context.Context, pkg *workspace.Package) error
	}

	// PackageChecker runs one external per-package check.
	PackageChecker interface {
		Check(ctx context.Context, pkg *workspace.Package) error
	}

	// GlobalChecker runs one distribution-wide external check.
	GlobalChecker interface {
		Check(ctx context.Context) error
	}

	// Dependencies are the injection points for building a Runner. Nil
	// fields are replaced with production defaults; tests supply stubs.
	Dependencies struct {
		// NewImportVerifier builds the import tester once the package set
		// is known (the verifier needs the full set to resolve edges).
		NewImportVerifier func(pkgs []*workspace.Package) ImportVerifier
		Metadata          PackageChecker
		Syntax            PackageChecker
		Baseline          GlobalChecker
		Sourcemaps        func(*workspace.Package) error
		Measure           func(*workspace.Package) (inspect.BundleMetrics, error)
		Integrity         func(*workspace.Package) error
	}

	// Runner executes the pipeline. Everything is sequential: one package
	// at a time, one stage at a time, every tool invocation blocking.
	Runner struct {
		cfg    *config.Config
		logger *log.Logger
		deps   Dependencies
	}
)

// Passed reports the aggregate outcome: the logical AND of every recorded
// stage result.
func (r *Report) Passed() bool {
	if !r.Baseline.Passed {
		return false
	}
	for _, pr := range r.Packages {
		for _, res := range pr.Results {
			if !res.Passed {
				return false
			}
		}
	}
	return true
}

// New creates a Runner with production collaborators filled in for any nil
// dependency.
func New(cfg *config.Config, logger *log.Logger, deps Dependencies) *Runner {
	if deps.NewImportVerifier == nil {
		deps.NewImportVerifier = func(pkgs []*workspace.Package) ImportVerifier {
			resolver := workspace.NewResolver(pkgs)
			client := npm.NewClient(cfg.Tools.Npm, cfg.Tools.Node)
			// Sandboxes live next to the packages root so every test's
			// scratch space shares one parent.
			parent := filepath.Dir(absOrSelf(cfg.PackagesRoot))
			return importcheck.New(resolver, client, logger, parent)
		}
	}
	if deps.Metadata == nil {
		deps.Metadata = inspect.NewMetadataLinter(cfg.Tools.Metadata)
	}
	if deps.Syntax == nil {
		deps.Syntax = inspect.NewSyntaxChecker(cfg.Tools.Syntax, cfg.SyntaxTarget)
	}
	if deps.Baseline == nil {
		deps.Baseline = inspect.NewBaselineChecker(cfg.Tools.Baseline, cfg.PackagesRoot)
	}
	if deps.Sourcemaps == nil {
		deps.Sourcemaps = inspect.CheckSourcemaps
	}
	if deps.Measure == nil {
		deps.Measure = inspect.MeasureBundle
	}
	if deps.Integrity == nil {
		deps.Integrity = inspect.CheckModuleIntegrity
	}
	return &Runner{cfg: cfg, logger: logger, deps: deps}
}

// Run validates every discovered package. A stage failure is recorded and
// never prevents subsequent stages or packages from running; only the
// inability to discover any built package aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	pkgs, err := workspace.Discover(r.cfg.PackagesRoot, r.cfg.DistDir)
	if err != nil {
		return nil, issue.WrapWithOperation(err, "discover packages")
	}
	if len(pkgs) == 0 {
		return nil, issue.NewErrorContext().
			WithOperation("discover packages").
			WithResource(r.cfg.PackagesRoot).
			WithSuggestion("Run the build before validating").
			WithSuggestion("Check packages_root in distcheck.cue").
			Wrap(ErrNoBuiltPackages).
			BuildError()
	}

	r.logger.Info("validating distribution", "packages", len(pkgs))

	verifier := r.deps.NewImportVerifier(pkgs)
	report := &Report{}

	for _, pkg := range pkgs {
		pr := &PackageReport{
			Package: pkg,
			Results: make(map[string]StageResult, len(PackageStages)),
		}
		report.Packages = append(report.Packages, pr)

		r.runStage(pr, StageExports, func() error { return verifier.Verify(ctx, pkg) })
		r.runStage(pr, StageMetadata, func() error { return r.deps.Metadata.Check(ctx, pkg) })
		r.runStage(pr, StageSyntax, func() error { return r.deps.Syntax.Check(ctx, pkg) })
		r.runStage(pr, StageSourcemaps, func() error { return r.deps.Sourcemaps(pkg) })
		r.runSizeStage(pr, pkg)
		r.runStage(pr, StageESMPurity, func() error { return r.deps.Integrity(pkg) })
	}

	report.Baseline = StageResult{Passed: true}
	if err := r.deps.Baseline.Check(ctx); err != nil {
		report.Baseline = StageResult{Passed: false, Detail: err.Error()}
		r.logger.Error("stage failed", "stage", StageBaseline, "err", err)
	} else {
		r.logger.Info("stage passed", "stage", StageBaseline)
	}

	return report, nil
}

// runStage records one stage outcome, converting any error into a failed
// result local to that stage.
func (r *Runner) runStage(pr *PackageReport, stage string, run func() error) {
	if err := run(); err != nil {
		pr.Results[stage] = StageResult{Passed: false, Detail: err.Error()}
		r.logger.Error("stage failed", "pkg", pr.Package.Name, "stage", stage, "err", err)
		return
	}
	pr.Results[stage] = StageResult{Passed: true}
	r.logger.Info("stage passed", "pkg", pr.Package.Name, "stage", stage)
}

// runSizeStage is observational only: it always passes, flagging packages
// over the compressed-size threshold with a warning.
func (r *Runner) runSizeStage(pr *PackageReport, pkg *workspace.Package) {
	metrics, err := r.deps.Measure(pkg)
	if err != nil {
		// Unreadable output still does not fail the run here; the detail
		// records what went wrong.
		pr.Results[StageSize] = StageResult{Passed: true, Detail: "unmeasured: " + err.Error()}
		r.logger.Warn("bundle size unmeasured", "pkg", pkg.Name, "err", err)
		return
	}

	pr.Metrics = metrics
	result := StageResult{Passed: true}
	if metrics.GzipBytes > r.cfg.SizeWarnBytes() {
		result.Detail = "compressed size over budget"
		r.logger.Warn("bundle over size budget",
			"pkg", pkg.Name,
			"gzip_bytes", metrics.GzipBytes,
			"budget_bytes", r.cfg.SizeWarnBytes())
	} else {
		r.logger.Info("stage passed", "pkg", pkg.Name, "stage", StageSize, "gzip_bytes", metrics.GzipBytes)
	}
	pr.Results[StageSize] = result
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
