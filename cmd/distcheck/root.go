// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for distcheck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"distcheck/internal/config"
	"distcheck/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "distcheck",
		Short: "Validate built npm workspace packages before publishing",
		Long: TitleStyle.Render("distcheck") + SubtitleStyle.Render(" - Validate built npm workspace packages before publishing") + `

distcheck inspects the compiled output of every package in an npm
workspace: it packs each package the way 'npm publish' would, installs
it into a throwaway sandbox together with its workspace dependencies,
and verifies the published artifact actually imports. On top of that it
lints metadata, syntax level, sourcemaps, bundle size, and module purity.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Build your workspace so every package has a dist/ directory
  2. Run: distcheck check
  3. Fix anything the summary flags, then publish

` + SubtitleStyle.Render("Examples:") + `
  distcheck check                   Validate every built package
  distcheck check --verbose         Show per-tool diagnostics
  distcheck check --config ci.cue   Use an alternate configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./distcheck.cue)")

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in the config file if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
