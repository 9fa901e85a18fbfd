// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"distcheck/internal/config"
	"distcheck/internal/orchestrator"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// checkCmd validates every built package in the workspace.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the built workspace distribution",
	Long: `Validate every built package in the workspace.

Each package with compiled output is packed into a publishable archive,
installed into an isolated sandbox together with its workspace
dependencies, and imported through Node to prove the published form
works. The compiled output is then linted for publish metadata, syntax
level, web-platform baseline compatibility, sourcemap integrity, bundle
size, and stray CommonJS module loads.

The command exits non-zero when any stage fails for any package. Bundle
size is observational: packages over the configured budget are flagged
in the summary but never fail the run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		if verbose {
			cfg.UI.Verbose = true
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "distcheck",
		})
		if cfg.UI.Verbose {
			logger.SetLevel(log.DebugLevel)
		}

		runner := orchestrator.New(cfg, logger, orchestrator.Dependencies{})
		report, err := runner.Run(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, cfg.UI.Verbose))
			return &ExitError{Code: 1, Err: err}
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report, cfg.UI.Verbose))

		if !report.Passed() {
			return &ExitError{Code: 1}
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}
