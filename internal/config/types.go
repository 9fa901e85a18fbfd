// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSyntaxTarget is returned when a SyntaxTarget value is not recognized.
	ErrInvalidSyntaxTarget = errors.New("invalid syntax target")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

// syntaxTargetRegex matches the ECMAScript target strings the external
// syntax checker accepts (es2015..es2099 plus esnext).
var syntaxTargetRegex = regexp.MustCompile(`^es(20[0-9][0-9]|next)$`)

type (
	// SyntaxTarget is an ECMAScript language target (e.g. "es2020").
	SyntaxTarget string

	// InvalidSyntaxTargetError is returned when a SyntaxTarget value is not
	// recognized. It wraps ErrInvalidSyntaxTarget for errors.Is() compatibility.
	InvalidSyntaxTargetError struct {
		Value SyntaxTarget
	}

	// InvalidConfigError is returned when a loaded Config fails validation.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Field  string
		Reason string
	}

	// Tools names the external binaries the validator invokes. Every tool is
	// an opaque subprocess; only the binary name (or absolute path) is
	// configurable.
	Tools struct {
		// Npm is the package manager used for pack and install.
		Npm string `mapstructure:"npm"`
		// Node is the JavaScript runtime used for the module-load probe.
		Node string `mapstructure:"node"`
		// Syntax is the external syntax compliance checker.
		Syntax string `mapstructure:"syntax"`
		// Baseline is the external baseline web-API linter.
		Baseline string `mapstructure:"baseline"`
		// Metadata is the external package metadata linter.
		Metadata string `mapstructure:"metadata"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// Verbose enables verbose diagnostic output.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the static validator configuration. It is constructed once
	// per run and passed explicitly to the components that need it; nothing
	// reads it as ambient state.
	Config struct {
		// PackagesRoot is the directory containing workspace packages.
		PackagesRoot string `mapstructure:"packages_root"`
		// DistDir is the per-package build output directory name.
		DistDir string `mapstructure:"dist_dir"`
		// SyntaxTarget is the ECMAScript target compiled output must meet.
		SyntaxTarget SyntaxTarget `mapstructure:"syntax_target"`
		// SizeWarnKB is the compressed-size warning threshold in kilobytes.
		SizeWarnKB int `mapstructure:"size_warn_kb"`
		// Tools are the external binaries.
		Tools Tools `mapstructure:"tools"`
		// UI holds presentation settings.
		UI UIConfig `mapstructure:"ui"`
	}
)

func (e *InvalidSyntaxTargetError) Error() string {
	return fmt.Sprintf("invalid syntax target %q (expected es2015..es2099 or esnext)", string(e.Value))
}

func (e *InvalidSyntaxTargetError) Unwrap() error { return ErrInvalidSyntaxTarget }

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid reports whether the target is a recognized ECMAScript target.
func (t SyntaxTarget) IsValid() bool {
	return syntaxTargetRegex.MatchString(string(t))
}

// Validate returns InvalidSyntaxTargetError for unrecognized targets.
func (t SyntaxTarget) Validate() error {
	if !t.IsValid() {
		return &InvalidSyntaxTargetError{Value: t}
	}
	return nil
}

// DefaultConfig returns the built-in defaults, used when no config file is
// present and as the viper default layer.
func DefaultConfig() *Config {
	return &Config{
		PackagesRoot: "packages",
		DistDir:      "dist",
		SyntaxTarget: "es2020",
		SizeWarnKB:   50,
		Tools: Tools{
			Npm:      "npm",
			Node:     "node",
			Syntax:   "es-check",
			Baseline: "baseline-lint",
			Metadata: "publint",
		},
		UI: UIConfig{Verbose: false},
	}
}

// Validate checks constraints the CUE schema cannot express on the merged
// config (the schema only sees the file, not the defaults layer).
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PackagesRoot) == "" {
		return &InvalidConfigError{Field: "packages_root", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.DistDir) == "" {
		return &InvalidConfigError{Field: "dist_dir", Reason: "must not be empty"}
	}
	if err := c.SyntaxTarget.Validate(); err != nil {
		return err
	}
	if c.SizeWarnKB <= 0 {
		return &InvalidConfigError{Field: "size_warn_kb", Reason: "must be positive"}
	}
	for field, bin := range map[string]string{
		"tools.npm":      c.Tools.Npm,
		"tools.node":     c.Tools.Node,
		"tools.syntax":   c.Tools.Syntax,
		"tools.baseline": c.Tools.Baseline,
		"tools.metadata": c.Tools.Metadata,
	} {
		if strings.TrimSpace(bin) == "" {
			return &InvalidConfigError{Field: field, Reason: "must not be empty"}
		}
	}
	return nil
}

// SizeWarnBytes returns the warning threshold in bytes.
func (c *Config) SizeWarnBytes() int64 {
	return int64(c.SizeWarnKB) * 1024
}
