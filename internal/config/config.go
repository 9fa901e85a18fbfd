// SPDX-License-Identifier: MPL-2.0

// Package config loads the distcheck configuration: built-in defaults,
// optionally overridden by a distcheck.cue file validated against an
// embedded CUE schema before being merged through Viper.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"distcheck/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "distcheck"
	// ConfigFileName is the config file name (without extension).
	ConfigFileName = "distcheck"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the distcheck configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. Resolution order: explicit path from the
// --config flag, then ./distcheck.cue, then <config dir>/distcheck.cue,
// then built-in defaults. The resulting Config is always validated.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("packages_root", defaults.PackagesRoot)
	v.SetDefault("dist_dir", defaults.DistDir)
	v.SetDefault("syntax_target", string(defaults.SyntaxTarget))
	v.SetDefault("size_warn_kb", defaults.SizeWarnKB)
	v.SetDefault("tools.npm", defaults.Tools.Npm)
	v.SetDefault("tools.node", defaults.Tools.Node)
	v.SetDefault("tools.syntax", defaults.Tools.Syntax)
	v.SetDefault("tools.baseline", defaults.Tools.Baseline)
	v.SetDefault("tools.metadata", defaults.Tools.Metadata)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	if configFilePathOverride != "" {
		if !fileExists(configFilePathOverride) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(configFilePathOverride).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Omit --config to use built-in defaults").
				Wrap(fmt.Errorf("config file not found: %s", configFilePathOverride)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, configFilePathOverride); err != nil {
			return nil, wrapConfigFileError(err, configFilePathOverride)
		}
	} else if path := findConfigFile(); path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, wrapConfigFileError(err, path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check the distcheck.cue values against the documented schema").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// findConfigFile locates the first config file in resolution order, or ""
// when none exists (defaults apply, not an error).
func findConfigFile() string {
	localPath := ConfigFileName + "." + ConfigFileExt
	if fileExists(localPath) {
		return localPath
	}

	cfgDir, err := ConfigDir()
	if err != nil {
		return ""
	}
	dirPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(dirPath) {
		return dirPath
	}

	return ""
}

func wrapConfigFileError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values match the expected schema").
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper. Concrete(false) because every
// config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("invalid CUE in %s: %s", path, cueerrors.Details(userValue.Err(), nil))
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config %s does not match schema: %s", path, cueerrors.Details(err, nil))
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("failed to decode config %s: %s", path, cueerrors.Details(err, nil))
	}

	return v.MergeConfigMap(configMap)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
