// SPDX-License-Identifier: MPL-2.0

// Package npm wraps the package manager's pack, install, and module-load
// primitives. Each primitive is an opaque blocking subprocess; this package
// adds only argument plumbing and archive resolution on top of extproc.
package npm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"distcheck/internal/extproc"
)

// ErrMissingArtifact is the sentinel error wrapped by MissingArtifactError.
var ErrMissingArtifact = errors.New("packed archive not found")

// MissingArtifactError is returned when packing reported success but the
// expected archive could not be located in the destination directory.
type MissingArtifactError struct {
	// PackageName is the declared name being packed.
	PackageName string
	// Stem is the expected archive file stem.
	Stem string
	// Dir is the directory that was searched.
	Dir string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("packed archive for %s not found: expected %s*.tgz in %s", e.PackageName, e.Stem, e.Dir)
}

func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }

// Client invokes the package manager and module runtime binaries.
type Client struct {
	npmBin  string
	nodeBin string
}

// NewClient creates a Client for the given binaries.
func NewClient(npmBin, nodeBin string) *Client {
	return &Client{npmBin: npmBin, nodeBin: nodeBin}
}

// ArchiveStem transforms a declared package name and version into the
// package manager's canonical archive file stem: the scope marker is
// dropped and the path separator becomes a dash, so "@org/pkg" at 1.2.3
// packs as "org-pkg-1.2.3". This mirrors the tool's naming convention
// rather than any published contract; a mismatch surfaces as
// MissingArtifactError rather than a silent wrong install.
func ArchiveStem(name, version string) string {
	stem := strings.TrimPrefix(name, "@")
	stem = strings.ReplaceAll(stem, "/", "-")
	if version != "" {
		stem += "-" + version
	}
	return stem
}

// Pack packs the package at pkgDir into destDir and returns the absolute
// path of the produced archive. Packing directly into the destination keeps
// source package directories free of leftover archives.
func (c *Client) Pack(ctx context.Context, pkgDir, destDir, name, version string) (string, error) {
	res := extproc.Invoke(ctx, extproc.Command{
		Bin:  c.npmBin,
		Args: []string{"pack", "--silent", "--pack-destination", destDir},
		Dir:  pkgDir,
	})
	if !res.Succeeded() {
		return "", fmt.Errorf("npm pack failed for %s: %s", name, res.Diagnostic())
	}

	return findArchive(destDir, name, version)
}

// findArchive locates the packed archive by its expected stem among the
// destination directory listing.
func findArchive(destDir, name, version string) (string, error) {
	stem := ArchiveStem(name, version)

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to list pack destination: %w", err)
	}

	exact := stem + ".tgz"
	var prefixMatch string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tgz") {
			continue
		}
		if entry.Name() == exact {
			return filepath.Join(destDir, entry.Name()), nil
		}
		// Version normalization (e.g. build metadata) can shift the suffix;
		// fall back to the name portion of the stem.
		if strings.HasPrefix(entry.Name(), ArchiveStem(name, "")+"-") {
			prefixMatch = filepath.Join(destDir, entry.Name())
		}
	}

	if prefixMatch != "" {
		return prefixMatch, nil
	}
	return "", &MissingArtifactError{PackageName: name, Stem: stem, Dir: destDir}
}

// Install installs the given archives into the install root. The root must
// already carry its own manifest so the install graph is exactly the
// archives provided.
func (c *Client) Install(ctx context.Context, rootDir string, archives ...string) error {
	if len(archives) == 0 {
		return nil
	}

	args := append([]string{"install", "--no-save", "--no-audit", "--no-fund"}, archives...)
	res := extproc.Invoke(ctx, extproc.Command{
		Bin:  c.npmBin,
		Args: args,
		Dir:  rootDir,
	})
	if !res.Succeeded() {
		return fmt.Errorf("npm install failed in %s: %s", rootDir, res.Diagnostic())
	}
	return nil
}

// LoadModule performs a real module-load of the installed package by its
// public name and asserts the namespace is non-empty. A zero exit from the
// runtime is required; anything else is a load failure.
func (c *Client) LoadModule(ctx context.Context, rootDir, pkgName string) error {
	script := fmt.Sprintf(
		`const ns = await import(%q); if (!ns || Object.keys(ns).length === 0) { console.error("module loaded but exports nothing"); process.exit(1); }`,
		pkgName,
	)

	res := extproc.Invoke(ctx, extproc.Command{
		Bin:  c.nodeBin,
		Args: []string{"--input-type=module", "-e", script},
		Dir:  rootDir,
	})
	if !res.Succeeded() {
		return fmt.Errorf("module load of %s failed: %s", pkgName, res.Diagnostic())
	}
	return nil
}
