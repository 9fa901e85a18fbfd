// SPDX-License-Identifier: MPL-2.0

// Package inspect holds the stateless validation stages: each inspector
// consumes already-built files (or hands them to an opaque external
// checker) and reports pass/fail without touching anything.
package inspect
