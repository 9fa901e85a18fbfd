// SPDX-License-Identifier: MPL-2.0

// Package extproc invokes external tools as blocking subprocesses with
// captured output. Every collaborator of the validator (package manager,
// module runtime, external checkers) is an opaque pass/fail process behind
// this seam; the call blocks until the process exits.
package extproc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command describes a single external tool invocation.
type Command struct {
	// Bin is the binary name or absolute path.
	Bin string
	// Args are the arguments, exec-style (no shell interpretation).
	Args []string
	// Dir is the working directory; empty means the caller's directory.
	Dir string
	// Env are additional KEY=VALUE entries appended to the inherited
	// environment. Nil appends nothing.
	Env []string
}

// Result is the structured outcome of a finished invocation.
type Result struct {
	// ExitCode is the process exit status; non-zero on failure.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
	// Err is set only when the process could not be started or was killed
	// by the context; an ordinary non-zero exit leaves Err nil.
	Err error
}

// Succeeded reports a clean zero exit.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Diagnostic returns captured output suitable for surfacing to the user,
// preferring stderr.
func (r Result) Diagnostic() string {
	out := strings.TrimSpace(r.Stderr)
	if out == "" {
		out = strings.TrimSpace(r.Stdout)
	}
	if out == "" && r.Err != nil {
		out = r.Err.Error()
	}
	return out
}

// Invoke runs the command and blocks until it exits. The context cancels
// the subprocess but there is no timeout layer on top of it.
func Invoke(ctx context.Context, c Command) Result {
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Err = fmt.Errorf("failed to run %s: %w", c.Bin, err)
		}
	}

	return result
}
