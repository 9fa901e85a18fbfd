// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "discover packages"},
			want: "failed to discover packages",
		},
		{
			name: "operation and resource",
			err:  &ActionableError{Operation: "load manifest", Resource: "pkg/package.json"},
			want: "failed to load manifest: pkg/package.json",
		},
		{
			name: "full chain",
			err: &ActionableError{
				Operation: "load config",
				Resource:  "distcheck.cue",
				Cause:     errors.New("syntax error"),
			},
			want: "failed to load config: distcheck.cue: syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")
	err := NewErrorContext().
		WithOperation("pack archive").
		Wrap(cause).
		BuildError()

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestActionableError_FormatSuggestions(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("discover packages").
		WithResource("packages").
		WithSuggestion("Run the build first").
		WithSuggestion("Check the packages root path").
		Build()

	out := err.Format(false)
	if !strings.Contains(out, "• Run the build first") {
		t.Errorf("missing first suggestion in %q", out)
	}
	if !strings.Contains(out, "• Check the packages root path") {
		t.Errorf("missing second suggestion in %q", out)
	}
	if strings.Contains(out, "Error chain") {
		t.Errorf("non-verbose output should not include error chain: %q", out)
	}
}

func TestActionableError_FormatVerboseChain(t *testing.T) {
	t.Parallel()

	inner := errors.New("ENOENT")
	err := NewErrorContext().
		WithOperation("read dist").
		Wrap(WrapWithOperation(inner, "stat file")).
		Build()

	out := err.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Fatalf("verbose output missing chain: %q", out)
	}
	if !strings.Contains(out, "ENOENT") {
		t.Errorf("chain missing innermost cause: %q", out)
	}
}

func TestErrorContext_BuildRequiresOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("x").Build(); err != nil {
		t.Errorf("expected nil for missing operation, got %v", err)
	}
	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("expected nil error for missing operation, got %v", err)
	}
}

func TestWrapWithOperation_NilPassthrough(t *testing.T) {
	t.Parallel()

	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
