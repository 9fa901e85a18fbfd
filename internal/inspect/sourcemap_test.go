// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"errors"
	"testing"
)

func TestCheckSourcemaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr bool
	}{
		{
			name: "valid map with sources and comment",
			files: map[string]string{
				"index.js":     "export const x = 1;\n//# sourceMappingURL=index.js.map\n",
				"index.js.map": `{"version":3,"sources":["a.ts"],"mappings":"AAAA"}`,
			},
		},
		{
			name: "missing map is tolerated",
			files: map[string]string{
				"index.js": "export const x = 1;\n",
			},
		},
		{
			name: "malformed map",
			files: map[string]string{
				"index.js":     "export const x = 1;\n//# sourceMappingURL=index.js.map\n",
				"index.js.map": `{"version":3,`,
			},
			wantErr: true,
		},
		{
			name: "empty sources list",
			files: map[string]string{
				"index.js":     "export const x = 1;\n//# sourceMappingURL=index.js.map\n",
				"index.js.map": `{"version":3,"sources":[]}`,
			},
			wantErr: true,
		},
		{
			name: "missing reference comment",
			files: map[string]string{
				"index.js":     "export const x = 1;\n",
				"index.js.map": `{"version":3,"sources":["a.ts"]}`,
			},
			wantErr: true,
		},
		{
			name: "nested files validated too",
			files: map[string]string{
				"deep/util.mjs":     "export const y = 2;\n",
				"deep/util.mjs.map": `{"version":3,"sources":[]}`,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pkg := distPkg(t, tt.files)
			err := CheckSourcemaps(pkg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckSourcemaps() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSourcemap) {
				t.Errorf("error does not wrap ErrInvalidSourcemap: %v", err)
			}
		})
	}
}

func TestCheckSourcemaps_FirstFailureShortCircuits(t *testing.T) {
	t.Parallel()

	// Both maps invalid; the error must name exactly one file (walk order
	// is deterministic, a.js before b.js).
	pkg := distPkg(t, map[string]string{
		"a.js":     "export {};\n//# sourceMappingURL=a.js.map\n",
		"a.js.map": `{"sources":[]}`,
		"b.js":     "export {};\n//# sourceMappingURL=b.js.map\n",
		"b.js.map": `{"sources":[]}`,
	})

	err := CheckSourcemaps(pkg)
	var smErr *InvalidSourcemapError
	if !errors.As(err, &smErr) {
		t.Fatalf("expected *InvalidSourcemapError, got %v", err)
	}
	if smErr.File == "" {
		t.Error("error must name the offending file")
	}
}
