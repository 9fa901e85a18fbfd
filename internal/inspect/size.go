// SPDX-License-Identifier: MPL-2.0

package inspect

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"distcheck/internal/workspace"
)

// BundleMetrics holds a package's derived size figures. The size stage is
// observational only: metrics are reported, never enforced.
type BundleMetrics struct {
	// RawBytes is the summed byte length of all compiled files.
	RawBytes int64
	// GzipBytes is the summed gzip-compressed byte length.
	GzipBytes int64
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// MeasureBundle sums raw and gzip-compressed sizes of the package's
// compiled files. Sourcemaps and declarations are excluded.
func MeasureBundle(pkg *workspace.Package) (BundleMetrics, error) {
	files, err := pkg.CompiledFiles()
	if err != nil {
		return BundleMetrics{}, err
	}

	var metrics BundleMetrics
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return BundleMetrics{}, fmt.Errorf("failed to open %s: %w", file, err)
		}

		counter := &countingWriter{}
		zw := gzip.NewWriter(counter)
		raw, err := io.Copy(zw, f)
		f.Close()
		if err != nil {
			return BundleMetrics{}, fmt.Errorf("failed to compress %s: %w", file, err)
		}
		if err := zw.Close(); err != nil {
			return BundleMetrics{}, fmt.Errorf("failed to compress %s: %w", file, err)
		}

		metrics.RawBytes += raw
		metrics.GzipBytes += counter.n
	}

	return metrics, nil
}
