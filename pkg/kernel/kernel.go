// Package kernel defines the iso-surface extraction contract the surface
// stage is written against. Implementations (sdfx) triangulate a sampled
// scalar field behind this interface, so the backend can be swapped without
// changing the coordinate handling around it.
package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Field is a scalar field sampled on a regular lattice.
type Field interface {
	// Dims returns the number of samples along x, y and z.
	Dims() [3]int
	// Value returns the sample at lattice index (i, j, k).
	Value(i, j, k int) float64
}

// Extractor triangulates the surface where a Field crosses level.
//
// Sample (i, j, k) sits at (i*spacing.X, j*spacing.Y, k*spacing.Z): the
// returned vertices are in world-unit scale but local to the lattice origin,
// and callers translate them into place. Values above level are inside the
// solid; normals point outward. A level outside the field's value range is
// an error.
type Extractor interface {
	Extract(f Field, level float64, spacing v3.Vec) (*Mesh, error)
}

// ValueRange returns the minimum and maximum sample of f.
func ValueRange(f Field) (lo, hi float64) {
	d := f.Dims()
	first := true
	for i := 0; i < d[0]; i++ {
		for j := 0; j < d[1]; j++ {
			for k := 0; k < d[2]; k++ {
				v := f.Value(i, j, k)
				if first {
					lo, hi, first = v, v, false
					continue
				}
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
		}
	}
	return lo, hi
}
