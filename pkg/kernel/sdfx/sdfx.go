// Package sdfx implements the kernel.Extractor interface using the
// github.com/deadsy/sdfx marching cubes renderer.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/hull/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Extractor = (*SdfxExtractor)(nil)

// maxOversampledCells caps the marching cubes resolution for lattices with
// very uneven spacing.
const maxOversampledCells = 2048

// weldTolerance is the distance, as a fraction of the finest lattice spacing,
// within which triangle corners are merged into one vertex. Adjacent cubes
// compute a shared edge crossing with last-bit differences when the spacing
// differs per axis.
const weldTolerance = 1e-9

// fieldSDF exposes a sampled scalar field as an sdf.SDF3. Distances are
// level - value, so samples above level are inside. Points off the lattice
// read as 0, which closes the surface where the solid touches the lattice
// boundary.
type fieldSDF struct {
	f       kernel.Field
	dims    [3]int
	level   float64
	spacing v3.Vec
	bb      sdf.Box3
}

func newFieldSDF(f kernel.Field, level float64, spacing v3.Vec) *fieldSDF {
	d := f.Dims()
	// One spacing of margin on every side so boundary samples get a crossing.
	bb := sdf.Box3{
		Min: v3.Vec{X: -spacing.X, Y: -spacing.Y, Z: -spacing.Z},
		Max: v3.Vec{
			X: float64(d[0]) * spacing.X,
			Y: float64(d[1]) * spacing.Y,
			Z: float64(d[2]) * spacing.Z,
		},
	}
	return &fieldSDF{f: f, dims: d, level: level, spacing: spacing, bb: bb}
}

// Evaluate returns the signed value of the field at p.
func (s *fieldSDF) Evaluate(p v3.Vec) float64 {
	return s.level - s.interp(p.X/s.spacing.X, p.Y/s.spacing.Y, p.Z/s.spacing.Z)
}

// BoundingBox returns the lattice extent plus one cell of margin.
func (s *fieldSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// interp trilinearly interpolates the field at lattice coordinate (x, y, z).
func (s *fieldSDF) interp(x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := x-x0, y-y0, z-z0
	i, j, k := int(x0), int(y0), int(z0)

	var v float64
	for di := 0; di < 2; di++ {
		wx := 1 - fx
		if di == 1 {
			wx = fx
		}
		for dj := 0; dj < 2; dj++ {
			wy := 1 - fy
			if dj == 1 {
				wy = fy
			}
			for dk := 0; dk < 2; dk++ {
				wz := 1 - fz
				if dk == 1 {
					wz = fz
				}
				w := wx * wy * wz
				if w == 0 {
					continue
				}
				v += w * s.get(i+di, j+dj, k+dk)
			}
		}
	}
	return v
}

// get returns the sample at (i, j, k), or 0 off the lattice.
func (s *fieldSDF) get(i, j, k int) float64 {
	if i < 0 || j < 0 || k < 0 || i >= s.dims[0] || j >= s.dims[1] || k >= s.dims[2] {
		return 0
	}
	return s.f.Value(i, j, k)
}

// SdfxExtractor implements kernel.Extractor with sdfx marching cubes.
type SdfxExtractor struct {
	// Oversample multiplies the marching cubes resolution relative to the
	// finest lattice spacing. Zero means 1.
	Oversample int
}

// New returns a new SdfxExtractor sampling at the lattice resolution.
func New() *SdfxExtractor {
	return &SdfxExtractor{Oversample: 1}
}

// Extract triangulates the level crossing of f. Vertices are welded into an
// indexed mesh and each vertex normal is the normalized, area-weighted sum of
// the normals of the triangles sharing it.
func (e *SdfxExtractor) Extract(f kernel.Field, level float64, spacing v3.Vec) (m *kernel.Mesh, err error) {
	d := f.Dims()
	if d[0] < 1 || d[1] < 1 || d[2] < 1 {
		return nil, fmt.Errorf("sdfx: field has no samples: dims %v", d)
	}
	if !(spacing.X > 0 && spacing.Y > 0 && spacing.Z > 0) {
		return nil, fmt.Errorf("sdfx: spacing must be positive, got %v", spacing)
	}
	lo, hi := kernel.ValueRange(f)
	if math.IsNaN(level) || level < lo || level > hi {
		return nil, fmt.Errorf("sdfx: level %g must be within volume data range [%g, %g]", level, lo, hi)
	}

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("sdfx: marching cubes failed: %v", r)
		}
	}()

	s := newFieldSDF(f, level, spacing)
	renderer := render.NewMarchingCubesUniform(e.meshCells(s))
	triangles := render.ToTriangles(s, renderer)

	step := math.Min(spacing.X, math.Min(spacing.Y, spacing.Z))
	w := newWelder(len(triangles), weldTolerance*step)
	for _, tri := range triangles {
		a, b, c := tri[0], tri[1], tri[2]
		// Area-weighted face normal: |cross| is twice the triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Length() == 0 {
			continue
		}
		ia, ib, ic := w.index(a), w.index(b), w.index(c)
		if ia == ib || ib == ic || ia == ic {
			continue
		}
		w.indices = append(w.indices, ia, ib, ic)
		for _, i := range [3]uint32{ia, ib, ic} {
			w.normals[i] = w.normals[i].Add(n)
		}
	}
	return w.mesh(), nil
}

// meshCells picks a marching cubes resolution whose step matches the finest
// lattice spacing (times Oversample) along the longest bounding box edge.
func (e *SdfxExtractor) meshCells(s *fieldSDF) int {
	over := e.Oversample
	if over < 1 {
		over = 1
	}
	size := s.bb.Size()
	step := math.Min(s.spacing.X, math.Min(s.spacing.Y, s.spacing.Z))
	cells := int(math.Ceil(size.MaxComponent()/step)) * over
	if cells > maxOversampledCells {
		cells = maxOversampledCells
	}
	if cells < 2 {
		cells = 2
	}
	return cells
}

// welder merges triangle corners closer than tol into shared vertices.
// Corners are bucketed on a tol-sized lattice; a corner that rounds into a
// neighbouring bucket still finds its twin there.
type welder struct {
	tol      float64
	lookup   map[weldKey]uint32
	vertices []v3.Vec
	normals  []v3.Vec
	indices  []uint32
}

type weldKey [3]int64

func newWelder(numTri int, tol float64) *welder {
	return &welder{
		tol:     tol,
		lookup:  make(map[weldKey]uint32, numTri/2+1),
		indices: make([]uint32, 0, numTri*3),
	}
}

func (w *welder) key(p v3.Vec) weldKey {
	return weldKey{
		int64(math.Round(p.X / w.tol)),
		int64(math.Round(p.Y / w.tol)),
		int64(math.Round(p.Z / w.tol)),
	}
}

func (w *welder) index(p v3.Vec) uint32 {
	k := w.key(p)
	if i, ok := w.lookup[k]; ok {
		return i
	}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				i, ok := w.lookup[weldKey{k[0] + dx, k[1] + dy, k[2] + dz}]
				if ok && w.vertices[i].Sub(p).Length() <= w.tol {
					return i
				}
			}
		}
	}
	i := uint32(len(w.vertices))
	w.lookup[k] = i
	w.vertices = append(w.vertices, p)
	w.normals = append(w.normals, v3.Vec{})
	return i
}

func (w *welder) mesh() *kernel.Mesh {
	m := &kernel.Mesh{
		Vertices: make([]float64, 0, len(w.vertices)*3),
		Normals:  make([]float64, 0, len(w.vertices)*3),
		Indices:  w.indices,
	}
	for i, v := range w.vertices {
		n := w.normals[i]
		if l := n.Length(); l > 0 {
			n = n.DivScalar(l)
		}
		m.Vertices = append(m.Vertices, v.X, v.Y, v.Z)
		m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	}
	return m
}
