package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an indexed triangle mesh. All arrays are flat: vertices has 3
// floats per vertex (x,y,z), normals has 3 floats per vertex, indices has 3
// entries per triangle.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no vertices or no faces.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) v3.Vec {
	return v3.Vec{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

// Normal returns the normal of vertex i.
func (m *Mesh) Normal(i int) v3.Vec {
	return v3.Vec{X: m.Normals[3*i], Y: m.Normals[3*i+1], Z: m.Normals[3*i+2]}
}

// Face returns the vertex indices of triangle i.
func (m *Mesh) Face(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Translate moves every vertex by d in place. Normals are unchanged.
func (m *Mesh) Translate(d v3.Vec) {
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		m.Vertices[i] += d.X
		m.Vertices[i+1] += d.Y
		m.Vertices[i+2] += d.Z
	}
}

// BoundingBox returns the axis-aligned bounds of the vertices. An empty mesh
// returns zero vectors.
func (m *Mesh) BoundingBox() (min, max v3.Vec) {
	if m.VertexCount() == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		min = v3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = v3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}
