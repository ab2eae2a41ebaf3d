package kernel

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float64
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float64{1, 2, 3}, 1},
		{"four vertices", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	var nilMesh *Mesh
	tests := []struct {
		name string
		m    *Mesh
		want bool
	}{
		{"nil", nilMesh, true},
		{"zero value", &Mesh{}, true},
		{"vertices without faces", &Mesh{Vertices: []float64{1, 2, 3}}, true},
		{"triangle", &Mesh{Vertices: make([]float64, 9), Indices: []uint32{0, 1, 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeshTranslate(t *testing.T) {
	m := &Mesh{
		Vertices: []float64{0, 0, 0, 1, 2, 3},
		Normals:  []float64{0, 0, 1, 1, 0, 0},
	}
	m.Translate(v3.Vec{X: -1, Y: 10, Z: 0.5})
	if m.Vertex(0) != (v3.Vec{X: -1, Y: 10, Z: 0.5}) || m.Vertex(1) != (v3.Vec{X: 0, Y: 12, Z: 3.5}) {
		t.Errorf("translated vertices = %v", m.Vertices)
	}
	if m.Normal(0) != (v3.Vec{Z: 1}) || m.Normal(1) != (v3.Vec{X: 1}) {
		t.Errorf("normals changed: %v", m.Normals)
	}
}

func TestMeshBoundingBox(t *testing.T) {
	m := &Mesh{Vertices: []float64{1, -2, 3, -4, 5, 0, 2, 2, 2}}
	min, max := m.BoundingBox()
	if min != (v3.Vec{X: -4, Y: -2, Z: 0}) || max != (v3.Vec{X: 2, Y: 5, Z: 3}) {
		t.Errorf("BoundingBox() = %v, %v", min, max)
	}
	empty := &Mesh{}
	min, max = empty.BoundingBox()
	if min != (v3.Vec{}) || max != (v3.Vec{}) {
		t.Errorf("empty BoundingBox() = %v, %v", min, max)
	}
}

func TestMeshFace(t *testing.T) {
	m := &Mesh{Indices: []uint32{0, 1, 2, 2, 3, 0}}
	if m.Face(1) != [3]uint32{2, 3, 0} {
		t.Errorf("Face(1) = %v", m.Face(1))
	}
}

// --- Compile-time interface check with stubs ---

// sliceField is a Field backed by a flat slice, x slowest.
type sliceField struct {
	dims [3]int
	vals []float64
}

func (f *sliceField) Dims() [3]int { return f.dims }
func (f *sliceField) Value(i, j, k int) float64 {
	return f.vals[(i*f.dims[1]+j)*f.dims[2]+k]
}

// stubExtractor returns one triangle spanning the first lattice cell.
type stubExtractor struct{}

func (stubExtractor) Extract(_ Field, _ float64, s v3.Vec) (*Mesh, error) {
	return &Mesh{
		Vertices: []float64{0, 0, 0, s.X, 0, 0, 0, s.Y, 0},
		Normals:  []float64{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
	}, nil
}

var _ Field = (*sliceField)(nil)
var _ Extractor = stubExtractor{}

func TestValueRange(t *testing.T) {
	f := &sliceField{dims: [3]int{2, 1, 2}, vals: []float64{3, -1, 7, 0}}
	lo, hi := ValueRange(f)
	if lo != -1 || hi != 7 {
		t.Errorf("ValueRange() = %g, %g, want -1, 7", lo, hi)
	}
}

func TestStubExtractorSpacing(t *testing.T) {
	var e Extractor = stubExtractor{}
	m, err := e.Extract(&sliceField{dims: [3]int{1, 1, 1}, vals: []float64{0}}, 0.5, v3.Vec{X: 2, Y: 3, Z: 4})
	if err != nil {
		t.Fatal(err)
	}
	if m.Vertex(1) != (v3.Vec{X: 2}) || m.Vertex(2) != (v3.Vec{Y: 3}) {
		t.Errorf("stub vertices = %v", m.Vertices)
	}
}
