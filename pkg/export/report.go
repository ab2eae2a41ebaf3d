package export

import (
	"github.com/chazu/hull/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Report summarizes a mesh for logs and the CLI stats table. It is
// informational only; nothing is repaired.
type Report struct {
	Vertices    int
	Faces       int
	Min         v3.Vec
	Max         v3.Vec
	Volume      float64
	NeedsRepair bool
}

// Inspect measures m.
func Inspect(m *kernel.Mesh) Report {
	if m.IsEmpty() {
		return Report{}
	}
	mm := ToModel3D(m)
	min, max := m.BoundingBox()
	return Report{
		Vertices:    m.VertexCount(),
		Faces:       m.TriangleCount(),
		Min:         min,
		Max:         max,
		Volume:      mm.Volume(),
		NeedsRepair: mm.NeedsRepair(),
	}
}
