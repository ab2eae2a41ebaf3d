// Package export hands finished meshes to their destination: STL files via
// model3d or JSON in the flat vertex/normal/index layout.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/hull/pkg/kernel"
	"github.com/chazu/hull/pkg/log"
	"github.com/unixpickle/model3d/model3d"
)

// ErrExportSkipped is returned, without calling the sink, for a mesh with no
// vertices or no faces. It is a warning, not a pipeline failure.
var ErrExportSkipped = errors.New("mesh has no vertices or faces, export skipped")

// Sink accepts a world-space mesh.
type Sink interface {
	Export(m *kernel.Mesh) error
}

// Export guards s against degenerate meshes. An empty mesh is logged and
// reported as ErrExportSkipped; s is not called.
func Export(s Sink, m *kernel.Mesh, logger log.Logger) error {
	if logger == nil {
		logger = log.New("export")
	}
	if m.IsEmpty() {
		logger.Warning(ErrExportSkipped.Error())
		return ErrExportSkipped
	}
	if err := s.Export(m); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Formats lists the output formats understood by ForFormat.
var Formats = []string{"stl", "json"}

// ForFormat returns a file sink for format. An empty format is inferred from
// the extension of path.
func ForFormat(format, path string) (Sink, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch strings.ToLower(format) {
	case "stl":
		return &STLSink{Path: path}, nil
	case "json":
		return &JSONSink{Path: path}, nil
	default:
		return nil, fmt.Errorf("export: unsupported format %q, expected one of %s",
			format, strings.Join(Formats, ", "))
	}
}

// STLSink writes an STL file.
type STLSink struct {
	Path string
}

func (s *STLSink) Export(m *kernel.Mesh) error {
	if err := ToModel3D(m).SaveGroupedSTL(s.Path); err != nil {
		return fmt.Errorf("write stl %s: %w", s.Path, err)
	}
	return nil
}

// JSONSink writes the mesh as JSON to Writer, or to Path when Writer is nil.
type JSONSink struct {
	Path   string
	Writer io.Writer
}

func (s *JSONSink) Export(m *kernel.Mesh) error {
	w := s.Writer
	if w == nil {
		f, err := os.Create(s.Path)
		if err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// MemorySink keeps the last exported mesh.
type MemorySink struct {
	Mesh  *kernel.Mesh
	Calls int
}

func (s *MemorySink) Export(m *kernel.Mesh) error {
	s.Mesh = m
	s.Calls++
	return nil
}

// ToModel3D converts an indexed mesh to a model3d triangle mesh.
func ToModel3D(m *kernel.Mesh) *model3d.Mesh {
	coord := func(i uint32) model3d.Coord3D {
		v := m.Vertex(int(i))
		return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
	}
	tris := make([]*model3d.Triangle, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		f := m.Face(i)
		tris = append(tris, &model3d.Triangle{coord(f[0]), coord(f[1]), coord(f[2])})
	}
	return model3d.NewMeshTriangles(tris)
}
