// Package tessellate turns a carved occupancy grid into a world-space
// triangle mesh using an iso-surface extractor.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/hull/pkg/kernel"
	"github.com/chazu/hull/pkg/log"
	"github.com/chazu/hull/pkg/volume"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultLevel is the iso-level separating Empty (0) from Occupied (255).
const DefaultLevel = 127

var (
	// ErrDegenerateVolume is wrapped by every "nothing to extract" failure.
	ErrDegenerateVolume = errors.New("degenerate volume")

	// ErrEmptyVolume means no cell is occupied.
	ErrEmptyVolume = fmt.Errorf("%w: empty volume, no occupied voxels", ErrDegenerateVolume)

	// ErrUniformVolume means every cell holds the same state, so the field
	// never crosses the iso-level.
	ErrUniformVolume = fmt.Errorf("%w: uniform volume, no surface to extract", ErrDegenerateVolume)

	// ErrExtraction wraps numerical failures of the extractor.
	ErrExtraction = errors.New("mesh generation failed")
)

// Tessellator runs the surface stage of the pipeline.
type Tessellator struct {
	Extractor kernel.Extractor
	Logger    log.Logger
}

// New returns a Tessellator using the given extractor.
func New(e kernel.Extractor) *Tessellator {
	return &Tessellator{Extractor: e}
}

// Tessellate extracts the level surface of grid and places it in world
// coordinates. The grid is read as a field with Occupied=255 and Empty=0,
// sampled with spacing (max-min)/Size per axis, and every vertex the
// extractor returns is shifted by b.Min. The grid is never mutated.
func (t *Tessellator) Tessellate(grid *volume.Grid, b volume.Bounds, level float64) (*kernel.Mesh, error) {
	logger := t.logger()
	if grid == nil || grid.Len() == 0 {
		return nil, fmt.Errorf("tessellate: %w", ErrEmptyVolume)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	// Empty is checked first so an all-empty grid is reported as such
	// rather than as merely uniform.
	if grid.OccupiedCount() == 0 {
		return nil, fmt.Errorf("tessellate: %w", ErrEmptyVolume)
	}
	if grid.IsUniform() {
		return nil, fmt.Errorf("tessellate: %w", ErrUniformVolume)
	}

	spacing := b.Spacing(grid.Size)
	logger.Debugf("extracting level %g with spacing (%g, %g, %g)", level, spacing.X, spacing.Y, spacing.Z)

	mesh, err := t.extract(grid, level, spacing)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w: %v", ErrExtraction, err)
	}
	if mesh == nil {
		return nil, fmt.Errorf("tessellate: %w: extractor returned no mesh", ErrExtraction)
	}

	// Extractor output is local to the lattice origin, i.e. the grid's
	// minimum corner.
	mesh.Translate(b.Min)

	logger.Infof("generated mesh with %d vertices and %d faces", mesh.VertexCount(), mesh.TriangleCount())
	return mesh, nil
}

// extract calls the extractor, turning a panic into an error.
func (t *Tessellator) extract(grid *volume.Grid, level float64, spacing v3.Vec) (m *kernel.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("panic during extraction: %v", r)
		}
	}()
	if t.Extractor == nil {
		return nil, errors.New("no extractor configured")
	}
	return t.Extractor.Extract(grid.Field(), level, spacing)
}

func (t *Tessellator) logger() log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.New("tessellate")
}
