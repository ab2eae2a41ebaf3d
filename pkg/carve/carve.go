// Package carve builds an occupancy grid from a set of silhouettes by space
// carving: every voxel starts occupied and is removed as soon as one view
// sees background where the voxel projects.
package carve

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/chazu/hull/pkg/log"
	"github.com/chazu/hull/pkg/projection"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/volume"
	"github.com/unixpickle/essentials"
)

// ErrInputMismatch is returned when the number of silhouettes differs from the
// number of view types. No carving is attempted.
var ErrInputMismatch = errors.New("silhouette count does not match view type count")

// Stats summarizes a carve.
type Stats struct {
	GridSize int
	Cells    int
	Occupied int
	Carved   int
	Views    int // silhouettes that constrained the grid
	Skipped  int // silhouettes ignored as invalid or unmapped
	Elapsed  time.Duration
}

// Engine carves occupancy grids. The zero value is ready to use and runs one
// worker per available CPU.
type Engine struct {
	// Workers bounds the number of x-slabs carved concurrently. Zero or less
	// means GOMAXPROCS.
	Workers int

	Logger log.Logger
}

// NewEngine returns an Engine with the given worker count.
func NewEngine(workers int) *Engine {
	return &Engine{Workers: workers}
}

// view pairs a usable silhouette with the view it is projected through.
type view struct {
	sil  *silhouette.Silhouette
	kind silhouette.ViewType
}

// Carve returns the occupancy grid consistent with every silhouette.
// silhouettes[i] is projected through views[i].
//
// Invalid silhouettes (nil or without pixels) and unknown view types impose no
// constraint and are skipped with a warning. With no silhouettes at all the
// grid is returned fully occupied.
//
// Cells are independent, so the x axis is split into slabs carved in
// parallel; each cell is written only by the worker owning its slab. ctx is
// checked once per slab; a cancelled carve returns ctx.Err() and no grid.
func (e *Engine) Carve(ctx context.Context, silhouettes []*silhouette.Silhouette, views []silhouette.ViewType,
	gridSize int, b volume.Bounds) (*volume.Grid, Stats, error) {
	logger := e.logger()
	stats := Stats{GridSize: gridSize}

	if len(silhouettes) != len(views) {
		return nil, stats, fmt.Errorf("carve: %w: %d silhouettes, %d view types",
			ErrInputMismatch, len(silhouettes), len(views))
	}
	if err := b.Validate(); err != nil {
		return nil, stats, fmt.Errorf("carve: %w", err)
	}
	grid, err := volume.NewGrid(gridSize)
	if err != nil {
		return nil, stats, fmt.Errorf("carve: %w", err)
	}
	stats.Cells = grid.Len()

	active := make([]view, 0, len(silhouettes))
	for i, s := range silhouettes {
		switch {
		case !s.Valid():
			logger.Warningf("skipping invalid silhouette at index %d", i)
			stats.Skipped++
		case !silhouette.ValidViews[views[i]]:
			logger.Warningf("skipping silhouette %d: no projection for view %q", i, views[i])
			stats.Skipped++
		default:
			active = append(active, view{sil: s, kind: views[i]})
		}
	}
	stats.Views = len(active)

	if len(active) == 0 {
		logger.Notice("no silhouette constraints, keeping the full volume")
	}

	start := time.Now()
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if len(active) > 0 {
		essentials.ConcurrentMap(workers, gridSize, func(x int) {
			if ctx.Err() != nil {
				return
			}
			carveSlab(grid, x, active, b)
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, fmt.Errorf("carve: %w", err)
	}

	stats.Elapsed = time.Since(start)
	stats.Occupied = grid.OccupiedCount()
	stats.Carved = stats.Cells - stats.Occupied
	logger.Infof("carved %d of %d voxels using %d views in %s",
		stats.Carved, stats.Cells, stats.Views, stats.Elapsed)

	return grid, stats, nil
}

// carveSlab tests every cell with the given x index. A cell is carved on the
// first view that sees background and no further views are consulted.
func carveSlab(grid *volume.Grid, x int, views []view, b volume.Bounds) {
	n := grid.Size
	for y := 0; y < n; y++ {
		for z := 0; z < n; z++ {
			if grid.IsEmpty(x, y, z) {
				continue
			}
			for _, v := range views {
				row, col, ok := projection.Project([3]int{x, y, z}, v.sil.Height, v.sil.Width, v.kind, b, n)
				if !ok {
					continue
				}
				if !v.sil.IsForeground(row, col) {
					grid.Carve(x, y, z)
					break
				}
			}
		}
	}
}

func (e *Engine) logger() log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New("carve")
}
