// Package pipeline sequences a reconstruction run: load images, binarize
// them, carve the occupancy grid, extract the surface and export it. The
// first failing stage aborts the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/hull/pkg/carve"
	"github.com/chazu/hull/pkg/export"
	"github.com/chazu/hull/pkg/kernel"
	"github.com/chazu/hull/pkg/kernel/sdfx"
	"github.com/chazu/hull/pkg/log"
	"github.com/chazu/hull/pkg/preview"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/tessellate"
	"github.com/chazu/hull/pkg/volume"
)

// Result is everything a successful run produced.
type Result struct {
	Silhouettes silhouette.Set
	Grid        *volume.Grid
	CarveStats  carve.Stats
	Mesh        *kernel.Mesh
	Report      export.Report
	Exported    bool
	Previews    []string
	Elapsed     time.Duration
}

// Pipeline holds the stage implementations for a run. Fields may be replaced
// before Run, which is how tests swap in a different extractor.
type Pipeline struct {
	Config      Config
	Carver      *carve.Engine
	Tessellator *tessellate.Tessellator
	Previews    *preview.Writer

	logger log.Logger
}

// New validates cfg and returns a Pipeline using the sdfx extractor.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		Config:      cfg,
		Carver:      carve.NewEngine(cfg.Workers),
		Tessellator: tessellate.New(sdfx.New()),
		logger:      log.New("pipeline"),
	}
	p.Carver.Logger = log.New("carve")
	p.Tessellator.Logger = log.New("tessellate")
	if cfg.ShowPreviews {
		p.Previews = preview.NewWriter(cfg.PreviewDir)
		p.Previews.Logger = log.New("preview")
	}
	return p, nil
}

// Run executes cfg end to end. A nil sink exports to cfg.Output in
// cfg.Format.
func Run(ctx context.Context, cfg Config, sink export.Sink) (*Result, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, sink)
}

// Run loads and binarizes the configured images, then reconstructs. The
// view of each image comes from the config, so an image that fails to load
// leaves the silhouette and view counts unequal and the carve is refused.
func (p *Pipeline) Run(ctx context.Context, sink export.Sink) (*Result, error) {
	rasters := silhouette.Load(p.Config.Views, log.New("load"))
	set := silhouette.FromRasters(rasters, p.Config.Threshold)
	p.logger.Infof("binarized %d silhouettes", len(set))
	return p.reconstruct(ctx, rasters, set, p.Config.ViewTypes(), sink)
}

// RunSilhouettes reconstructs from masks that are already binarized. Views
// are taken from the silhouettes themselves.
func (p *Pipeline) RunSilhouettes(ctx context.Context, set silhouette.Set, sink export.Sink) (*Result, error) {
	return p.reconstruct(ctx, nil, set, set.Views(), sink)
}

func (p *Pipeline) reconstruct(ctx context.Context, rasters []silhouette.Raster, set silhouette.Set,
	views []silhouette.ViewType, sink export.Sink) (*Result, error) {
	start := time.Now()
	cfg := p.Config
	res := &Result{Silhouettes: set}

	if sink == nil {
		s, err := export.ForFormat(cfg.Format, cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		sink = s
	}

	if p.Previews != nil {
		paths, err := p.Previews.Silhouettes(rasters, set)
		if err != nil {
			p.logger.Warningf("silhouette previews: %v", err)
		}
		res.Previews = append(res.Previews, paths...)
	}

	p.logger.Noticef("carving %d³ grid over %s with %d silhouettes", cfg.GridSize, cfg.Bounds, len(set))
	grid, stats, err := p.Carver.Carve(ctx, set, views, cfg.GridSize, cfg.Bounds)
	if err != nil {
		return nil, err
	}
	res.Grid, res.CarveStats = grid, stats

	if p.Previews != nil {
		paths, err := p.Previews.Grid(grid)
		if err != nil {
			p.logger.Warningf("grid previews: %v", err)
		}
		res.Previews = append(res.Previews, paths...)
	}

	if stats.Occupied == 0 {
		return nil, fmt.Errorf("pipeline: voxel grid is empty, cannot generate mesh: %w", tessellate.ErrEmptyVolume)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	mesh, err := p.Tessellator.Tessellate(grid, cfg.Bounds, cfg.Level)
	if err != nil {
		return nil, err
	}
	res.Mesh = mesh
	res.Report = export.Inspect(mesh)
	if res.Report.NeedsRepair {
		p.logger.Warning("mesh is not watertight")
	}

	switch err := export.Export(sink, mesh, log.New("export")); {
	case errors.Is(err, export.ErrExportSkipped):
	case err != nil:
		return nil, err
	default:
		res.Exported = true
	}

	res.Elapsed = time.Since(start)
	p.logger.Noticef("reconstruction finished in %s: %d vertices, %d faces",
		res.Elapsed, res.Report.Vertices, res.Report.Faces)
	return res, nil
}
