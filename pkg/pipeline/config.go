package pipeline

import (
	"errors"
	"fmt"

	"github.com/chazu/hull/pkg/export"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/tessellate"
	"github.com/chazu/hull/pkg/volume"
)

// DefaultGridSize is the voxel resolution per axis.
const DefaultGridSize = 100

// Config describes one reconstruction run.
type Config struct {
	GridSize int           `json:"grid_size"`
	Bounds   volume.Bounds `json:"bounds"`
	Level    float64       `json:"level"`

	// ShowPreviews writes silhouette and grid slice PNGs into PreviewDir.
	// It has no effect on the reconstruction itself.
	ShowPreviews bool   `json:"show_previews"`
	PreviewDir   string `json:"preview_dir"`

	Threshold silhouette.Threshold `json:"threshold"`
	Workers   int                  `json:"workers"`

	Views []silhouette.Source `json:"views"`

	Output string `json:"output"`
	Format string `json:"format"` // "stl" or "json"; empty infers from Output
}

// DefaultConfig returns the defaults: a 100³ grid over [-1,1]³, iso-level
// 127 and the inverted 240 threshold for dark objects on white paper.
func DefaultConfig() Config {
	return Config{
		GridSize:   DefaultGridSize,
		Bounds:     volume.DefaultBounds(),
		Level:      tessellate.DefaultLevel,
		PreviewDir: "previews",
		Threshold:  silhouette.DefaultThreshold(),
		Output:     "hull.stl",
	}
}

// Validate checks the parts of the config that can be rejected before any
// work is done.
func (c Config) Validate() error {
	var errs []error
	if c.GridSize < 1 {
		errs = append(errs, fmt.Errorf("grid size must be positive, got %d", c.GridSize))
	}
	if err := c.Bounds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	for i, v := range c.Views {
		if v.Path == "" {
			errs = append(errs, fmt.Errorf("view %d has no image path", i))
		}
	}
	if c.Output != "" || c.Format != "" {
		if _, err := export.ForFormat(c.Format, c.Output); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ViewTypes returns the view tag of every configured image, in order.
func (c Config) ViewTypes() []silhouette.ViewType {
	views := make([]silhouette.ViewType, len(c.Views))
	for i, v := range c.Views {
		views[i] = v.View
	}
	return views
}
