// Package projection maps voxel centers onto silhouette pixels under the three
// fixed orthographic views.
package projection

import (
	"math"

	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/volume"
)

// Project returns the (row, col) pixel that the center of voxel idx lands on in
// a height x width silhouette taken from view. Each image axis is normalized
// by the range of the world axis it follows, truncated with floor and clamped
// into the image, so out-of-volume voxels still get a pixel. ok is false for
// an unrecognized view.
func Project(idx [3]int, height, width int, view silhouette.ViewType, b volume.Bounds, gridSize int) (row, col int, ok bool) {
	p := b.CellCenter(idx, gridSize)

	var u, v float64 // column and row fractions
	switch view {
	case silhouette.Front:
		u = (p.Z - b.Min.Z) / (b.Max.Z - b.Min.Z)
		v = (b.Max.Y - p.Y) / (b.Max.Y - b.Min.Y)
	case silhouette.Side:
		u = (p.X - b.Min.X) / (b.Max.X - b.Min.X)
		v = (b.Max.Y - p.Y) / (b.Max.Y - b.Min.Y)
	case silhouette.Top:
		u = (p.X - b.Min.X) / (b.Max.X - b.Min.X)
		v = (b.Max.Z - p.Z) / (b.Max.Z - b.Min.Z)
	default:
		return 0, 0, false
	}

	col = clamp(int(math.Floor(u*float64(width))), width-1)
	row = clamp(int(math.Floor(v*float64(height))), height-1)
	return row, col, true
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
