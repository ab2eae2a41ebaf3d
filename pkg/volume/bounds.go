// Package volume defines the bounded world region being reconstructed and the
// occupancy grid that discretizes it.
package volume

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Bounds is an axis-aligned box in world units.
type Bounds struct {
	Min v3.Vec `json:"min"`
	Max v3.Vec `json:"max"`
}

// DefaultBounds returns the unit cube [-1,1] on every axis.
func DefaultBounds() Bounds {
	return Bounds{
		Min: v3.Vec{X: -1, Y: -1, Z: -1},
		Max: v3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// NewBounds builds Bounds from the six scalars and validates them.
func NewBounds(xMin, xMax, yMin, yMax, zMin, zMax float64) (Bounds, error) {
	b := Bounds{
		Min: v3.Vec{X: xMin, Y: yMin, Z: zMin},
		Max: v3.Vec{X: xMax, Y: yMax, Z: zMax},
	}
	return b, b.Validate()
}

// Validate checks that min < max on every axis.
func (b Bounds) Validate() error {
	for i, name := range []string{"x", "y", "z"} {
		lo, hi := component(b.Min, i), component(b.Max, i)
		if !(lo < hi) {
			return fmt.Errorf("volume: %s_min (%g) must be less than %s_max (%g)", name, lo, name, hi)
		}
	}
	return nil
}

// Size returns max - min per axis.
func (b Bounds) Size() v3.Vec {
	return b.Max.Sub(b.Min)
}

// Spacing returns the world size of one grid cell along each axis.
func (b Bounds) Spacing(gridSize int) v3.Vec {
	return b.Size().DivScalar(float64(gridSize))
}

// CellCenter maps a cell index to the world coordinate of its center:
// min + (idx+0.5) * (max-min) / gridSize, independently per axis.
func (b Bounds) CellCenter(idx [3]int, gridSize int) v3.Vec {
	n := float64(gridSize)
	return v3.Vec{
		X: b.Min.X + (float64(idx[0])+0.5)*(b.Max.X-b.Min.X)/n,
		Y: b.Min.Y + (float64(idx[1])+0.5)*(b.Max.Y-b.Min.Y)/n,
		Z: b.Min.Z + (float64(idx[2])+0.5)*(b.Max.Z-b.Min.Z)/n,
	}
}

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p v3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b Bounds) String() string {
	return fmt.Sprintf("x[%g,%g] y[%g,%g] z[%g,%g]",
		b.Min.X, b.Max.X, b.Min.Y, b.Max.Y, b.Min.Z, b.Max.Z)
}

func component(v v3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
