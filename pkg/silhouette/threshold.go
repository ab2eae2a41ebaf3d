package silhouette

import (
	"image"
	"image/color"
)

// DefaultThresholdLevel is the gray level separating the bright backdrop from
// the object in the default capture convention.
const DefaultThresholdLevel = 240

// Predicate decides whether a gray level belongs to the object.
type Predicate interface {
	Foreground(gray uint8) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(gray uint8) bool

func (f PredicateFunc) Foreground(gray uint8) bool { return f(gray) }

// Threshold is a fixed global intensity split. With Invert set (the default),
// gray levels above Level are background and everything else is object,
// matching a dark object photographed against a bright backdrop. Without
// Invert the bright pixels are the object.
type Threshold struct {
	Level  uint8 `json:"level"`
	Invert bool  `json:"invert"`
}

// DefaultThreshold returns the bright-backdrop convention.
func DefaultThreshold() Threshold {
	return Threshold{Level: DefaultThresholdLevel, Invert: true}
}

// Foreground implements Predicate.
func (t Threshold) Foreground(gray uint8) bool {
	above := gray > t.Level
	if t.Invert {
		return !above
	}
	return above
}

// Binarize converts a decoded raster into a silhouette using p. Non-gray
// images are converted with the standard luma weights first.
func Binarize(img image.Image, view ViewType, p Predicate) *Silhouette {
	b := img.Bounds()
	s := New(view, b.Dx(), b.Dy())
	gray, isGray := img.(*image.Gray)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			var g uint8
			if isGray {
				g = gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			} else {
				g = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
			if p.Foreground(g) {
				s.Set(y, x, Foreground)
			}
		}
	}
	return s
}
