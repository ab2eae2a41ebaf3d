package silhouette

import (
	"fmt"
	"image"
)

const (
	Background uint8 = 0
	Foreground uint8 = 255
)

// Silhouette is a binary mask (Foreground / Background per pixel) tagged with
// the view it was captured from. Pixels are row-major.
type Silhouette struct {
	Label  string
	View   ViewType
	Width  int
	Height int
	Pix    []uint8
}

// New returns an all-background silhouette of the given size.
func New(view ViewType, width, height int) *Silhouette {
	return &Silhouette{
		View:   view,
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Valid reports whether the silhouette carries usable pixel data.
func (s *Silhouette) Valid() bool {
	return s != nil && s.Width > 0 && s.Height > 0 && len(s.Pix) >= s.Width*s.Height
}

// At returns the mask value at (row, col).
func (s *Silhouette) At(row, col int) uint8 {
	return s.Pix[row*s.Width+col]
}

// Set writes the mask value at (row, col).
func (s *Silhouette) Set(row, col int, v uint8) {
	s.Pix[row*s.Width+col] = v
}

// IsForeground reports whether (row, col) is inside the object's projection.
func (s *Silhouette) IsForeground(row, col int) bool {
	return s.At(row, col) != Background
}

// ForegroundCount returns the number of foreground pixels.
func (s *Silhouette) ForegroundCount() int {
	var n int
	for _, p := range s.Pix {
		if p != Background {
			n++
		}
	}
	return n
}

// Gray returns the mask as a grayscale image.
func (s *Silhouette) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	copy(img.Pix, s.Pix)
	return img
}

func (s *Silhouette) String() string {
	name := s.Label
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("%s (%s, %dx%d)", name, s.View, s.Width, s.Height)
}

// Set is an ordered collection of silhouettes.
type Set []*Silhouette

// Views returns the view tag of every silhouette, in order. Pair it with the
// set itself when calling the carving engine.
func (s Set) Views() []ViewType {
	views := make([]ViewType, len(s))
	for i, sil := range s {
		if sil != nil {
			views[i] = sil.View
		}
	}
	return views
}

// Square builds a width x height silhouette whose foreground is a centered
// side x side square.
func Square(view ViewType, width, height, side int) *Silhouette {
	s := New(view, width, height)
	r0 := (height - side) / 2
	c0 := (width - side) / 2
	for r := r0; r < r0+side; r++ {
		for c := c0; c < c0+side; c++ {
			if r >= 0 && c >= 0 && r < height && c < width {
				s.Set(r, c, Foreground)
			}
		}
	}
	return s
}

// Photo renders the mask the way a backlit shot looks: a black object on a
// white page. DefaultThreshold turns it back into the same mask.
func (s *Silhouette) Photo() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for i, v := range s.Pix {
		img.Pix[i] = 255 - v
	}
	return img
}
