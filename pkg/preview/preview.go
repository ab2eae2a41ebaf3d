// Package preview renders debug images of a reconstruction: each silhouette
// next to the grayscale image it came from, and three axis-aligned slices
// through the middle of the occupancy grid.
//
// Previews are written as PNG files. Nothing in the pipeline reads them back.
package preview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/hull/pkg/log"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/volume"
	"golang.org/x/image/draw"
)

// DefaultMinSize is the smallest edge, in pixels, a preview is scaled up to.
const DefaultMinSize = 256

// Writer writes preview PNGs into Dir.
type Writer struct {
	Dir string

	// MinSize is the minimum edge length of a written preview. Small grids
	// and masks are upscaled with nearest-neighbour sampling so each voxel
	// stays a crisp square. Zero means DefaultMinSize.
	MinSize int

	Logger log.Logger
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Plane is a named mid-grid slice.
type Plane struct {
	Name  string // e.g. "xz"
	Fixed string // fixed axis and index, e.g. "y=50"
	Image *image.Gray
}

// Slices returns the XZ plane at the middle Y index, the YZ plane at the
// middle X index and the XY plane at the middle Z index. Rows are flipped so
// the second axis grows upward, matching a plot with its origin at the
// lower left. The first axis runs along rows and the second along columns.
func Slices(g *volume.Grid) []Plane {
	mid := g.Size / 2
	return []Plane{
		{Name: "xz", Fixed: fmt.Sprintf("y=%d", mid), Image: plane(g, 1, mid)},
		{Name: "yz", Fixed: fmt.Sprintf("x=%d", mid), Image: plane(g, 0, mid)},
		{Name: "xy", Fixed: fmt.Sprintf("z=%d", mid), Image: plane(g, 2, mid)},
	}
}

func plane(g *volume.Grid, axis, idx int) *image.Gray {
	n := g.Size
	cells := g.Slice(axis, idx)
	img := image.NewGray(image.Rect(0, 0, n, n))
	for a := 0; a < n; a++ {
		row := n - 1 - a
		for b := 0; b < n; b++ {
			img.Pix[row*img.Stride+b] = uint8(cells[a*n+b])
		}
	}
	return img
}

// SideBySide places the source image on the left and the mask on the right.
// The source is scaled to the mask height.
func SideBySide(src image.Image, s *silhouette.Silhouette) *image.Gray {
	mask := s.Gray()
	w, h := s.Width, s.Height
	out := image.NewGray(image.Rect(0, 0, 2*w, h))
	if src != nil {
		draw.NearestNeighbor.Scale(out, image.Rect(0, 0, w, h), src, src.Bounds(), draw.Src, nil)
	}
	draw.Draw(out, image.Rect(w, 0, 2*w, h), mask, image.Point{}, draw.Src)
	return out
}

// Upscale returns img scaled by the smallest integer factor that brings its
// shorter edge to at least minSize.
func Upscale(img image.Image, minSize int) image.Image {
	b := img.Bounds()
	short := b.Dx()
	if b.Dy() < short {
		short = b.Dy()
	}
	if short <= 0 || short >= minSize {
		return img
	}
	k := (minSize + short - 1) / short
	out := image.NewGray(image.Rect(0, 0, b.Dx()*k, b.Dy()*k))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// Silhouettes writes one preview per silhouette and returns the file paths.
// rasters[i] is the decoded image silhouettes[i] was binarized from; it may
// be shorter than silhouettes, in which case only the mask is shown.
func (w *Writer) Silhouettes(rasters []silhouette.Raster, silhouettes silhouette.Set) ([]string, error) {
	var paths []string
	for i, s := range silhouettes {
		if !s.Valid() {
			continue
		}
		var src image.Image
		if i < len(rasters) && rasters[i].Image != nil {
			src = rasters[i].Image
		}
		name := fmt.Sprintf("silhouette-%02d-%s.png", i, sanitize(s.Label, string(s.View)))
		path, err := w.write(name, SideBySide(src, s))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Grid writes the three mid-plane slices of g. An empty grid has nothing to
// show; it is logged and no file is written.
func (w *Writer) Grid(g *volume.Grid) ([]string, error) {
	if g.OccupiedCount() == 0 {
		w.logger().Notice("voxel grid is empty, no slices written")
		return nil, nil
	}
	var paths []string
	for _, p := range Slices(g) {
		path, err := w.write(fmt.Sprintf("slice-%s-%s.png", p.Name, strings.Replace(p.Fixed, "=", "", 1)), p.Image)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *Writer) write(name string, img image.Image) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	minSize := w.MinSize
	if minSize == 0 {
		minSize = DefaultMinSize
	}
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, Upscale(img, minSize)); err != nil {
		return "", fmt.Errorf("preview: encode %s: %w", name, err)
	}
	w.logger().Debugf("wrote %s", path)
	return path, nil
}

func (w *Writer) logger() log.Logger {
	if w.Logger == nil {
		w.Logger = log.New("preview")
	}
	return w.Logger
}

func sanitize(label, fallback string) string {
	label = strings.TrimSuffix(filepath.Base(label), filepath.Ext(label))
	if label == "" || label == "." || label == "/" {
		return fallback
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}
