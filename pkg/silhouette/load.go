package silhouette

import (
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	"github.com/chazu/hull/pkg/log"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp" // BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// Source names one input image and the view it was taken from.
type Source struct {
	Label string   `json:"label"`
	Path  string   `json:"path"`
	View  ViewType `json:"view"`
}

// Raster is a decoded single-channel image.
type Raster struct {
	Source Source
	Image  *image.Gray
}

// Decode reads an image from r and converts it to grayscale.
func Decode(r io.Reader) (*image.Gray, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g, nil
}

// ReadFile decodes the image at path as grayscale.
func ReadFile(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()
	g, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return g, nil
}

// Load decodes every source in order. Entries that cannot be read or decoded
// are skipped with a warning; the remaining rasters keep their input order.
func Load(sources []Source, logger log.Logger) []Raster {
	if logger == nil {
		logger = log.New("load")
	}
	if len(sources) == 0 {
		logger.Warning("no images supplied")
		return nil
	}
	rasters := make([]Raster, 0, len(sources))
	for _, src := range sources {
		img, err := ReadFile(src.Path)
		if err != nil {
			logger.Warningf("skipping %s: %v", labelOf(src), err)
			continue
		}
		if img.Bounds().Empty() {
			logger.Warningf("skipping %s: image has no pixels", labelOf(src))
			continue
		}
		logger.Infof("loaded %s (%dx%d)", labelOf(src), img.Bounds().Dx(), img.Bounds().Dy())
		rasters = append(rasters, Raster{Source: src, Image: img})
	}
	logger.Noticef("loaded %d of %d images", len(rasters), len(sources))
	return rasters
}

// FromRasters binarizes each raster with p, keeping order and labels.
func FromRasters(rasters []Raster, p Predicate) Set {
	set := make(Set, 0, len(rasters))
	for _, r := range rasters {
		s := Binarize(r.Image, r.Source.View, p)
		s.Label = labelOf(r.Source)
		set = append(set, s)
	}
	return set
}

func labelOf(src Source) string {
	if src.Label != "" {
		return src.Label
	}
	return src.Path
}
