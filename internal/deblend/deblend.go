package deblend

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
	"github.com/ironsheep/blob-tools-mcp/internal/scan"
)

// ErrEmpty is returned when there are no pixels to deblend.
var ErrEmpty = errors.New("no pixels to deblend")

// Deblender rescans regions at a stricter threshold.
type Deblender struct {
	cfg scan.Config
}

// New creates a Deblender. cfg carries the stricter threshold; its Origin is
// ignored and replaced by each region's bounding box.
func New(cfg scan.Config) (*Deblender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid deblend config")
	}
	return &Deblender{cfg: cfg}, nil
}

// Split rescans pixels and returns the regions found at the stricter
// threshold, in delivery order.
//
// Parameters:
//   - pixels: One region's pixel list, in any order. Must not be empty.
//
// Returns:
//   - []scan.Finished: The children in frame coordinates; none if no pixel
//     reaches the level.
//   - error: ErrEmpty for no pixels, or the scanner's error.
//
// The pixels' smoothed intensities are compared against the level; cells of
// the bounding box that hold no pixel are masked out. The scan runs in a
// fresh Arena as wide as the bounding box, closed before Split returns.
// Every child holds at least one pixel, so the Arena gets one region id per
// pixel and a blend never runs out of ids however its peaks are placed.
func (d *Deblender) Split(pixels []arena.PixelRecord) ([]scan.Finished, error) {
	r, err := NewRaster(pixels)
	if err != nil {
		return nil, err
	}
	w, h := r.Bounds.Dx(), r.Bounds.Dy()

	a, err := arena.NewWithRegions(w, len(pixels), len(pixels))
	if err != nil {
		return nil, errors.Wrap(err, "deblend arena")
	}
	defer a.Close()

	var out []scan.Finished
	s, err := scan.New(a, d.cfg.WithOrigin(r.Bounds.Min), func(f scan.Finished) error {
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	row := scan.Row{
		Data:       make([]float32, w),
		Smoothed:   make([]float32, w),
		Confidence: make([]float32, w),
		BadPixels:  make([]uint8, w),
	}
	for y := 0; y < h; y++ {
		row.Y = y
		for x := 0; x < w; x++ {
			k := r.At(x+r.Bounds.Min.X, y+r.Bounds.Min.Y)
			if k == absent {
				row.Data[x], row.Smoothed[x], row.Confidence[x], row.BadPixels[x] = 0, 0, 0, 0
				continue
			}
			p := pixels[k]
			row.Data[x], row.Smoothed[x], row.Confidence[x] = p.Z, p.Zsm, 1
			row.BadPixels[x] = 0
			if p.Bad {
				row.BadPixels[x] = 1
			}
		}
		if err := s.ProcessRow(row); err != nil {
			return nil, errors.Wrapf(err, "deblend row %d", y+r.Bounds.Min.Y)
		}
		if err := s.Drain(); err != nil {
			return nil, err
		}
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}
	return out, nil
}

// SplitIfBlended returns the children of f when the stricter pass finds two
// or more of them, and f itself otherwise.
func (d *Deblender) SplitIfBlended(f scan.Finished) ([]scan.Finished, error) {
	children, err := d.Split(f.Pixels)
	if err != nil {
		return nil, err
	}
	if len(children) < 2 {
		return []scan.Finished{f}, nil
	}
	return children, nil
}
