package deblend

import (
	"image"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
)

// absent marks a raster cell that holds no pixel.
const absent = -1

// Raster maps every cell of a pixel list's bounding box to the position of
// the pixel in the list. Pixel lists come out of the scanner in merge order,
// not row-major order, so the raster is what lets them be rescanned.
type Raster struct {
	Bounds image.Rectangle
	index  []int32
}

// Bounds returns the bounding box of pixels. Max is exclusive.
func Bounds(pixels []arena.PixelRecord) image.Rectangle {
	if len(pixels) == 0 {
		return image.Rectangle{}
	}
	b := image.Rect(pixels[0].X, pixels[0].Y, pixels[0].X+1, pixels[0].Y+1)
	for _, p := range pixels[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X+1)
		b.Max.Y = max(b.Max.Y, p.Y+1)
	}
	return b
}

// NewRaster builds the index raster for pixels. If two records share a
// cell the later one wins.
func NewRaster(pixels []arena.PixelRecord) (*Raster, error) {
	if len(pixels) == 0 {
		return nil, ErrEmpty
	}
	b := Bounds(pixels)
	r := &Raster{
		Bounds: b,
		index:  make([]int32, b.Dx()*b.Dy()),
	}
	for i := range r.index {
		r.index[i] = absent
	}
	for i, p := range pixels {
		r.index[r.offset(p.X, p.Y)] = int32(i)
	}
	return r, nil
}

func (r *Raster) offset(x, y int) int {
	return (y-r.Bounds.Min.Y)*r.Bounds.Dx() + (x - r.Bounds.Min.X)
}

// At returns the list position of the pixel at frame coordinates (x, y),
// or -1 if the cell is empty or outside the raster.
func (r *Raster) At(x, y int) int {
	if !image.Pt(x, y).In(r.Bounds) {
		return absent
	}
	return int(r.index[r.offset(x, y)])
}
