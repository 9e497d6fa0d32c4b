package render

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Stamp cuts a postage stamp around box out of img.
//
// Parameters:
//   - img: The source image, usually Frame.Image.
//   - box: The source's bounding box in frame coordinates, Max exclusive.
//   - pad: Pixels added on every side before clipping. Must not be negative.
//   - scale: Resize factor. 1 keeps the size; other values use Lanczos
//     resampling. Must be positive.
//
// Returns:
//   - *image.NRGBA: The stamp, with its origin at (0,0).
//   - error: Non-nil for a bad pad or scale, or a box outside the image.
func Stamp(img image.Image, box image.Rectangle, pad int, scale float64) (*image.NRGBA, error) {
	if pad < 0 {
		return nil, fmt.Errorf("stamp padding must not be negative, got %d", pad)
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("stamp scale must be positive, got %g", scale)
	}

	bounds := img.Bounds()
	r := box.Inset(-pad).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("stamp region %v outside image bounds %v", box, bounds)
	}

	stamp := imaging.Crop(img, r)

	if scale != 1.0 {
		w := max(int(float64(r.Dx())*scale), 1)
		h := max(int(float64(r.Dy())*scale), 1)
		stamp = imaging.Resize(stamp, w, h, imaging.Lanczos)
	}
	return stamp, nil
}
