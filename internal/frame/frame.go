package frame

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/blob-tools-mcp/internal/scan"
)

// FullScale is the largest intensity a Frame plane can hold.
const FullScale = 65535

// Options controls how an image becomes a Frame.
type Options struct {
	// SmoothRadius is the standard deviation, in pixels, of the Gaussian
	// that builds the smoothed plane. Zero makes the smoothed plane a copy
	// of the data.
	SmoothRadius float64 `json:"smooth_radius"`

	// ConfidencePath names an optional image of the same size whose
	// luminance becomes the confidence plane.
	ConfidencePath string `json:"confidence_path,omitempty"`

	// FlagSaturated marks full-scale pixels as bad.
	FlagSaturated bool `json:"flag_saturated"`
}

// DefaultOptions returns a light 1-pixel Gaussian with no confidence map.
func DefaultOptions() Options {
	return Options{SmoothRadius: 1, FlagSaturated: true}
}

// Frame is one image prepared for scanning.
type Frame struct {
	Path   string
	Width  int
	Height int

	Data       []float32
	Smoothed   []float32
	Confidence []float32
	Bad        []uint8

	// Image is the decoded source, kept for rendering stamps.
	Image image.Image
}

// New wraps a row-major intensity plane in a Frame. The smoothed plane is
// a copy of data and there is no confidence map.
func New(width, height int, data []float32) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("frame data has %d values, want %d", len(data), width*height)
	}
	return &Frame{
		Width:    width,
		Height:   height,
		Data:     data,
		Smoothed: append([]float32(nil), data...),
	}, nil
}

// Load reads the image at path and builds its planes.
//
// Parameters:
//   - path: Path to the image file. Any format imaging can decode is accepted.
//   - opts: Smoothing, confidence map and saturation options.
//
// Returns:
//   - *Frame: The frame, with Path set.
//   - error: Non-nil if either image cannot be read or the sizes differ.
func Load(path string, opts Options) (*Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	f, err := FromImage(img, opts)
	if err != nil {
		return nil, err
	}
	f.Path = path

	if opts.ConfidencePath != "" {
		conf, err := imaging.Open(opts.ConfidencePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open confidence map: %w", err)
		}
		if err := f.SetConfidence(conf); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// FromImage builds a Frame from a decoded image.
//
// Parameters:
//   - img: The decoded image. Its bounds may start anywhere; the frame is
//     re-based to (0,0).
//   - opts: Smoothing and saturation options. ConfidencePath is ignored.
//
// Returns:
//   - *Frame: The frame with Data, Smoothed and, if requested, Bad planes.
//   - error: Non-nil for an empty image or a negative SmoothRadius.
func FromImage(img image.Image, opts Options) (*Frame, error) {
	if opts.SmoothRadius < 0 {
		return nil, fmt.Errorf("smooth radius must not be negative, got %g", opts.SmoothRadius)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	f := &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   luminance(img),
		Image:  img,
	}

	if opts.SmoothRadius > 0 {
		f.Smoothed = smooth(f.Data, f.Width, f.Height, opts.SmoothRadius)
	} else {
		f.Smoothed = append([]float32(nil), f.Data...)
	}

	if opts.FlagSaturated {
		f.Bad = make([]uint8, len(f.Data))
		for i, v := range f.Data {
			if v >= FullScale {
				f.Bad[i] = 1
			}
		}
	}
	return f, nil
}

// SetConfidence replaces the confidence plane with the luminance of img,
// which must match the frame size.
func (f *Frame) SetConfidence(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != f.Width || b.Dy() != f.Height {
		return fmt.Errorf("confidence map is %dx%d, frame is %dx%d", b.Dx(), b.Dy(), f.Width, f.Height)
	}
	f.Confidence = luminance(img)
	return nil
}

// Row returns row y as scanner input. The slices alias the frame's planes.
func (f *Frame) Row(y int) scan.Row {
	lo, hi := y*f.Width, (y+1)*f.Width
	row := scan.Row{
		Y:        y,
		Data:     f.Data[lo:hi],
		Smoothed: f.Smoothed[lo:hi],
	}
	if f.Confidence != nil {
		row.Confidence = f.Confidence[lo:hi]
	}
	if f.Bad != nil {
		row.BadPixels = f.Bad[lo:hi]
	}
	return row
}

// luminance returns the BT.601 luma of img in 16-bit units, row-major.
func luminance(img image.Image) []float32 {
	b := img.Bounds()
	out := make([]float32, 0, b.Dx()*b.Dy())

	if g, ok := img.(*image.Gray16); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = append(out, float32(g.Gray16At(x, y).Y))
			}
		}
		return out
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			l := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			out = append(out, float32(min(l, FullScale)))
		}
	}
	return out
}
