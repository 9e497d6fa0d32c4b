package render

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
)

// goldenAngle spaces successive hues so neighbouring labels differ.
const goldenAngle = 137.50776

// Palette returns n distinct colours for labelling regions. The same n
// always gives the same colours.
func Palette(n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.NRGBA, n)
	for i := range out {
		h := math.Mod(float64(i)*goldenAngle, 360)
		r, g, b := colorful.Hsv(h, 0.7, 0.95).Clamped().RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Segmentation paints every region's pixels in its own colour on a black
// canvas.
//
// Parameters:
//   - width, height: Canvas size, normally the frame size.
//   - regions: One pixel list per region; list i is painted in Palette colour i.
//     Pixels outside the canvas are skipped.
//
// Returns:
//   - *image.NRGBA: The segmentation map.
func Segmentation(width, height int, regions [][]arena.PixelRecord) *image.NRGBA {
	canvas := imaging.New(width, height, color.NRGBA{A: 255})
	palette := Palette(len(regions))
	bounds := canvas.Bounds()

	for i, pixels := range regions {
		c := palette[i]
		for _, p := range pixels {
			if !image.Pt(p.X, p.Y).In(bounds) {
				continue
			}
			canvas.SetNRGBA(p.X, p.Y, c)
		}
	}
	return canvas
}

// Outline draws a one-pixel rectangle around each box on a copy of img.
// Boxes use Max as exclusive, like image.Rectangle.
func Outline(img image.Image, boxes []image.Rectangle) *image.NRGBA {
	out := imaging.Clone(img)
	palette := Palette(len(boxes))
	b := out.Bounds()

	set := func(x, y int, c color.NRGBA) {
		if image.Pt(x, y).In(b) {
			out.SetNRGBA(x, y, c)
		}
	}
	for i, box := range boxes {
		if box.Empty() {
			continue
		}
		c := palette[i]
		for x := box.Min.X; x < box.Max.X; x++ {
			set(x, box.Min.Y, c)
			set(x, box.Max.Y-1, c)
		}
		for y := box.Min.Y; y < box.Max.Y; y++ {
			set(box.Min.X, y, c)
			set(box.Max.X-1, y, c)
		}
	}
	return out
}

// Label writes each box's 1-based index just above its top-left corner, or
// inside the box when there is no room above.
//
// Parameters:
//   - img: The canvas to draw on, usually the result of Outline. Modified in place.
//   - boxes: Source bounding boxes; box i is labelled i+1 in Palette colour i.
//
// Returns:
//   - *image.NRGBA: The same img, for chaining.
func Label(img *image.NRGBA, boxes []image.Rectangle) *image.NRGBA {
	palette := Palette(len(boxes))
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()

	for i, box := range boxes {
		if box.Empty() {
			continue
		}
		y := box.Min.Y - 2
		if y-ascent < img.Bounds().Min.Y {
			y = box.Min.Y + ascent
		}
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(palette[i]),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(box.Min.X), Y: fixed.I(y)},
		}
		d.DrawString(strconv.Itoa(i + 1))
	}
	return img
}
