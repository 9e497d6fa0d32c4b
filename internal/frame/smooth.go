package frame

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// gaussianKernel returns normalised Gaussian weights for offsets
// -half..half, where half is ceil(3*sigma).
func gaussianKernel(sigma float64) []float64 {
	half := int(math.Ceil(3 * sigma))
	norm := distuv.Normal{Mu: 0, Sigma: sigma}
	k := make([]float64, 2*half+1)
	for i := range k {
		k[i] = norm.Prob(float64(i - half))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// smooth convolves a row-major plane with a separable Gaussian of the given
// sigma and returns the result at full precision. Samples beyond the border
// repeat the edge pixel, so a flat plane stays exactly flat.
//
// Parameters:
//   - data: Row-major intensities, width*height values.
//   - width, height: Plane size in pixels.
//   - sigma: Gaussian standard deviation in pixels. Must be positive.
//
// Returns:
//   - []float32: A new plane of the same size.
func smooth(data []float32, width, height int, sigma float64) []float32 {
	k := gaussianKernel(sigma)
	half := len(k) / 2
	tmp := make([]float64, len(data))
	out := make([]float32, len(data))

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := data[y*width : (y+1)*width]
			for x := 0; x < width; x++ {
				var sum float64
				for i, w := range k {
					sx := min(max(x+i-half, 0), width-1)
					sum += w * float64(row[sx])
				}
				tmp[y*width+x] = sum
			}
		}
	})

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				var sum float64
				for i, w := range k {
					sy := min(max(y+i-half, 0), height-1)
					sum += w * tmp[sy*width+x]
				}
				out[y*width+x] = float32(sum)
			}
		}
	})
	return out
}
