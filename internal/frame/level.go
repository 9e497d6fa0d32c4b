package frame

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// madScale converts a median absolute deviation to a Gaussian sigma.
const madScale = 1.4826

// Background is a robust estimate of the sky level of a Frame.
type Background struct {
	Median float64 `json:"median"`
	Sigma  float64 `json:"sigma"`
}

// Threshold returns the level k sigma above the median.
func (b Background) Threshold(k float64) float64 {
	return b.Median + k*b.Sigma
}

// Level estimates the background of the raw plane from its median and
// median absolute deviation. Masked pixels are left out when a confidence
// plane is present.
func (f *Frame) Level() Background {
	values := make([]float64, 0, len(f.Data))
	for i, v := range f.Data {
		if f.Confidence != nil && f.Confidence[i] == 0 {
			continue
		}
		values = append(values, float64(v))
	}
	if len(values) == 0 {
		return Background{}
	}

	sort.Float64s(values)
	median := stat.Quantile(0.5, stat.Empirical, values, nil)

	for i, v := range values {
		values[i] = math.Abs(v - median)
	}
	sort.Float64s(values)
	mad := stat.Quantile(0.5, stat.Empirical, values, nil)

	return Background{Median: median, Sigma: madScale * mad}
}
