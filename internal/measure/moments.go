package measure

import (
	"github.com/ironsheep/blob-tools-mcp/internal/arena"
)

// Status tells whether a Moments result can be used.
type Status int

const (
	// StatusOK means every field of the result is valid.
	StatusOK Status = iota

	// StatusEmpty means no pixel had a non-negative intensity.
	StatusEmpty

	// StatusBelowMinimum means the total intensity fell below the gate.
	StatusBelowMinimum

	// StatusZeroWeight means the intensities passed the gate but the
	// weighted total was not positive, so no weighted centroid exists.
	StatusZeroWeight
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusBelowMinimum:
		return "below_minimum"
	case StatusZeroWeight:
		return "zero_weight"
	}
	return "unknown"
}

// MarshalText lets Status appear by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Moments holds the intensity moments of one region. Only Status is
// meaningful unless Status is StatusOK.
type Moments struct {
	Status Status `json:"status"`

	// NPix is the number of pixels that contributed.
	NPix int `json:"npix"`

	// TSum is the total raw intensity.
	TSum float64 `json:"tsum"`

	// XBar and YBar are the intensity-weighted centroid.
	XBar float64 `json:"xbar"`
	YBar float64 `json:"ybar"`

	// X and Y are the centroid weighted by smoothed times raw intensity,
	// clamped into the frame.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Sxx, Syy and Sxy are the second central moments about (XBar, YBar).
	Sxx float64 `json:"sxx"`
	Syy float64 `json:"syy"`
	Sxy float64 `json:"sxy"`

	// TMax is the peak raw intensity.
	TMax float64 `json:"tmax"`
}

// Compute returns the moments of pixels.
//
// Parameters:
//   - pixels: The region's pixel list in any order.
//   - minTotal: Regions whose total intensity is below this fail with StatusBelowMinimum.
//   - width, height: Frame size the weighted centroid is clamped to.
//
// Returns:
//   - Moments: The sums and centroids, with Status saying whether they are valid.
//
// Pixels with a negative raw intensity are skipped. Sums are taken relative
// to the first pixel to keep them small.
func Compute(pixels []arena.PixelRecord, minTotal float64, width, height int) Moments {
	if len(pixels) == 0 {
		return Moments{Status: StatusEmpty}
	}
	x0, y0 := float64(pixels[0].X), float64(pixels[0].Y)

	var (
		n                   int
		tsum, xsum, ysum    float64
		x2sum, y2sum, xysum float64
		wsum, wxsum, wysum  float64
		tmax                float64
	)
	for _, p := range pixels {
		t := float64(p.Z)
		if t < 0 {
			continue
		}
		x := float64(p.X) - x0
		y := float64(p.Y) - y0
		w := float64(p.Zsm) * t

		n++
		tsum += t
		xsum += t * x
		ysum += t * y
		x2sum += t * x * x
		y2sum += t * y * y
		xysum += t * x * y
		wsum += w
		wxsum += w * x
		wysum += w * y
		tmax = max(tmax, t)
	}

	if n == 0 {
		return Moments{Status: StatusEmpty}
	}
	if tsum < minTotal {
		return Moments{Status: StatusBelowMinimum, NPix: n, TSum: tsum}
	}
	if !(wsum > 0) || !(tsum > 0) {
		return Moments{Status: StatusZeroWeight, NPix: n, TSum: tsum}
	}

	xbar := xsum / tsum
	ybar := ysum / tsum

	return Moments{
		Status: StatusOK,
		NPix:   n,
		TSum:   tsum,
		XBar:   xbar + x0,
		YBar:   ybar + y0,
		X:      clamp(wxsum/wsum+x0, 0, float64(width-1)),
		Y:      clamp(wysum/wsum+y0, 0, float64(height-1)),
		Sxx:    max(x2sum/tsum-xbar*xbar, 0),
		Syy:    max(y2sum/tsum-ybar*ybar, 0),
		Sxy:    xysum/tsum - xbar*ybar,
		TMax:   tmax,
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
