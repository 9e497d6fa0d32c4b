package measure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Shape describes the ellipse with the same second moments as a region.
type Shape struct {
	// A and B are the semi-major and semi-minor axes in pixels.
	A float64 `json:"a"`
	B float64 `json:"b"`

	// Theta is the position angle of the major axis in degrees, measured
	// from +x towards +y, in (-90, 90].
	Theta float64 `json:"theta"`

	// Ellipticity is 1 - B/A, or 0 for a point source.
	Ellipticity float64 `json:"ellipticity"`
}

// Ellipse derives the moment ellipse from m.
//
// Parameters:
//   - m: Moments with StatusOK.
//
// Returns:
//   - Shape: Axes from the square roots of the eigenvalues of the
//     second-moment matrix, angle of the major axis.
//   - error: Non-nil if m has no valid moments or the eigen-decomposition fails.
func Ellipse(m Moments) (Shape, error) {
	if m.Status != StatusOK {
		return Shape{}, fmt.Errorf("no shape for moments with status %s", m.Status)
	}

	cov := mat.NewSymDense(2, []float64{
		m.Sxx, m.Sxy,
		m.Sxy, m.Syy,
	})
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, false); !ok {
		return Shape{}, fmt.Errorf("eigen decomposition of second moments failed")
	}

	// Eigenvalues come back in ascending order.
	values := eig.Values(nil)

	a := math.Sqrt(max(values[1], 0))
	b := math.Sqrt(max(values[0], 0))
	if a == 0 {
		return Shape{}, nil
	}

	theta := 0.5 * math.Atan2(2*m.Sxy, m.Sxx-m.Syy) * 180 / math.Pi
	if theta <= -90 {
		theta += 180
	}

	return Shape{
		A:           a,
		B:           b,
		Theta:       theta,
		Ellipticity: 1 - b/a,
	}, nil
}
