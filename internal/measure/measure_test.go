package measure

import (
	"math"
	"testing"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
)

func px(x, y int, z, zsm float32) arena.PixelRecord {
	return arena.PixelRecord{X: x, Y: y, Z: z, Zsm: zsm}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompute_SinglePixel(t *testing.T) {
	m := Compute([]arena.PixelRecord{px(5, 5, 1, 1)}, 1, 100, 100)

	if m.Status != StatusOK {
		t.Fatalf("Status: got %s, want ok", m.Status)
	}
	if m.TSum != 1 {
		t.Errorf("TSum: got %g, want 1", m.TSum)
	}
	if m.X != 5 || m.Y != 5 {
		t.Errorf("weighted centroid: got (%g,%g), want (5,5)", m.X, m.Y)
	}
	if m.XBar != 5 || m.YBar != 5 {
		t.Errorf("centroid: got (%g,%g), want (5,5)", m.XBar, m.YBar)
	}
	if m.Sxx != 0 || m.Syy != 0 || m.Sxy != 0 {
		t.Errorf("second moments: got (%g,%g,%g), want zeros", m.Sxx, m.Syy, m.Sxy)
	}
	if m.TMax != 1 {
		t.Errorf("TMax: got %g, want 1", m.TMax)
	}
}

func TestCompute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		pixels   []arena.PixelRecord
		minTotal float64
		want     Status
	}{
		{"no pixels", nil, 0, StatusEmpty},
		{"only negative", []arena.PixelRecord{px(1, 1, -3, 1)}, 0, StatusEmpty},
		{"below gate", []arena.PixelRecord{px(1, 1, 2, 1), px(2, 1, 2, 1)}, 5, StatusBelowMinimum},
		{"zero weights", []arena.PixelRecord{px(1, 1, 4, 0), px(2, 1, 4, 0)}, 1, StatusZeroWeight},
		{"zero intensity", []arena.PixelRecord{px(1, 1, 0, 3)}, 0, StatusZeroWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compute(tt.pixels, tt.minTotal, 10, 10)
			if m.Status != tt.want {
				t.Errorf("Status: got %s, want %s", m.Status, tt.want)
			}
		})
	}
}

func TestCompute_SymmetricPair(t *testing.T) {
	// Two equal pixels either side of x=11: centroid 11, sxx 1.
	pixels := []arena.PixelRecord{px(10, 4, 2, 2), px(12, 4, 2, 2)}
	m := Compute(pixels, 0, 100, 100)

	if m.Status != StatusOK {
		t.Fatalf("Status: got %s", m.Status)
	}
	if !near(m.XBar, 11) || !near(m.YBar, 4) {
		t.Errorf("centroid: got (%g,%g), want (11,4)", m.XBar, m.YBar)
	}
	if !near(m.Sxx, 1) || !near(m.Syy, 0) || !near(m.Sxy, 0) {
		t.Errorf("second moments: got (%g,%g,%g), want (1,0,0)", m.Sxx, m.Syy, m.Sxy)
	}
	if m.NPix != 2 || m.TSum != 4 || m.TMax != 2 {
		t.Errorf("got NPix=%d TSum=%g TMax=%g", m.NPix, m.TSum, m.TMax)
	}
}

func TestCompute_WeightedCentroid(t *testing.T) {
	// Same intensities, but the right pixel carries three times the weight.
	pixels := []arena.PixelRecord{px(0, 0, 1, 1), px(4, 0, 1, 3)}
	m := Compute(pixels, 0, 100, 100)

	if !near(m.XBar, 2) {
		t.Errorf("XBar: got %g, want 2", m.XBar)
	}
	if !near(m.X, 3) {
		t.Errorf("X: got %g, want 3", m.X)
	}
}

func TestCompute_NegativePixelsSkipped(t *testing.T) {
	pixels := []arena.PixelRecord{px(3, 3, -50, 1), px(6, 3, 2, 1)}
	m := Compute(pixels, 0, 100, 100)

	if m.NPix != 1 || m.TSum != 2 {
		t.Errorf("got NPix=%d TSum=%g, want 1 and 2", m.NPix, m.TSum)
	}
	if !near(m.XBar, 6) {
		t.Errorf("XBar: got %g, want 6", m.XBar)
	}
}

func TestCompute_ClampsToFrame(t *testing.T) {
	pixels := []arena.PixelRecord{px(-2, 12, 1, 1)}
	m := Compute(pixels, 0, 8, 10)

	if m.X != 0 || m.Y != 9 {
		t.Errorf("clamped centroid: got (%g,%g), want (0,9)", m.X, m.Y)
	}
}

func TestStatus_String(t *testing.T) {
	if StatusBelowMinimum.String() != "below_minimum" {
		t.Errorf("String: got %q", StatusBelowMinimum.String())
	}
	if Status(42).String() != "unknown" {
		t.Errorf("String for unknown: got %q", Status(42).String())
	}
}

func TestEllipse(t *testing.T) {
	tests := []struct {
		name  string
		m     Moments
		wantA float64
		wantB float64
		theta float64
	}{
		{"along x", Moments{Sxx: 4, Syy: 1}, 2, 1, 0},
		{"along y", Moments{Sxx: 1, Syy: 9}, 3, 1, 90},
		{"diagonal", Moments{Sxx: 2, Syy: 2, Sxy: 1}, math.Sqrt(3), 1, 45},
		{"point", Moments{}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.m.Status = StatusOK
			s, err := Ellipse(tt.m)
			if err != nil {
				t.Fatalf("Ellipse failed: %v", err)
			}
			if math.Abs(s.A-tt.wantA) > 1e-6 || math.Abs(s.B-tt.wantB) > 1e-6 {
				t.Errorf("axes: got (%g,%g), want (%g,%g)", s.A, s.B, tt.wantA, tt.wantB)
			}
			if math.Abs(s.Theta-tt.theta) > 1e-6 {
				t.Errorf("Theta: got %g, want %g", s.Theta, tt.theta)
			}
			if tt.wantA > 0 && math.Abs(s.Ellipticity-(1-tt.wantB/tt.wantA)) > 1e-6 {
				t.Errorf("Ellipticity: got %g", s.Ellipticity)
			}
		})
	}
}

func TestEllipse_RejectsFailedMoments(t *testing.T) {
	if _, err := Ellipse(Moments{Status: StatusBelowMinimum}); err == nil {
		t.Error("Ellipse should reject moments that are not ok")
	}
}

func TestAreal(t *testing.T) {
	var pixels []arena.PixelRecord
	for _, z := range []float32{1, 1.5, 2, 3, 4, 100, 1000, -5} {
		pixels = append(pixels, px(0, 0, z, z))
	}

	got, err := Areal(pixels, 1, DefaultArealLevels)
	if err != nil {
		t.Fatalf("Areal failed: %v", err)
	}
	want := []int{6, 5, 3, 2, 2, 2, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("profile length: got %d, want %d", len(got), len(want))
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("level %d: got %d, want %d", k, got[k], want[k])
		}
	}
	for k := 1; k < len(got); k++ {
		if got[k] > got[k-1] {
			t.Errorf("profile increases at level %d: %v", k, got)
		}
	}
}

func TestAreal_InvalidArguments(t *testing.T) {
	if _, err := Areal(nil, 0, 8); err == nil {
		t.Error("Areal should reject a zero threshold")
	}
	if _, err := Areal(nil, 1, 0); err == nil {
		t.Error("Areal should reject zero levels")
	}
	got, err := Areal(nil, 1, 3)
	if err != nil || len(got) != 3 || got[0] != 0 {
		t.Errorf("Areal(nil): got %v, %v", got, err)
	}
}
