package measure

import (
	"fmt"
	"math"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
)

// DefaultArealLevels is the usual length of an areal profile.
const DefaultArealLevels = 8

// Areal counts the pixels above a ladder of intensity cutoffs.
//
// Level 0 counts pixels whose raw intensity exceeds threshold and level k
// those reaching threshold*2^k, so the result never increases from one level
// to the next. A pixel brighter than the top cutoff is counted at every level.
//
// Parameters:
//   - pixels: The region's pixel list.
//   - threshold: The base cutoff. Must be positive.
//   - levels: The profile length. Must be positive.
//
// Returns:
//   - []int: Levels counts, non-increasing.
//   - error: Non-nil for a non-positive threshold or levels.
func Areal(pixels []arena.PixelRecord, threshold float64, levels int) ([]int, error) {
	if !(threshold > 0) {
		return nil, fmt.Errorf("areal threshold must be positive, got %g", threshold)
	}
	if levels <= 0 {
		return nil, fmt.Errorf("areal levels must be positive, got %d", levels)
	}

	profile := make([]int, levels)
	logThresh := math.Log2(threshold)
	for _, p := range pixels {
		t := float64(p.Z)
		if !(t > threshold) {
			continue
		}
		nup := int(math.Floor(math.Log2(t)-logThresh)) + 1
		nup = min(max(nup, 1), levels)
		for k := 0; k < nup; k++ {
			profile[k]++
		}
	}
	return profile, nil
}
