// Package frame turns image files into the row planes the scanner consumes.
//
// A Frame holds three float32 planes in row-major order:
//   - Data: raw intensity, the BT.601 luminance of each pixel in 16-bit units (0-65535)
//   - Smoothed: Data convolved with a Gaussian, used for detection and as pixel weight
//   - Confidence: optional weight map; a zero masks the pixel out
//
// The smoothed plane is computed in float64 from Data, so 16-bit frames keep
// their full precision. The kernel has standard deviation SmoothRadius, is
// cut at three sigma and repeats edge pixels at the border.
//
// Pixels at full scale are flagged bad when Options.FlagSaturated is set.
//
// # Coordinate System
//
// Coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward, whatever the source image's bounds.
//
// # Thread Safety
//
// A Frame is read-only after Load and may be shared. Cache is safe for
// concurrent use.
package frame
