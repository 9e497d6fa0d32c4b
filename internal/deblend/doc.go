// Package deblend splits blended regions by rescanning them at a stricter
// threshold.
//
// A region found at a loose threshold may hold several objects joined by
// faint saddles. The Deblender lays the region's pixels out on a raster the
// size of their bounding box, then runs the ordinary line scanner over that
// raster with its own private Arena. Cells not covered by the region are
// masked out. Each region the stricter pass finds is a candidate sub-object.
//
// Output pixels keep frame coordinates. Touch bits of the output regions
// describe the bounding box, not the frame.
package deblend
