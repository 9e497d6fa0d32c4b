// Package measure reduces a finished region's pixel list to the numbers a
// catalogue needs: intensity moments, an ellipse shape and the areal profile.
//
// Every function here works on a plain []arena.PixelRecord and keeps no
// state, so regions can be measured concurrently. A measurement failure
// only invalidates that one region; callers check Moments.Status instead of
// an error.
package measure
