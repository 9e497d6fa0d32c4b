// Package pipeline runs detection, deblending and measurement over a frame.
//
// A Runner feeds the frame to the scanner one row at a time, splits each
// finished region with the deblender when that is enabled, and measures
// what survives:
//
//	runner, err := pipeline.NewRunner(pipeline.DefaultOptions(), nil)
//	res, err := runner.Run(f)
//	for _, s := range res.Sources {
//	    fmt.Println(s.ID, s.Moments.X, s.Moments.Y, s.Shape.A)
//	}
//
// Regions that cannot be measured are dropped and counted by reason in
// Result.Dropped. Capacity errors from the scanner abort the run.
package pipeline
