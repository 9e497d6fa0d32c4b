// Package scan implements single-pass detection of connected pixel regions.
//
// A Scanner consumes an image one row at a time, in increasing row order,
// and labels every above-threshold pixel with a Region held in an
// arena.Arena. Connectivity is 4-connected: a pixel joins the region of its
// left neighbour on the same row or of the pixel directly above it. When
// both neighbours belong to different regions the two are merged on the spot.
//
// # Row Processing
//
// For each column the scanner reads two labels from the arena's
// RowCorrelator: the left label (already rewritten for this row) and the
// above label (still holding the previous row). The four cases are:
//
//  1. neither set: a new Region is allocated
//  2. only left set: the pixel continues the left Region
//  3. both set and different: the left Region is merged into the above one
//  4. otherwise: the pixel continues the above Region
//
// At the end of each row the regions covering the first and last columns
// get their edge touch bits, and every Region that gained no pixel on the
// row is closed: nothing later in the frame can reach it.
//
// # Delivery and Eviction
//
// Closed regions wait in a queue, oldest first, until Drain hands them to
// the FinishFunc and releases their ids. When the number of region ids in
// use passes the high-water mark (3/4 of capacity by default) the next
// allocation first flushes a fixed share of the queue (3/8 of capacity by
// default). Finish closes whatever is still open at the end of a frame.
//
// # Errors
//
// Capacity exhaustion is fatal for the current frame: the Scanner returns
// the error and refuses further rows until Reset.
package scan
