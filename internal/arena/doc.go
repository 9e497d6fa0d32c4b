// Package arena owns the memory of one detection pass.
//
// An Arena holds two fixed-capacity pools addressed by integer handles:
// Regions (connected groups of above-threshold pixels) and PixelRecords
// (one stored pixel each). Every Region owns a singly linked list of
// PixelRecords, so two Regions can be joined in O(1) by splicing lists.
// The Arena also owns the RowCorrelator, the one-row rolling buffer that
// lets the line scanner label pixels in a single forward pass.
//
// # Handles
//
// RegionID and PixelID are indexes into the pools. The zero value of each
// is reserved and never handed out:
//   - RegionID 0 means "no region" in the correlator
//   - PixelID 0 terminates a pixel list
//
// # Capacity
//
// Region capacity is half the row width (at least one), the largest number
// of separate runs a single row can hold. Pixel capacity is chosen by the
// caller and is a budget for the whole frame: pixel ids are only returned
// to the pool by Reset. Running out of either pool is reported as an error
// (ErrRegionCapacity, ErrPixelCapacity); it never corrupts the pools.
//
// # Thread Safety
//
// An Arena is private to one scan and is not safe for concurrent use.
// Independent frames can be processed in parallel with one Arena each.
package arena
