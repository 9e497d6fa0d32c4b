package arena

// RowCorrelator is the rolling one-row label buffer used by the line scanner.
//
// It holds, for each column of the row being scanned, the RegionID that last
// covered that column. The same slot serves two roles while a row is scanned
// left to right:
//
//   - before column i is processed, slot i holds the value from the row above
//   - after column i is processed, slot i holds this row's value
//
// Above(i) therefore reads the previous row and Left(i) reads the column just
// written on the current row. The buffer has one extra leading slot that is
// always zero, so Left(0) is "no region" without a bounds check.
type RowCorrelator struct {
	slots []RegionID
}

func newRowCorrelator(width int) *RowCorrelator {
	return &RowCorrelator{slots: make([]RegionID, width+1)}
}

// Width returns the number of columns covered.
func (c *RowCorrelator) Width() int {
	return len(c.slots) - 1
}

// Above returns the region that covered column col on the previous row.
// Only meaningful before col is Set on the current row.
func (c *RowCorrelator) Above(col int) RegionID {
	return c.slots[col+1]
}

// Left returns the region written for column col-1 on the current row.
func (c *RowCorrelator) Left(col int) RegionID {
	return c.slots[col]
}

// At returns the value currently stored for col, whichever row it came from.
func (c *RowCorrelator) At(col int) RegionID {
	return c.slots[col+1]
}

// Set records the region covering col on the current row (NoRegion for none).
func (c *RowCorrelator) Set(col int, id RegionID) {
	c.slots[col+1] = id
}

// Replace rewrites col to to if it still names from.
func (c *RowCorrelator) Replace(col int, from, to RegionID) {
	if c.slots[col+1] == from {
		c.slots[col+1] = to
	}
}

// Clear zeroes every slot.
func (c *RowCorrelator) Clear() {
	clear(c.slots)
}
