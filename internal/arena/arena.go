package arena

import (
	"github.com/pkg/errors"
)

// RegionID addresses a Region in the Arena. NoRegion is never allocated.
type RegionID int32

// PixelID addresses a PixelRecord in the Arena. NoPixel terminates a list.
type PixelID int32

const (
	// NoRegion marks an empty correlator slot.
	NoRegion RegionID = 0

	// NoPixel marks the end of a pixel list.
	NoPixel PixelID = 0

	// Inactive is the pixel count of a Region whose id is on the free stack.
	Inactive = -1

	// DefaultPixelCapacity is the per-frame pixel budget used when the caller
	// has no better estimate.
	DefaultPixelCapacity = 250000
)

var (
	// ErrRegionCapacity is returned when no Region id is free.
	ErrRegionCapacity = errors.New("region capacity exhausted")

	// ErrPixelCapacity is returned when no PixelRecord id is free.
	ErrPixelCapacity = errors.New("pixel capacity exhausted")

	// ErrInactive is returned when an operation names a Region that is not active.
	ErrInactive = errors.New("region is not active")

	// ErrClosed is returned by operations on a closed Arena.
	ErrClosed = errors.New("arena is closed")
)

// TouchFlags records which frame borders a Region reaches.
type TouchFlags uint8

const (
	// TouchFirstRow is set when the Region was created on row 0.
	TouchFirstRow TouchFlags = 1 << iota

	// TouchLeft is set when the Region covers the first column of some row.
	TouchLeft

	// TouchRight is set when the Region covers the last column of some row.
	TouchRight
)

// PixelRecord is one stored above-threshold pixel.
type PixelRecord struct {
	X int `json:"x"`
	Y int `json:"y"`

	// Z is the raw intensity.
	Z float32 `json:"z"`

	// Zsm is the smoothed intensity, capped at the scan's saturation level.
	// It drives merge decisions and weights the centroid.
	Zsm float32 `json:"zsm"`

	// Bad is set when the bad-pixel mask flagged this pixel.
	Bad bool `json:"bad,omitempty"`

	col  int32
	next PixelID
}

// Region is a connected group of pixels found so far.
type Region struct {
	ID RegionID

	// NPix is the number of pixels in the list, or Inactive.
	NPix int

	// NBad is the number of pixels flagged bad.
	NBad int

	Touch TouchFlags

	first PixelID
	last  PixelID

	// Growing is set when the Region received a pixel on the current row.
	Growing bool

	// Closed is set once the scan front has moved past the Region.
	Closed bool
}

// Active reports whether the Region id is bound to a live Region.
func (r *Region) Active() bool {
	return r.NPix != Inactive
}

// Arena is the fixed-capacity store for one detection pass.
type Arena struct {
	width      int
	correlator *RowCorrelator

	regions []Region
	pixels  []PixelRecord

	freeRegions freeStack[RegionID]
	freePixels  freeStack[PixelID]

	maxActive RegionID
	closed    bool
}

// New creates an Arena for rows of rowWidth pixels holding at most
// pixelCapacity PixelRecords.
//
// Parameters:
//   - rowWidth: Number of columns in every row fed to the scanner. Must be positive.
//   - pixelCapacity: Total pixels that may be stored before Reset. Must be positive.
//
// Returns:
//   - *Arena: A reset Arena. Region capacity is max(rowWidth/2, 1).
//   - error: Non-nil if either size is not positive.
func New(rowWidth, pixelCapacity int) (*Arena, error) {
	return NewWithRegions(rowWidth, max(rowWidth/2, 1), pixelCapacity)
}

// NewWithRegions creates an Arena with an explicit number of Region ids.
//
// Parameters:
//   - rowWidth: Number of columns in every row fed to the scanner. Must be positive.
//   - regionCapacity: Region ids available at once. Must be positive.
//   - pixelCapacity: Total pixels that may be stored before Reset. Must be positive.
//
// Returns:
//   - *Arena: A reset Arena.
//   - error: Non-nil if any size is not positive.
func NewWithRegions(rowWidth, regionCapacity, pixelCapacity int) (*Arena, error) {
	if rowWidth <= 0 {
		return nil, errors.Errorf("row width must be positive, got %d", rowWidth)
	}
	if regionCapacity <= 0 {
		return nil, errors.Errorf("region capacity must be positive, got %d", regionCapacity)
	}
	if pixelCapacity <= 0 {
		return nil, errors.Errorf("pixel capacity must be positive, got %d", pixelCapacity)
	}

	a := &Arena{
		width:       rowWidth,
		correlator:  newRowCorrelator(rowWidth),
		regions:     make([]Region, regionCapacity+1),
		pixels:      make([]PixelRecord, pixelCapacity+1),
		freeRegions: newFreeStack[RegionID](regionCapacity),
		freePixels:  newFreeStack[PixelID](pixelCapacity),
	}
	a.Reset()
	return a, nil
}

// Reset returns the Arena to its freshly created state without reallocating.
func (a *Arena) Reset() {
	if a.closed {
		return
	}
	a.correlator.Clear()
	for i := range a.regions {
		a.regions[i] = Region{ID: RegionID(i), NPix: Inactive}
	}
	a.freeRegions.fill()
	a.freePixels.fill()
	a.maxActive = 0
}

// Close releases all memory. The Arena cannot be used afterwards.
func (a *Arena) Close() {
	a.correlator = nil
	a.regions = nil
	a.pixels = nil
	a.freeRegions = freeStack[RegionID]{}
	a.freePixels = freeStack[PixelID]{}
	a.maxActive = 0
	a.closed = true
}

// Width returns the row width the Arena was sized for.
func (a *Arena) Width() int { return a.width }

// Correlator returns the rolling row buffer.
func (a *Arena) Correlator() *RowCorrelator { return a.correlator }

// RegionCapacity returns the number of Region ids.
func (a *Arena) RegionCapacity() int { return len(a.freeRegions.ids) }

// PixelCapacity returns the number of PixelRecord ids.
func (a *Arena) PixelCapacity() int { return len(a.freePixels.ids) }

// RegionsInUse returns the number of Region ids not on the free stack.
func (a *Arena) RegionsInUse() int { return a.freeRegions.inUse() }

// PixelsInUse returns the number of PixelRecord ids consumed since Reset.
func (a *Arena) PixelsInUse() int { return a.freePixels.inUse() }

// FreeRegionIDs returns the free Region ids in the order they will be handed out.
func (a *Arena) FreeRegionIDs() []RegionID { return a.freeRegions.free() }

// FreePixelIDs returns the free PixelRecord ids in the order they will be handed out.
func (a *Arena) FreePixelIDs() []PixelID { return a.freePixels.free() }

// MaxActiveRegionID is the highest Region id handed out since Reset. Ids above
// it are known to be inactive, so closing passes can stop there.
func (a *Arena) MaxActiveRegionID() RegionID { return a.maxActive }

// Closed reports whether Close has been called.
func (a *Arena) Closed() bool { return a.closed }

// AllocRegion pops a Region id and initializes an empty Region for it.
// The first-row touch bit is set when firstRow is true.
func (a *Arena) AllocRegion(firstRow bool) (RegionID, error) {
	if a.closed {
		return NoRegion, ErrClosed
	}
	id, ok := a.freeRegions.pop()
	if !ok {
		return NoRegion, errors.Wrapf(ErrRegionCapacity, "all %d region ids in use", a.RegionCapacity())
	}

	r := &a.regions[id]
	*r = Region{ID: id}
	if firstRow {
		r.Touch = TouchFirstRow
	}
	if id > a.maxActive {
		a.maxActive = id
	}
	return id, nil
}

// Region returns the Region record for id. The pointer stays valid until
// the Arena is closed; callers must not change NPix or the list links.
func (a *Arena) Region(id RegionID) *Region {
	return &a.regions[id]
}

// AppendPixel stores p at the tail of Region id's list and updates its counts.
// col is the correlator column the pixel was scanned at; it differs from p.X
// when the scan works on a cropped raster.
func (a *Arena) AppendPixel(id RegionID, col int, p PixelRecord) error {
	if a.closed {
		return ErrClosed
	}
	r := &a.regions[id]
	if !r.Active() {
		return errors.Wrapf(ErrInactive, "append to region %d", id)
	}

	pid, ok := a.freePixels.pop()
	if !ok {
		return errors.Wrapf(ErrPixelCapacity, "all %d pixel ids in use", a.PixelCapacity())
	}

	p.col = int32(col)
	p.next = NoPixel
	a.pixels[pid] = p
	if r.NPix > 0 {
		a.pixels[r.last].next = pid
	} else {
		r.first = pid
	}
	r.last = pid
	r.NPix++
	if p.Bad {
		r.NBad++
	}
	r.Growing = true
	return nil
}

// Merge joins Region src into Region dst.
//
// src's pixel list is spliced onto the tail of dst's in O(1), the counts and
// touch bits are added, every correlator slot that still names src is
// rewritten to dst, and src's id is returned to the free stack.
func (a *Arena) Merge(dst, src RegionID) error {
	if a.closed {
		return ErrClosed
	}
	if dst == src {
		return nil
	}
	d := &a.regions[dst]
	s := &a.regions[src]
	if !d.Active() || !s.Active() {
		return errors.Wrapf(ErrInactive, "merge %d into %d", src, dst)
	}

	if s.NPix > 0 {
		if d.NPix > 0 {
			a.pixels[d.last].next = s.first
		} else {
			d.first = s.first
		}
		d.last = s.last
	}
	d.NPix += s.NPix
	d.NBad += s.NBad
	d.Touch |= s.Touch
	d.Growing = d.Growing || s.Growing

	// Only slots naming src can need a rewrite, and every one of them lies in
	// a column src owns a pixel in.
	for pid := s.first; s.NPix > 0 && pid != NoPixel; pid = a.pixels[pid].next {
		a.correlator.Replace(int(a.pixels[pid].col), src, dst)
	}

	a.retire(src)
	return nil
}

// Release retires an active Region whose pixels are no longer needed by the
// scan. Its PixelRecords stay allocated until Reset.
func (a *Arena) Release(id RegionID) error {
	if a.closed {
		return ErrClosed
	}
	if !a.regions[id].Active() {
		return errors.Wrapf(ErrInactive, "release region %d", id)
	}
	a.retire(id)
	return nil
}

func (a *Arena) retire(id RegionID) {
	a.regions[id] = Region{ID: id, NPix: Inactive}
	a.freeRegions.push(id)
}

// Walk calls fn for every pixel of Region id in list order until fn returns false.
func (a *Arena) Walk(id RegionID, fn func(p PixelRecord) bool) {
	r := &a.regions[id]
	if !r.Active() || r.NPix == 0 {
		return
	}
	for pid := r.first; pid != NoPixel; pid = a.pixels[pid].next {
		if !fn(a.pixels[pid]) {
			return
		}
	}
}

// Pixels returns a copy of Region id's pixel list.
func (a *Arena) Pixels(id RegionID) []PixelRecord {
	r := &a.regions[id]
	if !r.Active() {
		return nil
	}
	out := make([]PixelRecord, 0, r.NPix)
	a.Walk(id, func(p PixelRecord) bool {
		p.col, p.next = 0, NoPixel
		out = append(out, p)
		return true
	})
	return out
}
