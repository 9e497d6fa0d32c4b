package scan

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
)

var (
	// ErrRowOrder is returned when rows do not arrive in increasing order.
	ErrRowOrder = errors.New("rows must be processed in increasing order")

	// ErrRowWidth is returned when a row does not match the arena width.
	ErrRowWidth = errors.New("row width does not match arena")

	// ErrScannerFailed is returned for every call after a fatal error until Reset.
	ErrScannerFailed = errors.New("scanner failed; reset required")
)

// Row is one image row handed to the scanner.
type Row struct {
	// Y is the row index, starting at 0 for the first row of the raster.
	Y int

	// Data holds the raw intensities.
	Data []float32

	// Smoothed holds the values compared against the detection level and
	// stored as pixel weights. If nil, Data is used.
	Smoothed []float32

	// Confidence masks pixels out where it is zero. If nil, every pixel counts.
	Confidence []float32

	// BadPixels flags pixels counted in a region's bad-pixel total. Optional.
	BadPixels []uint8
}

// Finished is a closed region handed to the caller.
type Finished struct {
	ID     arena.RegionID      `json:"id"`
	NPix   int                 `json:"npix"`
	NBad   int                 `json:"nbad"`
	Touch  arena.TouchFlags    `json:"touch"`
	Pixels []arena.PixelRecord `json:"-"`

	// Evicted is set when the region was flushed early to free its id.
	Evicted bool `json:"evicted,omitempty"`
}

// FinishFunc receives every region the scanner delivers. The pixel slice is
// owned by the callee.
type FinishFunc func(f Finished) error

// Scanner labels connected regions row by row.
//
// A Scanner is not safe for concurrent use.
type Scanner struct {
	arena *arena.Arena
	cfg   Config
	level float64
	fn    FinishFunc

	lastRow   int
	queue     []arena.RegionID
	evictions int
	err       error
}

// New creates a Scanner writing into a. a is reset first.
//
// Parameters:
//   - a: The Arena sized to the row width of the raster to scan.
//   - cfg: Detection parameters; rejected if Validate fails.
//   - fn: Receives delivered regions. May be nil to discard them.
//
// Returns:
//   - *Scanner: A Scanner ready for row 0.
//   - error: Non-nil for a nil or closed Arena or an invalid cfg.
func New(a *arena.Arena, cfg Config, fn FinishFunc) (*Scanner, error) {
	if a == nil || a.Closed() {
		return nil, errors.New("scanner needs an open arena")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scan config")
	}

	s := &Scanner{
		arena: a,
		cfg:   cfg,
		level: cfg.Level(),
		fn:    fn,
	}
	s.Reset()
	return s, nil
}

// Reset prepares the Scanner and its Arena for a new frame.
func (s *Scanner) Reset() {
	s.arena.Reset()
	s.lastRow = -1
	s.queue = s.queue[:0]
	s.evictions = 0
	s.err = nil
}

// Arena returns the Arena the Scanner writes into.
func (s *Scanner) Arena() *arena.Arena { return s.arena }

// Pending returns the number of closed regions waiting for Drain.
func (s *Scanner) Pending() int { return len(s.queue) }

// Evictions returns the number of regions flushed early since Reset.
func (s *Scanner) Evictions() int { return s.evictions }

// Err returns the fatal error that stopped the scan, if any.
func (s *Scanner) Err() error { return s.err }

// ProcessRow labels the above-threshold pixels of row.
//
// Rows must arrive with strictly increasing Y and match the Arena width.
// A capacity error is fatal: it is returned now and ErrScannerFailed is
// returned for every later call until Reset.
func (s *Scanner) ProcessRow(row Row) error {
	if s.err != nil {
		return errors.Wrap(ErrScannerFailed, s.err.Error())
	}

	width := s.arena.Width()
	if err := checkRow(row, width); err != nil {
		return err
	}
	if row.Y <= s.lastRow || row.Y < 0 {
		return errors.Wrapf(ErrRowOrder, "row %d after row %d", row.Y, s.lastRow)
	}

	cmp := row.Smoothed
	if cmp == nil {
		cmp = row.Data
	}

	a := s.arena
	corr := a.Correlator()

	// Skipped rows are empty: nothing above connects and every open region ends.
	if s.lastRow >= 0 && row.Y > s.lastRow+1 {
		corr.Clear()
		s.closeStale()
	}
	firstRow := row.Y == 0

	for i := 0; i < width; i++ {
		v := float64(cmp[i])
		if !(v >= s.level) || (row.Confidence != nil && row.Confidence[i] == 0) {
			corr.Set(i, arena.NoRegion)
			continue
		}

		is := corr.Left(i)
		ip := corr.Above(i)
		switch {
		case ip == arena.NoRegion && is == arena.NoRegion:
			id, err := s.newRegion(firstRow)
			if err != nil {
				return s.fail(err)
			}
			ip = id
		case ip == arena.NoRegion:
			ip = is
		case is != arena.NoRegion && is != ip:
			if err := a.Merge(ip, is); err != nil {
				return s.fail(err)
			}
		}

		zsm := v
		if zsm > s.cfg.Saturation {
			zsm = s.cfg.Saturation
		}
		p := arena.PixelRecord{
			X:   i + s.cfg.Origin.X,
			Y:   row.Y + s.cfg.Origin.Y,
			Z:   row.Data[i],
			Zsm: float32(zsm),
			Bad: row.BadPixels != nil && row.BadPixels[i] != 0,
		}
		if err := a.AppendPixel(ip, i, p); err != nil {
			return s.fail(err)
		}
		corr.Set(i, ip)
	}

	if id := corr.At(0); id != arena.NoRegion {
		a.Region(id).Touch |= arena.TouchLeft
	}
	if id := corr.At(width - 1); id != arena.NoRegion {
		a.Region(id).Touch |= arena.TouchRight
	}

	s.closeStale()
	s.lastRow = row.Y
	return nil
}

func checkRow(row Row, width int) error {
	if len(row.Data) != width {
		return errors.Wrapf(ErrRowWidth, "data has %d columns, want %d", len(row.Data), width)
	}
	if row.Smoothed != nil && len(row.Smoothed) != width {
		return errors.Wrapf(ErrRowWidth, "smoothed row has %d columns, want %d", len(row.Smoothed), width)
	}
	if row.Confidence != nil && len(row.Confidence) != width {
		return errors.Wrapf(ErrRowWidth, "confidence row has %d columns, want %d", len(row.Confidence), width)
	}
	if row.BadPixels != nil && len(row.BadPixels) != width {
		return errors.Wrapf(ErrRowWidth, "bad-pixel row has %d columns, want %d", len(row.BadPixels), width)
	}
	return nil
}

// newRegion allocates a region id, flushing closed regions first when the
// arena is above its high-water mark.
func (s *Scanner) newRegion(firstRow bool) (arena.RegionID, error) {
	capacity := float64(s.arena.RegionCapacity())
	if float64(s.arena.RegionsInUse()) > s.cfg.HighWater*capacity {
		n := max(int(s.cfg.FlushFraction*capacity), 1)
		if err := s.flush(n, true); err != nil {
			return arena.NoRegion, err
		}
	}
	return s.arena.AllocRegion(firstRow)
}

// closeStale queues every open region that gained no pixel on this row.
func (s *Scanner) closeStale() {
	for id := arena.RegionID(1); id <= s.arena.MaxActiveRegionID(); id++ {
		r := s.arena.Region(id)
		if !r.Active() || r.Closed {
			continue
		}
		if r.Growing {
			r.Growing = false
			continue
		}
		r.Closed = true
		s.queue = append(s.queue, id)
	}
}

// flush delivers and releases up to n queued regions, oldest first.
func (s *Scanner) flush(n int, evicted bool) error {
	n = min(n, len(s.queue))
	for i, id := range s.queue[:n] {
		r := s.arena.Region(id)
		f := Finished{
			ID:      id,
			NPix:    r.NPix,
			NBad:    r.NBad,
			Touch:   r.Touch,
			Pixels:  s.arena.Pixels(id),
			Evicted: evicted,
		}
		if err := s.arena.Release(id); err != nil {
			s.queue = append(s.queue[:0], s.queue[i:]...)
			return err
		}
		if evicted {
			s.evictions++
		}
		if s.fn != nil {
			if err := s.fn(f); err != nil {
				s.queue = append(s.queue[:0], s.queue[i+1:]...)
				return errors.Wrapf(err, "deliver region %d", id)
			}
		}
	}
	s.queue = append(s.queue[:0], s.queue[n:]...)
	return nil
}

// Drain delivers every closed region to the FinishFunc and releases its id.
func (s *Scanner) Drain() error {
	if s.err != nil {
		return errors.Wrap(ErrScannerFailed, s.err.Error())
	}
	if err := s.flush(len(s.queue), false); err != nil {
		return s.fail(err)
	}
	return nil
}

// Finish closes every region still open at the end of the frame and
// delivers all closed regions.
func (s *Scanner) Finish() error {
	if s.err != nil {
		return errors.Wrap(ErrScannerFailed, s.err.Error())
	}
	for id := arena.RegionID(1); id <= s.arena.MaxActiveRegionID(); id++ {
		r := s.arena.Region(id)
		if r.Active() && !r.Closed {
			r.Closed = true
			r.Growing = false
			s.queue = append(s.queue, id)
		}
	}
	s.arena.Correlator().Clear()
	return s.Drain()
}

func (s *Scanner) fail(err error) error {
	s.err = err
	return err
}
