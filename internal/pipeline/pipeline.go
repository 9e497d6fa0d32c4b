package pipeline

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
	"github.com/ironsheep/blob-tools-mcp/internal/deblend"
	"github.com/ironsheep/blob-tools-mcp/internal/frame"
	"github.com/ironsheep/blob-tools-mcp/internal/measure"
	"github.com/ironsheep/blob-tools-mcp/internal/scan"
)

// Source is one detected and measured object.
type Source struct {
	// ID numbers sources from 1 in the order they were found.
	ID int `json:"id"`

	// Region is the frame scan's region id, or 0 for a deblended child.
	// Ids are reused within a frame, so several sources may share one.
	Region arena.RegionID `json:"region,omitempty"`

	// Parent is the frame region the source was split from, or 0 if it was
	// not deblended.
	Parent arena.RegionID `json:"parent,omitempty"`

	NPix    int              `json:"npix"`
	NBad    int              `json:"nbad"`
	Touch   arena.TouchFlags `json:"touch"`
	Evicted bool             `json:"evicted,omitempty"`

	// Bounds is the bounding box, Max exclusive.
	Bounds image.Rectangle `json:"bounds"`

	Moments measure.Moments `json:"moments"`
	Shape   measure.Shape   `json:"shape"`
	Areal   []int           `json:"areal"`

	Pixels []arena.PixelRecord `json:"-"`
}

// Dropped counts regions that did not become sources, by reason.
type Dropped struct {
	TooSmall     int `json:"too_small"`
	Empty        int `json:"empty"`
	BelowMinimum int `json:"below_minimum"`
	ZeroWeight   int `json:"zero_weight"`
}

// Total returns the number of dropped regions.
func (d Dropped) Total() int {
	return d.TooSmall + d.Empty + d.BelowMinimum + d.ZeroWeight
}

// Result is everything one run found in a frame.
type Result struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Level is the detection level actually used.
	Level float64 `json:"level"`

	// Background is set when the threshold was derived from the frame.
	Background *frame.Background `json:"background,omitempty"`

	Sources []Source `json:"sources"`

	// Regions counts the regions the scanner delivered.
	Regions int `json:"regions"`

	// Blended counts regions the deblend pass split, and DeblendFailures
	// those kept whole because the pass failed.
	Blended         int `json:"blended"`
	DeblendFailures int `json:"deblend_failures,omitempty"`

	Dropped   Dropped `json:"dropped"`
	Evictions int     `json:"evictions"`
}

// Runner detects and measures sources with fixed Options.
type Runner struct {
	opts   Options
	logger *log.Logger
}

// NewRunner checks opts and returns a Runner.
//
// Parameters:
//   - opts: Detection, deblend and measurement settings. Rejected if Validate fails.
//   - logger: Receives the background level, deblend failures and evictions.
//     A nil logger discards them.
//
// Returns:
//   - *Runner: A Runner that may be used for any number of frames, one at a time.
//   - error: Non-nil if opts are invalid.
func NewRunner(opts Options, logger *log.Logger) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{opts: opts, logger: logger}, nil
}

// Run detects and measures every source in f with opts.
func Run(f *frame.Frame, opts Options) (*Result, error) {
	r, err := NewRunner(opts, nil)
	if err != nil {
		return nil, err
	}
	return r.Run(f)
}

// Run scans f row by row, deblends each finished region when enabled and
// measures what survives.
//
// Parameters:
//   - f: The frame to scan. Only its planes are read.
//
// Returns:
//   - *Result: The sources in delivery order with run statistics.
//   - error: Non-nil for a non-positive derived threshold or a scanner failure.
//     Capacity errors stay detectable with errors.Is.
//
// Measurement failures only drop the region concerned and are counted in
// Result.Dropped.
func (r *Runner) Run(f *frame.Frame) (*Result, error) {
	cfg := r.opts.Scan
	res := &Result{Width: f.Width, Height: f.Height}

	if r.opts.AutoSigma > 0 {
		bg := f.Level()
		res.Background = &bg
		threshold := bg.Threshold(r.opts.AutoSigma)
		if !(threshold > 0) {
			return nil, fmt.Errorf("derived threshold %g is not positive", threshold)
		}
		cfg = cfg.WithThreshold(threshold)
		r.logger.Printf("background median %.1f sigma %.2f, threshold %.1f", bg.Median, bg.Sigma, threshold)
	}
	res.Level = cfg.Level()

	var splitter *deblend.Deblender
	if r.opts.deblending() {
		d, err := deblend.New(cfg.WithMultiplier(cfg.Multiplier * r.opts.DeblendMultiplier))
		if err != nil {
			return nil, fmt.Errorf("deblend config: %w", err)
		}
		splitter = d
	}

	a, err := arena.New(f.Width, r.opts.PixelCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create arena: %w", err)
	}
	defer a.Close()

	s, err := scan.New(a, cfg, func(fin scan.Finished) error {
		res.Regions++
		r.deliver(res, splitter, fin)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	for y := 0; y < f.Height; y++ {
		if err := s.ProcessRow(f.Row(y)); err != nil {
			return nil, fmt.Errorf("scan failed at row %d: %w", y, err)
		}
		if err := s.Drain(); err != nil {
			return nil, fmt.Errorf("scan failed at row %d: %w", y, err)
		}
	}
	if err := s.Finish(); err != nil {
		return nil, fmt.Errorf("scan failed at end of frame: %w", err)
	}

	res.Evictions = s.Evictions()
	if res.Evictions > 0 {
		r.logger.Printf("%d regions flushed early to free region ids", res.Evictions)
	}
	return res, nil
}

// deliver turns one finished region into zero or more sources.
func (r *Runner) deliver(res *Result, splitter *deblend.Deblender, fin scan.Finished) {
	if fin.NPix < r.opts.MinPixels {
		res.Dropped.TooSmall++
		return
	}

	parts := []scan.Finished{fin}
	var parent arena.RegionID
	if splitter != nil && fin.NPix > 1 {
		children, err := splitter.SplitIfBlended(fin)
		switch {
		case err != nil:
			res.DeblendFailures++
			r.logger.Printf("deblend of region %d (%d pixels) failed: %v", fin.ID, fin.NPix, err)
		case len(children) > 1:
			res.Blended++
			parent = fin.ID
			parts = children
		}
	}

	for _, p := range parts {
		if parent != arena.NoRegion {
			p.Evicted = fin.Evicted
		}
		r.record(res, p, parent)
	}
}

// record measures one region and appends it as a source unless measurement fails.
func (r *Runner) record(res *Result, fin scan.Finished, parent arena.RegionID) {
	m := measure.Compute(fin.Pixels, r.opts.MinTotal, res.Width, res.Height)
	switch m.Status {
	case measure.StatusEmpty:
		res.Dropped.Empty++
		return
	case measure.StatusBelowMinimum:
		res.Dropped.BelowMinimum++
		return
	case measure.StatusZeroWeight:
		res.Dropped.ZeroWeight++
		return
	}

	shape, err := measure.Ellipse(m)
	if err != nil {
		r.logger.Printf("shape of region %d: %v", fin.ID, err)
	}
	areal, err := measure.Areal(fin.Pixels, res.Level, r.opts.ArealLevels)
	if err != nil {
		r.logger.Printf("areal profile of region %d: %v", fin.ID, err)
	}

	// A child's id belongs to the deblender's private arena.
	region := fin.ID
	if parent != arena.NoRegion {
		region = arena.NoRegion
	}

	res.Sources = append(res.Sources, Source{
		ID:      len(res.Sources) + 1,
		Region:  region,
		Parent:  parent,
		NPix:    fin.NPix,
		NBad:    fin.NBad,
		Touch:   fin.Touch,
		Evicted: fin.Evicted,
		Bounds:  deblend.Bounds(fin.Pixels),
		Moments: m,
		Shape:   shape,
		Areal:   areal,
		Pixels:  fin.Pixels,
	})
}

// Boxes returns the bounding box of every source.
func (res *Result) Boxes() []image.Rectangle {
	out := make([]image.Rectangle, len(res.Sources))
	for i, s := range res.Sources {
		out[i] = s.Bounds
	}
	return out
}

// PixelLists returns every source's pixels, in source order.
func (res *Result) PixelLists() [][]arena.PixelRecord {
	out := make([][]arena.PixelRecord, len(res.Sources))
	for i, s := range res.Sources {
		out[i] = s.Pixels
	}
	return out
}

// Find returns the source with the given id.
func (res *Result) Find(id int) (Source, bool) {
	if id < 1 || id > len(res.Sources) {
		return Source{}, false
	}
	return res.Sources[id-1], true
}
