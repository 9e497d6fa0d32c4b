package pipeline

import (
	"fmt"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
	"github.com/ironsheep/blob-tools-mcp/internal/measure"
	"github.com/ironsheep/blob-tools-mcp/internal/scan"
)

// Options controls one detection run.
type Options struct {
	// Scan holds the detection threshold, saturation and eviction settings.
	Scan scan.Config `json:"scan"`

	// AutoSigma, when positive, replaces Scan.Threshold with the frame's
	// background median plus AutoSigma background sigmas.
	AutoSigma float64 `json:"auto_sigma,omitempty"`

	// DeblendMultiplier is the multiplier of the stricter deblend pass.
	// Values of 1 or less disable deblending.
	DeblendMultiplier float64 `json:"deblend_multiplier"`

	// MinTotal is the minimum total intensity a source needs for moments.
	MinTotal float64 `json:"min_total"`

	// MinPixels drops regions smaller than this before measurement.
	MinPixels int `json:"min_pixels"`

	// ArealLevels is the length of each areal profile.
	ArealLevels int `json:"areal_levels"`

	// PixelCapacity bounds the pixels stored per frame.
	PixelCapacity int `json:"pixel_capacity"`
}

// DefaultOptions returns the settings used when a caller gives none.
func DefaultOptions() Options {
	return Options{
		Scan:              scan.DefaultConfig(),
		DeblendMultiplier: 2,
		MinTotal:          0,
		MinPixels:         1,
		ArealLevels:       measure.DefaultArealLevels,
		PixelCapacity:     arena.DefaultPixelCapacity,
	}
}

// Validate reports the first invalid setting.
func (o Options) Validate() error {
	if err := o.Scan.Validate(); err != nil {
		return err
	}
	if o.AutoSigma < 0 {
		return fmt.Errorf("auto sigma must not be negative, got %g", o.AutoSigma)
	}
	if o.MinPixels < 0 {
		return fmt.Errorf("min pixels must not be negative, got %d", o.MinPixels)
	}
	if o.ArealLevels <= 0 {
		return fmt.Errorf("areal levels must be positive, got %d", o.ArealLevels)
	}
	if o.PixelCapacity <= 0 {
		return fmt.Errorf("pixel capacity must be positive, got %d", o.PixelCapacity)
	}
	return nil
}

// deblending reports whether the stricter pass runs.
func (o Options) deblending() bool {
	return o.DeblendMultiplier > 1
}
