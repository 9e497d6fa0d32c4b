package scan

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Config holds the parameters fixed for one scan.
type Config struct {
	// Threshold is the detection threshold above background.
	Threshold float64 `json:"threshold"`

	// Multiplier scales Threshold into the comparison level actually applied
	// to the smoothed plane. Values above 1 give a stricter pass.
	Multiplier float64 `json:"multiplier"`

	// Saturation caps the smoothed intensity stored with each pixel.
	Saturation float64 `json:"saturation"`

	// HighWater is the fraction of region capacity in use above which a new
	// allocation first flushes closed regions.
	HighWater float64 `json:"high_water"`

	// FlushFraction is the fraction of region capacity flushed at the
	// high-water mark.
	FlushFraction float64 `json:"flush_fraction"`

	// Origin is added to the column and row of every stored pixel. Scans of
	// a cropped raster use it to keep frame coordinates.
	Origin image.Point `json:"origin"`
}

// DefaultConfig returns a configuration with unit threshold, no saturation
// cap and the standard eviction policy.
func DefaultConfig() Config {
	return Config{
		Threshold:     1,
		Multiplier:    1,
		Saturation:    math.MaxFloat32,
		HighWater:     0.75,
		FlushFraction: 0.375,
	}
}

// WithThreshold returns a copy of c with a new detection threshold.
func (c Config) WithThreshold(threshold float64) Config {
	c.Threshold = threshold
	return c
}

// WithMultiplier returns a copy of c with a new threshold multiplier.
func (c Config) WithMultiplier(multiplier float64) Config {
	c.Multiplier = multiplier
	return c
}

// WithSaturation returns a copy of c with a new saturation ceiling.
func (c Config) WithSaturation(saturation float64) Config {
	c.Saturation = saturation
	return c
}

// WithEviction returns a copy of c with a new eviction policy.
func (c Config) WithEviction(highWater, flushFraction float64) Config {
	c.HighWater = highWater
	c.FlushFraction = flushFraction
	return c
}

// WithOrigin returns a copy of c that offsets stored pixel coordinates.
func (c Config) WithOrigin(origin image.Point) Config {
	c.Origin = origin
	return c
}

// Level is the value a smoothed pixel must reach to be detected.
func (c Config) Level() float64 {
	return c.Threshold * c.Multiplier
}

// Validate rejects configurations the scanner cannot run with.
func (c Config) Validate() error {
	switch {
	case !(c.Threshold > 0):
		return errors.Errorf("threshold must be positive, got %g", c.Threshold)
	case !(c.Multiplier > 0):
		return errors.Errorf("threshold multiplier must be positive, got %g", c.Multiplier)
	case !(c.Saturation > 0):
		return errors.Errorf("saturation must be positive, got %g", c.Saturation)
	case !(c.HighWater > 0 && c.HighWater <= 1):
		return errors.Errorf("high-water mark must be in (0,1], got %g", c.HighWater)
	case !(c.FlushFraction > 0 && c.FlushFraction <= 1):
		return errors.Errorf("flush fraction must be in (0,1], got %g", c.FlushFraction)
	}
	return nil
}
