package frame

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache keeps loaded Frames so repeated tool calls on the same image skip
// decoding and smoothing.
//
// Frames are keyed by path. Loading a path again with different Options
// replaces the cached entry.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu     sync.RWMutex
	frames map[string]entry
}

type entry struct {
	opts  Options
	frame *Frame
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		frames: make(map[string]entry),
	}
}

// Load returns the cached Frame for path if it was built with opts, or
// loads it from disk.
func (c *Cache) Load(path string, opts Options) (*Frame, error) {
	c.mu.RLock()
	if e, ok := c.frames[path]; ok && e.opts == opts {
		c.mu.RUnlock()
		return e.frame, nil
	}
	c.mu.RUnlock()

	f, err := Load(path, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.frames[path] = entry{opts: opts, frame: f}
	c.mu.Unlock()

	return f, nil
}

// Info describes a loaded frame.
type Info struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is taken from the file extension: "png", "jpeg", "gif", "tiff", "bmp" or "unknown".
	Format string `json:"format"`

	// ColorDepth is "16-bit" for 16-bit sources and "8-bit" otherwise.
	ColorDepth string `json:"color_depth"`

	HasConfidence bool `json:"has_confidence"`
	SaturatedPix  int  `json:"saturated_pixels"`

	Background    Background `json:"background"`
	FileSizeBytes int64      `json:"file_size_bytes"`
}

// Describe loads path through c and reports its metadata and background level.
//
// Parameters:
//   - c: The frame cache to load through. Must not be nil.
//   - path: Path to the image file.
//   - opts: Frame options, passed on to Cache.Load.
//
// Returns:
//   - *Info: Size, format, depth, saturated pixel count and background.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
func Describe(c *Cache, path string, opts Options) (*Info, error) {
	f, err := c.Load(path, opts)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".tif", ".tiff":
		format = "tiff"
	case ".bmp":
		format = "bmp"
	}

	saturated := 0
	for _, b := range f.Bad {
		if b != 0 {
			saturated++
		}
	}

	return &Info{
		Width:         f.Width,
		Height:        f.Height,
		Format:        format,
		ColorDepth:    colorDepth(f),
		HasConfidence: f.Confidence != nil,
		SaturatedPix:  saturated,
		Background:    f.Level(),
		FileSizeBytes: stat.Size(),
	}, nil
}

func colorDepth(f *Frame) string {
	if f.Image == nil {
		return "unknown"
	}
	switch f.Image.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return "16-bit"
	}
	return "8-bit"
}
