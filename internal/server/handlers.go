package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/blob-tools-mcp/internal/arena"
	"github.com/ironsheep/blob-tools-mcp/internal/frame"
	"github.com/ironsheep/blob-tools-mcp/internal/pipeline"
	"github.com/ironsheep/blob-tools-mcp/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "sources_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	case "sources_detect":
		return s.handleSourcesDetect(args)
	case "sources_segmentation":
		return s.handleSourcesSegmentation(args)

	case "source_stamp":
		return s.handleSourceStamp(args)
	case "source_pixels":
		return s.handleSourcePixels(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Frame Handlers ===

// frameArgs are the arguments shared by every tool that loads an image.
type frameArgs struct {
	Path           string   `json:"path"`
	SmoothRadius   *float64 `json:"smooth_radius"`
	ConfidencePath string   `json:"confidence_path"`
	FlagSaturated  *bool    `json:"flag_saturated"`
}

func (a frameArgs) options() frame.Options {
	opts := frame.DefaultOptions()
	if a.SmoothRadius != nil {
		opts.SmoothRadius = *a.SmoothRadius
	}
	if a.FlagSaturated != nil {
		opts.FlagSaturated = *a.FlagSaturated
	}
	opts.ConfidencePath = a.ConfidencePath
	return opts
}

func (a frameArgs) check() error {
	if a.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return frame.Describe(s.cache, a.Path, a.options())
}

// === Detection Handlers ===

// defaultAutoSigma is used when a caller gives neither threshold nor auto_sigma.
const defaultAutoSigma = 3

// defaultMaxSources caps the sources listed in a sources_detect reply.
const defaultMaxSources = 100

type detectArgs struct {
	frameArgs

	Threshold         float64  `json:"threshold"`
	AutoSigma         float64  `json:"auto_sigma"`
	Multiplier        float64  `json:"multiplier"`
	Saturation        float64  `json:"saturation"`
	DeblendMultiplier *float64 `json:"deblend_multiplier"`
	MinTotal          float64  `json:"min_total"`
	MinPixels         *int     `json:"min_pixels"`
	ArealLevels       int      `json:"areal_levels"`
	PixelCapacity     int      `json:"pixel_capacity"`
	MaxSources        int      `json:"max_sources"`
}

func (a detectArgs) options() pipeline.Options {
	opts := pipeline.DefaultOptions()
	switch {
	case a.AutoSigma > 0:
		opts.AutoSigma = a.AutoSigma
	case a.Threshold != 0:
		opts.Scan = opts.Scan.WithThreshold(a.Threshold)
	default:
		opts.AutoSigma = defaultAutoSigma
	}
	if a.Multiplier != 0 {
		opts.Scan = opts.Scan.WithMultiplier(a.Multiplier)
	}
	if a.Saturation != 0 {
		opts.Scan = opts.Scan.WithSaturation(a.Saturation)
	}
	if a.DeblendMultiplier != nil {
		opts.DeblendMultiplier = *a.DeblendMultiplier
	}
	opts.MinTotal = a.MinTotal
	if a.MinPixels != nil {
		opts.MinPixels = *a.MinPixels
	}
	if a.ArealLevels != 0 {
		opts.ArealLevels = a.ArealLevels
	}
	if a.PixelCapacity != 0 {
		opts.PixelCapacity = a.PixelCapacity
	}
	return opts
}

// detectSummary is the sources_detect reply.
type detectSummary struct {
	Path string `json:"path"`
	*pipeline.Result
	SourceCount int  `json:"source_count"`
	Truncated   bool `json:"truncated,omitempty"`
}

// detect runs the pipeline for a and remembers the result for later
// stamp and pixel requests on the same path.
func (s *Server) detect(a detectArgs) (*detection, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	frameOpts := a.frameArgs.options()
	f, err := s.cache.Load(a.Path, frameOpts)
	if err != nil {
		return nil, err
	}

	runner, err := pipeline.NewRunner(a.options(), s.logger)
	if err != nil {
		return nil, err
	}
	res, err := runner.Run(f)
	if err != nil {
		return nil, err
	}

	d := &detection{frameOpts: frameOpts, frame: f, result: res}
	s.storeDetection(a.Path, d)
	return d, nil
}

func (s *Server) handleSourcesDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSources == 0 {
		a.MaxSources = defaultMaxSources
	}
	if a.MaxSources < 0 {
		return nil, fmt.Errorf("max_sources must not be negative, got %d", a.MaxSources)
	}

	d, err := s.detect(a)
	if err != nil {
		return nil, err
	}

	res := *d.result
	summary := &detectSummary{
		Path:        a.Path,
		Result:      &res,
		SourceCount: len(res.Sources),
	}
	if len(res.Sources) > a.MaxSources {
		res.Sources = res.Sources[:a.MaxSources]
		summary.Truncated = true
	}
	return summary, nil
}

type segmentationArgs struct {
	detectArgs

	// Outline draws bounding boxes on the frame instead of painting a
	// segmentation map.
	Outline bool `json:"outline"`

	// Labels writes source ids next to the boxes in outline mode.
	Labels bool `json:"labels"`
}

func (s *Server) handleSourcesSegmentation(args json.RawMessage) (interface{}, error) {
	var a segmentationArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	d, err := s.detect(a.detectArgs)
	if err != nil {
		return nil, err
	}

	if a.Outline {
		if d.frame.Image == nil {
			return nil, fmt.Errorf("frame %s has no source image", a.Path)
		}
		boxes := d.result.Boxes()
		out := render.Outline(d.frame.Image, boxes)
		if a.Labels {
			out = render.Label(out, boxes)
		}
		return render.EncodePNG(out)
	}
	return render.EncodePNG(render.Segmentation(d.frame.Width, d.frame.Height, d.result.PixelLists()))
}

// === Source Handlers ===

type sourceArgs struct {
	Path  string  `json:"path"`
	ID    int     `json:"id"`
	Pad   *int    `json:"pad"`
	Scale float64 `json:"scale"`
}

// source finds a source from the last detection on a.Path.
func (s *Server) source(a sourceArgs) (*detection, pipeline.Source, error) {
	if a.Path == "" {
		return nil, pipeline.Source{}, fmt.Errorf("path is required")
	}
	d, ok := s.lookupDetection(a.Path)
	if !ok {
		return nil, pipeline.Source{}, fmt.Errorf("no detection for %s; call sources_detect first", a.Path)
	}
	src, ok := d.result.Find(a.ID)
	if !ok {
		return nil, pipeline.Source{}, fmt.Errorf("source %d not found; last detection found %d sources", a.ID, len(d.result.Sources))
	}
	return d, src, nil
}

type stampResult struct {
	*render.Encoded
	Source pipeline.Source `json:"source"`
}

func (s *Server) handleSourceStamp(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	pad := 4
	if a.Pad != nil {
		pad = *a.Pad
	}

	d, src, err := s.source(a)
	if err != nil {
		return nil, err
	}
	if d.frame.Image == nil {
		return nil, fmt.Errorf("frame %s has no source image", a.Path)
	}

	stamp, err := render.Stamp(d.frame.Image, src.Bounds, pad, a.Scale)
	if err != nil {
		return nil, err
	}
	enc, err := render.EncodePNG(stamp)
	if err != nil {
		return nil, err
	}
	return &stampResult{Encoded: enc, Source: src}, nil
}

type pixelsResult struct {
	ID     int                 `json:"id"`
	NPix   int                 `json:"npix"`
	Pixels []arena.PixelRecord `json:"pixels"`
}

func (s *Server) handleSourcePixels(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, src, err := s.source(a)
	if err != nil {
		return nil, err
	}
	return &pixelsResult{ID: src.ID, NPix: len(src.Pixels), Pixels: src.Pixels}, nil
}
