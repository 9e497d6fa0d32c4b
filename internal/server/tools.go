package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// frameProperties describe how an image is turned into intensity planes.
func frameProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"smooth_radius": map[string]interface{}{
			"type":        "number",
			"description": "Standard deviation in pixels of the Gaussian that smooths the detection plane. 0 disables smoothing. Default 1",
			"default":     1.0,
		},
		"confidence_path": map[string]interface{}{
			"type":        "string",
			"description": "Optional confidence map of the same size; black pixels are ignored",
		},
		"flag_saturated": map[string]interface{}{
			"type":        "boolean",
			"description": "Count full-scale pixels as bad pixels. Default true",
			"default":     true,
		},
	}
}

// detectProperties adds the detection parameters to the frame properties.
func detectProperties() map[string]interface{} {
	props := frameProperties()
	props["threshold"] = map[string]interface{}{
		"type":        "number",
		"description": "Detection threshold in 16-bit intensity units. Ignored when auto_sigma is set",
	}
	props["auto_sigma"] = map[string]interface{}{
		"type":        "number",
		"description": "Set the threshold this many background sigmas above the median. Used with 3 when neither threshold nor auto_sigma is given",
	}
	props["multiplier"] = map[string]interface{}{
		"type":        "number",
		"description": "Factor applied to the threshold to get the detection level. Default 1",
		"default":     1.0,
	}
	props["saturation"] = map[string]interface{}{
		"type":        "number",
		"description": "Ceiling applied to pixel weights",
	}
	props["deblend_multiplier"] = map[string]interface{}{
		"type":        "number",
		"description": "Rescan each region at the detection level times this factor to split blended objects. 1 or less disables deblending. Default 2",
		"default":     2.0,
	}
	props["min_total"] = map[string]interface{}{
		"type":        "number",
		"description": "Minimum total intensity for a source to be measured. Default 0",
		"default":     0.0,
	}
	props["min_pixels"] = map[string]interface{}{
		"type":        "integer",
		"description": "Drop regions with fewer pixels. Default 1",
		"default":     1,
	}
	props["areal_levels"] = map[string]interface{}{
		"type":        "integer",
		"description": "Length of each areal profile. Default 8",
		"default":     8,
	}
	props["pixel_capacity"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum above-threshold pixels per frame. Default 250000",
		"default":     250000,
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	detect := detectProperties()
	detect["max_sources"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of sources listed in the reply. Default 100",
		"default":     100,
	}

	segmentation := detectProperties()
	segmentation["outline"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw source bounding boxes on the image instead of a segmentation map",
		"default":     false,
	}
	segmentation["labels"] = map[string]interface{}{
		"type":        "boolean",
		"description": "With outline, write each source id above its box",
		"default":     false,
	}

	return []Tool{
		// Frame Information
		{
			Name:        "image_load",
			Description: "Load an image as an intensity frame and return its size, bit depth, saturated pixel count and background level (median and sigma).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": frameProperties(),
				"required":   []string{"path"},
			},
		},

		// Detection
		{
			Name:        "sources_detect",
			Description: "Detect connected sources above a threshold, split blended ones and measure each: centroid, second moments, ellipse shape and areal profile. Results are kept for source_stamp and source_pixels.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detect,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "sources_segmentation",
			Description: "Run detection and return a PNG segmentation map with each source in its own colour, or the image with source bounding boxes.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": segmentation,
				"required":   []string{"path"},
			},
		},

		// Single Sources
		{
			Name:        "source_stamp",
			Description: "Return a postage stamp PNG around one source from the last sources_detect call on this image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Source id from sources_detect (1-based)",
					},
					"pad": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of margin around the source. Default 4",
						"default":     4,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 4.0 to enlarge a small source). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "id"},
			},
		},
		{
			Name:        "source_pixels",
			Description: "Return every pixel of one source from the last sources_detect call: coordinates, raw and smoothed intensity, bad flag.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Source id from sources_detect (1-based)",
					},
				},
				"required": []string{"path", "id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
