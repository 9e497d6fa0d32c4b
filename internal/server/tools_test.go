package server

import (
	"testing"
)

var expectedTools = []string{
	"image_load",
	"sources_detect",
	"sources_segmentation",
	"source_stamp",
	"source_pixels",
}

func toolsByName() map[string]Tool {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}
	return toolMap
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) != len(expectedTools) {
		t.Fatalf("GetToolDefinitions: got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := toolsByName()
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			// Name should not be empty
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}

			// Description should not be empty
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}

			// InputSchema should exist
			if tool.InputSchema == nil {
				t.Error("Tool InputSchema is nil")
			}

			// InputSchema should be an object type
			schemaType, ok := tool.InputSchema["type"]
			if !ok {
				t.Error("InputSchema missing 'type' field")
			}
			if schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			// InputSchema should have properties
			props, ok := tool.InputSchema["properties"]
			if !ok {
				t.Error("InputSchema missing 'properties' field")
			}
			if props == nil {
				t.Error("InputSchema properties is nil")
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	want := map[string][]string{
		"image_load":           {"path"},
		"sources_detect":       {"path"},
		"sources_segmentation": {"path"},
		"source_stamp":         {"path", "id"},
		"source_pixels":        {"path", "id"},
	}

	toolMap := toolsByName()
	for name, fields := range want {
		t.Run(name, func(t *testing.T) {
			tool, ok := toolMap[name]
			if !ok {
				t.Fatalf("tool %s not found", name)
			}

			requiredList, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			if len(requiredList) != len(fields) {
				t.Fatalf("required: got %v, want %v", requiredList, fields)
			}
			for i, f := range fields {
				if requiredList[i] != f {
					t.Errorf("required[%d]: got %s, want %s", i, requiredList[i], f)
				}
			}

			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, f := range fields {
				if _, ok := props[f]; !ok {
					t.Errorf("required field %s has no property", f)
				}
			}
		})
	}
}

func TestToolDefinitions_DetectionParameters(t *testing.T) {
	params := []string{
		"path", "smooth_radius", "confidence_path", "flag_saturated",
		"threshold", "auto_sigma", "multiplier", "saturation",
		"deblend_multiplier", "min_total", "min_pixels", "areal_levels", "pixel_capacity",
	}

	toolMap := toolsByName()
	for _, name := range []string{"sources_detect", "sources_segmentation"} {
		props := toolMap[name].InputSchema["properties"].(map[string]interface{})
		for _, p := range params {
			param, ok := props[p].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found", name, p)
				continue
			}
			if param["description"] == "" || param["type"] == "" {
				t.Errorf("%s.%s: missing type or description", name, p)
			}
		}
	}

	// Parameters are shared, not aliased between tools.
	if _, ok := toolMap["sources_detect"].InputSchema["properties"].(map[string]interface{})["outline"]; ok {
		t.Error("sources_detect should not offer outline")
	}
	if _, ok := toolMap["sources_segmentation"].InputSchema["properties"].(map[string]interface{})["max_sources"]; ok {
		t.Error("sources_segmentation should not offer max_sources")
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	// Tools with optional parameters that should have defaults
	toolDefaults := map[string]map[string]interface{}{
		"image_load":           {"smooth_radius": 1.0, "flag_saturated": true},
		"sources_detect":       {"multiplier": 1.0, "deblend_multiplier": 2.0, "min_pixels": 1, "areal_levels": 8, "pixel_capacity": 250000, "max_sources": defaultMaxSources},
		"sources_segmentation": {"deblend_multiplier": 2.0, "outline": false, "labels": false},
		"source_stamp":         {"pad": 4, "scale": 1.0},
	}

	toolMap := toolsByName()

	for toolName, expectedDefaults := range toolDefaults {
		tool, ok := toolMap[toolName]
		if !ok {
			t.Errorf("Tool %s not found", toolName)
			continue
		}

		props, ok := tool.InputSchema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: properties should be a map", toolName)
			continue
		}

		for paramName, expectedDefault := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}

			actualDefault, ok := param["default"]
			if !ok {
				t.Errorf("%s.%s: missing default value", toolName, paramName)
				continue
			}

			// Compare defaults (handle type differences)
			switch expected := expectedDefault.(type) {
			case float64:
				actual, ok := actualDefault.(float64)
				if !ok || actual != expected {
					t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actualDefault, expected)
				}
			case int:
				// JSON numbers are float64
				actual, ok := actualDefault.(int)
				if !ok {
					actualFloat, ok := actualDefault.(float64)
					if !ok || int(actualFloat) != expected {
						t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actualDefault, expected)
					}
				} else if actual != expected {
					t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actualDefault, expected)
				}
			case string:
				actual, ok := actualDefault.(string)
				if !ok || actual != expected {
					t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actualDefault, expected)
				}
			case bool:
				actual, ok := actualDefault.(bool)
				if !ok || actual != expected {
					t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actualDefault, expected)
				}
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	tools, ok := result["tools"]
	if !ok {
		t.Fatal("Result should contain 'tools' key")
	}

	toolsList, ok := tools.([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}

	// Should match GetToolDefinitions
	expected := GetToolDefinitions()
	if len(toolsList) != len(expected) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expected))
	}
}
