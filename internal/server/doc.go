// Package server implements the MCP (Model Context Protocol) server for source detection.
//
// This package provides a JSON-RPC 2.0 server that exposes the blob detection
// pipeline through the MCP protocol, so MCP-compatible clients can find,
// deblend and measure sources in astronomical frames.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// A line that is not valid JSON is answered with a -32700 parse error.
//
// # Available Tools
//
// Frame Information:
//   - image_load: Load an image as a frame, report size, depth and background
//
// Detection:
//   - sources_detect: Detect, deblend and measure every source
//   - sources_segmentation: Render sources as a colour map or outlined boxes
//
// Single Sources:
//   - source_stamp: Postage stamp around one detected source
//   - source_pixels: Pixel list of one detected source
//
// # State
//
// Frames are cached by path for the lifetime of the server and reloaded
// when the frame options change. The last detection for each path is kept so
// source_stamp and source_pixels can refer to sources by id.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
