// Package render draws detection results as images: segmentation maps,
// outlined frames and postage stamps, encoded as base64 PNG for MCP replies.
//
// Images returned by this package have their origin at (0,0).
package render
