package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/blob-tools-mcp/internal/frame"
	"github.com/ironsheep/blob-tools-mcp/internal/pipeline"
)

// Server handles MCP protocol communication
type Server struct {
	cache   *frame.Cache
	version string

	// logger receives pipeline diagnostics; nil discards them.
	logger *log.Logger

	mu      sync.RWMutex
	results map[string]*detection
}

// detection is the last sources_detect result for one image path.
type detection struct {
	frameOpts frame.Options
	frame     *frame.Frame
	result    *pipeline.Result
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New() *Server {
	return &Server{
		cache:   frame.NewCache(),
		version: "0.1.0",
		results: make(map[string]*detection),
	}
}

// SetVersion sets the version reported by initialize.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// SetLogger routes detection diagnostics (background level, deblend
// failures, evictions) to l.
func (s *Server) SetLogger(l *log.Logger) {
	s.logger = l
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve answers newline-delimited JSON-RPC requests from r on w until r
// is exhausted.
//
// Parameters:
//   - r: Source of requests, one JSON object per line. Blank lines are skipped.
//   - w: Destination of responses. Notifications get none; unparseable lines
//     get a -32700 error.
//
// Returns:
//   - error: Non-nil only if reading r fails.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "blob-tools-mcp",
				"version": s.version,
			},
		},
	}
}

func (s *Server) storeDetection(path string, d *detection) {
	s.mu.Lock()
	s.results[path] = d
	s.mu.Unlock()
}

func (s *Server) lookupDetection(path string) (*detection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.results[path]
	return d, ok
}
