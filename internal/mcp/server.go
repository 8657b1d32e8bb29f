package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	assistant Assistant
}

// Config holds server dependencies.
type Config struct {
	Assistant    Assistant
	StoreBackend string // reported by get_status
	Version      string
	Logger       *slog.Logger
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "grounded-chat",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documentation. Pass session_id to continue a conversation.",
	}, makeAskHandler(cfg.Assistant, logger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Return the documentation chunks most relevant to a query, with similarity scores, without generating an answer.",
	}, makeSearchHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "new_session",
		Description: "Start a new conversation and return its session_id.",
	}, makeNewSessionHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_session",
		Description: "Clear the history of a conversation.",
	}, makeResetSessionHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Report the number of indexed chunks, the embedding dimension and the number of active sessions.",
	}, makeStatusHandler(cfg.Assistant, cfg.StoreBackend))

	return &Server{
		server:    server,
		assistant: cfg.Assistant,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
