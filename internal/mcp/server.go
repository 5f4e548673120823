package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/pipeline"
)

// Library is the subset of the pipeline the tools call.
type Library interface {
	Search(ctx context.Context, req pipeline.SearchRequest) (*pipeline.SearchResponse, error)
	List(ctx context.Context) ([]domain.Document, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Health(ctx context.Context) error
}

// Server wraps the MCP server with its library.
type Server struct {
	server  *mcp.Server
	library Library
}

// Version is reported to MCP clients.
var Version = "v0.1.0"

// NewServer creates a configured MCP server with tools registered.
func NewServer(library Library) *Server {
	impl := &mcp.Implementation{
		Name:    "knowledge-pad",
		Version: Version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Semantic search over the uploaded PDF and Markdown library. Returns ranked passages with filename, page and a download link.",
	}, makeSearchHandler(library))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all documents in the library, newest first.",
	}, makeListHandler(library))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get document and chunk counts, the embedding model and metric, and index health.",
	}, makeStatusHandler(library))

	return &Server{
		server:  server,
		library: library,
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
