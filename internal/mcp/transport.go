package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewHTTPHandler serves the library tools over Streamable HTTP. The tools
// never call back into the client, so stateless mode skips session
// tracking; every request then sees the same server.
func NewHTTPHandler(server *Server, stateless bool) http.Handler {
	mcpServer := server.MCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{Stateless: stateless})
}
