package mcptools

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is advertised to MCP clients during initialisation.
const ServerName = "upsmonitor"

// Registration pairs an MCP tool definition with its handler function.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll adds every Registration to s.
func RegisterAll(s *server.MCPServer, registrations []Registration) {
	for _, r := range registrations {
		s.AddTool(r.Tool, r.Handler)
	}
}

// NewHandler builds an MCP server carrying registrations and returns its
// streamable HTTP transport, ready to mount on the API router.
func NewHandler(version string, registrations []Registration) http.Handler {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))
	RegisterAll(s, registrations)
	return server.NewStreamableHTTPServer(s)
}

// JSONResult marshals v to indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult reports a tool-level failure as text.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText("error: " + msg)
}
