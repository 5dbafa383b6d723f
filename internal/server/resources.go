package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// schemaResourceURI is the address of the schema overview resource.
const schemaResourceURI = "sql://schema"

// RegisterResources registers the schema overview resource with the MCP server.
func (s *SQLMCPServer) RegisterResources() {
	schemaResource := mcp.NewResource(
		schemaResourceURI,
		"Database schema",
		mcp.WithResourceDescription("Overview of the tables and columns visible to the current connection. Read this before writing queries against unfamiliar data."),
		mcp.WithMIMEType("text/plain"),
	)

	s.MCPServer.AddResource(schemaResource, s.handleSchemaResource)
}

// handleSchemaResource renders the schema overview. The overview is built
// from fresh catalog queries on every read so the client never sees a
// stale table list. Failures map to a stable error; driver details stay
// in the log.
func (s *SQLMCPServer) handleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	overview, err := s.dbService.SchemaOverview(ctx)
	if err != nil {
		s.log.Error("Failed to build schema overview", "error", err)
		return nil, gateway.ErrResourceUnavailable
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     overview,
		},
	}, nil
}
