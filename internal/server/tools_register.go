package server

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/trnq-eu/mcp-sql/internal/tools"
	sqltools "github.com/trnq-eu/mcp-sql/internal/tools/sql"
)

// RegisterTools registers all enabled MCP tools and adds them to the MCP server.
func (s *SQLMCPServer) RegisterTools() error {
	deps := &tools.ToolDependencies{
		Config:           s.config,
		DBService:        s.dbService,
		AnalyticsService: s.anService,
		Log:              s.log,
	}

	allTools := getAllTools(deps)

	// In read-only mode, only register tools annotated as read-only.
	if s.config != nil && s.config.ReadOnly {
		readOnlyTools := make([]server.ServerTool, 0, len(allTools))
		for _, tool := range allTools {
			if tool.Tool.Annotations.ReadOnlyHint != nil && *tool.Tool.Annotations.ReadOnlyHint {
				readOnlyTools = append(readOnlyTools, tool)
			}
		}
		allTools = readOnlyTools
	}

	wrapped := make([]server.ServerTool, 0, len(allTools))
	for _, tool := range allTools {
		wrapped = append(wrapped, server.ServerTool{
			Tool:    tool.Tool,
			Handler: WithAuditLog(s.log, tool.Handler),
		})
	}

	s.MCPServer.AddTools(wrapped...)
	return nil
}

// getAllTools returns every tool this server can expose.
func getAllTools(deps *tools.ToolDependencies) []server.ServerTool {
	return []server.ServerTool{
		{Tool: sqltools.ReadQuerySpec(), Handler: sqltools.ReadQueryHandler(deps)},
		{Tool: sqltools.ListTablesSpec(), Handler: sqltools.ListTablesHandler(deps)},
		{Tool: sqltools.DescribeTableSpec(), Handler: sqltools.DescribeTableHandler(deps)},
		{Tool: sqltools.ExplainQuerySpec(), Handler: sqltools.ExplainQueryHandler(deps)},
	}
}
