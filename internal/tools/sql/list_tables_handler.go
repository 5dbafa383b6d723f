package sql

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/trnq-eu/mcp-sql/internal/tools"
)

// ListTablesHandler returns a handler function for the list-tables tool
func ListTablesHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListTables(ctx, deps)
	}
}

// handleListTables retrieves the table listing through the trusted catalog
// statement of the active engine.
func handleListTables(ctx context.Context, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.AnalyticsService == nil {
		errMessage := "analytics service is not initialized"
		deps.Log.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}
	if deps.DBService == nil {
		errMessage := "database service is not initialized"
		deps.Log.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("list-tables"))
	deps.Log.Info("retrieving table listing from the database")

	tables, err := deps.DBService.ListTables(ctx)
	if err != nil {
		deps.Log.Error("failed to list tables", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tables) == 0 {
		deps.Log.Warn("no tables visible to the current connection")
		return mcp.NewToolResultText("The list-tables tool executed successfully; however, the connected database contains no tables."), nil
	}

	response := tools.CreateLLMResponse(
		tools.SummaryTablesListed,
		tables,
		tools.NextStepsAfterListTables...,
	)
	jsonStr, err := response.ToJSON()
	if err != nil {
		deps.Log.Error("failed to format table listing", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(jsonStr), nil
}
