package sql

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/trnq-eu/mcp-sql/internal/gateway"
	"github.com/trnq-eu/mcp-sql/internal/tools"
)

func ReadQueryHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleReadQuery(ctx, request, deps)
	}
}

func handleReadQuery(ctx context.Context, request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
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
	if deps.Config == nil {
		errMessage := "configuration is not initialized"
		deps.Log.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("read-query"))

	var args ReadQueryInput
	if err := request.BindArguments(&args); err != nil {
		deps.Log.Error("failed to bind tool arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if strings.TrimSpace(args.Query) == "" {
		errMessage := "query parameter is required and cannot be empty"
		deps.Log.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.Log.Debug("sql-query", "query", args.Query)

	// The verdict is decided before any database work happens. Rejections
	// carry the sentinel message, never driver output.
	classifier := gateway.NewClassifier(deps.Config.MaxQueryBytes, deps.Config.ReadOnly, deps.DBService.Dialect())
	if c := classifier.Classify(args.Query); c.Verdict != gateway.VerdictAllowed {
		deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewQueryRejectedEvent(c.Verdict.String()))
		deps.Log.Warn("rejected query", "verdict", c.Verdict.String(), "keyword", c.Keyword)
		return mcp.NewToolResultError(c.Verdict.Err().Error()), nil
	}

	result, err := deps.DBService.ExecuteReadQuery(ctx, args.Query, queryOptions(deps.Config, args.MaxRows, args.TimeoutMs))
	if err != nil {
		deps.Log.Error("query execution failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	response, err := result.ToJSON()
	if err != nil {
		deps.Log.Error("failed to format query results", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response), nil
}
