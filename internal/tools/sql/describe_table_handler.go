package sql

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/trnq-eu/mcp-sql/internal/tools"
)

func DescribeTableHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDescribeTable(ctx, request, deps)
	}
}

func handleDescribeTable(ctx context.Context, request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
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

	deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("describe-table"))

	var args DescribeTableInput
	if err := request.BindArguments(&args); err != nil {
		deps.Log.Error("failed to bind tool arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if strings.TrimSpace(args.Table) == "" {
		errMessage := "table parameter is required and cannot be empty"
		deps.Log.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.Log.Info("describing table", "table", args.Table)

	result, err := deps.DBService.DescribeTable(ctx, args.Table)
	if err != nil {
		deps.Log.Error("failed to describe table", "table", args.Table, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := tools.CreateLLMResponse(
		tools.SummaryTableDescribed,
		result,
		tools.NextStepsAfterDescribeTable...,
	)
	jsonStr, err := response.ToJSON()
	if err != nil {
		deps.Log.Error("failed to format column listing", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(jsonStr), nil
}
