package sql

import (
	"github.com/mark3labs/mcp-go/mcp"
)

type ExplainQueryInput struct {
	Query string `json:"query" jsonschema:"default=SELECT 1,description=The SQL query to obtain an execution plan for. The query itself is not executed"`
}

func ExplainQuerySpec() mcp.Tool {
	return mcp.NewTool("explain-query",
		mcp.WithDescription("explain-query returns the database engine's execution plan for a read-only SQL statement without running it. Use it to check how an expensive query would execute. The statement must pass the same read-only checks as read-query."),
		mcp.WithInputSchema[ExplainQueryInput](),
		mcp.WithTitleAnnotation("Explain SQL Query"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
