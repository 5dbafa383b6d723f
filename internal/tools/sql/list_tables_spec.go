package sql

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func ListTablesSpec() mcp.Tool {
	return mcp.NewTool("list-tables",
		mcp.WithDescription("list-tables returns the names of the tables visible to the current connection. Use it to discover what data is available before writing queries. If the database contains no tables an explanatory message is returned."),
		mcp.WithTitleAnnotation("List Tables"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
