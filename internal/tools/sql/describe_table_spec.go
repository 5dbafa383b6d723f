package sql

import (
	"github.com/mark3labs/mcp-go/mcp"
)

type DescribeTableInput struct {
	Table string `json:"table" jsonschema:"description=The name of the table to describe"`
}

func DescribeTableSpec() mcp.Tool {
	return mcp.NewTool("describe-table",
		mcp.WithDescription("describe-table returns one row per column of the named table: name, data type, nullability, and default where the engine reports them. The table name is bound as a statement parameter, so names from untrusted input are safe to pass."),
		mcp.WithInputSchema[DescribeTableInput](),
		mcp.WithTitleAnnotation("Describe Table"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
