package sql

import (
	"github.com/mark3labs/mcp-go/mcp"
)

type ReadQueryInput struct {
	Query     string `json:"query" jsonschema:"default=SELECT 1,description=The SQL query to execute"`
	MaxRows   int    `json:"max_rows,omitempty" jsonschema:"description=Optional row cap for this call. Values above the configured limit are ignored"`
	TimeoutMs int    `json:"timeout_ms,omitempty" jsonschema:"description=Optional timeout in milliseconds for this call. Values above the configured limit are ignored"`
}

func ReadQuerySpec() mcp.Tool {
	return mcp.NewTool("read-query",
		mcp.WithDescription("read-query can run only a single read-only SQL statement (SELECT, SHOW, DESCRIBE, EXPLAIN). Write statements (INSERT, UPDATE, DELETE, DDL), multi-statement batches, and over-long queries are rejected before they reach the database."),
		mcp.WithInputSchema[ReadQueryInput](),
		mcp.WithTitleAnnotation("Read SQL"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
