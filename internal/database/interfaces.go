package database

//go:generate mockgen -destination=mocks/mock_database.go -package=mocks github.com/trnq-eu/mcp-sql/internal/database Service

import (
	"context"
	"time"

	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// QueryOptions carries per-call execution limits. Zero values fall back to
// the configured defaults.
type QueryOptions struct {
	// MaxRows caps how many rows the result may contain.
	MaxRows int
	// Timeout bounds the execution time of the query.
	Timeout time.Duration
}

// Service is the database access layer consumed by the MCP tool handlers.
// Implementations own a connection pool and release it on Close.
type Service interface {
	// VerifyConnectivity checks that the pool can reach the database.
	VerifyConnectivity(ctx context.Context) error

	// ExecuteReadQuery runs one statement and returns the shaped result.
	// Callers are expected to have classified the statement first; the
	// service additionally pins the session to read-only where the
	// engine supports it.
	ExecuteReadQuery(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error)

	// ExplainQuery obtains the engine's plan for query without running it.
	ExplainQuery(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error)

	// ListTables returns the table names visible to the connection.
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable returns one row per column of table.
	DescribeTable(ctx context.Context, table string) (*QueryResult, error)

	// SchemaOverview renders a human-readable summary of the schema.
	SchemaOverview(ctx context.Context) (string, error)

	// Dialect reports the engine's quoting and comment syntax for the
	// classifier.
	Dialect() gateway.DialectFeatures

	// Close releases the connection pool.
	Close() error
}
