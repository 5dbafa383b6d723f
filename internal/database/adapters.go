package database

import (
	"fmt"

	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// Adapter captures the engine-specific parts of SQL access: the driver
// registration name, the dialect's quoting syntax, session setup, and the
// trusted catalog statements. Everything else in the service is shared.
type Adapter interface {
	// DriverName is the database/sql driver registration name.
	DriverName() string

	// NormalizeDSN rewrites the configured DSN before sql.Open, for
	// example to request a read-only connection where the driver
	// supports it.
	NormalizeDSN(dsn string, readOnly bool) (string, error)

	// Features reports the dialect's quoting and comment syntax.
	Features() gateway.DialectFeatures

	// SessionSetup returns statements executed on a connection before a
	// query runs, such as pinning the session to read-only.
	SessionSetup(readOnly bool) []string

	// ListTablesQuery is the trusted statement returning one table name
	// per row in its first column.
	ListTablesQuery() string

	// DescribeTableQuery returns the trusted statement describing the
	// columns of table, with the table name bound as an argument.
	DescribeTableQuery(table string) (string, []any)

	// ExplainPrefix is prepended to a query to obtain its plan.
	ExplainPrefix() string
}

// NewAdapter returns the adapter for the configured engine.
func NewAdapter(engine config.Engine) (Adapter, error) {
	switch engine {
	case config.EnginePostgres:
		return &postgresAdapter{}, nil
	case config.EngineMySQL:
		return &mysqlAdapter{}, nil
	case config.EngineSQLite:
		return &sqliteAdapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported database engine: %q", engine)
	}
}
