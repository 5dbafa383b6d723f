package database

import (
	"fmt"

	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// postgresAdapter targets PostgreSQL through the lib/pq driver.
type postgresAdapter struct{}

func (a *postgresAdapter) DriverName() string {
	return "postgres"
}

// NormalizeDSN accepts both URL and key=value DSN forms and passes them
// through unchanged. Read-only enforcement happens per session.
func (a *postgresAdapter) NormalizeDSN(dsn string, readOnly bool) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("postgres DSN is empty")
	}
	return dsn, nil
}

func (a *postgresAdapter) Features() gateway.DialectFeatures {
	// standard_conforming_strings is on by default, so backslashes inside
	// literals are ordinary bytes.
	return gateway.DialectFeatures{
		DollarQuotes: true,
	}
}

func (a *postgresAdapter) SessionSetup(readOnly bool) []string {
	if !readOnly {
		return nil
	}
	return []string{"SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY"}
}

func (a *postgresAdapter) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

func (a *postgresAdapter) DescribeTableQuery(table string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`, []any{table}
}

func (a *postgresAdapter) ExplainPrefix() string {
	return "EXPLAIN "
}
