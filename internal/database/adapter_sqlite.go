package database

import (
	"fmt"
	"strings"

	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// sqliteAdapter targets SQLite through the cgo-free modernc.org/sqlite
// driver.
type sqliteAdapter struct{}

func (a *sqliteAdapter) DriverName() string {
	return "sqlite"
}

// NormalizeDSN turns a bare path into a file: URI and, for read-only
// operation, asks SQLite itself to open the file read-only. In-memory
// databases pass through untouched.
func (a *sqliteAdapter) NormalizeDSN(dsn string, readOnly bool) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("sqlite DSN is empty")
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return dsn, nil
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if readOnly && !strings.Contains(dsn, "mode=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "mode=ro"
	}
	return dsn, nil
}

func (a *sqliteAdapter) Features() gateway.DialectFeatures {
	return gateway.DialectFeatures{
		BacktickQuotes: true,
		BracketQuotes:  true,
	}
}

func (a *sqliteAdapter) SessionSetup(readOnly bool) []string {
	if !readOnly {
		return nil
	}
	return []string{"PRAGMA query_only = ON"}
}

func (a *sqliteAdapter) ListTablesQuery() string {
	return `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`
}

func (a *sqliteAdapter) DescribeTableQuery(table string) (string, []any) {
	return `SELECT name AS column_name, type AS data_type,
CASE "notnull" WHEN 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
dflt_value AS column_default
FROM pragma_table_info(?)`, []any{table}
}

func (a *sqliteAdapter) ExplainPrefix() string {
	return "EXPLAIN QUERY PLAN "
}
