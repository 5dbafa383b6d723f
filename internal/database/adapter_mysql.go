package database

import (
	"fmt"
	"strings"

	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// mysqlAdapter targets MySQL and MariaDB through the go-sql-driver/mysql
// driver.
type mysqlAdapter struct{}

func (a *mysqlAdapter) DriverName() string {
	return "mysql"
}

// NormalizeDSN ensures parseTime is enabled so DATETIME columns scan as
// time.Time instead of raw bytes.
func (a *mysqlAdapter) NormalizeDSN(dsn string, readOnly bool) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("mysql DSN is empty")
	}
	if !strings.Contains(dsn, "parseTime=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}
	return dsn, nil
}

func (a *mysqlAdapter) Features() gateway.DialectFeatures {
	return gateway.DialectFeatures{
		HashComments:     true,
		BacktickQuotes:   true,
		BackslashEscapes: true,
	}
}

func (a *mysqlAdapter) SessionSetup(readOnly bool) []string {
	if !readOnly {
		return nil
	}
	return []string{"SET SESSION TRANSACTION READ ONLY"}
}

func (a *mysqlAdapter) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

func (a *mysqlAdapter) DescribeTableQuery(table string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`, []any{table}
}

func (a *mysqlAdapter) ExplainPrefix() string {
	return "EXPLAIN "
}
