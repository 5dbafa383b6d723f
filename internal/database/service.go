// Package database implements the SQL access layer: a pooled database/sql
// connection behind the Service interface, with engine differences isolated
// in per-dialect adapters.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/gateway"
	"github.com/trnq-eu/mcp-sql/internal/logger"

	// Engine drivers register themselves with database/sql on import.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLService is the concrete implementation of Service backed by a
// database/sql pool.
type SQLService struct {
	db      *sql.DB
	adapter Adapter
	cfg     *config.Config
	log     *logger.Service
}

// NewSQLService opens a connection pool for the configured engine. The
// pool is lazy: no connection is established until the first call, so
// follow up with VerifyConnectivity at startup.
func NewSQLService(cfg *config.Config, log *logger.Service) (*SQLService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	adapter, err := NewAdapter(cfg.Engine)
	if err != nil {
		return nil, err
	}

	dsn, err := adapter.NormalizeDSN(cfg.DSN, cfg.ReadOnly)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(adapter.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	db.SetMaxOpenConns(cfg.PoolMaxConns)
	db.SetMaxIdleConns(cfg.PoolMaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &SQLService{
		db:      db,
		adapter: adapter,
		cfg:     cfg,
		log:     log,
	}, nil
}

// VerifyConnectivity checks the pool can establish a valid connection to
// the database.
func (s *SQLService) VerifyConnectivity(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Error("failed to verify database connectivity", "error", gateway.RedactSecrets(err.Error()))
		return fmt.Errorf("failed to verify database connectivity: %w", err)
	}
	return nil
}

// Dialect reports the engine's quoting and comment syntax.
func (s *SQLService) Dialect() gateway.DialectFeatures {
	return s.adapter.Features()
}

// Close releases the connection pool.
func (s *SQLService) Close() error {
	return s.db.Close()
}

// ListTables returns the table names visible to the connection, using the
// adapter's trusted catalog statement.
func (s *SQLService) ListTables(ctx context.Context) ([]string, error) {
	res, err := s.runQuery(ctx, s.adapter.ListTablesQuery(), nil, QueryOptions{})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res.Rows))
	if len(res.Columns) == 0 {
		return names, nil
	}
	col := res.Columns[0]
	for _, row := range res.Rows {
		if name, ok := row[col].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// DescribeTable returns one row per column of table. The table name is
// bound as a statement argument, never interpolated.
func (s *SQLService) DescribeTable(ctx context.Context, table string) (*QueryResult, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("%w: table name is required", gateway.ErrExecutionFailed)
	}
	query, args := s.adapter.DescribeTableQuery(table)
	return s.runQuery(ctx, query, args, QueryOptions{})
}

// SchemaOverview renders the table listing as human-readable text with a
// pointer to the column-level tools.
func (s *SQLService) SchemaOverview(ctx context.Context) (string, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(tables) == 0 {
		b.WriteString("No tables found in the current database.\n")
	} else {
		fmt.Fprintf(&b, "Tables in the current database (%d):\n\n", len(tables))
		for _, t := range tables {
			fmt.Fprintf(&b, "  %s\n", t)
		}
	}
	b.WriteString("\nUse the describe-table tool (or a DESCRIBE <table> query) to inspect the columns of a table.\n")
	return b.String(), nil
}
