package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trnq-eu/mcp-sql/internal/gateway"
)

// ExecuteReadQuery runs one statement under the configured limits and
// returns the shaped result.
func (s *SQLService) ExecuteReadQuery(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	return s.runQuery(ctx, query, nil, opts)
}

// ExplainQuery obtains the engine's plan for query. The EXPLAIN prefix is
// the adapter's own trusted text, so only the inner query needs to have
// been classified.
func (s *SQLService) ExplainQuery(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	return s.runQuery(ctx, s.adapter.ExplainPrefix()+query, nil, opts)
}

// runQuery is the execution path shared by every read. It checks a single
// connection out of the pool, applies the adapter's session setup, runs
// the statement under a deadline, and shapes the rows. The deferred
// handles return the connection on every exit path; no transaction is ever
// opened.
func (s *SQLService) runQuery(ctx context.Context, query string, args []any, opts QueryOptions) (*QueryResult, error) {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = s.cfg.MaxRows
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.QueryTimeout()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, s.execError(ctx, err)
	}
	defer conn.Close()

	// Session setup and the query itself must run on the same
	// connection, which is why the pool handle is not used directly.
	for _, stmt := range s.adapter.SessionSetup(s.cfg.ReadOnly) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return nil, s.execError(ctx, err)
		}
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.execError(ctx, err)
	}
	defer rows.Close()

	result, err := shapeRows(rows, maxRows)
	if err != nil {
		return nil, s.execError(ctx, err)
	}

	result.ElapsedMs = time.Since(start).Milliseconds()
	return result, nil
}

// execError maps a driver failure onto the gateway error taxonomy. The
// full error is logged server-side; the returned message is redacted.
func (s *SQLService) execError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.log.Warn("query execution exceeded its deadline")
		return gateway.ErrTimeout
	}

	s.log.Debug("query execution failed", "error", err.Error())
	return fmt.Errorf("%w: %s", gateway.ErrExecutionFailed, gateway.RedactSecrets(err.Error()))
}
