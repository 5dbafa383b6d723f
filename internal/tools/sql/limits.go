package sql

import (
	"time"

	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
)

// queryOptions builds the execution limits for one call. A request may
// lower the configured caps through max_rows and timeout_ms but can never
// raise them.
func queryOptions(cfg *config.Config, maxRows, timeoutMs int) database.QueryOptions {
	opts := database.QueryOptions{
		MaxRows: cfg.MaxRows,
		Timeout: cfg.QueryTimeout(),
	}
	if maxRows > 0 && maxRows < opts.MaxRows {
		opts.MaxRows = maxRows
	}
	if timeoutMs > 0 {
		if t := time.Duration(timeoutMs) * time.Millisecond; t < opts.Timeout {
			opts.Timeout = t
		}
	}
	return opts
}
