package server

import (
	"context"

	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
)

// connectionInfo describes the database behind the gateway, for startup
// logging and the connection event.
type connectionInfo struct {
	Engine        string
	ServerVersion string
}

// versionQuery returns the engine's version statement. These are trusted
// literals, never user input.
func versionQuery(engine config.Engine) string {
	switch engine {
	case config.EnginePostgres:
		return "SELECT version()"
	case config.EngineMySQL:
		return "SELECT VERSION()"
	case config.EngineSQLite:
		return "SELECT sqlite_version()"
	default:
		return ""
	}
}

// collectConnectionInfo queries the server version of the connected
// database. This is best-effort data: every failure path falls back to
// "unknown" and never blocks initialization.
func (s *SQLMCPServer) collectConnectionInfo(ctx context.Context) connectionInfo {
	info := connectionInfo{
		Engine:        string(s.config.Engine),
		ServerVersion: "unknown",
	}

	query := versionQuery(s.config.Engine)
	if query == "" {
		return info
	}

	result, err := s.dbService.ExecuteReadQuery(ctx, query, database.QueryOptions{MaxRows: 1})
	if err != nil {
		s.log.Debug("Failed to read database server version", "error", err)
		return info
	}
	if result == nil || len(result.Rows) == 0 || len(result.Columns) == 0 {
		return info
	}

	if version, ok := result.Rows[0][result.Columns[0]].(string); ok && version != "" {
		info.ServerVersion = version
	}
	return info
}
