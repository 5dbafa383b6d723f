package tools

import (
	"github.com/trnq-eu/mcp-sql/internal/analytics"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	"github.com/trnq-eu/mcp-sql/internal/logger"
)

// ToolDependencies contains all dependencies needed by tools
type ToolDependencies struct {
	Config           *config.Config
	DBService        database.Service
	AnalyticsService analytics.Service
	Log              *logger.Service
}
