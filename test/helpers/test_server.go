package helpers

import (
	"testing"

	analytics "github.com/trnq-eu/mcp-sql/internal/analytics/mocks"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	"github.com/trnq-eu/mcp-sql/internal/server"
	"go.uber.org/mock/gomock"
)

// create an MCP server with test services injected.
func GetTestSQLMCPServer(cfg *config.Config, dbService database.Service, t *testing.T) *server.SQLMCPServer {
	version := "test_server"

	// Create and configure the MCP server
	return server.NewSQLMCPServer(version, cfg, dbService, GetAnalyticsMock(t))
}

// GetAnalyticsMock returns an analytics mock that accepts any event. Tests
// that assert on specific events should build their own mock instead.
func GetAnalyticsMock(t *testing.T) *analytics.MockService {
	ctrl := gomock.NewController(t)

	analyticsService := analytics.NewMockService(ctrl)
	analyticsService.EXPECT().EmitEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().IsEnabled().AnyTimes().Return(false)
	analyticsService.EXPECT().NewStartupEvent(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	analyticsService.EXPECT().NewConnectionInitializedEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().NewQueryRejectedEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().NewToolsEvent(gomock.Any()).AnyTimes()

	return analyticsService
}
