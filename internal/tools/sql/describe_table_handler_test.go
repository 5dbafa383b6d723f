package sql_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	analytics "github.com/trnq-eu/mcp-sql/internal/analytics/mocks"
	"github.com/trnq-eu/mcp-sql/internal/database"
	db "github.com/trnq-eu/mcp-sql/internal/database/mocks"
	"github.com/trnq-eu/mcp-sql/internal/logger"
	"github.com/trnq-eu/mcp-sql/internal/tools"
	sqltools "github.com/trnq-eu/mcp-sql/internal/tools/sql"
	"go.uber.org/mock/gomock"
)

func TestDescribeTableHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyticsService := analytics.NewMockService(ctrl)
	analyticsService.EXPECT().NewToolsEvent("describe-table").AnyTimes()
	analyticsService.EXPECT().EmitEvent(gomock.Any()).AnyTimes()
	defer ctrl.Finish()

	log := logger.New("debug", "text", os.Stderr)

	t.Run("successful table description", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().
			DescribeTable(gomock.Any(), "users").
			Return(&database.QueryResult{
				Columns: []string{"name", "type", "nullable"},
				Rows: []map[string]any{
					{"name": "id", "type": "INTEGER", "nullable": "NO"},
					{"name": "email", "type": "TEXT", "nullable": "YES"},
				},
				RowCount: 2,
			}, nil)

		deps := &tools.ToolDependencies{
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.DescribeTableHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"table": "users",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result == nil || result.IsError {
			t.Fatal("Expected success result")
		}
		textContent := result.Content[0].(mcp.TextContent)
		if !strings.Contains(textContent.Text, "email") {
			t.Errorf("Expected column names in response, got %q", textContent.Text)
		}
	})

	t.Run("missing table parameter", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		// No expectations set for mockDB since it shouldn't be called

		deps := &tools.ToolDependencies{
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.DescribeTableHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for missing table parameter")
		}
	})

	t.Run("invalid arguments binding", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)

		deps := &tools.ToolDependencies{
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.DescribeTableHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: "invalid string instead of map",
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for invalid arguments")
		}
	})

	t.Run("nil database service", func(t *testing.T) {
		deps := &tools.ToolDependencies{
			DBService:        nil,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.DescribeTableHandler(deps)
		result, err := handler(context.Background(), mcp.CallToolRequest{})

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for nil database service")
		}
	})

	t.Run("unknown table", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().
			DescribeTable(gomock.Any(), "missing").
			Return(nil, errors.New("query execution failed: table not found"))

		deps := &tools.ToolDependencies{
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.DescribeTableHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"table": "missing",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for unknown table")
		}
	})
}
