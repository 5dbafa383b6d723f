package sql_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	analytics "github.com/trnq-eu/mcp-sql/internal/analytics/mocks"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	db "github.com/trnq-eu/mcp-sql/internal/database/mocks"
	"github.com/trnq-eu/mcp-sql/internal/gateway"
	"github.com/trnq-eu/mcp-sql/internal/logger"
	"github.com/trnq-eu/mcp-sql/internal/tools"
	sqltools "github.com/trnq-eu/mcp-sql/internal/tools/sql"
	"go.uber.org/mock/gomock"
)

func testConfig() *config.Config {
	return &config.Config{
		Engine:              config.EngineSQLite,
		DSN:                 "file:test.db",
		ReadOnly:            true,
		MaxRows:             config.DefaultMaxRows,
		QueryTimeoutSeconds: config.DefaultQueryTimeoutSeconds,
		MaxQueryBytes:       config.DefaultMaxQueryBytes,
	}
}

func TestReadQueryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyticsService := analytics.NewMockService(ctrl)
	analyticsService.EXPECT().NewToolsEvent("read-query").AnyTimes()
	analyticsService.EXPECT().NewQueryRejectedEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().EmitEvent(gomock.Any()).AnyTimes()
	defer ctrl.Finish()

	log := logger.New("debug", "text", os.Stderr)
	cfg := testConfig()
	defaultOpts := database.QueryOptions{MaxRows: cfg.MaxRows, Timeout: cfg.QueryTimeout()}

	t.Run("successful query execution", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT id, name FROM users", defaultOpts).
			Return(&database.QueryResult{
				Columns:  []string{"id", "name"},
				Rows:     []map[string]any{{"id": int64(1), "name": "Alice"}},
				RowCount: 1,
			}, nil)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT id, name FROM users",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result == nil || result.IsError {
			t.Error("Expected success result")
		}
	})

	t.Run("per-call limits lower the configured caps", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT * FROM orders", database.QueryOptions{MaxRows: 5, Timeout: 2 * time.Second}).
			Return(&database.QueryResult{Columns: []string{"id"}, Rows: []map[string]any{}}, nil)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query":      "SELECT * FROM orders",
					"max_rows":   5,
					"timeout_ms": 2000,
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result == nil || result.IsError {
			t.Error("Expected success result")
		}
	})

	t.Run("per-call limits cannot raise the configured caps", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT * FROM orders", defaultOpts).
			Return(&database.QueryResult{Columns: []string{"id"}, Rows: []map[string]any{}}, nil)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query":      "SELECT * FROM orders",
					"max_rows":   cfg.MaxRows * 10,
					"timeout_ms": cfg.QueryTimeoutSeconds * 10000,
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result == nil || result.IsError {
			t.Error("Expected success result")
		}
	})

	t.Run("invalid arguments binding", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		// Test with invalid argument structure that should cause BindArguments to fail
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

	t.Run("empty query parameter", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		// No expectations set for mockDB since it shouldn't be called

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for empty query parameter")
		}
	})

	t.Run("nil database service", func(t *testing.T) {
		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        nil,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT 1",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for nil database service")
		}
	})

	t.Run("nil analytics service", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: nil,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		result, err := handler(context.Background(), mcp.CallToolRequest{})

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for nil analytics service")
		}
	})

	t.Run("nil config", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		deps := &tools.ToolDependencies{
			Config:           nil,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		result, err := handler(context.Background(), mcp.CallToolRequest{})

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for nil config")
		}
	})

	t.Run("write statement is rejected before execution", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		// No ExecuteReadQuery expectation: a rejected query must never reach the database

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "DROP TABLE users",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Fatal("Expected error result for write statement")
		}
		textContent := result.Content[0].(mcp.TextContent)
		if textContent.Text != gateway.ErrNotReadOnly.Error() {
			t.Errorf("Expected rejection message %q, got %q", gateway.ErrNotReadOnly.Error(), textContent.Text)
		}
	})

	t.Run("multi-statement batch is rejected", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT 1; DELETE FROM users",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Fatal("Expected error result for multi-statement batch")
		}
		textContent := result.Content[0].(mcp.TextContent)
		if textContent.Text != gateway.ErrMultiStatement.Error() {
			t.Errorf("Expected rejection message %q, got %q", gateway.ErrMultiStatement.Error(), textContent.Text)
		}
	})

	t.Run("semicolon inside a string literal is allowed", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT ';' AS x", defaultOpts).
			Return(&database.QueryResult{
				Columns:  []string{"x"},
				Rows:     []map[string]any{{"x": ";"}},
				RowCount: 1,
			}, nil)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT ';' AS x",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result == nil || result.IsError {
			t.Error("Expected success result for quoted semicolon")
		}
	})

	t.Run("database query execution failure", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT * FROM missing_table", defaultOpts).
			Return(nil, errors.New("query execution failed: no such table: missing_table"))

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT * FROM missing_table",
				},
			},
		}

		result, err := handler(context.Background(), request)

		if err != nil {
			t.Errorf("Expected no error from handler, got: %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("Expected error result for query execution failure")
		}
	})

	t.Run("truncated result keeps the truncated flag in the response", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT id FROM big_table", defaultOpts).
			Return(&database.QueryResult{
				Columns:   []string{"id"},
				Rows:      []map[string]any{{"id": int64(1)}, {"id": int64(2)}},
				RowCount:  2,
				Truncated: true,
			}, nil)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticsService,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT id FROM big_table",
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
		if !strings.Contains(textContent.Text, `"truncated": true`) {
			t.Errorf("Expected truncated flag in response, got %q", textContent.Text)
		}
	})
}

func TestReadQueryHandlerEvents(t *testing.T) {
	log := logger.New("debug", "text", os.Stderr)
	cfg := testConfig()

	t.Run("emits rejection event for a write statement", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})

		analyticServiceExplicitMock := analytics.NewMockService(ctrl)
		analyticServiceExplicitMock.EXPECT().NewQueryRejectedEvent("rejected_not_read_only").Times(1)
		analyticServiceExplicitMock.EXPECT().EmitEvent(gomock.Any()).AnyTimes()
		analyticServiceExplicitMock.EXPECT().NewToolsEvent(gomock.Any()).AnyTimes()

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticServiceExplicitMock,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "DELETE FROM users",
				},
			},
		}

		_, err := handler(context.Background(), request)
		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("emits rejection event for a multi-statement batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})

		analyticServiceExplicitMock := analytics.NewMockService(ctrl)
		analyticServiceExplicitMock.EXPECT().NewQueryRejectedEvent("rejected_multi_statement").Times(1)
		analyticServiceExplicitMock.EXPECT().EmitEvent(gomock.Any()).AnyTimes()
		analyticServiceExplicitMock.EXPECT().NewToolsEvent(gomock.Any()).AnyTimes()

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticServiceExplicitMock,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT 1; DROP TABLE users",
				},
			},
		}

		_, err := handler(context.Background(), request)
		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("no rejection event for an allowed query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().Dialect().Return(gateway.DialectFeatures{})
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "SELECT 1", gomock.Any()).
			Return(&database.QueryResult{Columns: []string{"1"}, Rows: []map[string]any{}}, nil)

		analyticServiceExplicitMock := analytics.NewMockService(ctrl)
		analyticServiceExplicitMock.EXPECT().NewToolsEvent("read-query").Times(1)
		analyticServiceExplicitMock.EXPECT().EmitEvent(gomock.Any()).Times(1)

		deps := &tools.ToolDependencies{
			Config:           cfg,
			DBService:        mockDB,
			AnalyticsService: analyticServiceExplicitMock,
			Log:              log,
		}

		handler := sqltools.ReadQueryHandler(deps)
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query": "SELECT 1",
				},
			},
		}

		_, err := handler(context.Background(), request)
		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})
}
