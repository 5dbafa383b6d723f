//go:build integration

package helpers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/trnq-eu/mcp-sql/internal/analytics"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	"github.com/trnq-eu/mcp-sql/internal/logger"
	"github.com/trnq-eu/mcp-sql/internal/tools"
)

// TestContext holds common test dependencies
type TestContext struct {
	Ctx           context.Context
	T             *testing.T
	TestID        string
	Cfg           *config.Config
	DB            *sql.DB
	Service       database.Service
	Deps          *tools.ToolDependencies
	createdTables map[string]bool
	tableMutex    sync.Mutex
}

// NewTestContext creates a new test context with automatic cleanup.
// The db handle is used for seeding and verification writes, which the
// read-only service under test cannot perform itself.
func NewTestContext(t *testing.T, cfg *config.Config, db *sql.DB) *TestContext {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	testID := makeTestID()

	tc := &TestContext{
		Ctx:           ctx,
		T:             t,
		TestID:        testID,
		Cfg:           cfg,
		DB:            db,
		createdTables: make(map[string]bool),
	}

	testLog := logger.New("debug", "text", io.Discard)

	svc, err := database.NewSQLService(cfg, testLog)
	if err != nil {
		cancel()
		t.Fatalf("failed to create SQL service: %v", err)
	}
	if err := svc.VerifyConnectivity(ctx); err != nil {
		cancel()
		t.Fatalf("failed to verify database connectivity: %v", err)
	}

	t.Cleanup(func() {
		tc.Cleanup() // Clean up test data
		if err := svc.Close(); err != nil {
			log.Printf("Warning: failed to close service: %v", err)
		}
		cancel() // Release context resources immediately
	})

	deps := &tools.ToolDependencies{
		Config:           cfg,
		DBService:        svc,
		AnalyticsService: analytics.NewDisabled(),
		Log:              testLog,
	}

	tc.Service = svc
	tc.Deps = deps

	return tc
}

// Cleanup drops all tables created during the test
func (tc *TestContext) Cleanup() {
	if tc.DB == nil {
		return // Seeding handle wasn't initialized, nothing to clean up
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tc.tableMutex.Lock()
	tables := make([]string, 0, len(tc.createdTables))
	for table := range tc.createdTables {
		tables = append(tables, table)
	}
	tc.tableMutex.Unlock()

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
		if _, err := tc.DB.ExecContext(ctx, query); err != nil {
			log.Printf("Warning: cleanup failed for table=%s: %v", table, err)
		}
	}
}

// UniqueTable returns a unique table name for the given base name and
// tracks it for cleanup.
func (tc *TestContext) UniqueTable(base string) string {
	if tc.TestID == "" {
		panic("UniqueTable: TestID is not set in TestContext. Did you forget to use NewTestContext?")
	}

	table := fmt.Sprintf("%s_%s", base, tc.TestID)

	tc.tableMutex.Lock()
	tc.createdTables[table] = true
	tc.tableMutex.Unlock()

	return table
}

// SeedTable creates a uniquely named table with the given column
// definition and inserts the given rows. Each insert is the clause after
// "INSERT INTO <table>", e.g. "(name) VALUES ('Alice')".
func (tc *TestContext) SeedTable(base, columns string, inserts ...string) (string, error) {
	tc.T.Helper()

	table := tc.UniqueTable(base)

	if _, err := tc.DB.ExecContext(tc.Ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, columns)); err != nil {
		return "", fmt.Errorf("failed to create table %s: %w", table, err)
	}
	for _, insert := range inserts {
		if _, err := tc.DB.ExecContext(tc.Ctx, fmt.Sprintf("INSERT INTO %s %s", table, insert)); err != nil {
			return "", fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return table, nil
}

// CountRows returns the number of rows in the given table.
func (tc *TestContext) CountRows(table string) int {
	tc.T.Helper()

	var count int
	if err := tc.DB.QueryRowContext(tc.Ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		tc.T.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}

// CallTool invokes an MCP tool and returns the response
func (tc *TestContext) CallTool(handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	tc.T.Helper()

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}

	res, err := handler(tc.Ctx, req)
	if err != nil {
		tc.T.Fatalf("tool call failed: %v", err)
	}
	if res == nil {
		tc.T.Fatal("tool returned nil response")
	}
	if res.IsError {
		tc.T.Fatalf("tool returned error: %+v", res)
	}

	return res
}

// CallToolExpectError invokes an MCP tool and requires an error result.
// Rejections surface as error results, not Go errors, so the handler
// returning a non-nil error still fails the test.
func (tc *TestContext) CallToolExpectError(handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	tc.T.Helper()

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}

	res, err := handler(tc.Ctx, req)
	if err != nil {
		tc.T.Fatalf("tool call failed: %v", err)
	}
	if res == nil {
		tc.T.Fatal("tool returned nil response")
	}
	if !res.IsError {
		tc.T.Fatalf("expected an error result, got: %+v", res)
	}

	return res
}

// TextContent returns the first text content of a tool response.
func (tc *TestContext) TextContent(res *mcp.CallToolResult) string {
	tc.T.Helper()

	if len(res.Content) == 0 {
		tc.T.Fatal("response has no content")
	}

	textContent, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		tc.T.Fatalf("expected TextContent, got %T", res.Content[0])
	}

	return textContent.Text
}

// ParseJSONResponse parses JSON response into the provided interface
func (tc *TestContext) ParseJSONResponse(res *mcp.CallToolResult, v any) {
	tc.T.Helper()

	text := tc.TextContent(res)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		tc.T.Fatalf("failed to parse JSON response: %v\nraw: %s", err, text)
	}
}

// makeTestID returns a unique test id suitable for tagging resources created by tests.
func makeTestID() string {
	id := fmt.Sprintf("test_%s", uuid.NewString())
	return strings.ReplaceAll(id, "-", "_")
}
