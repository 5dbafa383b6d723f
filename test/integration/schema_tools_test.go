//go:build integration

package integration

import (
	"slices"
	"strings"
	"testing"

	"github.com/trnq-eu/mcp-sql/internal/database"
	sqltools "github.com/trnq-eu/mcp-sql/internal/tools/sql"
	"github.com/trnq-eu/mcp-sql/test/integration/helpers"
)

func TestListTables(t *testing.T) {
	t.Parallel()

	tc := helpers.NewTestContext(t, dbs.GetConfig(), dbs.GetDB())

	orders, err := tc.SeedTable("orders", "id SERIAL PRIMARY KEY, total INT")
	if err != nil {
		t.Fatalf("failed to seed data: %v", err)
	}
	invoices, err := tc.SeedTable("invoices", "id SERIAL PRIMARY KEY, total INT")
	if err != nil {
		t.Fatalf("failed to seed data: %v", err)
	}

	list := sqltools.ListTablesHandler(tc.Deps)
	res := tc.CallTool(list, map[string]any{})

	var wrapper struct {
		Summary   string   `json:"summary"`
		Data      []string `json:"data"`
		NextSteps []string `json:"next_steps"`
	}
	tc.ParseJSONResponse(res, &wrapper)

	if wrapper.Summary == "" {
		t.Error("expected a non-empty summary")
	}
	if len(wrapper.NextSteps) == 0 {
		t.Error("expected next steps to guide the model")
	}
	if !slices.Contains(wrapper.Data, orders) {
		t.Errorf("expected table listing to contain %s, got %v", orders, wrapper.Data)
	}
	if !slices.Contains(wrapper.Data, invoices) {
		t.Errorf("expected table listing to contain %s, got %v", invoices, wrapper.Data)
	}
}

func TestDescribeTable(t *testing.T) {
	t.Parallel()

	tc := helpers.NewTestContext(t, dbs.GetConfig(), dbs.GetDB())

	table, err := tc.SeedTable("products", "id SERIAL PRIMARY KEY, name TEXT NOT NULL, price DOUBLE PRECISION")
	if err != nil {
		t.Fatalf("failed to seed data: %v", err)
	}

	describe := sqltools.DescribeTableHandler(tc.Deps)
	res := tc.CallTool(describe, map[string]any{"table": table})

	var wrapper struct {
		Summary   string               `json:"summary"`
		Data      database.QueryResult `json:"data"`
		NextSteps []string             `json:"next_steps"`
	}
	tc.ParseJSONResponse(res, &wrapper)

	if wrapper.Data.RowCount != 3 {
		t.Fatalf("expected one row per column (3), got %d", wrapper.Data.RowCount)
	}

	names := make([]string, 0, len(wrapper.Data.Rows))
	for _, row := range wrapper.Data.Rows {
		name, _ := row["column_name"].(string)
		names = append(names, name)
	}
	for _, want := range []string{"id", "name", "price"} {
		if !slices.Contains(names, want) {
			t.Errorf("expected described columns to contain %q, got %v", want, names)
		}
	}
}

func TestDescribeTableRequiresName(t *testing.T) {
	t.Parallel()

	tc := helpers.NewTestContext(t, dbs.GetConfig(), dbs.GetDB())

	describe := sqltools.DescribeTableHandler(tc.Deps)
	res := tc.CallToolExpectError(describe, map[string]any{"table": "  "})

	msg := tc.TextContent(res)
	if !strings.Contains(msg, "table parameter is required") {
		t.Errorf("expected the missing-table message, got %q", msg)
	}
}

func TestSchemaOverview(t *testing.T) {
	t.Parallel()

	tc := helpers.NewTestContext(t, dbs.GetConfig(), dbs.GetDB())

	table, err := tc.SeedTable("shipments", "id SERIAL PRIMARY KEY, status TEXT")
	if err != nil {
		t.Fatalf("failed to seed data: %v", err)
	}

	overview, err := tc.Service.SchemaOverview(tc.Ctx)
	if err != nil {
		t.Fatalf("failed to render schema overview: %v", err)
	}

	if !strings.Contains(overview, "Tables in the current database") {
		t.Errorf("expected the overview header, got %q", overview)
	}
	if !strings.Contains(overview, table) {
		t.Errorf("expected the overview to mention %s", table)
	}
	if !strings.Contains(overview, "describe-table") {
		t.Errorf("expected the overview to point at the describe-table tool, got %q", overview)
	}
}
