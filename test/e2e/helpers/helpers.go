//go:build e2e

package helpers

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	_ "modernc.org/sqlite"
)

// CreateTestDatabase creates a SQLite database file seeded with a small
// fixed dataset and returns its path, usable directly as a DSN.
// The servers under test run read-only against this file, so the fixture
// stays stable across tests and no per-test cleanup is needed.
// Returns a callback to delete the database directory when it is no
// longer needed.
func CreateTestDatabase() (string, func(), error) {
	dir, err := os.MkdirTemp(os.TempDir(), "mcp-sql-e2e-*")
	if err != nil {
		return "", nil, err
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("failed to cleanup database directory: %v", err)
		}
	}

	path := filepath.Join(dir, "e2e.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	defer db.Close()

	statements := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL, total REAL NOT NULL)`,
		`INSERT INTO users (name, email) VALUES ('Alice', 'alice@example.com'), ('Bob', 'bob@example.com'), ('Carol', NULL)`,
		`INSERT INTO orders (user_id, total) VALUES (1, 120.5), (1, 33.0), (2, 54.25)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	log.Printf("Seeded e2e database at: %s", path)

	return path, cleanup, nil
}

func BuildInitializeRequest() mcp.InitializeRequest {
	InitializeRequest := mcp.InitializeRequest{}
	InitializeRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	InitializeRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}
	return InitializeRequest
}
