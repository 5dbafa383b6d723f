//go:build integration

// Package containerrunner manages the shared Postgres container used by
// the integration test suite. The container is started once per test
// binary and terminated when the suite finishes.
package containerrunner

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/trnq-eu/mcp-sql/internal/config"
)

var (
	container testcontainers.Container
	dsn       string
	once      sync.Once
)

// Start initializes the shared Postgres container for integration tests
func Start(ctx context.Context) {
	once.Do(func() {
		startOnce(ctx)
	})
}

func startOnce(ctx context.Context) {
	ctr, containerDSN, err := createPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("failed to start shared postgres container: %v", err)
	}
	container = ctr
	dsn = containerDSN

	if err := waitForConnectivity(ctx, ctr, dsn); err != nil {
		_ = ctr.Terminate(ctx)
		log.Fatalf("failed to verify connectivity: %v", err)
	}
}

// Close cleans up shared resources used in integration tests
func Close(ctx context.Context) {
	if container == nil {
		return
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("Warning: failed to terminate container: %v", err)
	}
}

// GetDSN returns the connection string of the shared container.
func GetDSN() string {
	if dsn == "" {
		log.Fatal("GetDSN called before Start: the shared postgres container is not running")
	}
	return dsn
}

// createPostgresContainer starts a Postgres container for testing
func createPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	user := config.GetEnvWithDefault("POSTGRES_USER", "mcp")
	password := config.GetEnvWithDefault("POSTGRES_PASSWORD", "password")
	dbName := config.GetEnvWithDefault("POSTGRES_DB", "mcp_sql_test")

	req := testcontainers.ContainerRequest{
		Image:        config.GetEnvWithDefault("POSTGRES_IMAGE", "postgres:16-alpine"),
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(119 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, "", err
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, "", err
	}

	containerDSN := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)

	return ctr, containerDSN, nil
}

// waitForConnectivity waits for Postgres connectivity with exponential backoff.
func waitForConnectivity(ctx context.Context, ctr testcontainers.Container, dsn string) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()

	backoff := 100 * time.Millisecond
	maxBackoff := 2 * time.Second

	var lastErr error
	for {
		if err := db.PingContext(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			break
		}

		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	var logs string
	if ctr != nil {
		rc, err := ctr.Logs(context.Background())
		if err == nil && rc != nil {
			b, rerr := io.ReadAll(rc)
			_ = rc.Close()
			if rerr == nil {
				logs = string(b)
			}
		}
	}

	if logs != "" {
		return fmt.Errorf("postgres connectivity not ready: %v\ncontainer logs:\n%s", lastErr, logs)
	}
	return fmt.Errorf("postgres connectivity not ready: %v", lastErr)
}
