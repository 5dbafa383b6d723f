//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	analytics "github.com/trnq-eu/mcp-sql/internal/analytics/mocks"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	"github.com/trnq-eu/mcp-sql/internal/logger"
	"github.com/trnq-eu/mcp-sql/internal/server"
	"go.uber.org/mock/gomock"
)

// startHTTPServer starts a real HTTP MCP server on a random port and returns the server,
// its base URL, and a channel that receives any error from Start().
// The caller is responsible for stopping the server via t.Cleanup or directly.
func startHTTPServer(t *testing.T) (*server.SQLMCPServer, string, chan error) {
	t.Helper()

	testCFG := dbs.GetConfig()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	cfg := &config.Config{
		Engine:              testCFG.Engine,
		DSN:                 testCFG.DSN,
		ReadOnly:            true,
		MaxRows:             testCFG.MaxRows,
		QueryTimeoutSeconds: testCFG.QueryTimeoutSeconds,
		MaxQueryBytes:       testCFG.MaxQueryBytes,
		PoolMaxConns:        testCFG.PoolMaxConns,
		LogLevel:            "debug",
		LogFormat:           "text",
		TransportMode:       config.TransportModeHTTP,
		HTTPHost:            "127.0.0.1",
		HTTPPort:            strconv.Itoa(port),
	}

	ctrl := gomock.NewController(t)

	dbService, err := database.NewSQLService(cfg, logger.New("debug", "text", io.Discard))
	if err != nil {
		t.Fatalf("failed to create database service: %v", err)
	}
	t.Cleanup(func() {
		if err := dbService.Close(); err != nil {
			t.Errorf("failed to close database service: %v", err)
		}
	})

	analyticsService := analytics.NewMockService(ctrl)
	analyticsService.EXPECT().EmitEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().NewStartupEvent(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	analyticsService.EXPECT().IsEnabled().AnyTimes().Return(true)
	analyticsService.EXPECT().NewConnectionInitializedEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().NewToolsEvent(gomock.Any()).AnyTimes()
	analyticsService.EXPECT().NewQueryRejectedEvent(gomock.Any()).AnyTimes()

	s := server.NewSQLMCPServer("test-version", cfg, dbService, analyticsService)
	if s == nil {
		t.Fatal("NewSQLMCPServer() returned nil")
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errChan <- err
		}
	}()

	// Wait for the server to signal readiness, then give it a moment to bind.
	// HTTPServerReady closes before ListenAndServe() is called.
	for range s.HTTPServerReady { //nolint:all
	}
	time.Sleep(100 * time.Millisecond)

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Stop(stopCtx); err != nil {
			t.Errorf("Stop() returned unexpected error: %v", err)
		}
		select {
		case startErr := <-errChan:
			t.Errorf("Start() returned unexpected error: %v", startErr)
		default:
		}
	})

	return s, baseURL, errChan
}

func TestHTTPMethodRestrictions(t *testing.T) {
	t.Parallel()

	_, baseURL, _ := startHTTPServer(t)

	t.Run("GET /mcp returns 405 with Allow header", func(t *testing.T) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/mcp", nil)
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 Method Not Allowed, got %d", resp.StatusCode)
		}
		if allow := resp.Header.Get("Allow"); allow != "POST, OPTIONS" {
			t.Errorf("expected Allow: POST, OPTIONS, got %q", allow)
		}
	})
}
