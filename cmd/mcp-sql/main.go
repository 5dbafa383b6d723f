package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trnq-eu/mcp-sql/internal/analytics"
	"github.com/trnq-eu/mcp-sql/internal/cli"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	"github.com/trnq-eu/mcp-sql/internal/logger"
	"github.com/trnq-eu/mcp-sql/internal/server"
)

// Overridden at build time:
//
//	go build -ldflags "-X main.version=v0.3.0 -X main.telemetryToken=..."
var (
	version           = "dev"
	telemetryToken    = ""
	telemetryEndpoint = "https://api.mixpanel.com"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Handle version/help flags and reject unknown arguments
	cli.HandleArgs(version)

	// get config from environment variables with CLI flag overrides
	cfg, err := config.LoadConfig(parseConfigFlags())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logService := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	anService := newAnalyticsService(cfg)
	anService.EmitEvent(anService.NewStartupEvent(version, string(cfg.Engine), string(cfg.TransportMode)))

	dbService, err := database.NewSQLService(cfg, logService)
	if err != nil {
		log.Fatalf("Failed to create database service: %v", err)
	}

	// Create and configure the MCP server
	mcpServer := server.NewSQLMCPServer(version, cfg, dbService, anService)

	// SIGINT/SIGTERM stop the HTTP listener gracefully. The stdio
	// transport handles both signals itself and returns from Start
	// when the client closes stdin.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mcpServer.Stop(ctx); err != nil {
			logService.Error("Error stopping server", "error", err)
		}
	}()

	// Start the server (this blocks until the server is stopped)
	serveErr := mcpServer.Start()

	// The connection pool is owned here, not by the server
	if err := dbService.Close(); err != nil {
		logService.Error("Error closing database pool", "error", err)
	}

	if serveErr != nil {
		log.Fatalf("Server error: %v", serveErr)
	}
}

// parseConfigFlags defines the value-taking flags cli.HandleArgs skips
// over and collects whatever the user set.
func parseConfigFlags() *config.CLIOverrides {
	engine := flag.String("engine", "", "Database engine: postgres, mysql, sqlite")
	dsn := flag.String("dsn", "", "Driver connection string")
	transport := flag.String("transport", "", "Transport mode: stdio or http")
	readOnly := flag.String("read-only", "", "Enforce the read-only statement allowlist (true/false)")
	telemetry := flag.String("telemetry", "", "Enable or disable telemetry (true/false)")
	maxRows := flag.String("max-rows", "", "Maximum rows returned per query")
	queryTimeout := flag.String("query-timeout", "", "Per-query execution timeout in seconds")
	httpHost := flag.String("http-host", "", "HTTP bind host")
	httpPort := flag.String("http-port", "", "HTTP port")
	allowedOrigins := flag.String("http-allowed-origins", "", "Comma-separated CORS origins")
	tlsEnabled := flag.String("tls-enabled", "", "Enable TLS for the HTTP transport (true/false)")
	tlsCertFile := flag.String("tls-cert-file", "", "TLS certificate file")
	tlsKeyFile := flag.String("tls-key-file", "", "TLS private key file")

	flag.Parse()

	return &config.CLIOverrides{
		Engine:         *engine,
		DSN:            *dsn,
		TransportMode:  *transport,
		ReadOnly:       *readOnly,
		Telemetry:      *telemetry,
		MaxRows:        *maxRows,
		QueryTimeout:   *queryTimeout,
		Host:           *httpHost,
		Port:           *httpPort,
		AllowedOrigins: *allowedOrigins,
		TLSEnabled:     *tlsEnabled,
		TLSCertFile:    *tlsCertFile,
		TLSKeyFile:     *tlsKeyFile,
	}
}

// newAnalyticsService enables telemetry only when the user has not opted
// out and a token was compiled in.
func newAnalyticsService(cfg *config.Config) analytics.Service {
	if !cfg.Telemetry || telemetryToken == "" {
		return analytics.NewDisabled()
	}

	anService, err := analytics.NewMixpanelService(telemetryToken, telemetryEndpoint)
	if err != nil {
		log.Printf("Telemetry disabled: %v", err)
		return analytics.NewDisabled()
	}
	return anService
}
