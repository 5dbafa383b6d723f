package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/trnq-eu/mcp-sql/internal/analytics"
	"github.com/trnq-eu/mcp-sql/internal/config"
	"github.com/trnq-eu/mcp-sql/internal/database"
	"github.com/trnq-eu/mcp-sql/internal/logger"
)

// mcpEndpointPath is the only path the HTTP transport serves.
const mcpEndpointPath = "/mcp"

// startupTimeout bounds the connectivity check and schema probe that run
// before the stdio transport starts serving.
const startupTimeout = 15 * time.Second

// HTTP server timeouts. Write and idle stay high because streamable HTTP
// responses can be held open while a query runs.
const (
	httpReadTimeout       = 10 * time.Second
	httpWriteTimeout      = 60 * time.Second
	httpIdleTimeout       = 60 * time.Second
	httpReadHeaderTimeout = 5 * time.Second
)

// SQLMCPServer represents the MCP server instance
type SQLMCPServer struct {
	MCPServer        *server.MCPServer
	streamableServer *server.StreamableHTTPServer
	httpServer       *http.Server
	config           *config.Config
	dbService        database.Service
	anService        analytics.Service
	log              *logger.Service
	version          string

	// HTTPServerReady is closed once the HTTP server is fully configured,
	// right before the listener starts accepting connections.
	HTTPServerReady chan struct{}

	initMu      sync.Mutex
	initialized bool
}

// NewSQLMCPServer creates a new MCP server instance
// The config parameter is expected to be already validated
func NewSQLMCPServer(version string, cfg *config.Config, dbService database.Service, anService analytics.Service) *SQLMCPServer {
	s := &SQLMCPServer{
		config:          cfg,
		dbService:       dbService,
		anService:       anService,
		log:             logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr),
		version:         version,
		HTTPServerReady: make(chan struct{}),
	}

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(s.onAfterInitializeHook)
	hooks.AddAfterSetLevel(s.onAfterSetLevelHook)

	s.MCPServer = server.NewMCPServer(
		"mcp-sql",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
		server.WithInstructions("This server provides read-only access to a SQL database. "+
			"Discover what is available with list-tables and describe-table, then run SELECT statements with read-query. "+
			"Use explain-query to inspect an execution plan without running the statement."),
		server.WithHooks(hooks),
	)

	return s
}

// Start starts the MCP server on the configured transport. The call blocks
// until the transport shuts down.
func (s *SQLMCPServer) Start() error {
	s.log.Info("Starting MCP SQL server",
		"version", s.version,
		"engine", s.config.Engine,
		"transport", s.config.TransportMode,
	)
	if s.anService.IsEnabled() {
		s.log.Debug("anonymous usage statistics are enabled")
	}

	switch s.config.TransportMode {
	case config.TransportModeHTTP:
		return s.startHTTP()
	case config.TransportModeStdio:
		return s.startStdio()
	default:
		return fmt.Errorf("unsupported transport mode: %s", s.config.TransportMode)
	}
}

// startStdio brings the server up on stdin/stdout. Connectivity is checked
// before serving so a bad DSN fails at startup instead of on the first
// tool call.
func (s *SQLMCPServer) startStdio() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := s.initializeServer(ctx); err != nil {
		return err
	}

	s.log.Info("Started MCP SQL server. Now listening on stdio...")
	return server.ServeStdio(s.MCPServer)
}

// startHTTP brings the server up on the streamable HTTP transport. No
// database work happens here; initialization is deferred to the first
// client initialize so the listener can come up while the database is
// still starting.
func (s *SQLMCPServer) startHTTP() error {
	addr := fmt.Sprintf("%s:%s", s.config.HTTPHost, s.config.HTTPPort)

	s.streamableServer = server.NewStreamableHTTPServer(
		s.MCPServer,
		server.WithEndpointPath(mcpEndpointPath),
		server.WithStateLess(true),
	)

	mux := http.NewServeMux()
	mux.Handle(mcpEndpointPath, s.streamableServer)

	allowedOrigins := parseAllowedOrigins(s.config.HTTPAllowedOrigins)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           chainMiddleware(s.config, allowedOrigins, mux),
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	scheme := "http"
	if s.config.HTTPTLSEnabled {
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return err
		}
		s.httpServer.TLSConfig = tlsConfig
		scheme = "https"
	}

	s.log.Info("Starting MCP SQL HTTP server", "url", fmt.Sprintf("%s://%s%s", scheme, addr, mcpEndpointPath))
	s.log.Info("Binding to network interface", "host", s.config.HTTPHost)
	if s.config.HTTPUsername == "" {
		s.log.Warn("HTTP Basic Auth is not configured. Anyone who can reach this address can query the database.")
	}
	if len(allowedOrigins) > 0 {
		s.log.Info("CORS origin validation enabled", "allowed_origins", len(allowedOrigins))
	}

	// Signal that the server struct is fully configured. The listener
	// starts immediately after.
	close(s.HTTPServerReady)

	var err error
	if s.config.HTTPTLSEnabled {
		// The certificate pair is already loaded into TLSConfig.
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// buildTLSConfig loads the configured certificate pair and pins the
// minimum protocol version. Cipher suites stay on the Go defaults.
func (s *SQLMCPServer) buildTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.config.HTTPTLSCertFile, s.config.HTTPTLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate and key: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// initializeServer verifies database connectivity, registers the tools and
// the schema resource, and reports the connection. It runs at most once
// per process: during Start in stdio mode, on the first client initialize
// in HTTP mode. A failed attempt is retried on the next initialize.
func (s *SQLMCPServer) initializeServer(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized {
		return nil
	}

	if err := s.dbService.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify database connectivity: %w", err)
	}

	if err := s.RegisterTools(); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}
	s.RegisterResources()

	info := s.collectConnectionInfo(ctx)
	s.log.Info("Connected to database", "engine", info.Engine, "server_version", info.ServerVersion)
	s.anService.EmitEvent(s.anService.NewConnectionInitializedEvent(info.ServerVersion))

	s.initialized = true
	return nil
}

// Stop gracefully stops the server. The database pool is owned and closed
// by the caller.
func (s *SQLMCPServer) Stop(ctx context.Context) error {
	s.log.Info("Stopping MCP SQL server...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
	}
	return nil
}
