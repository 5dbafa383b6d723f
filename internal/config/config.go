package config

import (
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/trnq-eu/mcp-sql/internal/logger"
)

type TransportMode string

type Engine string

const (
	TransportModeStdio TransportMode = "stdio"
	TransportModeHTTP  TransportMode = "http"

	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineSQLite   Engine = "sqlite"

	// DefaultMaxRows caps how many rows a single query may return.
	DefaultMaxRows = 10000
	// DefaultQueryTimeoutSeconds bounds the execution time of one query.
	DefaultQueryTimeoutSeconds = 30
	// DefaultMaxQueryBytes bounds the raw length of an incoming query.
	DefaultMaxQueryBytes = 64 * 1024
	// DefaultPoolMaxConns is the connection pool size.
	DefaultPoolMaxConns = 5
)

// ValidTransportModes defines the allowed transport mode values
var ValidTransportModes = []TransportMode{TransportModeStdio, TransportModeHTTP}

// ValidEngines defines the supported database engines
var ValidEngines = []Engine{EnginePostgres, EngineMySQL, EngineSQLite}

// Config holds the application configuration
type Config struct {
	Engine              Engine // Database engine ("postgres", "mysql", "sqlite")
	DSN                 string // Driver connection string, never logged
	ReadOnly            bool   // If false, disables the read-only keyword allowlist
	Telemetry           bool   // If false, disables telemetry
	MaxRows             int    // Row cap per query result
	QueryTimeoutSeconds int    // Per-query execution timeout
	MaxQueryBytes       int    // Raw query length cap in bytes
	PoolMaxConns        int    // Connection pool size
	LogLevel            string
	LogFormat           string
	TransportMode       TransportMode // MCP transport mode (e.g., "stdio", "http")
	HTTPPort            string        // HTTP server port (default: "443" with TLS, "80" without TLS)
	HTTPHost            string        // HTTP server host (default: "127.0.0.1")
	HTTPAllowedOrigins  string        // Comma-separated list of allowed CORS origins (optional, "*" for all)
	HTTPUsername        string        // Expected Basic Auth username for HTTP mode (optional)
	HTTPPassword        string        // Expected Basic Auth password for HTTP mode (optional)
	HTTPTLSEnabled      bool          // If true, enables TLS/HTTPS for HTTP server (default: false)
	HTTPTLSCertFile     string        // Path to TLS certificate file (required if HTTPTLSEnabled is true)
	HTTPTLSKeyFile      string        // Path to TLS private key file (required if HTTPTLSEnabled is true)
}

// QueryTimeout returns the per-query timeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is required but was nil")
	}

	if c.Engine == "" {
		return fmt.Errorf("database engine is required but was empty (set MCP_SQL_ENGINE)")
	}
	if !slices.Contains(ValidEngines, c.Engine) {
		return fmt.Errorf("invalid engine '%s', must be one of %v", c.Engine, ValidEngines)
	}
	if c.DSN == "" {
		return fmt.Errorf("database connection string is required but was empty (set MCP_SQL_DSN)")
	}

	// Default to stdio if not provided (maintains backward compatibility with tests constructing Config directly)
	if c.TransportMode == "" {
		c.TransportMode = TransportModeStdio
	}
	if !slices.Contains(ValidTransportModes, c.TransportMode) {
		return fmt.Errorf("invalid transport mode '%s', must be one of %v", c.TransportMode, ValidTransportModes)
	}

	if c.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive, got %d", c.MaxRows)
	}
	if c.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("query timeout must be positive, got %d", c.QueryTimeoutSeconds)
	}
	if c.MaxQueryBytes <= 0 {
		return fmt.Errorf("max query bytes must be positive, got %d", c.MaxQueryBytes)
	}

	// Basic Auth only applies to HTTP transport, and a username without a
	// password (or the reverse) is always a misconfiguration.
	if (c.HTTPUsername == "") != (c.HTTPPassword == "") {
		return fmt.Errorf("HTTP Basic Auth requires both MCP_SQL_HTTP_USERNAME and MCP_SQL_HTTP_PASSWORD")
	}

	// For HTTP mode with TLS enabled, require certificate and key files
	if c.TransportMode == TransportModeHTTP && c.HTTPTLSEnabled {
		if c.HTTPTLSCertFile == "" {
			return fmt.Errorf("TLS certificate file is required when TLS is enabled (set MCP_SQL_HTTP_TLS_CERT_FILE)")
		}
		if c.HTTPTLSKeyFile == "" {
			return fmt.Errorf("TLS key file is required when TLS is enabled (set MCP_SQL_HTTP_TLS_KEY_FILE)")
		}

		// Load the pair up front so a bad certificate fails with a clear
		// message instead of surfacing at first request.
		if _, err := tls.LoadX509KeyPair(c.HTTPTLSCertFile, c.HTTPTLSKeyFile); err != nil {
			return fmt.Errorf("failed to load TLS certificate and key: %w", err)
		}
	}

	return nil
}

// CLIOverrides holds optional configuration values from CLI flags
type CLIOverrides struct {
	Engine         string
	DSN            string
	ReadOnly       string
	Telemetry      string
	MaxRows        string
	QueryTimeout   string
	TransportMode  string
	Port           string
	Host           string
	AllowedOrigins string
	TLSEnabled     string
	TLSCertFile    string
	TLSKeyFile     string
}

// LoadConfig loads configuration from environment variables, applies CLI overrides, and validates.
// CLI flag values take precedence over environment variables.
// Returns an error if required configuration is missing or invalid.
func LoadConfig(cliOverrides *CLIOverrides) (*Config, error) {
	logLevel := GetEnvWithDefault("MCP_SQL_LOG_LEVEL", "info")
	logFormat := GetEnvWithDefault("MCP_SQL_LOG_FORMAT", "text")

	// Validate log level and use default if invalid
	if !slices.Contains(logger.ValidLogLevels, logLevel) {
		fmt.Fprintf(os.Stderr, "Warning: invalid MCP_SQL_LOG_LEVEL '%s', using default 'info'. Valid values: %v\n", logLevel, logger.ValidLogLevels)
		logLevel = "info"
	}

	// Validate log format and use default if invalid
	if !slices.Contains(logger.ValidLogFormats, logFormat) {
		fmt.Fprintf(os.Stderr, "Warning: invalid MCP_SQL_LOG_FORMAT '%s', using default 'text'. Valid values: %v\n", logFormat, logger.ValidLogFormats)
		logFormat = "text"
	}

	cfg := &Config{
		Engine:              Engine(GetEnv("MCP_SQL_ENGINE")),
		DSN:                 GetEnv("MCP_SQL_DSN"),
		ReadOnly:            ParseBool(GetEnv("MCP_SQL_READ_ONLY"), true),
		Telemetry:           ParseBool(GetEnv("MCP_SQL_TELEMETRY"), true),
		MaxRows:             ParseInt(GetEnv("MCP_SQL_MAX_ROWS"), DefaultMaxRows),
		QueryTimeoutSeconds: ParseInt(GetEnv("MCP_SQL_QUERY_TIMEOUT"), DefaultQueryTimeoutSeconds),
		MaxQueryBytes:       ParseInt(GetEnv("MCP_SQL_MAX_QUERY_BYTES"), DefaultMaxQueryBytes),
		PoolMaxConns:        ParseInt(GetEnv("MCP_SQL_POOL_MAX_CONNS"), DefaultPoolMaxConns),
		LogLevel:            logLevel,
		LogFormat:           logFormat,
		TransportMode:       GetTransportModeWithDefault("MCP_SQL_TRANSPORT", TransportModeStdio),
		HTTPPort:            GetEnv("MCP_SQL_HTTP_PORT"), // Default set after TLS determination
		HTTPHost:            GetEnvWithDefault("MCP_SQL_HTTP_HOST", "127.0.0.1"),
		HTTPAllowedOrigins:  GetEnv("MCP_SQL_HTTP_ALLOWED_ORIGINS"),
		HTTPUsername:        GetEnv("MCP_SQL_HTTP_USERNAME"),
		HTTPPassword:        GetEnv("MCP_SQL_HTTP_PASSWORD"),
		HTTPTLSEnabled:      ParseBool(GetEnv("MCP_SQL_HTTP_TLS_ENABLED"), false),
		HTTPTLSCertFile:     GetEnv("MCP_SQL_HTTP_TLS_CERT_FILE"),
		HTTPTLSKeyFile:      GetEnv("MCP_SQL_HTTP_TLS_KEY_FILE"),
	}

	// Apply CLI overrides if provided
	if cliOverrides != nil {
		if cliOverrides.Engine != "" {
			cfg.Engine = Engine(cliOverrides.Engine)
		}
		if cliOverrides.DSN != "" {
			cfg.DSN = cliOverrides.DSN
		}
		if cliOverrides.ReadOnly != "" {
			cfg.ReadOnly = ParseBool(cliOverrides.ReadOnly, true)
		}
		if cliOverrides.Telemetry != "" {
			cfg.Telemetry = ParseBool(cliOverrides.Telemetry, true)
		}
		if cliOverrides.MaxRows != "" {
			cfg.MaxRows = ParseInt(cliOverrides.MaxRows, DefaultMaxRows)
		}
		if cliOverrides.QueryTimeout != "" {
			cfg.QueryTimeoutSeconds = ParseInt(cliOverrides.QueryTimeout, DefaultQueryTimeoutSeconds)
		}
		if cliOverrides.TransportMode != "" {
			cfg.TransportMode = TransportMode(cliOverrides.TransportMode)
		}
		if cliOverrides.Port != "" {
			cfg.HTTPPort = cliOverrides.Port
		}
		if cliOverrides.Host != "" {
			cfg.HTTPHost = cliOverrides.Host
		}
		if cliOverrides.AllowedOrigins != "" {
			cfg.HTTPAllowedOrigins = cliOverrides.AllowedOrigins
		}
		if cliOverrides.TLSEnabled != "" {
			cfg.HTTPTLSEnabled = ParseBool(cliOverrides.TLSEnabled, false)
		}
		if cliOverrides.TLSCertFile != "" {
			cfg.HTTPTLSCertFile = cliOverrides.TLSCertFile
		}
		if cliOverrides.TLSKeyFile != "" {
			cfg.HTTPTLSKeyFile = cliOverrides.TLSKeyFile
		}
	}

	// Set default HTTP port based on TLS configuration if not explicitly provided
	// Default to 443 for HTTPS, 80 for HTTP
	if cfg.HTTPPort == "" {
		if cfg.HTTPTLSEnabled {
			cfg.HTTPPort = "443"
		} else {
			cfg.HTTPPort = "80"
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetEnv returns the value of an environment variable or empty string if not set
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvWithDefault returns the value of an environment variable or a default value
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetTransportModeWithDefault returns the value of an environment variable or a default value
func GetTransportModeWithDefault(key string, defaultValue TransportMode) TransportMode {
	if value := os.Getenv(key); value != "" {
		return TransportMode(value)
	}
	return defaultValue
}

// ParseBool parses a string to bool using strconv.ParseBool.
// Returns the default value if the string is empty or invalid.
// Logs a warning if the value is non-empty but invalid.
// Accepts: "1", "t", "T", "true", "True", "TRUE" for true
//
//	"0", "f", "F", "false", "False", "FALSE" for false
func ParseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: Invalid boolean value %q, using default: %v", value, defaultValue)
		return defaultValue
	}
	return parsed
}

// ParseInt parses a string to int.
// Returns the default value if the string is empty or invalid.
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: Invalid integer value %q, using default: %v", value, defaultValue)
		return defaultValue
	}
	return parsed
}
