// Package logger wraps log/slog with the log levels defined by the MCP
// logging capability. Clients can raise or lower the level at runtime
// through the logging/setLevel request. Attributes carrying connection
// secrets are redacted before they reach any handler.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// ValidLogLevels lists the accepted level names, matching the MCP
// specification. Config validation rejects anything else.
var ValidLogLevels = []string{"debug", "info", "notice", "warning", "error", "critical", "alert", "emergency"}

// ValidLogFormats lists the accepted output formats.
var ValidLogFormats = []string{"text", "json"}

// slog has no equivalents for the remaining MCP severities, so they are
// slotted between the standard levels.
const (
	LevelNotice    = slog.Level(2)
	LevelCritical  = slog.Level(10)
	LevelAlert     = slog.Level(12)
	LevelEmergency = slog.Level(16)
)

// Service holds the logger and its dynamic level controller.
type Service struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a logging service writing to writer. format selects the
// handler: "json" for JSON lines, anything else for text.
func New(level, format string, writer io.Writer) *Service {
	levelVar := &slog.LevelVar{}
	levelVar.Set(parseLevel(level))

	opts := &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Service{
		Logger: slog.New(handler),
		level:  levelVar,
	}
}

// SetLevel dynamically changes the logging level.
func (s *Service) SetLevel(level string) {
	s.level.Set(parseLevel(level))
}

// parseLevel converts an MCP level name to a slog.Level. Unknown names
// fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "notice":
		return LevelNotice
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical":
		return LevelCritical
	case "alert":
		return LevelAlert
	case "emergency":
		return LevelEmergency
	default:
		return slog.LevelInfo
	}
}

// sensitiveKeys lists attribute keys whose values never reach a log
// line. DSNs embed credentials, so they are treated as secrets wholesale.
var sensitiveKeys = map[string]bool{
	"dsn":               true,
	"uri":               true,
	"connection_string": true,
	"password":          true,
	"passwd":            true,
	"secret":            true,
	"token":             true,
	"api_key":           true,
	"auth_token":        true,
	"credentials":       true,
	"authorization":     true,
}

// replaceAttr redacts sensitive attribute values and renames the custom
// levels so records show NOTICE instead of INFO+2 and so on.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[REDACTED]")
	}
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	name := ""
	switch level {
	case slog.LevelDebug:
		name = "DEBUG"
	case slog.LevelInfo:
		name = "INFO"
	case LevelNotice:
		name = "NOTICE"
	case slog.LevelWarn:
		name = "WARN"
	case slog.LevelError:
		name = "ERROR"
	case LevelCritical:
		name = "CRITICAL"
	case LevelAlert:
		name = "ALERT"
	case LevelEmergency:
		name = "EMERGENCY"
	}
	if name != "" {
		a.Value = slog.StringValue(name)
	}
	return a
}
