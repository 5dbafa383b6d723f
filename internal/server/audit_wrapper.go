package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/trnq-eu/mcp-sql/internal/auth"
	"github.com/trnq-eu/mcp-sql/internal/logger"
)

// WithAuditLog wraps a tool handler so every call leaves a start line and
// a completion line in the log. Both lines carry the same generated id,
// and the principal is taken from the request context when HTTP Basic
// Auth is in use. Stdio calls are attributed to "local".
func WithAuditLog(log *logger.Service, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditID := uuid.NewString()
		toolName := request.Params.Name

		principal := "local"
		if user, _, ok := auth.GetBasicAuthCredentials(ctx); ok && user != "" {
			principal = user
		}

		log.Info("Tool call started", "audit_id", auditID, "tool", toolName, "principal", principal)
		start := time.Now()

		result, err := handler(ctx, request)

		elapsed := time.Since(start).Milliseconds()
		switch {
		case err != nil:
			log.Error("Tool call failed", "audit_id", auditID, "tool", toolName, "principal", principal, "elapsed_ms", elapsed, "error", err)
		case result != nil && result.IsError:
			log.Warn("Tool call returned an error result", "audit_id", auditID, "tool", toolName, "principal", principal, "elapsed_ms", elapsed)
		default:
			log.Info("Tool call completed", "audit_id", auditID, "tool", toolName, "principal", principal, "elapsed_ms", elapsed)
		}

		return result, err
	}
}
