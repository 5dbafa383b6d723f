package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// onAfterSetLevelHook is called after the SetLevel method is executed. It updates the server's logger level.
func (s *SQLMCPServer) onAfterSetLevelHook(_ context.Context, _ any, message *mcp.SetLevelRequest, _ *mcp.EmptyResult) {
	newLevel := string(message.Params.Level)
	s.log.SetLevel(newLevel)
	s.log.Info("Log level updated by client", "new_level", newLevel)
}

// onAfterInitializeHook finishes server initialization when a client
// completes the MCP handshake. In HTTP mode no database work happens
// during Start, so connectivity verification and tool registration are
// deferred to the first initialize.
func (s *SQLMCPServer) onAfterInitializeHook(ctx context.Context, _ any, _ *mcp.InitializeRequest, _ *mcp.InitializeResult) {
	if err := s.initializeServer(ctx); err != nil {
		// The HTTP transport serves many clients. One client finding the
		// database unreachable must not take the listener down.
		s.log.Error("Deferred server initialization failed", "error", err)
	}
}
