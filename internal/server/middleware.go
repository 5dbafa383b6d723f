package server

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/trnq-eu/mcp-sql/internal/auth"
	"github.com/trnq-eu/mcp-sql/internal/config"
)

// corsMaxAgeSeconds is how long browsers may cache a preflight response.
const corsMaxAgeSeconds = "86400"

// mcpRequest is the minimal structure needed to extract the method from
// a JSON-RPC request body.
type mcpRequest struct {
	Method string `json:"method"`
}

// mcpMethodsRequiringAuth lists the MCP methods that reach the database
// and therefore need credentials when Basic Auth is configured. Protocol
// negotiation methods stay open so clients can complete the handshake
// before authenticating.
var mcpMethodsRequiringAuth = []string{"tools/call", "resources/read"}

// chainMiddleware wraps next with the standard HTTP middleware chain.
// Requests pass through path validation first, then CORS, then basic
// auth, then request logging.
func chainMiddleware(cfg *config.Config, allowedOrigins []string, next http.Handler) http.Handler {
	handler := next
	handler = loggingMiddleware()(handler)
	handler = basicAuthMiddleware(cfg)(handler)
	handler = corsMiddleware(allowedOrigins)(handler)
	handler = pathValidationMiddleware()(handler)
	return handler
}

// isAuthRequiredForMethod checks if the given MCP method requires authentication
func isAuthRequiredForMethod(method string) bool {
	return slices.Contains(mcpMethodsRequiringAuth, method)
}

// extractMCPMethod reads the JSON-RPC method from the request body and
// restores the body so downstream handlers can read it again. A body
// that is empty or not JSON yields an empty method without error; GET
// requests for SSE streams land here.
func extractMCPMethod(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) == 0 {
		return "", nil
	}

	var req mcpRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", nil
	}
	return req.Method, nil
}

// basicAuthMiddleware enforces HTTP Basic Auth on database-accessing MCP
// methods. When no credentials are configured the middleware is a
// pass-through. Accepted credentials are stored in the request context
// so tool calls can be attributed in the audit log.
func basicAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.HTTPUsername == "" && cfg.HTTPPassword == "" {
				next.ServeHTTP(w, r)
				return
			}

			method, err := extractMCPMethod(r)
			if err != nil {
				// Unreadable body. Require auth as the safe default.
				slog.Warn("Failed to extract MCP method from request", "error", err)
				writeUnauthorized(w)
				return
			}

			user, pass, hasCredentials := r.BasicAuth()
			validCredentials := hasCredentials && credentialsMatch(cfg, user, pass)

			if isAuthRequiredForMethod(method) && !validCredentials {
				slog.Debug("Rejected request without valid credentials", "method", method, "remote_addr", r.RemoteAddr)
				writeUnauthorized(w)
				return
			}

			if validCredentials {
				r = r.WithContext(auth.WithBasicAuth(r.Context(), user, pass))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credentialsMatch compares the presented pair against the configured one
// in constant time.
func credentialsMatch(cfg *config.Config, user, pass string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.HTTPUsername)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.HTTPPassword)) == 1
	return userMatch && passMatch
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="MCP SQL Server"`)
	http.Error(w, "Unauthorized: Basic authentication required", http.StatusUnauthorized)
}

// corsMiddleware handles CORS headers for browser-based clients. With no
// configured origins the middleware does nothing.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowedOrigins) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			// Allow-Origin is only echoed for a matching origin; the other
			// headers are static.
			origin := r.Header.Get("Origin")
			if origin != "" {
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						w.Header().Set("Access-Control-Allow-Origin", allowed)
						break
					}
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", corsMaxAgeSeconds)

			// Preflight requests are answered without reaching the MCP handler.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// pathValidationMiddleware rejects requests to any path other than the
// MCP endpoint.
func pathValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != mcpEndpointPath {
				slog.Debug("Rejected request to unknown path", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "Not Found: This server only handles requests to "+mcpEndpointPath, http.StatusNotFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs incoming HTTP requests at debug level.
func loggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Debug("Incoming HTTP request",
				"method", r.Method,
				"url", r.URL.String(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"content_length", r.ContentLength,
				"host", r.Host,
				"query", r.URL.RawQuery,
			)
			next.ServeHTTP(w, r)
		})
	}
}

// parseAllowedOrigins splits the comma-separated origin list from the
// configuration. An empty list disables CORS handling.
func parseAllowedOrigins(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return nil
	}
	return origins
}
