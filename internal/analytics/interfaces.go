package analytics

import (
	"io"
	"net/http"
)

//go:generate mockgen -destination=mocks/mock_analytics.go -package=analytics_mocks -typed github.com/trnq-eu/mcp-sql/internal/analytics Service,HTTPClient

// Service
type Service interface {
	Disable()
	EmitEvent(event TrackEvent)
	Enable()
	IsEnabled() bool
	NewConnectionInitializedEvent(serverVersion string) TrackEvent
	NewQueryRejectedEvent(verdict string) TrackEvent
	NewStartupEvent(version, engine, transport string) TrackEvent
	NewToolsEvent(toolUsed string) TrackEvent
}

// dummy http client interface for our testing purpose
type HTTPClient interface {
	Post(url, contentType string, body io.Reader) (*http.Response, error)
}
