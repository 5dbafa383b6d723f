package analytics

// Package analytics abstracts usage reporting for the repository.
// Currently implemented for MixPanel.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MixpanelService sends anonymous usage events to a MixPanel-compatible
// ingestion endpoint. It implements Service.
type MixpanelService struct {
	token       string
	endpoint    string
	distinctID  string
	startupTime int64
	client      HTTPClient
	enabled     bool
}

var _ Service = (*MixpanelService)(nil)

// NewMixpanelService creates an enabled analytics service.
func NewMixpanelService(token, endpoint string) (*MixpanelService, error) {
	return NewMixpanelServiceWithClient(token, endpoint, http.DefaultClient)
}

// NewMixpanelServiceWithClient creates an enabled analytics service with an
// injected HTTP client. Used by tests.
func NewMixpanelServiceWithClient(token, endpoint string, client HTTPClient) (*MixpanelService, error) {
	distinctID, err := uuid.NewV6()
	if err != nil {
		return nil, fmt.Errorf("error while generating distinct id for analytics purpose: %s", err.Error())
	}
	return &MixpanelService{
		token:       token,
		endpoint:    endpoint,
		distinctID:  distinctID.String(),
		startupTime: time.Now().Unix(),
		client:      client,
		enabled:     true,
	}, nil
}

// NewDisabled returns a service that builds events but never sends them.
// It is used when telemetry is opted out or no token is configured.
func NewDisabled() *MixpanelService {
	return &MixpanelService{startupTime: time.Now().Unix()}
}

func (s *MixpanelService) Enable() {
	s.enabled = true
}

func (s *MixpanelService) Disable() {
	s.enabled = false
}

func (s *MixpanelService) IsEnabled() bool {
	return s.enabled
}

// EmitEvent sends a single track event. Failures are logged and swallowed,
// analytics must never interfere with serving requests.
func (s *MixpanelService) EmitEvent(event TrackEvent) {
	if !s.enabled {
		return
	}

	trackEvents := []TrackEvent{
		event,
	}

	if err := s.sendTrackEvents(trackEvents); err != nil {
		log.Printf("analytics error: %s", err.Error())
	}
}

// Eventually we can use the mixpanel SDK
func (s *MixpanelService) sendTrackEvents(events []TrackEvent) error {
	b, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("error appear while marshalling track event: %w", err)
	}
	url := strings.TrimRight(s.endpoint, "/") + "/track"

	resp, err := s.client.Post(url, "application/json; charset=utf-8", bytes.NewBuffer(b))
	if err != nil {
		return fmt.Errorf("error while emitting analytics event: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	return nil
}
