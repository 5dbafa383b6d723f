package analytics

import (
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

const eventNamePrefix = "MCP4SQL"

// baseProperties are the base properties attached to a MixPanel "track" event.
// DistinctID identifies unique installs, for us it tells executions apart.
// InsertID is used by MixPanel to deduplicate messages.
type baseProperties struct {
	Token      string `json:"token"`
	Time       int64  `json:"time"`
	DistinctID string `json:"distinct_id"`
	InsertID   string `json:"$insert_id"`
	Uptime     int64  `json:"uptime"`
}

type startupProperties struct {
	baseProperties
	Version   string `json:"version"`
	Engine    string `json:"engine"`
	Transport string `json:"transport"`
	OS        string `json:"os"`
	OSArch    string `json:"os_arch"`
}

type connectionProperties struct {
	baseProperties
	ServerVersion string `json:"server_version"`
}

type toolsProperties struct {
	baseProperties
	ToolUsed string `json:"tools_used"`
}

type rejectionProperties struct {
	baseProperties
	Verdict string `json:"verdict"`
}

type TrackEvent struct {
	Event      string      `json:"event"`
	Properties interface{} `json:"properties"`
}

// NewStartupEvent reports a server start together with the configured engine
// and transport. No connection details are included.
func (s *MixpanelService) NewStartupEvent(version, engine, transport string) TrackEvent {
	return TrackEvent{
		Event: strings.Join([]string{eventNamePrefix, "MCP_STARTUP"}, "_"),
		Properties: startupProperties{
			baseProperties: s.getBaseProperties(),
			Version:        version,
			Engine:         engine,
			Transport:      transport,
			OS:             runtime.GOOS,
			OSArch:         runtime.GOARCH,
		},
	}
}

// NewConnectionInitializedEvent reports the first successful database probe.
func (s *MixpanelService) NewConnectionInitializedEvent(serverVersion string) TrackEvent {
	return TrackEvent{
		Event: strings.Join([]string{eventNamePrefix, "CONNECTION_INITIALIZED"}, "_"),
		Properties: connectionProperties{
			baseProperties: s.getBaseProperties(),
			ServerVersion:  serverVersion,
		},
	}
}

func (s *MixpanelService) NewToolsEvent(toolUsed string) TrackEvent {
	return TrackEvent{
		Event: strings.Join([]string{eventNamePrefix, "TOOL_USED"}, "_"),
		Properties: toolsProperties{
			baseProperties: s.getBaseProperties(),
			ToolUsed:       toolUsed,
		},
	}
}

// NewQueryRejectedEvent reports a rejected statement by verdict name only.
// The statement text itself is never attached.
func (s *MixpanelService) NewQueryRejectedEvent(verdict string) TrackEvent {
	return TrackEvent{
		Event: strings.Join([]string{eventNamePrefix, "QUERY_REJECTED"}, "_"),
		Properties: rejectionProperties{
			baseProperties: s.getBaseProperties(),
			Verdict:        verdict,
		},
	}
}

func (s *MixpanelService) getBaseProperties() baseProperties {
	uptime := time.Now().Unix() - s.startupTime
	return baseProperties{
		Token:      s.token,
		DistinctID: s.distinctID,
		Time:       time.Now().UnixMilli(),
		InsertID:   newInsertID(),
		Uptime:     uptime,
	}
}

func newInsertID() string {
	insertID, err := uuid.NewV6()
	if err != nil {
		log.Printf("error while generating insert id for analytics purpose: %s", err.Error())
		return ""
	}
	return insertID.String()
}
