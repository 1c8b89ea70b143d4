package gateway

import "encoding/json"

// Frame types exchanged with the gateway.
const (
	FrameReady             = "READY"
	FrameTenantCreate      = "TENANT_CREATE"
	FrameTenantDelete      = "TENANT_DELETE"
	FrameVoiceState        = "VOICE_STATE"
	FrameMessageCreate     = "MESSAGE_CREATE"
	FrameInteractionCreate = "INTERACTION_CREATE"
	FrameVoiceJoin         = "VOICE_JOIN"
)

// Close codes the gateway uses to reject a session.
const (
	CloseAuthenticationFailed = 4004
	CloseRateLimited          = 4029
)

type frame struct {
	Type string          `json:"t"`
	Data json.RawMessage `json:"d,omitempty"`
}

type readyPayload struct {
	SessionID uint64   `json:"session_id"`
	Name      string   `json:"name"`
	Tenants   []uint64 `json:"tenants"`
}

type tenantPayload struct {
	Tenant uint64 `json:"tenant"`
}

type voiceStatePayload struct {
	Tenant      uint64 `json:"tenant"`
	Channel     uint64 `json:"channel"`
	Participant uint64 `json:"participant"`
	Self        bool   `json:"self"`
}

type messagePayload struct {
	ID      uint64 `json:"id"`
	Tenant  uint64 `json:"tenant"`
	Channel uint64 `json:"channel"`
	Author  uint64 `json:"author"`
	Bot     bool   `json:"bot"`
	Content string `json:"content"`
}

type interactionPayload struct {
	ID                     uint64            `json:"id"`
	Tenant                 uint64            `json:"tenant"`
	Channel                uint64            `json:"channel"`
	Author                 uint64            `json:"author"`
	Kind                   string            `json:"kind"`
	Name                   string            `json:"name"`
	Options                map[string]string `json:"options,omitempty"`
	OnlyAmongConnected     bool              `json:"only_among_connected,omitempty"`
	RequireExistingSession bool              `json:"require_existing_session,omitempty"`
}

type voiceJoinPayload struct {
	Tenant  uint64 `json:"tenant"`
	Channel uint64 `json:"channel"`
}

func encodeFrame(frameType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Type: frameType, Data: data})
}
