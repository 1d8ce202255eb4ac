// Package protocol defines the wire shapes the sim server exposes: the JSON
// action envelope, observer frames, and the stable error-code registry.
package protocol

import "encoding/json"

// Version is the wire protocol version. Bump on breaking frame changes.
const Version = "1.0"

const (
	TypeAction  = "ACTION"
	TypeResult  = "RESULT"
	TypeReport  = "REPORT"
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeState   = "STATE"
)

// HelloMsg is the first frame a client must send on the websocket.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WelcomeMsg acknowledges the handshake and describes the running game.
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Game            string `json:"game"`
	Day             int    `json:"day"`
	Seeded          bool   `json:"seeded"`
}

// ActionMsg is one gameplay command posted to /v1/action or over the
// websocket. Params are action-specific and decoded by the engine facade.
type ActionMsg struct {
	Type   string          `json:"type"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ResultMsg mirrors the engine's action result. Code is empty on success and
// one of the E_* constants on rejection.
type ResultMsg struct {
	Type    string          `json:"type"`
	Op      string          `json:"op"`
	OK      bool            `json:"ok"`
	Code    string          `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
	Tone    string          `json:"tone,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ReportMsg wraps a daily report pushed to observers after each boundary.
type ReportMsg struct {
	Type   string          `json:"type"`
	Day    int             `json:"day"`
	Report json.RawMessage `json:"report"`
}

// StateMsg is the compact headline frame pushed to observers on every
// simulated minute. Full state stays behind /v1/state.
type StateMsg struct {
	Type    string  `json:"type"`
	Day     int     `json:"day"`
	Weekday int     `json:"weekday"`
	Minute  int     `json:"minute"`
	Speed   int     `json:"speed"`
	Phase   string  `json:"phase"`
	Gold    float64 `json:"gold"`
	Rep     float64 `json:"reputation"`
	Guests  int     `json:"guests"`
}

// DecodeBase pulls just the frame type so a reader can dispatch without
// decoding the whole message twice.
func DecodeBase(raw []byte) (string, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return "", err
	}
	return base.Type, nil
}
