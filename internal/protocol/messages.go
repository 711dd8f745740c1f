package protocol

import "encoding/json"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// MaxQueue bounds the server's outgoing queue for this client.
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	WorldID         string   `json:"world_id"`
	TickRateHz      int      `json:"tick_rate_hz"`
	ServerTick      uint64   `json:"server_tick"`
	Requests        []string `json:"requests"`
	MotionTypes     []string `json:"motion_types"`
}

// REQUEST (client -> server): one motion request for one unit. Command holds
// the request fields as written in scenario files.
type RequestMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	ID              string          `json:"id"`
	Command         json.RawMessage `json:"command"`
}

// ACK (server -> client). Accepted means queued for the next tick; the
// motion stack may still reject the request, which shows up as a REJECT
// event on the observer stream.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
