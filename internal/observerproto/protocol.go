package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: only stream these units. Empty means all.
	Units []uint64 `json:"units,omitempty"`
	// Events adds the motion stack events of the tick to every TICK.
	Events bool `json:"events,omitempty"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	MotionTypes     []string    `json:"motion_types"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Seed       int64 `json:"seed"`
	Units      int   `json:"units"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Units   []UnitState   `json:"units"`
	Events  []MotionEvent `json:"events,omitempty"`
	Informs []Inform      `json:"informs,omitempty"`
}

type UnitState struct {
	ID          uint64     `json:"id"`
	Entry       uint32     `json:"entry,omitempty"`
	Kind        string     `json:"kind"`
	Name        string     `json:"name,omitempty"`
	Alive       bool       `json:"alive"`
	Pos         [3]float32 `json:"pos"`
	Orientation float32    `json:"orientation"`

	// Stack lists motion types from the floor to the active one.
	Stack  []string    `json:"stack"`
	Moving bool        `json:"moving"`
	Dest   *[3]float32 `json:"dest,omitempty"`
}

type MotionEvent struct {
	Unit  uint64 `json:"unit"`
	Op    string `json:"op"`
	Type  string `json:"type"`
	Depth int    `json:"depth"`
}

type Inform struct {
	Unit uint64 `json:"unit"`
	Type string `json:"type"`
	ID   uint32 `json:"id"`
}
