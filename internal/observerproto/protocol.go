package observerproto

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeSubscribe  = "SUBSCRIBE"
	TypeFrame      = "FRAME"
	TypeEdit       = "EDIT"
	TypeEditResult = "EDIT_RESULT"
)

// Edit operations a client may request.
const (
	OpPlaceObstacle  = "PLACE_OBSTACLE"
	OpRemoveObstacle = "REMOVE_OBSTACLE"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Send one frame every N ticks (default 1).
	EveryTicks int `json:"every_ticks,omitempty"`
	// Include scent-only cells and scent levels.
	Scent bool `json:"scent,omitempty"`
}

// Client -> Server. Obstacle editing; answered with EditResultMsg.
type EditMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Op              string `json:"op"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
}

type EditResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Op              string `json:"op"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
	OK              bool   `json:"ok"`
	Tick            uint64 `json:"tick"`
	Error           string `json:"error,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	WorldID         string       `json:"world_id"`
	Tick            uint64       `json:"tick"`
	WorldParams     WorldParams  `json:"world_params"`
	Colonies        []ColonyInfo `json:"colonies"`
}

type WorldParams struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	CellSize        int     `json:"cell_size"`
	TickRateHz      int     `json:"tick_rate_hz"`
	EvaporationRate float64 `json:"evaporation_rate"`
	HomeSize        int     `json:"home_size"`
}

type ColonyInfo struct {
	ID     int    `json:"id"`
	Origin [2]int `json:"origin"`
	Size   int    `json:"size"`
}

// Server -> Client. Read-only snapshot of the grid after a tick.
type FrameMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Agents          []AgentState `json:"agents"`
	Cells           []CellState  `json:"cells"`
}

type AgentState struct {
	ID     uint64  `json:"id"`
	Colony int     `json:"colony"`
	Role   string  `json:"role"`
	Pos    [2]int  `json:"pos"`
	Dir    int     `json:"dir"`
	Food   float64 `json:"food"`
	Health float64 `json:"health"`
	Task   string  `json:"task"`
}

// CellState lists only cells with something on them. Home is -1 outside nests.
type CellState struct {
	Pos       [2]int  `json:"pos"`
	Home      int     `json:"home"`
	Obstacle  bool    `json:"obstacle,omitempty"`
	Food      float64 `json:"food,omitempty"`
	HomeScent float64 `json:"home_scent,omitempty"`
	FoodScent float64 `json:"food_scent,omitempty"`
}
