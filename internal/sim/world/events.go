package world

import (
	"antfarm.ai/internal/observerproto"
	"antfarm.ai/internal/sim/grid"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry is everything that happened during one tick.
type TickLogEntry struct {
	Tick   uint64        `json:"tick"`
	Spawns []AgentEvent  `json:"spawns,omitempty"`
	Deaths []AgentEvent  `json:"deaths,omitempty"`
	Edits  []EditRecord  `json:"edits,omitempty"`
	Faults []string      `json:"faults,omitempty"`
	Stats  []ColonyStats `json:"stats,omitempty"`
}

const (
	CauseKilled    = "killed"
	CauseExhausted = "exhausted"
)

type AgentEvent struct {
	AgentID uint64  `json:"agent_id"`
	Colony  int     `json:"colony"`
	Role    string  `json:"role"`
	Pos     [2]int  `json:"pos"`
	Food    float64 `json:"food,omitempty"`
	Cause   string  `json:"cause,omitempty"`
}

type EditRecord struct {
	Op string `json:"op"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	OK bool   `json:"ok"`
}

type ColonyStats struct {
	Colony      int     `json:"colony"`
	Agents      int     `json:"agents"`
	Workers     int     `json:"workers"`
	Soldiers    int     `json:"soldiers"`
	Queens      int     `json:"queens"`
	Raiders     int     `json:"raiders"`
	StoredFood  float64 `json:"stored_food"`
	CarriedFood float64 `json:"carried_food"`
}

// Edit operations accepted by Edits().
const (
	EditPlaceObstacle  = observerproto.OpPlaceObstacle
	EditRemoveObstacle = observerproto.OpRemoveObstacle
)

// EditRequest asks the world loop to change one cell. Resp, if set, should be buffered.
type EditRequest struct {
	Op   string
	X, Y int
	Resp chan EditResult
}

type EditResult struct {
	OK   bool
	Tick uint64
	Err  error
}

func agentEvent(a *Agent, cause string) AgentEvent {
	return AgentEvent{
		AgentID: uint64(a.ID),
		Colony:  int(a.Colony),
		Role:    a.Role.String(),
		Pos:     [2]int{a.Pos.X, a.Pos.Y},
		Food:    a.Food,
		Cause:   cause,
	}
}

func (w *World) colonyStats() []ColonyStats {
	out := make([]ColonyStats, len(w.colonies))
	for i, c := range w.colonies {
		out[i].Colony = int(c.ID)
	}
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil || !a.alive() || int(a.Colony) >= len(out) {
			continue
		}
		s := &out[a.Colony]
		s.Agents++
		s.CarriedFood += a.Food
		switch a.Role {
		case RoleWorker:
			s.Workers++
		case RoleSoldier:
			s.Soldiers++
		case RoleQueen:
			s.Queens++
		case RoleRaider:
			s.Raiders++
		}
	}
	w.grid.Each(func(c *grid.Cell) {
		if h := c.Home(); h != grid.NoColony && int(h) < len(out) {
			out[h].StoredFood += c.Food()
		}
	})
	return out
}
