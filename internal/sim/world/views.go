package world

import (
	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/tasks"
)

// CellView is a read-only copy of one cell.
type CellView struct {
	X, Y         int
	Obstacle     bool
	Food         float64
	Home         grid.ColonyID
	Occupant     grid.AgentID
	MaxHomeScent float64
	MaxFoodScent float64
}

type AgentView struct {
	ID                grid.AgentID
	Colony            grid.ColonyID
	Role              Role
	Pos               grid.Point
	Dir               int
	Food              float64
	Health            float64
	Task              tasks.Kind
	HomeScentStrength float64
	FoodScentStrength float64
	BornTick          uint64
}

type ColonyView struct {
	ID     grid.ColonyID
	Origin grid.Point
	Size   int
	Agents int
}

func (w *World) Cell(x, y int) CellView {
	c := w.grid.Get(x, y)
	return CellView{
		X:            c.X,
		Y:            c.Y,
		Obstacle:     c.IsObstacle(),
		Food:         c.Food(),
		Home:         c.Home(),
		Occupant:     c.Occupant(),
		MaxHomeScent: c.MaxHomeScent(),
		MaxFoodScent: c.MaxFoodScent(),
	}
}

// Scent reads one colony's scent level on a cell.
func (w *World) Scent(k grid.ScentKind, colony grid.ColonyID, x, y int) float64 {
	return w.grid.Get(x, y).Get(k, colony)
}

// Agents returns the live agents in acting order.
func (w *World) Agents() []AgentView {
	out := make([]AgentView, 0, len(w.order))
	for _, id := range w.order {
		if a := w.agents[id]; a != nil {
			out = append(out, a.view())
		}
	}
	return out
}

func (w *World) Agent(id grid.AgentID) (AgentView, bool) {
	a, ok := w.agents[id]
	if !ok {
		return AgentView{}, false
	}
	return a.view(), true
}

func (w *World) Colonies() []ColonyView {
	out := make([]ColonyView, len(w.colonies))
	for i, c := range w.colonies {
		out[i] = ColonyView{ID: c.ID, Origin: c.Origin, Size: c.Size, Agents: len(c.roster)}
	}
	return out
}

func (a *Agent) view() AgentView {
	return AgentView{
		ID:                a.ID,
		Colony:            a.Colony,
		Role:              a.Role,
		Pos:               a.Pos,
		Dir:               a.Dir,
		Food:              a.Food,
		Health:            a.Health,
		Task:              a.Task(),
		HomeScentStrength: a.HomeScentStrength,
		FoodScentStrength: a.FoodScentStrength,
		BornTick:          a.BornTick,
	}
}

// Nests lists colony footprints. They never change after New, so this is safe
// from any goroutine.
func (w *World) Nests() []ColonyView {
	out := make([]ColonyView, len(w.colonies))
	for i, c := range w.colonies {
		out[i] = ColonyView{ID: c.ID, Origin: c.Origin, Size: c.Size}
	}
	return out
}
