package world

import (
	"errors"
	"fmt"

	"antfarm.ai/internal/sim/grid"
)

var (
	ErrNestFull = errors.New("nest full")
	ErrNoRoom   = errors.New("no room for colony")
)

const spawnAttempts = 16

// Colony owns a square nest footprint and the roster of agents it spawned.
type Colony struct {
	ID     grid.ColonyID
	Origin grid.Point
	Size   int

	roster []grid.AgentID
	world  *World
}

// Contains reports whether p lies inside the footprint, which may wrap.
func (c *Colony) Contains(p grid.Point) bool {
	g := c.world.grid
	dx := mod(p.X-c.Origin.X, g.Width())
	dy := mod(p.Y-c.Origin.Y, g.Height())
	return dx < c.Size && dy < c.Size
}

// MarkHome claims every footprint cell for this colony.
func (c *Colony) MarkHome() {
	g := c.world.grid
	for dy := 0; dy < c.Size; dy++ {
		for dx := 0; dx < c.Size; dx++ {
			x, y := g.Wrap(c.Origin.X+dx, c.Origin.Y+dy)
			g.MakeHome(x, y, c.ID)
		}
	}
}

// SpawnAgents creates counts[r] agents of every role, in Roles order.
func (c *Colony) SpawnAgents(counts map[Role]int) error {
	for _, r := range Roles {
		for i := 0; i < counts[r]; i++ {
			if _, err := c.Spawn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Spawn places one agent of role r on a random free footprint cell.
func (c *Colony) Spawn(r Role) (*Agent, error) {
	if _, ok := roleTasks[r]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRole, r)
	}
	p, ok := c.freeCell()
	if !ok {
		return nil, fmt.Errorf("colony %d: %w", c.ID, ErrNestFull)
	}
	return c.world.spawnAt(c, r, p, c.world.rng.Intn(len(grid.Compass)))
}

func (c *Colony) freeCell() (grid.Point, bool) {
	g := c.world.grid
	rng := c.world.rng
	for i := 0; i < spawnAttempts; i++ {
		x, y := g.Wrap(c.Origin.X+rng.Intn(c.Size), c.Origin.Y+rng.Intn(c.Size))
		if !g.Get(x, y).Blocked() {
			return grid.Point{X: x, Y: y}, true
		}
	}
	for dy := 0; dy < c.Size; dy++ {
		for dx := 0; dx < c.Size; dx++ {
			x, y := g.Wrap(c.Origin.X+dx, c.Origin.Y+dy)
			if !g.Get(x, y).Blocked() {
				return grid.Point{X: x, Y: y}, true
			}
		}
	}
	return grid.Point{}, false
}

// Roster returns the ids of the colony's live agents in spawn order.
func (c *Colony) Roster() []grid.AgentID {
	out := make([]grid.AgentID, len(c.roster))
	copy(out, c.roster)
	return out
}

func (c *Colony) remove(id grid.AgentID) {
	for i, v := range c.roster {
		if v == id {
			c.roster = append(c.roster[:i], c.roster[i+1:]...)
			return
		}
	}
}

// overlaps reports whether two footprints, each grown by margin, intersect on the torus.
func overlaps(a, b grid.Point, size, margin, w, h int) bool {
	span := size + margin
	return axisOverlap(a.X, b.X, span, w) && axisOverlap(a.Y, b.Y, span, h)
}

func axisOverlap(a, b, span, n int) bool {
	d := mod(b-a, n)
	return d < span || n-d < span
}

func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
