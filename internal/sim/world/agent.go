package world

import (
	"math/rand"

	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/tasks"
)

const (
	// TrailStrength is the scent strength an agent recharges to at a source.
	TrailStrength = 40.0
	// PerformCost is the health every task perform costs.
	PerformCost = 0.001
	// AttackDamage is the health a soldier strips from each adjacent enemy per tick.
	AttackDamage = 0.01
	// ScentConfidence is the weakest trail lead worth following.
	ScentConfidence = 0.3
	// CarryUnit is the most food taken in one bite.
	CarryUnit = 1.0

	wanderTurnOdds = 8
	dropOdds       = 10
)

// Relative headings scanned for scent, in tie-break order.
var cone = [5]int{0, -1, 1, -2, 2}

// Relative headings of the 8 surrounding cells.
var around = [8]int{0, 1, 2, 3, 4, 5, 6, 7}

// Agent is one ant. The world owns it by id; cells only hold the id.
type Agent struct {
	ID     grid.AgentID
	Colony grid.ColonyID
	Role   Role

	Pos    grid.Point
	Dir    int
	Food   float64
	Health float64

	HomeScentStrength float64
	FoodScentStrength float64

	BornTick uint64

	tasks    *tasks.Manager
	world    *World
	attacked bool
}

func (a *Agent) alive() bool { return a.Health > 0 }

func (a *Agent) Task() tasks.Kind { return a.tasks.Active() }

func (a *Agent) rng() *rand.Rand { return a.world.rng }

func (a *Agent) chance(oneIn int) bool { return a.rng().Intn(oneIn) == 0 }

func (a *Agent) permille(p int) bool { return a.rng().Intn(1000) < p }

// neighbour combines the heading with a relative offset (0 ahead, 4 behind).
func (a *Agent) neighbour(rel int) grid.Point { return a.world.grid.Step(a.Pos, a.Dir+rel) }

func (a *Agent) cellAt(rel int) *grid.Cell { return a.world.grid.At(a.neighbour(rel)) }

func (a *Agent) ahead() *grid.Cell { return a.cellAt(0) }

func (a *Agent) here() *grid.Cell { return a.world.grid.At(a.Pos) }

func (a *Agent) turn(n int) { a.Dir = grid.NormDir(a.Dir + n) }

func (a *Agent) randomTurn() {
	if a.rng().Intn(2) == 0 {
		a.turn(-1)
	} else {
		a.turn(1)
	}
}

func (a *Agent) reduceHealth(amt float64) { a.Health -= amt }

// blocks reports whether c stops this agent: rock, another agent, or food
// stored in an enemy nest.
func (a *Agent) blocks(c *grid.Cell) bool {
	return c.Blocked() || (c.HasFood() && c.IsEnemyHome(a.Colony))
}

// move steps one cell ahead, or turns by one octant when the way is blocked.
func (a *Agent) move() bool {
	next := a.neighbour(0)
	g := a.world.grid
	nc := g.At(next)
	if a.blocks(nc) {
		a.randomTurn()
		return false
	}
	prev := a.here()
	prev.ClearOccupant(a.ID)
	if !prev.IsObstacle() {
		a.deposit(prev)
	}
	a.Pos = next
	g.Neighbours(next, func(_ int, c *grid.Cell) { a.deposit(c) })
	nc.SetOccupant(a.ID)
	return true
}

// randomMove wanders: one time in eight it turns instead of stepping.
func (a *Agent) randomMove() bool {
	if a.chance(wanderTurnOdds) {
		a.randomTurn()
		return false
	}
	return a.move()
}

func (a *Agent) deposit(c *grid.Cell) {
	if a.HomeScentStrength > 0 {
		c.AddHomeScent(a.Colony, a.HomeScentStrength)
	}
	if a.FoodScentStrength > 0 {
		c.AddFoodScent(a.Colony, a.FoodScentStrength)
	}
}

func (a *Agent) decayScentStrength() {
	a.HomeScentStrength = max(a.HomeScentStrength-1, 0)
	a.FoodScentStrength = max(a.FoodScentStrength-1, 0)
}

// rankBy scans the cone and returns the heading with the strongest
// distance-discounted scent. Ties keep the earliest scanned heading.
func (a *Agent) rankBy(scent func(c *grid.Cell) float64, threshold float64) (rel int, strength float64, ok bool) {
	for _, r := range cone {
		c := a.cellAt(r)
		if c.Blocked() {
			continue
		}
		v := scent(c)
		if r == 2 || r == -2 {
			v /= 2
		}
		if v > strength {
			rel, strength, ok = r, v, true
		}
	}
	if !ok || strength < threshold {
		return 0, 0, false
	}
	return rel, strength, true
}

func (a *Agent) rankByHomeScent() (int, bool) {
	rel, _, ok := a.rankBy(func(c *grid.Cell) float64 { return c.HomeScent(a.Colony) }, ScentConfidence)
	return rel, ok
}

func (a *Agent) rankByFoodScent() (int, float64, bool) {
	return a.rankBy(func(c *grid.Cell) float64 { return c.FoodScent(a.Colony) }, 0)
}

func (a *Agent) rankByEnemyHomeScent() (int, bool) {
	rel, _, ok := a.rankBy(func(c *grid.Cell) float64 { return c.MaxExcept(grid.ScentHome, a.Colony) }, ScentConfidence)
	return rel, ok
}

// locate returns a uniformly random heading among those whose cell matches.
func (a *Agent) locate(rels []int, match func(c *grid.Cell) bool) (int, bool) {
	var cand [8]int
	n := 0
	for _, r := range rels {
		if match(a.cellAt(r)) {
			cand[n] = r
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return cand[a.rng().Intn(n)], true
}

// locateFoodNearby finds food lying outside every nest.
func (a *Agent) locateFoodNearby() (int, bool) {
	return a.locate(around[:], func(c *grid.Cell) bool { return c.HasFood() && !c.IsHome() })
}

func (a *Agent) locateHomeNearby() (int, bool) {
	return a.locate(around[:], func(c *grid.Cell) bool { return c.IsOwnHome(a.Colony) })
}

func (a *Agent) locateHomeScentNearby() (int, bool) {
	return a.locate(cone[:], func(c *grid.Cell) bool { return c.HomeScent(a.Colony) > 0 })
}

func (a *Agent) locateEnemyHomeNearby() (int, bool) {
	return a.locate(around[:], func(c *grid.Cell) bool { return c.IsEnemyHome(a.Colony) })
}

func (a *Agent) locateEnemyFoodNearby() (int, bool) {
	return a.locate(around[:], func(c *grid.Cell) bool { return c.HasFood() && c.IsEnemyHome(a.Colony) })
}

func (a *Agent) locateStoredFoodNearby() (int, bool) {
	return a.locate(around[:], func(c *grid.Cell) bool { return c.HasFood() && c.IsOwnHome(a.Colony) })
}

// act runs one decision and ages the deposit strengths.
func (a *Agent) act() error {
	err := a.tasks.MakeDecision(a)
	a.decayScentStrength()
	return err
}

func (a *Agent) StartTask(t *tasks.Task) {
	if b := behaviors[t.Kind]; b.start != nil {
		b.start(a)
	}
}

func (a *Agent) PerformTask(t *tasks.Task) {
	a.reduceHealth(PerformCost)
	if !a.alive() {
		return
	}
	if b := behaviors[t.Kind]; b.perform != nil {
		b.perform(a, t)
	}
}

func (a *Agent) EndTask(t *tasks.Task) {
	if b := behaviors[t.Kind]; b.end != nil {
		b.end(a)
	}
}
