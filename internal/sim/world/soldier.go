package world

import (
	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/tasks"
)

// attackAdjacent wounds every enemy agent on the 8 surrounding cells.
func (a *Agent) attackAdjacent() int {
	hits := 0
	a.world.grid.Neighbours(a.Pos, func(_ int, c *grid.Cell) {
		if !c.HasAgent() {
			return
		}
		other := a.world.agents[c.Occupant()]
		if other == nil || other.Colony == a.Colony || !other.alive() {
			return
		}
		other.reduceHealth(AttackDamage)
		other.attacked = true
		hits++
	})
	return hits
}

func guardNest(a *Agent, t *tasks.Task) {
	a.attackAdjacent()

	if !a.here().IsOwnHome(a.Colony) {
		if _, ok := a.locateHomeNearby(); !ok {
			t.Request(tasks.KindReturnHome)
			return
		}
	}
	if ahead := a.ahead(); ahead.IsOwnHome(a.Colony) && !a.blocks(ahead) {
		a.move()
		return
	}
	a.randomTurn()
}

func returnHome(a *Agent, t *tasks.Task) {
	if a.here().IsOwnHome(a.Colony) {
		t.Request(tasks.KindGuardNest)
		return
	}
	if rel, ok := a.locateHomeNearby(); ok {
		a.turn(rel)
		a.move()
		return
	}
	if rel, ok := a.rankByHomeScent(); ok {
		a.turn(rel)
		a.move()
		return
	}
	a.randomMove()
}
