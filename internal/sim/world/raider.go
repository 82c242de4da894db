package world

import "antfarm.ai/internal/sim/tasks"

func findNest(a *Agent, t *tasks.Task) {
	if a.here().IsEnemyHome(a.Colony) {
		t.Request(tasks.KindRaidNest)
		return
	}
	if rel, ok := a.locateEnemyHomeNearby(); ok {
		a.turn(rel)
		a.move()
		return
	}
	if rel, ok := a.rankByEnemyHomeScent(); ok {
		a.turn(rel)
		a.move()
		return
	}
	a.randomMove()
}

func raidNest(a *Agent, t *tasks.Task) {
	if !a.here().IsEnemyHome(a.Colony) {
		t.Request(tasks.KindFindNest)
		return
	}
	if rel, ok := a.locateEnemyFoodNearby(); ok {
		a.turn(rel)
		if got := a.ahead().TakeFood(CarryUnit); got > 0 {
			a.Food += got
			a.turn(4)
			t.Request(tasks.KindEscape)
		}
		return
	}
	if ahead := a.ahead(); ahead.IsEnemyHome(a.Colony) && !a.blocks(ahead) {
		a.move()
		return
	}
	a.randomTurn()
}

// escape flees enemy ground, then carries the loot back to the own nest.
func escape(a *Agent, t *tasks.Task) {
	if a.here().IsEnemyHome(a.Colony) {
		a.move()
		return
	}
	if _, ok := a.locateEnemyHomeNearby(); ok {
		a.move()
		return
	}
	if a.Food <= 0 {
		t.Request(tasks.KindFindNest)
		return
	}
	if here := a.here(); here.IsOwnHome(a.Colony) {
		here.AddFood(a.Food)
		a.Food = 0
		t.Request(tasks.KindFindNest)
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
