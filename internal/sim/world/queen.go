package world

import (
	"errors"

	"antfarm.ai/internal/sim/tasks"
)

func produceAnts(a *Agent, t *tasks.Task) {
	cfg := a.world.cfg
	if a.Health < cfg.QueenHunger {
		t.Request(tasks.KindFindFood)
		return
	}
	if !a.permille(cfg.QueenSpawnPermille) {
		return
	}
	role := RoleWorker
	if a.permille(cfg.SoldierSpawnPermille) {
		role = RoleSoldier
	}
	col := a.world.colony(a.Colony)
	if col == nil {
		return
	}
	if _, err := col.Spawn(role); err != nil && !errors.Is(err, ErrNestFull) {
		a.world.fault(err)
	}
}

// queenFindFood eats stored food from the nest until the queen is fed.
func queenFindFood(a *Agent, t *tasks.Task) {
	cfg := a.world.cfg
	here := a.here()
	switch {
	case here.HasFood() && here.IsOwnHome(a.Colony):
		a.eat(here.TakeFood(CarryUnit))
	default:
		if rel, ok := a.locateStoredFoodNearby(); ok {
			a.turn(rel)
			a.eat(a.ahead().TakeFood(CarryUnit))
		} else if ahead := a.ahead(); ahead.IsOwnHome(a.Colony) && !a.blocks(ahead) {
			a.move()
		} else {
			a.randomTurn()
		}
	}
	if a.Health >= 2*cfg.QueenHunger {
		t.Request(tasks.KindProduceAnts)
	}
}

func (a *Agent) eat(food float64) {
	if food <= 0 {
		return
	}
	cfg := a.world.cfg
	a.Health = min(a.Health+food*cfg.QueenMealHealth, cfg.AgentHealth)
}
