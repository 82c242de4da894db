package world

import "antfarm.ai/internal/sim/tasks"

// behavior binds the lifecycle hooks of one task kind. Nil hooks are no-ops.
type behavior struct {
	start   func(a *Agent)
	perform func(a *Agent, t *tasks.Task)
	end     func(a *Agent)
}

var behaviors map[tasks.Kind]behavior

// Bound in init: queen hooks reach back into spawning, which reads this table.
func init() {
	behaviors = map[tasks.Kind]behavior{
		tasks.KindExplore:         {perform: explore},
		tasks.KindTakeFood:        {perform: takeFood, end: endTakeFood},
		tasks.KindDropFood:        {start: startDropFood, perform: dropFood},
		tasks.KindFollowFoodTrail: {perform: followFoodTrail},
		tasks.KindFollowHomeTrail: {perform: followHomeTrail},

		tasks.KindGuardNest:  {perform: guardNest},
		tasks.KindReturnHome: {perform: returnHome},

		tasks.KindProduceAnts: {perform: produceAnts},
		tasks.KindFindFood:    {perform: queenFindFood},

		tasks.KindFindNest: {start: silence, perform: findNest},
		tasks.KindRaidNest: {perform: raidNest},
		tasks.KindEscape:   {perform: escape},
	}
}

func silence(a *Agent) {
	a.HomeScentStrength = 0
	a.FoodScentStrength = 0
}

func explore(a *Agent, t *tasks.Task) {
	if a.Food > 0 {
		if rel, ok := a.locateHomeNearby(); ok {
			a.turn(rel)
			t.Request(tasks.KindDropFood)
			return
		}
		if rel, ok := a.locateHomeScentNearby(); ok {
			a.turn(rel)
			t.Request(tasks.KindFollowHomeTrail)
			return
		}
		a.randomMove()
		return
	}

	if rel, ok := a.locateFoodNearby(); ok {
		a.turn(rel)
		t.Request(tasks.KindTakeFood)
		return
	}
	if a.ahead().IsOwnHome(a.Colony) {
		// Recharged on every tick the nest lies ahead, so the outgoing trail
		// starts at full strength from the last home cell seen.
		a.HomeScentStrength = TrailStrength
		a.move()
		return
	}
	if rel, strength, ok := a.rankByFoodScent(); ok && strength >= ScentConfidence {
		a.turn(rel)
		a.move()
		t.Request(tasks.KindFollowFoodTrail)
		return
	}
	a.randomMove()
}

func takeFood(a *Agent, t *tasks.Task) {
	ahead := a.ahead()
	var got float64
	if !ahead.IsHome() {
		got = ahead.TakeFood(CarryUnit)
	}
	if got > 0 {
		a.Food += got
		a.turn(4)
		t.Request(tasks.KindFollowHomeTrail)
		return
	}
	t.Request(tasks.KindExplore)
}

func endTakeFood(a *Agent) {
	a.FoodScentStrength = TrailStrength
	a.HomeScentStrength = 0
}

func startDropFood(a *Agent) {
	a.FoodScentStrength = 0
	a.HomeScentStrength = TrailStrength
}

func dropFood(a *Agent, t *tasks.Task) {
	if a.Food <= 0 {
		t.Request(tasks.KindExplore)
		return
	}
	rel, ok := a.locateHomeNearby()
	if !ok && !a.here().IsOwnHome(a.Colony) {
		t.Request(tasks.KindFollowHomeTrail)
		return
	}
	if ok {
		a.turn(rel)
		a.move()
	}
	if here := a.here(); here.IsOwnHome(a.Colony) && a.chance(dropOdds) {
		here.AddFood(a.Food)
		a.Food = 0
		t.Request(tasks.KindExplore)
	}
}

func followFoodTrail(a *Agent, t *tasks.Task) {
	if a.Food > 0 {
		t.Request(tasks.KindFollowHomeTrail)
		return
	}
	if rel, ok := a.locateFoodNearby(); ok {
		a.turn(rel)
		t.Request(tasks.KindTakeFood)
		return
	}
	if ahead := a.ahead(); a.blocks(ahead) || ahead.IsEnemyHome(a.Colony) {
		a.randomTurn()
		return
	}
	if rel, _, ok := a.rankByFoodScent(); ok {
		a.turn(rel)
		a.move()
		return
	}
	a.randomMove()
}

func followHomeTrail(a *Agent, t *tasks.Task) {
	if a.Food <= 0 {
		t.Request(tasks.KindExplore)
		return
	}
	if rel, ok := a.locateHomeNearby(); ok {
		a.turn(rel)
		t.Request(tasks.KindDropFood)
		return
	}
	if ahead := a.ahead(); a.blocks(ahead) || ahead.IsEnemyHome(a.Colony) {
		a.randomTurn()
		return
	}
	if rel, ok := a.rankByHomeScent(); ok {
		a.turn(rel)
		a.move()
		return
	}
	a.randomMove()
}
