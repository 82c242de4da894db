package world

import (
	"testing"

	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/tasks"
)

func TestNeighbour_WrapsAtEdges(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 10, 10
	cfg.HomeSize = 2
	cfg.Nests = []grid.Point{{X: 4, Y: 4}, {X: 7, Y: 7}}
	w := newTestWorld(t, cfg)

	a := place(t, w, 0, RoleWorker, 9, 0, 2) // east
	if got := a.neighbour(0); got != (grid.Point{X: 0, Y: 0}) {
		t.Fatalf("east of (9,0): got %+v", got)
	}
	if got := a.neighbour(-2); got != (grid.Point{X: 9, Y: 9}) {
		t.Fatalf("north of (9,0): got %+v", got)
	}
	if got := a.neighbour(-1); got != (grid.Point{X: 0, Y: 9}) {
		t.Fatalf("north-east of (9,0): got %+v", got)
	}
	if got := a.neighbour(4); got != (grid.Point{X: 8, Y: 0}) {
		t.Fatalf("behind (9,0): got %+v", got)
	}
}

func TestMove_BlockedTurnsInstead(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 8, 8, 2)
	if !w.PlaceObstacle(9, 8) {
		t.Fatalf("expected obstacle to be placed")
	}
	if a.move() {
		t.Fatalf("move into rock should fail")
	}
	if a.Pos != (grid.Point{X: 8, Y: 8}) {
		t.Fatalf("agent moved to %+v", a.Pos)
	}
	if a.Dir != 1 && a.Dir != 3 {
		t.Fatalf("expected a one-octant turn from 2, got %d", a.Dir)
	}

	// Another agent blocks the same way.
	b := place(t, w, 0, RoleWorker, 8, 10, 2)
	place(t, w, 1, RoleWorker, 9, 10, 0)
	if b.move() {
		t.Fatalf("move into an occupied cell should fail")
	}
}

func TestMove_EnemyStoredFoodBlocks(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 1, RoleWorker, 6, 3, 6) // west, toward colony 0's nest edge at x=5
	w.grid.AddFood(5, 3, 2)
	if a.move() {
		t.Fatalf("enemy stored food should block")
	}
	w.grid.TakeFood(5, 3, 2)
	a.Dir = 6
	if !a.move() {
		t.Fatalf("empty enemy home should not block")
	}
}

func TestMove_FormsTrail(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 6, 8, 2)
	a.FoodScentStrength = TrailStrength

	for i := 0; i < 3; i++ {
		if !a.move() {
			t.Fatalf("move %d blocked", i)
		}
	}
	if a.Pos != (grid.Point{X: 9, Y: 8}) {
		t.Fatalf("pos: got %+v", a.Pos)
	}
	if c := w.grid.Get(9, 8); c.Occupant() != a.ID {
		t.Fatalf("new cell occupant: got %d", c.Occupant())
	}
	for x := 6; x <= 8; x++ {
		if w.grid.Get(x, 8).HasAgent() {
			t.Fatalf("vacated cell %d,8 still occupied", x)
		}
		if v := w.Scent(grid.ScentFood, 0, x, 8); v <= 0 {
			t.Fatalf("vacated cell %d,8 has no food scent", x)
		}
		for _, y := range []int{7, 9} {
			if v := w.Scent(grid.ScentFood, 0, x+1, y); v <= 0 {
				t.Fatalf("neighbour %d,%d has no food scent", x+1, y)
			}
		}
	}
	if v := w.Scent(grid.ScentFood, 1, 7, 8); v != 0 {
		t.Fatalf("other colony scent: got %v", v)
	}
	if v := w.Scent(grid.ScentHome, 0, 7, 8); v != 0 {
		t.Fatalf("home scent with zero strength: got %v", v)
	}

	before := w.Scent(grid.ScentFood, 0, 6, 8)
	w.grid.DecayAllScent(w.cfg.EvaporationRate)
	want := before - before*w.cfg.EvaporationRate
	if got := w.Scent(grid.ScentFood, 0, 6, 8); !near(got, want) {
		t.Fatalf("decayed scent: got %v want %v", got, want)
	}
}

func TestRankByHomeScent_TieBreakAndThreshold(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0) // north
	g := w.grid
	// cone cells relative to north: 0=(9,8) -1=(8,8) +1=(10,8) -2=(8,9) +2=(10,9)
	g.Get(8, 8).AddHomeScent(0, 5)
	g.Get(10, 8).AddHomeScent(0, 5)
	g.Get(10, 9).AddHomeScent(0, 10)

	rel, ok := a.rankByHomeScent()
	if !ok || rel != -1 {
		t.Fatalf("tie should keep the earlier heading: got rel=%d ok=%v", rel, ok)
	}

	g.Get(9, 8).AddHomeScent(0, 5)
	if rel, ok = a.rankByHomeScent(); !ok || rel != 0 {
		t.Fatalf("ahead wins ties: got rel=%d ok=%v", rel, ok)
	}

	g.Get(9, 8).SetOccupant(999)
	g.Get(8, 8).SetOccupant(998)
	if rel, ok = a.rankByHomeScent(); !ok || rel != 1 {
		t.Fatalf("occupied cells are skipped: got rel=%d ok=%v", rel, ok)
	}

	b := place(t, w, 0, RoleWorker, 15, 5, 0)
	g.Get(15, 4).AddHomeScent(0, 0.2)
	if _, ok := b.rankByHomeScent(); ok {
		t.Fatalf("scent below confidence should not lead")
	}
	if rel, _, ok := b.rankByFoodScent(); ok {
		t.Fatalf("no food scent: got rel=%d", rel)
	}
}

func TestWorker_TakesFoodThenHeadsHome(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0)
	w.grid.AddFood(9, 8, 3)

	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Task() != tasks.KindTakeFood {
		t.Fatalf("expected take food, got %s", a.Task())
	}
	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !near(a.Food, 1) || !near(w.grid.Get(9, 8).Food(), 2) {
		t.Fatalf("food: carried=%v left=%v", a.Food, w.grid.Get(9, 8).Food())
	}
	if a.Dir != 4 {
		t.Fatalf("expected reversed heading 4, got %d", a.Dir)
	}
	if a.Task() != tasks.KindFollowHomeTrail {
		t.Fatalf("expected follow home trail, got %s", a.Task())
	}
	// Set to 40 when leaving take food, then aged once.
	if a.FoodScentStrength != TrailStrength-1 || a.HomeScentStrength != 0 {
		t.Fatalf("strengths: food=%v home=%v", a.FoodScentStrength, a.HomeScentStrength)
	}
	if !near(a.Health, 1-2*PerformCost) {
		t.Fatalf("health: got %v", a.Health)
	}
}

func TestWorker_NeverTakesOwnStoredFood(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 3, 3, 2)
	w.grid.AddFood(4, 3, 5)
	for i := 0; i < 20; i++ {
		if err := a.act(); err != nil {
			t.Fatalf("act: %v", err)
		}
		if a.Food > 0 {
			t.Fatalf("worker picked up stored food at tick %d", i)
		}
	}
}

func TestWorker_DropsFoodInNest(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 3, 3, 0)
	a.Food = 1
	if err := a.tasks.SetActive(tasks.KindDropFood); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	for i := 0; i < 500 && a.Food > 0; i++ {
		if err := a.act(); err != nil {
			t.Fatalf("act: %v", err)
		}
	}
	if a.Food != 0 {
		t.Fatalf("food never dropped")
	}
	if a.Task() != tasks.KindExplore {
		t.Fatalf("expected explore after drop, got %s", a.Task())
	}
	stored := 0.0
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			stored += w.grid.Get(x, y).Food()
		}
	}
	if !near(stored, 1) {
		t.Fatalf("stored food: got %v", stored)
	}
}

func TestQueen_EatsWhenHungry(t *testing.T) {
	w := newTestWorld(t, testConfig())
	q := place(t, w, 0, RoleQueen, 3, 3, 0)
	q.Health = 0.05
	w.grid.AddFood(3, 3, 2)

	if err := q.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if q.Task() != tasks.KindFindFood {
		t.Fatalf("expected find food, got %s", q.Task())
	}
	if err := q.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if want := 0.05 - 2*PerformCost + w.cfg.QueenMealHealth; !near(q.Health, want) {
		t.Fatalf("health: got %v want %v", q.Health, want)
	}
	if !near(w.grid.Get(3, 3).Food(), 1) {
		t.Fatalf("stored food: got %v", w.grid.Get(3, 3).Food())
	}
	if q.Task() != tasks.KindProduceAnts {
		t.Fatalf("expected produce ants once fed, got %s", q.Task())
	}
}

func TestQueen_SpawnsIntoNest(t *testing.T) {
	cfg := testConfig()
	cfg.QueenSpawnPermille = 1000
	w := newTestWorld(t, cfg)
	q := place(t, w, 0, RoleQueen, 3, 3, 0)
	col := w.colonies[0]

	for i := 0; i < 3; i++ {
		if err := q.act(); err != nil {
			t.Fatalf("act: %v", err)
		}
	}
	if n := len(col.Roster()); n != 4 {
		t.Fatalf("roster: got %d want 4", n)
	}
	for _, id := range col.Roster() {
		a := w.agents[id]
		if !col.Contains(a.Pos) {
			t.Fatalf("agent %d spawned outside the nest at %+v", id, a.Pos)
		}
		if a.Role != RoleQueen && a.Role != RoleWorker {
			t.Fatalf("soldier odds are zero, got %s", a.Role)
		}
	}

	// A full nest is not a fault.
	for i := 0; i < 40; i++ {
		_ = q.act()
	}
	if len(col.Roster()) != 16 {
		t.Fatalf("expected a full 4x4 nest, got %d", len(col.Roster()))
	}
	if len(w.faults) != 0 {
		t.Fatalf("unexpected faults: %v", w.faults)
	}
}

func TestRaider_StealsAndEscapes(t *testing.T) {
	w := newTestWorld(t, testConfig())
	r := place(t, w, 1, RoleRaider, 3, 3, 0)
	w.grid.AddFood(4, 3, 2)
	if err := r.tasks.SetActive(tasks.KindRaidNest); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := r.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !near(r.Food, 1) {
		t.Fatalf("loot: got %v", r.Food)
	}
	if r.Dir != 6 {
		t.Fatalf("expected reversed heading 6, got %d", r.Dir)
	}
	if r.Task() != tasks.KindEscape {
		t.Fatalf("expected escape, got %s", r.Task())
	}
	if r.HomeScentStrength != 0 || r.FoodScentStrength != 0 {
		t.Fatalf("raiders lay no trail")
	}
}

func TestRaider_FindsAdjacentNest(t *testing.T) {
	w := newTestWorld(t, testConfig())
	r := place(t, w, 1, RoleRaider, 6, 3, 0)
	if err := r.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !w.grid.At(r.Pos).IsEnemyHome(r.Colony) {
		t.Fatalf("expected to step into the enemy nest, at %+v", r.Pos)
	}
	if err := r.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if r.Task() != tasks.KindRaidNest {
		t.Fatalf("expected raid nest, got %s", r.Task())
	}
}

func TestWorker_ExploreFollowsStrongFoodScent(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0) // north
	w.grid.Get(9, 8).AddFoodScent(0, 5)

	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Pos != (grid.Point{X: 9, Y: 8}) {
		t.Fatalf("expected a step up the trail, at %+v", a.Pos)
	}
	if a.Task() != tasks.KindFollowFoodTrail {
		t.Fatalf("expected follow food trail, got %s", a.Task())
	}

	// Strongest lead in the cone is north-east.
	w.grid.Get(9, 7).AddFoodScent(0, 3)
	w.grid.Get(10, 7).AddFoodScent(0, 6)
	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Pos != (grid.Point{X: 10, Y: 7}) || a.Dir != 1 {
		t.Fatalf("expected 10,7 heading 1, got %+v heading %d", a.Pos, a.Dir)
	}
	if a.Task() != tasks.KindFollowFoodTrail {
		t.Fatalf("expected to stay on the food trail, got %s", a.Task())
	}
}

func TestWorker_ExploreIgnoresWeakFoodScent(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0)
	w.grid.Get(9, 8).AddFoodScent(0, ScentConfidence/2)

	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Task() != tasks.KindExplore {
		t.Fatalf("weak scent should not lead, got %s", a.Task())
	}
}

func TestWorker_FoodTrailTurnsAwayFromRockAndEnemyNest(t *testing.T) {
	w := newTestWorld(t, testConfig())

	a := place(t, w, 0, RoleWorker, 9, 9, 0)
	if !w.PlaceObstacle(9, 8) {
		t.Fatalf("expected obstacle to be placed")
	}
	w.grid.Get(9, 8).AddFoodScent(0, 10)
	if err := a.tasks.SetActive(tasks.KindFollowFoodTrail); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Pos != (grid.Point{X: 9, Y: 9}) || (a.Dir != 1 && a.Dir != 7) {
		t.Fatalf("blocked: expected a turn in place, got %+v heading %d", a.Pos, a.Dir)
	}

	// Colony 1 owns 12..15; the cell east of 11,13 is its nest.
	b := place(t, w, 0, RoleWorker, 11, 13, 2)
	w.grid.Get(12, 13).AddFoodScent(0, 10)
	if err := b.tasks.SetActive(tasks.KindFollowFoodTrail); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := b.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if b.Pos != (grid.Point{X: 11, Y: 13}) || (b.Dir != 1 && b.Dir != 3) {
		t.Fatalf("enemy nest: expected a turn in place, got %+v heading %d", b.Pos, b.Dir)
	}
	if b.Task() != tasks.KindFollowFoodTrail {
		t.Fatalf("expected to stay on the food trail, got %s", b.Task())
	}
}

func TestWorker_HomeTrailFollowsRankedScent(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0)
	a.Food = 1
	if err := a.tasks.SetActive(tasks.KindFollowHomeTrail); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	w.grid.Get(8, 8).AddHomeScent(0, 5)

	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Pos != (grid.Point{X: 8, Y: 8}) || a.Dir != 7 {
		t.Fatalf("expected 8,8 heading 7, got %+v heading %d", a.Pos, a.Dir)
	}

	if !w.PlaceObstacle(7, 7) {
		t.Fatalf("expected obstacle to be placed")
	}
	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Pos != (grid.Point{X: 8, Y: 8}) || (a.Dir != 6 && a.Dir != 0) {
		t.Fatalf("blocked: expected a turn in place, got %+v heading %d", a.Pos, a.Dir)
	}
	if a.Task() != tasks.KindFollowHomeTrail {
		t.Fatalf("expected to stay on the home trail, got %s", a.Task())
	}

	a.Food = 0
	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.Task() != tasks.KindExplore {
		t.Fatalf("empty-handed worker should explore, got %s", a.Task())
	}
}

func TestSoldier_ReturnsHomeAndResumesGuard(t *testing.T) {
	w := newTestWorld(t, testConfig())
	s := place(t, w, 0, RoleSoldier, 7, 3, 6) // west, two cells off the nest
	w.grid.Get(6, 3).AddHomeScent(0, 5)

	if err := s.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if s.Task() != tasks.KindReturnHome {
		t.Fatalf("off the nest: expected return home, got %s", s.Task())
	}

	for i := 0; i < 3; i++ {
		if err := s.act(); err != nil {
			t.Fatalf("act: %v", err)
		}
	}
	if !w.grid.At(s.Pos).IsOwnHome(s.Colony) {
		t.Fatalf("expected to be back in the nest, at %+v", s.Pos)
	}
	if s.Task() != tasks.KindGuardNest {
		t.Fatalf("expected guard nest, got %s", s.Task())
	}

	if err := s.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if s.Task() != tasks.KindGuardNest {
		t.Fatalf("guard in the nest should stay, got %s", s.Task())
	}
}

func TestRaider_EscapeDropsLootAtHome(t *testing.T) {
	w := newTestWorld(t, testConfig())
	r := place(t, w, 1, RoleRaider, 11, 13, 0) // next to its own nest at 12..15
	r.Food = 1
	if err := r.tasks.SetActive(tasks.KindEscape); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	if err := r.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if !w.grid.At(r.Pos).IsOwnHome(r.Colony) {
		t.Fatalf("expected to step into the own nest, at %+v", r.Pos)
	}
	if r.Task() != tasks.KindEscape || !near(r.Food, 1) {
		t.Fatalf("loot dropped early: task=%s food=%v", r.Task(), r.Food)
	}

	if err := r.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if r.Food != 0 || !near(w.grid.At(r.Pos).Food(), 1) {
		t.Fatalf("loot: carried=%v stored=%v", r.Food, w.grid.At(r.Pos).Food())
	}
	if r.Task() != tasks.KindFindNest {
		t.Fatalf("expected find nest, got %s", r.Task())
	}
}

func TestRandomMove_TurnsOneTimeInEight(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0)

	const n = 8000
	turns := 0
	for i := 0; i < n; i++ {
		pos, dir := a.Pos, a.Dir
		if a.randomMove() {
			continue
		}
		turns++
		if a.Pos != pos {
			t.Fatalf("a turn should not move the agent")
		}
		if d := grid.NormDir(a.Dir - dir); d != 1 && d != 7 {
			t.Fatalf("expected a one-octant turn, %d -> %d", dir, a.Dir)
		}
	}
	if turns < n/8-200 || turns > n/8+200 {
		t.Fatalf("turns: got %d of %d, want about %d", turns, n, n/8)
	}
}

func TestPerform_DeadAgentStopsActing(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 9, 9, 0)
	a.Health = PerformCost / 2
	a.FoodScentStrength = TrailStrength
	w.grid.Get(9, 8).AddFoodScent(0, 5)

	if err := a.act(); err != nil {
		t.Fatalf("act: %v", err)
	}
	if a.alive() {
		t.Fatalf("perform cost should have killed the agent")
	}
	if a.Pos != (grid.Point{X: 9, Y: 9}) || a.Task() != tasks.KindExplore {
		t.Fatalf("dead agent kept acting: at %+v task %s", a.Pos, a.Task())
	}
	if v := w.Scent(grid.ScentFood, 0, 9, 9); v != 0 {
		t.Fatalf("dead agent deposited scent: %v", v)
	}

	entry := w.StepOnce(nil)
	if len(entry.Deaths) != 1 || entry.Deaths[0].Cause != CauseExhausted {
		t.Fatalf("deaths: %+v", entry.Deaths)
	}
}

func TestWorker_ExploreRechargesHomeTrailFacingNest(t *testing.T) {
	w := newTestWorld(t, testConfig())
	a := place(t, w, 0, RoleWorker, 6, 3, 6) // west, nest starts at x=5

	for i := 0; i < 2; i++ {
		a.HomeScentStrength = 3
		if err := a.act(); err != nil {
			t.Fatalf("act: %v", err)
		}
		if a.HomeScentStrength != TrailStrength-1 {
			t.Fatalf("step %d: home strength %v, want %v", i, a.HomeScentStrength, TrailStrength-1)
		}
	}
	if a.Pos != (grid.Point{X: 4, Y: 3}) || a.Task() != tasks.KindExplore {
		t.Fatalf("expected to walk into the nest exploring, at %+v task %s", a.Pos, a.Task())
	}
	if w.Scent(grid.ScentHome, 0, 6, 3) <= 0 {
		t.Fatalf("expected home scent on the cell left behind")
	}
}
