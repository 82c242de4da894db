package world

import (
	"math"
	"testing"

	"antfarm.ai/internal/sim/grid"
)

// testConfig is a quiet 20x20 world: two pinned nests, no food, no rock, no agents.
func testConfig() Config {
	return Config{
		Seed:                 42,
		TickRateHz:           5,
		Width:                20,
		Height:               20,
		EvaporationRate:      0.1,
		NumberOfColonies:     2,
		HomeSize:             4,
		Nests:                []grid.Point{{X: 2, Y: 2}, {X: 12, Y: 12}},
		AgentHealth:          1,
		QueenHunger:          0.1,
		QueenMealHealth:      0.2,
		QueenSpawnPermille:   -1,
		SoldierSpawnPermille: -1,
	}
}

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func place(t *testing.T, w *World, colony int, r Role, x, y, dir int) *Agent {
	t.Helper()
	a, err := w.spawnAt(w.colonies[colony], r, grid.Point{X: x, Y: y}, dir)
	if err != nil {
		t.Fatalf("spawnAt: %v", err)
	}
	return a
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
