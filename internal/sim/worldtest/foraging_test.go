package worldtest

import (
	"testing"

	"antfarm.ai/internal/sim/grid"
	world "antfarm.ai/internal/sim/world"
)

func TestForaging_WorkersStockTheNest(t *testing.T) {
	h := NewHarness(t, world.Config{
		Seed:                7,
		Width:               24,
		Height:              24,
		EvaporationRate:     0.05,
		NumberOfColonies:    1,
		HomeSize:            4,
		Nests:               []grid.Point{{X: 10, Y: 10}},
		AgentsPerRole:       map[world.Role]int{world.RoleWorker: 10},
		NumberOfFoodSources: 6,
		FoodSourceRadius:    3,
		FoodPerCell:         10,
		AgentHealth:         5,
		StatsEveryTicks:     10,
	})
	if h.W.Terrain().FoodCells == 0 {
		t.Fatalf("no food scattered")
	}

	h.StepN(3000)

	if got := h.MaxStoredFood(0); got <= 0 {
		t.Fatalf("no food reached the nest in 3000 ticks")
	}
	if f := h.Faults(); len(f) != 0 {
		t.Fatalf("unexpected faults: %v", f)
	}
	if n := len(h.W.Agents()); n != 10 {
		t.Fatalf("agents: got %d want 10", n)
	}
}

func TestForaging_FoodIsConserved(t *testing.T) {
	h := NewHarness(t, world.Config{
		Seed:                11,
		Width:               24,
		Height:              24,
		EvaporationRate:     0.05,
		NumberOfColonies:    1,
		HomeSize:            4,
		Nests:               []grid.Point{{X: 10, Y: 10}},
		AgentsPerRole:       map[world.Role]int{world.RoleWorker: 10},
		NumberOfFoodSources: 3,
		FoodSourceRadius:    2,
		FoodPerCell:         5,
		AgentHealth:         1,
		StatsEveryTicks:     1,
	})
	total := func() float64 {
		sum := 0.0
		for y := 0; y < h.W.Height(); y++ {
			for x := 0; x < h.W.Width(); x++ {
				sum += h.W.Cell(x, y).Food
			}
		}
		for _, a := range h.W.Agents() {
			sum += a.Food
		}
		return sum
	}
	want := total()
	if want <= 0 {
		t.Fatalf("no food scattered")
	}
	for i := 0; i < 500; i++ {
		h.Step()
		if got := total(); got < want-1e-6 || got > want+1e-6 {
			t.Fatalf("tick %d: food total %.6f, want %.6f", i, got, want)
		}
	}
}
