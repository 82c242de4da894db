package world

import (
	"fmt"

	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/tuning"
)

type Config struct {
	ID         string
	Seed       int64
	TickRateHz int

	Width    int
	Height   int
	CellSize int

	EvaporationRate float64

	NumberOfColonies int
	HomeSize         int
	AgentsPerRole    map[Role]int
	// Nests pins colony origins instead of placing them at random.
	Nests []grid.Point

	NumberOfFoodSources int
	FoodSourceRadius    int
	FoodPerCell         float64
	ObstacleDensity     float64

	// Zero selects the default; a negative value disables the behavior.
	AgentHealth          float64
	QueenHunger          float64
	QueenMealHealth      float64
	QueenSpawnPermille   int
	SoldierSpawnPermille int

	StatsEveryTicks int
}

// ConfigFromTuning maps the yaml tuning onto a world config.
func ConfigFromTuning(t tuning.Tuning) (Config, error) {
	roles := make(map[Role]int, len(t.AgentsPerRole))
	for name, n := range t.AgentsPerRole {
		r, err := ParseRole(name)
		if err != nil {
			return Config{}, fmt.Errorf("agents_per_role: %w", err)
		}
		roles[r] += n
	}
	return Config{
		ID:                   "FARM",
		Seed:                 t.Seed,
		TickRateHz:           t.TickRateHz,
		Width:                t.Width,
		Height:               t.Height,
		CellSize:             t.CellSize,
		EvaporationRate:      t.EvaporationRate,
		NumberOfColonies:     t.NumberOfColonies,
		HomeSize:             t.HomeSize,
		AgentsPerRole:        roles,
		NumberOfFoodSources:  t.NumberOfFoodSources,
		FoodSourceRadius:     t.FoodSourceRadius,
		FoodPerCell:          t.FoodPerCell,
		ObstacleDensity:      t.ObstacleDensity,
		AgentHealth:          t.AgentHealth,
		QueenHunger:          disabledIfZero(t.QueenHunger),
		QueenMealHealth:      t.QueenMealHealth,
		QueenSpawnPermille:   disabledIfZero(t.QueenSpawnPermille),
		SoldierSpawnPermille: disabledIfZero(t.SoldierSpawnPermille),
		StatsEveryTicks:      t.StatsEveryTicks,
	}, nil
}

// disabledIfZero keeps an explicit tuning zero from picking up the default.
func disabledIfZero[T int | float64](v T) T {
	if v == 0 {
		return -1
	}
	return v
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "FARM"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 30
	}
	if c.CellSize <= 0 {
		c.CellSize = 10
	}
	if c.AgentHealth <= 0 {
		c.AgentHealth = 1.0
	}
	if c.QueenMealHealth <= 0 {
		c.QueenMealHealth = 0.2
	}
	d := tuning.Defaults()
	if c.QueenHunger == 0 {
		c.QueenHunger = d.QueenHunger
	}
	if c.QueenSpawnPermille == 0 {
		c.QueenSpawnPermille = d.QueenSpawnPermille
	}
	if c.SoldierSpawnPermille == 0 {
		c.SoldierSpawnPermille = d.SoldierSpawnPermille
	}
	if c.StatsEveryTicks <= 0 {
		c.StatsEveryTicks = 10
	}
	if len(c.Nests) > c.NumberOfColonies {
		c.NumberOfColonies = len(c.Nests)
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid size must be > 0 (got %dx%d)", c.Width, c.Height)
	}
	if c.NumberOfColonies < 0 || c.NumberOfColonies > tuning.MaxColonies {
		return fmt.Errorf("number of colonies must be within [0,%d] (got %d)", tuning.MaxColonies, c.NumberOfColonies)
	}
	if c.NumberOfColonies > 0 && (c.HomeSize <= 0 || c.HomeSize > c.Width || c.HomeSize > c.Height) {
		return fmt.Errorf("home size %d does not fit a %dx%d grid", c.HomeSize, c.Width, c.Height)
	}
	if c.EvaporationRate < 0 || c.EvaporationRate > 1 {
		return fmt.Errorf("evaporation rate must be within [0,1] (got %v)", c.EvaporationRate)
	}
	for r, n := range c.AgentsPerRole {
		if _, ok := roleTasks[r]; !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedRole, r)
		}
		if n < 0 {
			return fmt.Errorf("agents per role %s must be >= 0", r)
		}
	}
	return nil
}
