package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxColonies bounds the per-cell scent arrays.
const MaxColonies = 16

type Tuning struct {
	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`

	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	CellSize int `yaml:"cell_size"`

	EvaporationRate float64 `yaml:"evaporation_rate"`

	NumberOfColonies int            `yaml:"number_of_colonies"`
	HomeSize         int            `yaml:"home_size"`
	AgentsPerRole    map[string]int `yaml:"agents_per_role"`

	NumberOfFoodSources int     `yaml:"number_of_food_sources"`
	FoodSourceRadius    int     `yaml:"food_source_radius"`
	FoodPerCell         float64 `yaml:"food_per_cell"`
	ObstacleDensity     float64 `yaml:"obstacle_density"`

	AgentHealth          float64 `yaml:"agent_health"`
	QueenHunger          float64 `yaml:"queen_hunger"`
	QueenMealHealth      float64 `yaml:"queen_meal_health"`
	QueenSpawnPermille   int     `yaml:"queen_spawn_permille"`
	SoldierSpawnPermille int     `yaml:"soldier_spawn_permille"`

	StatsEveryTicks int `yaml:"stats_every_ticks"`
}

// Roles accepted as keys of agents_per_role.
var Roles = []string{"worker", "soldier", "queen", "enemy"}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:       30,
		Width:            80,
		Height:           60,
		CellSize:         10,
		EvaporationRate:  0.1,
		NumberOfColonies: 2,
		HomeSize:         10,
		AgentsPerRole: map[string]int{
			"worker":  10,
			"soldier": 2,
			"queen":   1,
			"enemy":   2,
		},
		NumberOfFoodSources:  4,
		FoodSourceRadius:     3,
		FoodPerCell:          20,
		AgentHealth:          1.0,
		QueenHunger:          0.1,
		QueenMealHealth:      0.2,
		QueenSpawnPermille:   10,
		SoldierSpawnPermille: 250,
		StatsEveryTicks:      10,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	// yaml merges into existing maps; an explicit role table replaces the default one.
	t.AgentsPerRole = nil
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize lowercases role keys and fills zero values with defaults.
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.CellSize <= 0 {
		t.CellSize = d.CellSize
	}
	if t.AgentHealth <= 0 {
		t.AgentHealth = d.AgentHealth
	}
	if t.QueenMealHealth <= 0 {
		t.QueenMealHealth = d.QueenMealHealth
	}
	if t.StatsEveryTicks <= 0 {
		t.StatsEveryTicks = d.StatsEveryTicks
	}
	if t.AgentsPerRole == nil {
		t.AgentsPerRole = d.AgentsPerRole
	} else {
		norm := make(map[string]int, len(t.AgentsPerRole))
		for k, v := range t.AgentsPerRole {
			norm[strings.ToLower(strings.TrimSpace(k))] += v
		}
		t.AgentsPerRole = norm
	}
}

func (t Tuning) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("width/height must be > 0 (got %dx%d)", t.Width, t.Height)
	}
	if t.EvaporationRate < 0 || t.EvaporationRate > 1 {
		return fmt.Errorf("evaporation_rate must be within [0,1] (got %v)", t.EvaporationRate)
	}
	if t.NumberOfColonies < 0 || t.NumberOfColonies > MaxColonies {
		return fmt.Errorf("number_of_colonies must be within [0,%d] (got %d)", MaxColonies, t.NumberOfColonies)
	}
	if t.NumberOfColonies > 0 {
		if t.HomeSize <= 0 {
			return fmt.Errorf("home_size must be > 0")
		}
		if t.HomeSize+2 > t.Width || t.HomeSize+2 > t.Height {
			return fmt.Errorf("home_size %d does not fit a %dx%d grid", t.HomeSize, t.Width, t.Height)
		}
	}
	for k, v := range t.AgentsPerRole {
		if !knownRole(k) {
			return fmt.Errorf("agents_per_role: unknown role %q", k)
		}
		if v < 0 {
			return fmt.Errorf("agents_per_role.%s must be >= 0", k)
		}
	}
	if t.NumberOfFoodSources < 0 || t.FoodSourceRadius < 0 || t.FoodPerCell < 0 {
		return fmt.Errorf("food settings must be >= 0")
	}
	if t.ObstacleDensity < 0 || t.ObstacleDensity > 1 {
		return fmt.Errorf("obstacle_density must be within [0,1] (got %v)", t.ObstacleDensity)
	}
	if t.QueenHunger < 0 || t.QueenHunger >= t.AgentHealth {
		return fmt.Errorf("queen_hunger must be within [0,agent_health)")
	}
	if t.QueenSpawnPermille < 0 || t.QueenSpawnPermille > 1000 {
		return fmt.Errorf("queen_spawn_permille must be within [0,1000]")
	}
	if t.SoldierSpawnPermille < 0 || t.SoldierSpawnPermille > 1000 {
		return fmt.Errorf("soldier_spawn_permille must be within [0,1000]")
	}
	return nil
}

func knownRole(name string) bool {
	for _, r := range Roles {
		if r == name {
			return true
		}
	}
	return false
}
