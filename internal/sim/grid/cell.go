package grid

type ColonyID int

// NoColony marks a cell that is not part of any nest.
const NoColony ColonyID = -1

type AgentID uint64

// NoAgent is the zero occupant.
const NoAgent AgentID = 0

// Cell is one grid location. Cells are created with the grid and mutated in place.
// The occupant is a lookup key into the world's agent registry, never an owner.
type Cell struct {
	X, Y int

	obstacle bool
	food     float64
	home     ColonyID
	occupant AgentID

	ScentField
}

func (c *Cell) IsObstacle() bool               { return c.obstacle }
func (c *Cell) HasFood() bool                  { return c.food > 0 }
func (c *Cell) Food() float64                  { return c.food }
func (c *Cell) HasAgent() bool                 { return c.occupant != NoAgent }
func (c *Cell) Occupant() AgentID              { return c.occupant }
func (c *Cell) Home() ColonyID                 { return c.home }
func (c *Cell) IsHome() bool                   { return c.home != NoColony }
func (c *Cell) IsOwnHome(colony ColonyID) bool { return c.home != NoColony && c.home == colony }

func (c *Cell) IsEnemyHome(colony ColonyID) bool {
	return c.home != NoColony && c.home != colony
}

// Blocked reports whether an agent cannot step onto the cell.
func (c *Cell) Blocked() bool { return c.obstacle || c.occupant != NoAgent }

func (c *Cell) AddFood(amt float64) {
	if c.obstacle || amt <= 0 {
		return
	}
	c.food += amt
}

// TakeFood removes up to amt and returns what was actually removed.
func (c *Cell) TakeFood(amt float64) float64 {
	if amt <= 0 || c.food <= 0 {
		return 0
	}
	if amt >= c.food {
		got := c.food
		c.food = 0
		return got
	}
	c.food -= amt
	return amt
}

func (c *Cell) AddHomeScent(colony ColonyID, amt float64) {
	if c.obstacle {
		c.reset()
		return
	}
	c.add(ScentHome, colony, amt)
}

func (c *Cell) AddFoodScent(colony ColonyID, amt float64) {
	if c.obstacle {
		c.reset()
		return
	}
	c.add(ScentFood, colony, amt)
}

func (c *Cell) HomeScent(colony ColonyID) float64 { return c.Get(ScentHome, colony) }
func (c *Cell) FoodScent(colony ColonyID) float64 { return c.Get(ScentFood, colony) }
func (c *Cell) MaxHomeScent() float64             { return c.Max(ScentHome) }
func (c *Cell) MaxFoodScent() float64             { return c.Max(ScentFood) }

// MakeObstacle turns the cell into rock. Home, food and occupied cells refuse.
func (c *Cell) MakeObstacle() bool {
	if c.obstacle {
		return true
	}
	if c.IsHome() || c.HasFood() || c.HasAgent() {
		return false
	}
	c.obstacle = true
	c.reset()
	return true
}

func (c *Cell) RemoveObstacle() bool {
	if !c.obstacle {
		return false
	}
	c.obstacle = false
	return true
}

// MakeHome claims the cell for colony, clearing any rock.
func (c *Cell) MakeHome(colony ColonyID) {
	if colony == NoColony {
		return
	}
	c.obstacle = false
	c.home = colony
}

func (c *Cell) SetOccupant(id AgentID) { c.occupant = id }

// ClearOccupant releases the cell only if id still holds it.
func (c *Cell) ClearOccupant(id AgentID) {
	if c.occupant == id {
		c.occupant = NoAgent
	}
}
