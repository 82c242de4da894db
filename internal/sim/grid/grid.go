package grid

import "fmt"

type Point struct{ X, Y int }

// Compass deltas, octant 0 is north and indices increase clockwise.
var Compass = [8]Point{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

// NormDir folds any integer heading into [0,8).
func NormDir(d int) int {
	d %= 8
	if d < 0 {
		d += 8
	}
	return d
}

// Grid is a width x height torus of cells.
type Grid struct {
	width, height int
	colonies      int

	cells []Cell
	scent []float64
}

func New(width, height, colonies int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid: bad size %dx%d", width, height)
	}
	if colonies < 0 {
		return nil, fmt.Errorf("grid: bad colony count %d", colonies)
	}
	n := width * height
	g := &Grid{
		width:    width,
		height:   height,
		colonies: colonies,
		cells:    make([]Cell, n),
		scent:    make([]float64, n*colonies*2),
	}
	for i := range g.cells {
		c := &g.cells[i]
		c.X = i % width
		c.Y = i / width
		c.home = NoColony
		base := i * colonies * 2
		c.ScentField = ScentField{
			home: g.scent[base : base+colonies : base+colonies],
			food: g.scent[base+colonies : base+2*colonies : base+2*colonies],
		}
	}
	return g, nil
}

func (g *Grid) Width() int    { return g.width }
func (g *Grid) Height() int   { return g.height }
func (g *Grid) Colonies() int { return g.colonies }

// Wrap folds (x, y) onto the torus.
func (g *Grid) Wrap(x, y int) (int, int) {
	x %= g.width
	if x < 0 {
		x += g.width
	}
	y %= g.height
	if y < 0 {
		y += g.height
	}
	return x, y
}

// Get returns the cell at (x, y) taken modulo the grid size.
func (g *Grid) Get(x, y int) *Cell {
	x, y = g.Wrap(x, y)
	return &g.cells[y*g.width+x]
}

func (g *Grid) At(p Point) *Cell { return g.Get(p.X, p.Y) }

// Step returns the point one octant step from p.
func (g *Grid) Step(p Point, dir int) Point {
	d := Compass[NormDir(dir)]
	x, y := g.Wrap(p.X+d.X, p.Y+d.Y)
	return Point{X: x, Y: y}
}

// Neighbours calls fn for the 8 cells around p in compass order.
func (g *Grid) Neighbours(p Point, fn func(dir int, c *Cell)) {
	for dir := range Compass {
		q := g.Step(p, dir)
		fn(dir, g.At(q))
	}
}

// Each visits every cell in row-major order.
func (g *Grid) Each(fn func(c *Cell)) {
	for i := range g.cells {
		fn(&g.cells[i])
	}
}

func (g *Grid) AddFood(x, y int, amt float64) { g.Get(x, y).AddFood(amt) }

func (g *Grid) TakeFood(x, y int, amt float64) float64 { return g.Get(x, y).TakeFood(amt) }

func (g *Grid) MakeObstacle(x, y int) bool { return g.Get(x, y).MakeObstacle() }

func (g *Grid) RemoveObstacle(x, y int) bool { return g.Get(x, y).RemoveObstacle() }

func (g *Grid) MakeHome(x, y int, colony ColonyID) { g.Get(x, y).MakeHome(colony) }

// DecayAllScent evaporates every cell's scent by rate.
// Values left under ScentFloor snap to zero, also at rate 0.
func (g *Grid) DecayAllScent(rate float64) {
	decayLayer(g.scent, clampRate(rate))
}
