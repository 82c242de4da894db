// Package terrain lays out food sources and rock on a fresh grid.
package terrain

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"antfarm.ai/internal/sim/grid"
)

const (
	noiseAlpha  = 2.0
	noiseBeta   = 2.0
	noiseOctave = 3
	noiseScale  = 1.0 / 8

	maxSourceAttempts = 64
)

type Params struct {
	FoodSources     int
	FoodRadius      int
	FoodPerCell     float64
	ObstacleDensity float64
}

type Result struct {
	Sources   []grid.Point
	FoodCells int
	FoodTotal float64
	Obstacles int
}

// Scatter drops circular food patches and perlin-shaped rock on g. Cells for
// which keepClear returns true are left untouched.
func Scatter(g *grid.Grid, p Params, rng *rand.Rand, keepClear func(x, y int) bool) Result {
	if keepClear == nil {
		keepClear = func(int, int) bool { return false }
	}
	food := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, rng.Int63())
	rock := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, rng.Int63())

	var res Result
	if p.FoodPerCell > 0 {
		for i := 0; i < p.FoodSources; i++ {
			center, ok := pickCenter(g, rng, keepClear)
			if !ok {
				break
			}
			res.Sources = append(res.Sources, center)
			r := p.FoodRadius
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if dx*dx+dy*dy > r*r {
						continue
					}
					x, y := g.Wrap(center.X+dx, center.Y+dy)
					c := g.Get(x, y)
					if keepClear(x, y) || c.IsHome() || c.IsObstacle() {
						continue
					}
					amt := p.FoodPerCell * (0.5 + 0.5*unit(food, x, y))
					if !c.HasFood() {
						res.FoodCells++
					}
					c.AddFood(amt)
					res.FoodTotal += amt
				}
			}
		}
	}

	if p.ObstacleDensity > 0 {
		threshold := 1 - 2*p.ObstacleDensity
		g.Each(func(c *grid.Cell) {
			if keepClear(c.X, c.Y) {
				return
			}
			if unit(rock, c.X, c.Y) > threshold && c.MakeObstacle() {
				res.Obstacles++
			}
		})
	}
	return res
}

func pickCenter(g *grid.Grid, rng *rand.Rand, keepClear func(x, y int) bool) (grid.Point, bool) {
	for i := 0; i < maxSourceAttempts; i++ {
		x, y := rng.Intn(g.Width()), rng.Intn(g.Height())
		c := g.Get(x, y)
		if keepClear(x, y) || c.IsHome() || c.HasFood() {
			continue
		}
		return grid.Point{X: x, Y: y}, true
	}
	return grid.Point{}, false
}

// unit samples the noise field at a cell and folds it into [0, 1].
func unit(p *perlin.Perlin, x, y int) float64 {
	v := (p.Noise2D(float64(x)*noiseScale, float64(y)*noiseScale) + 1) / 2
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
