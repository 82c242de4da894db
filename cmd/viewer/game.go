package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/world"
)

// game drives the world from ebiten's update loop. The world is only touched
// from Update and Draw, which ebiten runs on one goroutine.
type game struct {
	w      *world.World
	scale  int
	paused bool
	scent  bool

	board  *ebiten.Image
	pixels []byte
}

func newGame(w *world.World, scale int) *game {
	return &game{
		w:      w,
		scale:  scale,
		scent:  true,
		board:  ebiten.NewImage(w.Width(), w.Height()),
		pixels: make([]byte, 4*w.Width()*w.Height()),
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.scent = !g.scent
	}

	mx, my := ebiten.CursorPosition()
	cx, cy := mx/g.scale, my/g.scale
	if cx >= 0 && cy >= 0 && cx < g.w.Width() && cy < g.w.Height() {
		rock := g.w.Cell(cx, cy).Obstacle
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && !rock {
			g.w.PlaceObstacle(cx, cy)
		} else if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) && rock {
			g.w.RemoveObstacle(cx, cy)
		}
	}

	if !g.paused || inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.w.Advance()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x12, 0x10, 0x0c, 0xff})

	width, height := g.w.Width(), g.w.Height()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := cellColor(g.w.Cell(x, y), g.scent)
			i := 4 * (y*width + x)
			g.pixels[i+0] = c.R
			g.pixels[i+1] = c.G
			g.pixels[i+2] = c.B
			g.pixels[i+3] = c.A
		}
	}
	g.board.WritePixels(g.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.board, op)

	half := float32(g.scale) / 2
	for _, a := range g.w.Agents() {
		cx := float32(a.Pos.X*g.scale) + half
		cy := float32(a.Pos.Y*g.scale) + half
		r := half * 0.8
		if a.Role == world.RoleQueen {
			r = half
		}
		vector.DrawFilledCircle(screen, cx, cy, r, agentColor(a), true)
		if a.Food > 0 {
			vector.DrawFilledCircle(screen, cx, cy, r*0.4, foodColor, true)
		}
	}

	m := g.w.Metrics()
	status := fmt.Sprintf("tick %d  agents %d  step %.2fms", m.Tick, m.Agents, m.StepMS)
	if g.paused {
		status += "  [paused] N=step"
	}
	ebitenutil.DebugPrint(screen, status)
	for i, c := range m.Colonies {
		line := fmt.Sprintf("colony %d: %d ants, %.1f food", c.ID, c.Agents, c.StoredFood)
		text.Draw(screen, line, basicfont.Face7x13, 6, 32+16*i, colonyColor(grid.ColonyID(c.ID)))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w.Width() * g.scale, g.w.Height() * g.scale
}

var foodColor = color.RGBA{0x4c, 0xd1, 0x37, 0xff}

// colonyPalette is indexed by colony id modulo its length.
var colonyPalette = []color.RGBA{
	{0xe0, 0x5a, 0x47, 0xff},
	{0x4a, 0x90, 0xe2, 0xff},
	{0xf5, 0xc1, 0x3b, 0xff},
	{0xb0, 0x6a, 0xe0, 0xff},
	{0x3b, 0xc9, 0xb7, 0xff},
	{0xe8, 0x8a, 0x3a, 0xff},
}

func colonyColor(id grid.ColonyID) color.RGBA {
	if id < 0 {
		return color.RGBA{0x80, 0x80, 0x80, 0xff}
	}
	return colonyPalette[int(id)%len(colonyPalette)]
}

func agentColor(a world.AgentView) color.RGBA {
	c := colonyColor(a.Colony)
	switch a.Role {
	case world.RoleSoldier:
		return shade(c, 0.6)
	case world.RoleRaider:
		return color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
	case world.RoleQueen:
		return lighten(c, 0.4)
	default:
		return c
	}
}

func cellColor(c world.CellView, scent bool) color.RGBA {
	switch {
	case c.Obstacle:
		return color.RGBA{0x6b, 0x66, 0x5e, 0xff}
	case c.Food > 0 && c.Home == grid.NoColony:
		return shade(foodColor, 0.4+0.6*clamp01(c.Food/20))
	case c.Home != grid.NoColony:
		base := shade(colonyColor(c.Home), 0.35)
		if c.Food > 0 {
			return mix(base, foodColor, clamp01(c.Food/20))
		}
		return base
	}
	bg := color.RGBA{0x12, 0x10, 0x0c, 0xff}
	if !scent {
		return bg
	}
	home := clamp01(c.MaxHomeScent / world.TrailStrength)
	food := clamp01(c.MaxFoodScent / world.TrailStrength)
	out := mix(bg, color.RGBA{0x30, 0x50, 0xa0, 0xff}, home)
	return mix(out, color.RGBA{0x40, 0xa0, 0x40, 0xff}, food)
}

func shade(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{uint8(float64(c.R) * f), uint8(float64(c.G) * f), uint8(float64(c.B) * f), c.A}
}

func lighten(c color.RGBA, f float64) color.RGBA {
	return mix(c, color.RGBA{0xff, 0xff, 0xff, 0xff}, f)
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{l(a.R, b.R), l(a.G, b.G), l(a.B, b.B), 0xff}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
