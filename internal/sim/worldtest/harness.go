package worldtest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"testing"

	"antfarm.ai/internal/sim/grid"
	world "antfarm.ai/internal/sim/world"
)

// Harness drives a world through exported APIs only, so tests can live outside
// the world package. Every tick entry is kept for later assertions.
type Harness struct {
	T *testing.T
	W *world.World

	Entries []world.TickLogEntry
}

func NewHarness(t *testing.T, cfg world.Config) *Harness {
	t.Helper()
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w}
}

// Step runs one tick with the given edits applied at its start.
func (h *Harness) Step(edits ...world.EditRequest) world.TickLogEntry {
	h.T.Helper()
	want := h.W.CurrentTick()
	e := h.W.StepOnce(edits)
	if e.Tick != want {
		h.T.Fatalf("stepped tick %d, want %d", e.Tick, want)
	}
	h.Entries = append(h.Entries, e)
	return e
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.Step()
	}
}

// Edit queues one edit into the next tick and returns its result.
func (h *Harness) Edit(op string, x, y int) world.EditResult {
	h.T.Helper()
	resp := make(chan world.EditResult, 1)
	h.Step(world.EditRequest{Op: op, X: x, Y: y, Resp: resp})
	select {
	case r := <-resp:
		return r
	default:
		h.T.Fatalf("edit %s at %d,%d: no result", op, x, y)
		return world.EditResult{}
	}
}

func (h *Harness) Deaths(cause string) int {
	n := 0
	for _, e := range h.Entries {
		for _, d := range e.Deaths {
			if d.Cause == cause {
				n++
			}
		}
	}
	return n
}

func (h *Harness) Spawns(role world.Role) int {
	n := 0
	for _, e := range h.Entries {
		for _, s := range e.Spawns {
			if s.Role == role.String() {
				n++
			}
		}
	}
	return n
}

func (h *Harness) Faults() []string {
	var out []string
	for _, e := range h.Entries {
		out = append(out, e.Faults...)
	}
	return out
}

// MaxStoredFood is the largest stored food a colony reached on any stats tick.
func (h *Harness) MaxStoredFood(colony int) float64 {
	best := 0.0
	for _, e := range h.Entries {
		for _, st := range e.Stats {
			if st.Colony == colony && st.StoredFood > best {
				best = st.StoredFood
			}
		}
	}
	return best
}

// Digest hashes every agent and every cell. Two worlds with equal digests
// are indistinguishable through the read-only views.
func Digest(w *world.World) string {
	hash := sha256.New()
	var buf [8]byte
	u := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		hash.Write(buf[:])
	}
	f := func(v float64) { u(math.Float64bits(v)) }
	i := func(v int) { u(uint64(int64(v))) }

	u(w.CurrentTick())
	for _, a := range w.Agents() {
		u(uint64(a.ID))
		i(int(a.Colony))
		i(int(a.Role))
		i(a.Pos.X)
		i(a.Pos.Y)
		i(a.Dir)
		f(a.Food)
		f(a.Health)
		i(int(a.Task))
		f(a.HomeScentStrength)
		f(a.FoodScentStrength)
	}
	colonies := len(w.Colonies())
	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			c := w.Cell(x, y)
			if c.Obstacle {
				u(1)
			} else {
				u(0)
			}
			f(c.Food)
			i(int(c.Home))
			u(uint64(c.Occupant))
			for col := 0; col < colonies; col++ {
				f(w.Scent(grid.ScentHome, grid.ColonyID(col), x, y))
				f(w.Scent(grid.ScentFood, grid.ColonyID(col), x, y))
			}
		}
	}
	return hex.EncodeToString(hash.Sum(nil))
}
