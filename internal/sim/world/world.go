package world

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"antfarm.ai/internal/sim/grid"
	"antfarm.ai/internal/sim/terrain"
)

const (
	nestMargin   = 1
	nestAttempts = 256
)

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg  Config
	grid *grid.Grid
	rng  *rand.Rand

	tick atomic.Uint64

	colonies  []*Colony
	agents    map[grid.AgentID]*Agent
	order     []grid.AgentID
	scratch   []grid.AgentID
	nextAgent grid.AgentID
	terrain   terrain.Result

	// Collected during the current tick.
	spawns []AgentEvent
	deaths []AgentEvent
	edited []EditRecord
	faults []string

	spawnTotal uint64
	deathTotal uint64
	faultTotal uint64
	editTotal  uint64
	lastStats  []ColonyStats

	edits             chan EditRequest
	observerJoin      chan ObserverJoinRequest
	observerSubscribe chan ObserverSubscribeRequest
	observerLeave     chan string

	observers map[string]*observerClient

	// Optional logger (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger

	metrics atomic.Value
}

func New(cfg Config) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g, err := grid.New(cfg.Width, cfg.Height, cfg.NumberOfColonies)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &World{
		cfg:               cfg,
		grid:              g,
		rng:               rand.New(rand.NewSource(seed)),
		agents:            map[grid.AgentID]*Agent{},
		edits:             make(chan EditRequest, 256),
		observerJoin:      make(chan ObserverJoinRequest, 64),
		observerSubscribe: make(chan ObserverSubscribeRequest, 64),
		observerLeave:     make(chan string, 64),
		observers:         map[string]*observerClient{},
	}
	if err := w.placeColonies(); err != nil {
		return nil, err
	}
	w.terrain = terrain.Scatter(g, terrain.Params{
		FoodSources:     cfg.NumberOfFoodSources,
		FoodRadius:      cfg.FoodSourceRadius,
		FoodPerCell:     cfg.FoodPerCell,
		ObstacleDensity: cfg.ObstacleDensity,
	}, w.rng, w.nearNest)
	for _, c := range w.colonies {
		if err := c.SpawnAgents(cfg.AgentsPerRole); err != nil {
			return nil, err
		}
	}
	w.lastStats = w.colonyStats()
	w.publishMetrics(0)
	return w, nil
}

func (w *World) placeColonies() error {
	size := w.cfg.HomeSize
	for i := 0; i < w.cfg.NumberOfColonies; i++ {
		var origin grid.Point
		if i < len(w.cfg.Nests) {
			x, y := w.grid.Wrap(w.cfg.Nests[i].X, w.cfg.Nests[i].Y)
			origin = grid.Point{X: x, Y: y}
			if w.collides(origin) {
				return fmt.Errorf("colony %d at %d,%d: %w", i, x, y, ErrNoRoom)
			}
		} else {
			placed := false
			for attempt := 0; attempt < nestAttempts; attempt++ {
				p := grid.Point{X: w.randomOrigin(w.cfg.Width), Y: w.randomOrigin(w.cfg.Height)}
				if !w.collides(p) {
					origin, placed = p, true
					break
				}
			}
			if !placed {
				return fmt.Errorf("colony %d: %w", i, ErrNoRoom)
			}
		}
		c := &Colony{ID: grid.ColonyID(i), Origin: origin, Size: size, world: w}
		c.MarkHome()
		w.colonies = append(w.colonies, c)
	}
	return nil
}

// randomOrigin keeps the nest a margin away from the grid edge when it fits.
func (w *World) randomOrigin(n int) int {
	span := n - w.cfg.HomeSize - 2*nestMargin + 1
	if span <= 0 {
		return w.rng.Intn(n)
	}
	return nestMargin + w.rng.Intn(span)
}

func (w *World) collides(p grid.Point) bool {
	for _, c := range w.colonies {
		if overlaps(c.Origin, p, w.cfg.HomeSize, nestMargin, w.cfg.Width, w.cfg.Height) {
			return true
		}
	}
	return false
}

// nearNest reports cells inside or one cell around any nest.
func (w *World) nearNest(x, y int) bool {
	for _, c := range w.colonies {
		dx := mod(x-c.Origin.X+nestMargin, w.cfg.Width)
		dy := mod(y-c.Origin.Y+nestMargin, w.cfg.Height)
		if dx < c.Size+2*nestMargin && dy < c.Size+2*nestMargin {
			return true
		}
	}
	return false
}

func (w *World) spawnAt(c *Colony, r Role, p grid.Point, dir int) (*Agent, error) {
	m, err := newTaskManager(r)
	if err != nil {
		return nil, err
	}
	w.nextAgent++
	a := &Agent{
		ID:       w.nextAgent,
		Colony:   c.ID,
		Role:     r,
		Pos:      p,
		Dir:      grid.NormDir(dir),
		Health:   w.cfg.AgentHealth,
		BornTick: w.tick.Load(),
		tasks:    m,
		world:    w,
	}
	w.agents[a.ID] = a
	w.order = append(w.order, a.ID)
	c.roster = append(c.roster, a.ID)
	w.grid.At(p).SetOccupant(a.ID)
	m.Start(a)
	w.spawns = append(w.spawns, agentEvent(a, ""))
	return a, nil
}

func (w *World) colony(id grid.ColonyID) *Colony {
	if id < 0 || int(id) >= len(w.colonies) {
		return nil
	}
	return w.colonies[id]
}

func (w *World) fault(err error) {
	if err != nil {
		w.faults = append(w.faults, err.Error())
	}
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) Edits() chan<- EditRequest { return w.edits }

func (w *World) Config() Config {
	cfg := w.cfg
	if cfg.AgentsPerRole != nil {
		m := make(map[Role]int, len(cfg.AgentsPerRole))
		for k, v := range cfg.AgentsPerRole {
			m[k] = v
		}
		cfg.AgentsPerRole = m
	}
	cfg.Nests = append([]grid.Point(nil), cfg.Nests...)
	return cfg
}

func (w *World) Width() int  { return w.grid.Width() }
func (w *World) Height() int { return w.grid.Height() }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Terrain reports where food sources and rock were laid out.
func (w *World) Terrain() terrain.Result { return w.terrain }

// PlaceObstacle turns a cell into rock. It is a no-op on home, food and occupied cells.
func (w *World) PlaceObstacle(x, y int) bool {
	return w.applyEdit(EditPlaceObstacle, x, y).OK
}

func (w *World) RemoveObstacle(x, y int) bool {
	return w.applyEdit(EditRemoveObstacle, x, y).OK
}

func (w *World) applyEdit(op string, x, y int) EditRecord {
	x, y = w.grid.Wrap(x, y)
	rec := EditRecord{Op: op, X: x, Y: y}
	switch op {
	case EditPlaceObstacle:
		rec.OK = w.grid.MakeObstacle(x, y)
	case EditRemoveObstacle:
		rec.OK = w.grid.RemoveObstacle(x, y)
	default:
		w.fault(fmt.Errorf("edit: unknown op %q", op))
		return rec
	}
	w.edited = append(w.edited, rec)
	return rec
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingEdits []EditRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.edits:
			pendingEdits = append(pendingEdits, req)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSubscribe:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			w.step(pendingEdits)
			pendingEdits = pendingEdits[:0]
		}
	}
}

// Advance runs one tick: every live agent decides once, in roster order, then
// all scent decays.
func (w *World) Advance() { w.step(nil) }

// StepOnce runs one tick with the given queued edits and returns the tick entry.
func (w *World) StepOnce(edits []EditRequest) TickLogEntry { return w.step(edits) }

func (w *World) step(edits []EditRequest) TickLogEntry {
	start := time.Now()
	nowTick := w.tick.Load()

	// Edits land before the sweep so queued and direct edits see the same grid.
	for _, req := range edits {
		rec := w.applyEdit(req.Op, req.X, req.Y)
		if req.Resp == nil {
			continue
		}
		res := EditResult{OK: rec.OK, Tick: nowTick}
		if !rec.OK {
			res.Err = fmt.Errorf("%s at %d,%d refused", req.Op, rec.X, rec.Y)
		}
		select {
		case req.Resp <- res:
		default:
		}
	}
	w.sweepDead()

	// Agents spawned this tick act from the next one.
	w.scratch = append(w.scratch[:0], w.order...)
	for _, id := range w.scratch {
		a := w.agents[id]
		if a == nil || !a.alive() {
			continue
		}
		if err := a.act(); err != nil {
			w.fault(fmt.Errorf("agent %d (%s): %w", a.ID, a.Role, err))
		}
	}

	w.grid.DecayAllScent(w.cfg.EvaporationRate)

	entry := TickLogEntry{
		Tick:   nowTick,
		Spawns: w.spawns,
		Deaths: w.deaths,
		Edits:  w.edited,
		Faults: w.faults,
	}
	if nowTick%uint64(w.cfg.StatsEveryTicks) == 0 {
		entry.Stats = w.colonyStats()
		w.lastStats = entry.Stats
	}
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(entry)
	}
	w.broadcastFrames(nowTick)

	w.spawnTotal += uint64(len(w.spawns))
	w.deathTotal += uint64(len(w.deaths))
	w.faultTotal += uint64(len(w.faults))
	w.editTotal += uint64(len(w.edited))
	w.spawns, w.deaths, w.edited, w.faults = nil, nil, nil, nil

	w.tick.Add(1)
	w.publishMetrics(time.Since(start))
	return entry
}

// sweepDead removes agents whose health reached zero. Carried food is dropped where they fell.
func (w *World) sweepDead() {
	kept := w.order[:0]
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil {
			continue
		}
		if a.alive() {
			kept = append(kept, id)
			continue
		}
		c := a.here()
		c.ClearOccupant(a.ID)
		if a.Food > 0 {
			c.AddFood(a.Food)
		}
		cause := CauseExhausted
		if a.attacked {
			cause = CauseKilled
		}
		w.deaths = append(w.deaths, agentEvent(a, cause))
		if col := w.colony(a.Colony); col != nil {
			col.remove(a.ID)
		}
		delete(w.agents, id)
	}
	clear(w.order[len(kept):])
	w.order = kept
}
