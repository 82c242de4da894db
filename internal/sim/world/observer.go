package world

import (
	"encoding/json"

	"antfarm.ai/internal/observerproto"
	"antfarm.ai/internal/sim/grid"
)

// ObserverJoinRequest registers a read-only observer session that receives
// FRAME messages on Out. All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID  string
	Out        chan []byte
	EveryTicks int
	Scent      bool
}

// ObserverSubscribeRequest updates an existing observer session subscription settings.
type ObserverSubscribeRequest struct {
	SessionID  string
	EveryTicks int
	Scent      bool
}

type observerClient struct {
	out   chan []byte
	every uint64
	scent bool
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSubscribe }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.observers[req.SessionID] = &observerClient{
		out:   req.Out,
		every: everyTicks(req.EveryTicks),
		scent: req.Scent,
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c, ok := w.observers[req.SessionID]
	if !ok {
		return
	}
	c.every = everyTicks(req.EveryTicks)
	c.scent = req.Scent
}

func (w *World) handleObserverLeave(id string) { delete(w.observers, id) }

func everyTicks(n int) uint64 {
	if n <= 0 {
		return 1
	}
	return uint64(n)
}

// broadcastFrames encodes at most one frame per scent setting and pushes the
// latest one to every observer due this tick.
func (w *World) broadcastFrames(nowTick uint64) {
	if len(w.observers) == 0 {
		return
	}
	var enc [2][]byte
	for _, c := range w.observers {
		if nowTick%c.every != 0 {
			continue
		}
		i := 0
		if c.scent {
			i = 1
		}
		if enc[i] == nil {
			b, err := json.Marshal(w.buildFrame(nowTick, c.scent))
			if err != nil {
				continue
			}
			enc[i] = b
		}
		sendLatest(c.out, enc[i])
	}
}

func (w *World) buildFrame(nowTick uint64, scent bool) observerproto.FrameMsg {
	f := observerproto.FrameMsg{
		Type:            observerproto.TypeFrame,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Agents:          make([]observerproto.AgentState, 0, len(w.order)),
	}
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil {
			continue
		}
		f.Agents = append(f.Agents, observerproto.AgentState{
			ID:     uint64(a.ID),
			Colony: int(a.Colony),
			Role:   a.Role.String(),
			Pos:    [2]int{a.Pos.X, a.Pos.Y},
			Dir:    a.Dir,
			Food:   a.Food,
			Health: a.Health,
			Task:   a.Task().String(),
		})
	}
	w.grid.Each(func(c *grid.Cell) {
		cs := observerproto.CellState{
			Pos:      [2]int{c.X, c.Y},
			Home:     int(c.Home()),
			Obstacle: c.IsObstacle(),
			Food:     c.Food(),
		}
		if scent {
			cs.HomeScent = c.MaxHomeScent()
			cs.FoodScent = c.MaxFoodScent()
		}
		if cs.Obstacle || cs.Food > 0 || c.IsHome() || cs.HomeScent > 0 || cs.FoodScent > 0 {
			f.Cells = append(f.Cells, cs)
		}
	})
	if f.Cells == nil {
		f.Cells = []observerproto.CellState{}
	}
	return f
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
