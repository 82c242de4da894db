package world

import "time"

// Metrics is a thread-safe read-only view of world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type Metrics struct {
	Tick uint64 `json:"tick"`

	Agents    int `json:"agents"`
	Observers int `json:"observers"`

	Colonies []ColonyMetrics `json:"colonies"`

	SpawnTotal uint64 `json:"spawn_total"`
	DeathTotal uint64 `json:"death_total"`
	FaultTotal uint64 `json:"fault_total"`
	EditTotal  uint64 `json:"edit_total"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type ColonyMetrics struct {
	ID         int     `json:"id"`
	Agents     int     `json:"agents"`
	StoredFood float64 `json:"stored_food"`
}

type QueueDepths struct {
	Edits         int `json:"edits"`
	ObserverJoin  int `json:"observer_join"`
	ObserverLeave int `json:"observer_leave"`
}

func (w *World) Metrics() Metrics {
	if w == nil {
		return Metrics{}
	}
	m, ok := w.metrics.Load().(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}

func (w *World) publishMetrics(step time.Duration) {
	cols := make([]ColonyMetrics, len(w.colonies))
	for i, c := range w.colonies {
		cols[i] = ColonyMetrics{ID: int(c.ID), Agents: len(c.roster)}
		if i < len(w.lastStats) {
			cols[i].StoredFood = w.lastStats[i].StoredFood
		}
	}
	w.metrics.Store(Metrics{
		Tick:       w.tick.Load(),
		Agents:     len(w.agents),
		Observers:  len(w.observers),
		Colonies:   cols,
		SpawnTotal: w.spawnTotal,
		DeathTotal: w.deathTotal,
		FaultTotal: w.faultTotal,
		EditTotal:  w.editTotal,
		QueueDepths: QueueDepths{
			Edits:         len(w.edits),
			ObserverJoin:  len(w.observerJoin),
			ObserverLeave: len(w.observerLeave),
		},
		StepMS: float64(step.Microseconds()) / 1000,
	})
}
