package tasks

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("duplicate task")
)

// Runner executes the lifecycle hooks of a task on behalf of the manager.
type Runner interface {
	StartTask(t *Task)
	PerformTask(t *Task)
	EndTask(t *Task)
}

// Manager is a per-agent registry of tasks plus the active one.
type Manager struct {
	tasks  []*Task
	active *Task
}

// NewManager registers kinds in order; the first becomes active.
func NewManager(kinds ...Kind) (*Manager, error) {
	m := &Manager{}
	for _, k := range kinds {
		if err := m.Add(k); err != nil {
			return nil, err
		}
	}
	if len(m.tasks) == 0 {
		return nil, fmt.Errorf("tasks: empty task set")
	}
	m.active = m.tasks[0]
	return m, nil
}

func (m *Manager) Add(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("tasks: %w: kind %d", ErrUnknownTask, k)
	}
	if m.lookup(k) != nil {
		return fmt.Errorf("tasks: %w: %s", ErrDuplicateTask, k)
	}
	m.tasks = append(m.tasks, &Task{Kind: k})
	return nil
}

func (m *Manager) lookup(k Kind) *Task {
	for _, t := range m.tasks {
		if t.Kind == k {
			return t
		}
	}
	return nil
}

// Kinds returns the registered kinds in registration order.
func (m *Manager) Kinds() []Kind {
	out := make([]Kind, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = t.Kind
	}
	return out
}

func (m *Manager) Active() Kind {
	if m.active == nil {
		return KindNone
	}
	return m.active.Kind
}

// SetActive switches state without running any hooks.
func (m *Manager) SetActive(k Kind) error {
	t := m.lookup(k)
	if t == nil {
		return fmt.Errorf("tasks: %w: %s", ErrUnknownTask, k)
	}
	m.active = t
	return nil
}

// Start runs the start hook of the active task. Used once at spawn.
func (m *Manager) Start(r Runner) {
	if m.active != nil {
		r.StartTask(m.active)
	}
}

// MakeDecision performs the active task and, if it requested a transition,
// ends it and starts the next one. A request naming an unregistered kind is
// dropped and reported; the active task stays in place.
func (m *Manager) MakeDecision(r Runner) error {
	cur := m.active
	if cur == nil {
		return fmt.Errorf("tasks: no active task")
	}
	r.PerformTask(cur)

	next := cur.NewTask()
	if next == KindNone {
		return nil
	}
	nt := m.lookup(next)
	if nt == nil {
		return fmt.Errorf("tasks: %w: %s requested %q", ErrUnknownTask, cur.Kind, next)
	}
	r.EndTask(cur)
	m.active = nt
	r.StartTask(nt)
	return nil
}
