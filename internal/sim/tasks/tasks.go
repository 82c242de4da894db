package tasks

// Kind names one behavior state. The set is closed; behaviors are bound to
// kinds by the world's dispatch table.
type Kind uint8

const (
	KindNone Kind = iota

	// Worker
	KindExplore
	KindTakeFood
	KindDropFood
	KindFollowFoodTrail
	KindFollowHomeTrail

	// Soldier
	KindGuardNest
	KindReturnHome

	// Queen
	KindProduceAnts
	KindFindFood

	// Raider
	KindFindNest
	KindRaidNest
	KindEscape

	kindCount
)

var kindNames = [kindCount]string{
	KindNone:            "",
	KindExplore:         "explore",
	KindTakeFood:        "take food",
	KindDropFood:        "drop food",
	KindFollowFoodTrail: "follow food trail",
	KindFollowHomeTrail: "follow home trail",
	KindGuardNest:       "guard nest",
	KindReturnHome:      "return home",
	KindProduceAnts:     "produce ants",
	KindFindFood:        "find food",
	KindFindNest:        "find nest",
	KindRaidNest:        "raid nest",
	KindEscape:          "escape",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

func (k Kind) Valid() bool { return k > KindNone && k < kindCount }

// ParseKind maps a task name back to its kind.
func ParseKind(name string) (Kind, bool) {
	for k := KindNone + 1; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return KindNone, false
}

// Task is one registered state. It holds nothing but a pending transition.
type Task struct {
	Kind Kind
	next Kind
}

// Request asks the manager to switch to k after the current perform.
func (t *Task) Request(k Kind) { t.next = k }

// Pending reports the request without consuming it.
func (t *Task) Pending() Kind { return t.next }

// NewTask returns the pending request and resets it.
func (t *Task) NewTask() Kind {
	k := t.next
	t.next = KindNone
	return k
}
