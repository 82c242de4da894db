package world

import (
	"errors"
	"fmt"
	"strings"

	"antfarm.ai/internal/sim/tasks"
)

var ErrUnsupportedRole = errors.New("unsupported role")

type Role uint8

const (
	RoleWorker Role = iota + 1
	RoleSoldier
	RoleQueen
	RoleRaider
)

// Roles in spawn order.
var Roles = []Role{RoleQueen, RoleWorker, RoleSoldier, RoleRaider}

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleSoldier:
		return "soldier"
	case RoleQueen:
		return "queen"
	case RoleRaider:
		return "enemy"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// ParseRole accepts the tuning names; "raider" is an alias of "enemy".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "worker":
		return RoleWorker, nil
	case "soldier":
		return RoleSoldier, nil
	case "queen":
		return RoleQueen, nil
	case "enemy", "raider":
		return RoleRaider, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedRole, s)
	}
}

// roleTasks is the capability table: role -> registered task kinds, initial first.
var roleTasks = map[Role][]tasks.Kind{
	RoleWorker: {
		tasks.KindExplore,
		tasks.KindTakeFood,
		tasks.KindDropFood,
		tasks.KindFollowFoodTrail,
		tasks.KindFollowHomeTrail,
	},
	RoleSoldier: {tasks.KindGuardNest, tasks.KindReturnHome},
	RoleQueen:   {tasks.KindProduceAnts, tasks.KindFindFood},
	RoleRaider:  {tasks.KindFindNest, tasks.KindRaidNest, tasks.KindEscape},
}

func newTaskManager(r Role) (*tasks.Manager, error) {
	kinds, ok := roleTasks[r]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRole, r)
	}
	m, err := tasks.NewManager(kinds...)
	if err != nil {
		return nil, fmt.Errorf("%s tasks: %w", r, err)
	}
	return m, nil
}
