package palisade

import "fmt"

// Action is a ranked operation on a layer. Rules assign each category a
// permitted action; a request is granted when the permitted action ranks at
// least as high as the requested one.
type Action string

const (
	// ActionBlocked is the deny sentinel. It ranks below every real action
	// including ActionNone, so it can never satisfy a threshold.
	ActionBlocked Action = "blocked"

	// ActionNone permits no real action.
	ActionNone Action = "none"

	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionAudit  Action = "audit"
	ActionConfig Action = "config"
	ActionDelete Action = "delete"
	ActionUpdate Action = "update"
)

// The ranking is a threshold device, not a risk ordering: audit ranks below
// config, and delete below update. Threshold checks depend on the literal
// order; do not reorder.
var actionRanks = map[Action]int{
	ActionBlocked: -1,
	ActionNone:    1,
	ActionRead:    2,
	ActionCreate:  3,
	ActionAudit:   4,
	ActionConfig:  5,
	ActionDelete:  6,
	ActionUpdate:  7,
}

// rankUnknown sits below ActionBlocked so that malformed actions can never
// satisfy any threshold, on either side of the comparison.
const rankUnknown = -2

// Rank returns the action's position in the lattice. Unknown actions rank
// below blocked.
func (a Action) Rank() int {
	if r, ok := actionRanks[a]; ok {
		return r
	}
	return rankUnknown
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actionRanks[a]
	return ok
}

// String returns the action name.
func (a Action) String() string { return string(a) }

// AtLeast reports whether the permitted action covers the requested one,
// i.e. rank(permitted) >= rank(requested). Blocked ranks below every real
// action, so a blocked permission never covers one; the engine additionally
// short-circuits a resolved blocked sentinel before comparing.
func AtLeast(permitted, requested Action) bool {
	return permitted.Rank() >= requested.Rank()
}

// ParseAction parses an action name. Unknown names return an error; the
// engine itself never calls this on the hot path; it treats unknown
// actions as deny, not as a fault.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return ActionBlocked, fmt.Errorf("palisade: unknown action %q", s)
	}
	return a, nil
}
