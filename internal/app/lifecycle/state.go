// Package lifecycle coordinates application state transitions with the
// background notification.
package lifecycle

// State represents the coarse application state reported by the frontend.
type State int

const (
	StateActive State = iota // Frontend is in the foreground
	StateInactive            // Frontend is transitioning or obscured
	StateBackground          // Frontend is backgrounded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ParseState parses a state name. The bool result reports whether the name
// was recognized.
func ParseState(name string) (State, bool) {
	switch name {
	case "active":
		return StateActive, true
	case "inactive":
		return StateInactive, true
	case "background":
		return StateBackground, true
	default:
		return StateActive, false
	}
}

// foreground reports whether the state counts as the active side of the
// active/non-active boundary.
func (s State) foreground() bool {
	return s == StateActive
}
