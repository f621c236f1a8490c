// Package workflow tracks orders through their lifecycle. Every state change
// goes through the transition table; an order can never skip a stage or leave
// a terminal state.
package workflow

// State is an order's position in its lifecycle.
type State string

const (
	StatePending    State = "pending"
	StateValidated  State = "validated"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// transitions is the full set of legal state changes.
var transitions = map[State][]State{
	StatePending:    {StateValidated, StateFailed},
	StateValidated:  {StateProcessing, StateFailed},
	StateProcessing: {StateCompleted, StateFailed},
	StateCompleted:  {},
	StateFailed:     {},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}
