package runner

import "slices"

// State is a Coordinator lifecycle state.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateAborted
	StateDispatching
	StateExecuting
	StateReporting
	StateDone
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateValidating:  "validating",
	StateAborted:     "aborted",
	StateDispatching: "dispatching",
	StateExecuting:   "executing",
	StateReporting:   "reporting",
	StateDone:        "done",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateDone
}

// transitions lists the allowed successors of each state. Idle may abort
// directly when the lock is held by another run.
var transitions = map[State][]State{
	StateIdle:        {StateValidating, StateAborted},
	StateValidating:  {StateAborted, StateDispatching, StateReporting},
	StateDispatching: {StateExecuting},
	StateExecuting:   {StateReporting},
	StateReporting:   {StateDone},
}

func (s State) canTransition(to State) bool {
	return slices.Contains(transitions[s], to)
}
