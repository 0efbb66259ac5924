package session

// State is a step of the session loop.
type State int

const (
	StateAwaitingInput State = iota
	StateResolving
	StateGenerating
	StatePersisting
	StateInterrupted
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateResolving:
		return "resolving"
	case StateGenerating:
		return "generating"
	case StatePersisting:
		return "persisting"
	case StateInterrupted:
		return "interrupted"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}
