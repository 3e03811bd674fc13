package loader

// State is the observable loader state.
//
// Loading and a non-empty Error are never both set: the error is cleared when
// an attempt starts. HasMore starts true and only Reset turns it back on once
// a fetch has reported exhaustion.
type State struct {
	Loading bool   `json:"loading"`
	HasMore bool   `json:"has_more"`
	Error   string `json:"error,omitempty"`
}

// Phase is a coarse view of the loader state machine.
type Phase int

const (
	// PhaseIdle means nothing is observed: disabled, unbound or closed.
	PhaseIdle Phase = iota
	// PhaseWatching means the sentinel is observed and no fetch is running.
	PhaseWatching
	// PhaseLoading means a fetch is in flight.
	PhaseLoading
	// PhaseErrored means the last fetch failed; the sentinel is still
	// observed and the next intersection retries.
	PhaseErrored
	// PhaseExhausted is terminal until Reset.
	PhaseExhausted
)

// String returns the string representation of a phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWatching:
		return "watching"
	case PhaseLoading:
		return "loading"
	case PhaseErrored:
		return "errored"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
