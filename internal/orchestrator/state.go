package orchestrator

// State is the orchestrator's explicit request-cycle state. Idle is both
// initial and terminal per cycle; the four outcome states are transient
// bookkeeping stops that collapse back to Idle before the transition is
// observable to callers.
type State int

const (
	// StateIdle means no request cycle is running.
	StateIdle State = iota
	// StateRequesting means exactly one provider call is in flight.
	StateRequesting
	// StateCompleted means the provider returned usable text.
	StateCompleted
	// StateFailed means the provider returned an error or empty text.
	StateFailed
	// StateTimedOut means the deadline fired before the provider returned.
	StateTimedOut
	// StateCancelled means the cycle was cancelled by the user or a mutation.
	StateCancelled
)

// String returns the log spelling of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StatusKind is the coarse indicator state exposed to host UIs.
type StatusKind int

const (
	// StatusIdle: nothing in flight, nothing pending.
	StatusIdle StatusKind = iota
	// StatusRequesting: a completion request is in flight.
	StatusRequesting
	// StatusSuggestionReady: a suggestion is pending resolution.
	StatusSuggestionReady
	// StatusError: the last cycle ended in a failure or timeout.
	StatusError
)

// String returns the log spelling of the status kind.
func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusRequesting:
		return "requesting"
	case StatusSuggestionReady:
		return "suggestion_ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is one entry in the observable status stream.
type Status struct {
	Kind StatusKind
	Err  error  // Set for StatusError
	Seq  uint64 // Request sequence number the status belongs to
}

// Stats are cumulative request-cycle counters for the current session.
type Stats struct {
	Issued    uint64
	Completed uint64
	Accepted  uint64
	Rejected  uint64
	Failed    uint64
	TimedOut  uint64
	Cancelled uint64
}
