package render

// State is the lifecycle of a single page or thumbnail render.
type State int

const (
	StateInitial State = iota
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Renderable is the part of a page or thumbnail view the queue drives.
type Renderable interface {
	// ID is the 1-based page number.
	ID() int
	RenderingState() State
	// Draw starts rendering from StateInitial. done runs on the executor
	// once drawing settles; cancellation settles with a nil error.
	Draw(done func(error))
	// Resume continues a paused render.
	Resume()
	// Pause parks a running render at its next continuation point.
	Pause()
}

// Action records what the queue did with the view it picked.
type Action int

const (
	ActionNone Action = iota
	ActionStarted
	ActionResumed
	ActionContinued
)

func (a Action) String() string {
	switch a {
	case ActionStarted:
		return "started"
	case ActionResumed:
		return "resumed"
	case ActionContinued:
		return "continued"
	default:
		return "none"
	}
}

// Decision is the outcome of one RenderView call. The queue keeps the most
// recent Decision as its highest-priority marker and replaces it whole.
type Decision struct {
	View   Renderable
	Action Action
}

// Scheduled reports whether the decision advanced a render.
func (d Decision) Scheduled() bool {
	return d.View != nil && d.Action != ActionNone
}
