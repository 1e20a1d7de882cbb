package render

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/geometry"
)

// DefaultIdleTimeout is how long the queue waits with nothing to render
// before calling the idle callback.
const DefaultIdleTimeout = 30 * time.Second

// Scheduler is implemented by the page viewer and the thumbnail viewer.
// ForceRendering picks the next view to render and reports whether it
// scheduled anything. visible may be nil, in which case the scheduler
// computes its own visible set.
type Scheduler interface {
	ForceRendering(visible *geometry.Visible) bool
}

// Queue decides which single view renders next. It survives document swaps.
type Queue struct {
	exec        Executor
	idleTimeout time.Duration

	viewer            Scheduler
	thumbnails        Scheduler
	thumbnailsEnabled func() bool
	onIdle            func()

	idleTimer Timer
	decision  Decision
	printing  bool

	log *logrus.Entry
}

// NewQueue creates a queue that runs its follow-up passes on exec.
func NewQueue(exec Executor, idleTimeout time.Duration) *Queue {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Queue{
		exec:        exec,
		idleTimeout: idleTimeout,
		log:         logrus.WithField("component", "rendering-queue"),
	}
}

// SetViewer registers the primary page viewer.
func (q *Queue) SetViewer(s Scheduler) { q.viewer = s }

// SetThumbnailViewer registers the thumbnail viewer. enabled reports whether
// thumbnails are currently on screen.
func (q *Queue) SetThumbnailViewer(s Scheduler, enabled func() bool) {
	q.thumbnails = s
	q.thumbnailsEnabled = enabled
}

// SetOnIdle sets the callback armed when a pass finds nothing to do.
func (q *Queue) SetOnIdle(fn func()) { q.onIdle = fn }

// SetPrinting toggles print mode, which suppresses the idle callback.
func (q *Queue) SetPrinting(printing bool) { q.printing = printing }

// Current returns the most recent scheduling decision.
func (q *Queue) Current() Decision { return q.decision }

// IsHighestPriority reports whether v is the view the queue last committed to.
func (q *Queue) IsHighestPriority(v Renderable) bool {
	return q.decision.View != nil && v != nil && q.decision.View == v
}

// RenderHighestPriority runs one scheduling pass and reports whether any
// viewer scheduled work.
func (q *Queue) RenderHighestPriority(visible *geometry.Visible) bool {
	if q.idleTimer != nil {
		q.idleTimer.Stop()
		q.idleTimer = nil
	}

	if q.viewer != nil && q.viewer.ForceRendering(visible) {
		return true
	}
	if q.thumbnails != nil && q.thumbnailsEnabled != nil && q.thumbnailsEnabled() {
		if q.thumbnails.ForceRendering(nil) {
			return true
		}
	}

	if q.printing {
		return false
	}
	if q.onIdle != nil {
		q.idleTimer = q.exec.AfterFunc(q.idleTimeout, q.onIdle)
	}
	return false
}

// GetHighestPriority returns the view to render next, or nil. Visible views
// come first in visible order; once they are all finished the neighbour in
// the scroll direction is read ahead. views[i] must have id i+1.
func (q *Queue) GetHighestPriority(visible geometry.Visible, views []Renderable, scrolledDown bool) Renderable {
	return HighestPriority(visible, views, scrolledDown)
}

// HighestPriority is the pure selection behind Queue.GetHighestPriority.
func HighestPriority(visible geometry.Visible, views []Renderable, scrolledDown bool) Renderable {
	for _, vv := range visible.Views {
		v := viewByID(views, vv.ID)
		if v == nil {
			continue
		}
		if v.RenderingState() != StateFinished {
			return v
		}
	}

	if visible.First == nil || visible.Last == nil {
		return nil
	}

	// ids are 1-based: the view after Last has id Last.ID+1, the view
	// before First has id First.ID-1.
	var next Renderable
	if scrolledDown {
		next = viewByID(views, visible.Last.ID+1)
	} else {
		next = viewByID(views, visible.First.ID-1)
	}
	if next != nil && next.RenderingState() != StateFinished {
		return next
	}
	return nil
}

func viewByID(views []Renderable, id int) Renderable {
	if id < 1 || id > len(views) {
		return nil
	}
	return views[id-1]
}

// RenderView advances one view through its lifecycle and returns the
// decision taken. Finished views are left alone.
func (q *Queue) RenderView(v Renderable) Decision {
	if v == nil {
		return Decision{}
	}
	state := v.RenderingState()
	if state == StateFinished {
		return Decision{View: v, Action: ActionNone}
	}

	// Only one render may be in flight; the previous pick yields at its
	// next continuation point.
	if prev := q.decision.View; prev != nil && prev != v && prev.RenderingState() == StateRunning {
		prev.Pause()
	}

	switch state {
	case StatePaused:
		q.decision = Decision{View: v, Action: ActionResumed}
		v.Resume()
	case StateRunning:
		q.decision = Decision{View: v, Action: ActionContinued}
	case StateInitial:
		q.decision = Decision{View: v, Action: ActionStarted}
		id := v.ID()
		v.Draw(func(err error) {
			if err != nil {
				q.log.WithError(err).WithField("page", id).Warn("render failed")
			}
			q.exec.Post(func() { q.RenderHighestPriority(nil) })
		})
	}
	return q.decision
}
