package page

import (
	"errors"
	"fmt"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/render"
)

// Priority answers whether a view is the one the scheduler committed to.
// *render.Queue implements it.
type Priority interface {
	IsHighestPriority(v render.Renderable) bool
}

// ErrNotLoaded is the draw failure of a view whose page never loaded.
var ErrNotLoaded = errors.New("page not loaded")

// lifecycle is the render state shared by page and thumbnail views.
type lifecycle struct {
	id     int
	state  render.State
	resume func()
	task   *document.RenderTask
	queue  Priority
	self   render.Renderable

	loadErr error
}

// ID returns the 1-based page number.
func (l *lifecycle) ID() int { return l.id }

// RenderingState returns the current lifecycle state.
func (l *lifecycle) RenderingState() render.State { return l.state }

// Resume continues a paused render.
func (l *lifecycle) Resume() {
	r := l.resume
	l.resume = nil
	if l.state == render.StatePaused {
		l.state = render.StateRunning
	}
	if r != nil {
		r()
	}
}

// Pause parks a running render; it stops at its next continuation point.
func (l *lifecycle) Pause() {
	if l.state == render.StateRunning {
		l.state = render.StatePaused
	}
}

// SetLoadError records why the page could not be loaded. A later Draw
// finishes with it.
func (l *lifecycle) SetLoadError(err error) { l.loadErr = err }

func (l *lifecycle) unloadedErr() error {
	if l.loadErr != nil {
		return fmt.Errorf("page %d: %w: %w", l.id, ErrNotLoaded, l.loadErr)
	}
	return fmt.Errorf("page %d: %w", l.id, ErrNotLoaded)
}

// HasResume reports whether a parked continuation is waiting.
func (l *lifecycle) HasResume() bool { return l.resume != nil }

// Task returns the in-flight render task, if any.
func (l *lifecycle) Task() *document.RenderTask { return l.task }

// CancelRendering aborts any in-flight render and returns to the initial
// state. Cancellation completes quietly.
func (l *lifecycle) CancelRendering() {
	l.resume = nil
	l.state = render.StateInitial
	if t := l.task; t != nil {
		l.task = nil
		t.Cancel()
	}
}

// onContinue is installed as the task's continuation: keep going while this
// view is the highest priority, otherwise park until resumed.
func (l *lifecycle) onContinue(cont func()) {
	if l.queue == nil || l.queue.IsHighestPriority(l.self) {
		cont()
		return
	}
	l.state = render.StatePaused
	l.resume = func() {
		l.state = render.StateRunning
		cont()
	}
}
