package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gg"

	"github.com/five82/folio/internal/render"
)

// ErrRenderingCancelled completes a task that was cancelled before it
// finished painting.
var ErrRenderingCancelled = errors.New("rendering cancelled")

// DefaultSlice is how long a task paints before yielding to the executor.
const DefaultSlice = 15 * time.Millisecond

type paintOp struct {
	name string
	fn   func(*gg.Context) error
}

// RenderTask paints a page display list onto a canvas in time-sliced chunks
// on an executor. Before every chunk, including the first, it calls
// OnContinue when set; the task stays parked until cont runs.
type RenderTask struct {
	// OnContinue, when set, decides whether the next chunk runs now. It must
	// call cont exactly once, either immediately or later.
	OnContinue func(cont func())

	exec   render.Executor
	canvas *gg.Context
	ops    []paintOp
	next   int
	slice  time.Duration
	maxOps int

	parked    bool
	cancelled bool
	finished  bool
	err       error
	onDone    []func(error)
	release   func()
}

func newRenderTask(exec render.Executor, canvas *gg.Context, ops []paintOp, slice time.Duration, maxOps int, release func()) *RenderTask {
	if slice <= 0 {
		slice = DefaultSlice
	}
	t := &RenderTask{
		exec:    exec,
		canvas:  canvas,
		ops:     ops,
		slice:   slice,
		maxOps:  maxOps,
		release: release,
	}
	exec.Post(t.step)
	return t
}

// OnComplete registers fn to run once the task settles. A completed task
// calls fn on the executor.
func (t *RenderTask) OnComplete(fn func(error)) {
	if fn == nil {
		return
	}
	if t.finished {
		err := t.err
		t.exec.Post(func() { fn(err) })
		return
	}
	t.onDone = append(t.onDone, fn)
}

// Cancel stops the task. A parked task settles immediately; a running one
// settles at its next chunk. Either way it settles with ErrRenderingCancelled.
func (t *RenderTask) Cancel() {
	if t.finished || t.cancelled {
		return
	}
	t.cancelled = true
	if t.parked {
		t.parked = false
		t.complete(ErrRenderingCancelled)
	}
}

// Finished reports whether the task has settled.
func (t *RenderTask) Finished() bool { return t.finished }

// Parked reports whether the task is waiting for its continuation.
func (t *RenderTask) Parked() bool { return t.parked }

// Progress returns how many operations have been painted out of the total.
func (t *RenderTask) Progress() (done, total int) { return t.next, len(t.ops) }

// Err returns the settled error, if any.
func (t *RenderTask) Err() error { return t.err }

func (t *RenderTask) step() {
	if t.finished {
		return
	}
	if t.cancelled {
		t.complete(ErrRenderingCancelled)
		return
	}
	if t.OnContinue == nil {
		t.paint()
		return
	}
	t.parked = true
	t.OnContinue(t.cont)
}

func (t *RenderTask) cont() {
	if !t.parked || t.finished {
		return
	}
	t.parked = false
	if t.cancelled {
		t.complete(ErrRenderingCancelled)
		return
	}
	t.paint()
}

func (t *RenderTask) paint() {
	start := time.Now()
	painted := 0
	for t.next < len(t.ops) {
		op := t.ops[t.next]
		if err := op.fn(t.canvas); err != nil {
			t.complete(fmt.Errorf("paint op %d (%s): %w", t.next, op.name, err))
			return
		}
		t.next++
		painted++
		if t.maxOps > 0 && painted >= t.maxOps {
			break
		}
		if time.Since(start) >= t.slice {
			break
		}
	}
	if t.next >= len(t.ops) {
		t.complete(nil)
		return
	}
	t.exec.Post(t.step)
}

func (t *RenderTask) complete(err error) {
	if t.finished {
		return
	}
	t.finished = true
	t.err = err
	if t.release != nil {
		t.release()
	}
	callbacks := t.onDone
	t.onDone = nil
	for _, fn := range callbacks {
		fn(err)
	}
}
