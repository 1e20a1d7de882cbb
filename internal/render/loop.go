package render

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Executor runs scheduling work on a single logical thread. Every view, the
// queue and the buffer are only touched from jobs posted to one Executor.
type Executor interface {
	// Post queues fn to run after the jobs already queued.
	Post(fn func())
	// AfterFunc posts fn once d has elapsed unless the timer is stopped.
	AfterFunc(d time.Duration, fn func()) Timer
	// Go runs blocking work off the executor. fn must hand results back
	// through Post.
	Go(fn func())
}

// Timer is a cancellable delayed job.
type Timer interface {
	Stop() bool
}

// Loop is an Executor backed by one goroutine.
type Loop struct {
	mu      sync.Mutex
	jobs    []func()
	wake    chan struct{}
	running atomic.Bool
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post implements Executor. It never blocks, so jobs may post more jobs.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.jobs = append(l.jobs, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call posts fn and waits for it to finish or for ctx to end.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc implements Executor.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped.Load() {
				fn()
			}
		})
	})
	return t
}

// Go implements Executor.
func (l *Loop) Go(fn func()) {
	go fn()
}

// Run processes jobs until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("loop already running")
	}
	defer l.running.Store(false)

	for {
		for {
			job := l.next()
			if job == nil {
				break
			}
			l.runJob(job)
			if ctx.Err() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.jobs) == 0 {
		return nil
	}
	job := l.jobs[0]
	l.jobs[0] = nil
	l.jobs = l.jobs[1:]
	return job
}

func (l *Loop) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("render loop job panicked")
		}
	}()
	job()
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.stopped.Store(true)
	return t.timer.Stop()
}

// ManualLoop is a deterministic Executor driven by the caller. Headless
// exports and tests use it to run the scheduler without goroutines.
type ManualLoop struct {
	mu     sync.Mutex
	jobs   []func()
	now    time.Duration
	timers []*manualTimer
}

// NewManualLoop creates an idle manual executor.
func NewManualLoop() *ManualLoop {
	return &ManualLoop{}
}

// Post implements Executor.
func (m *ManualLoop) Post(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.jobs = append(m.jobs, fn)
	m.mu.Unlock()
}

// AfterFunc implements Executor using the loop's virtual clock.
func (m *ManualLoop) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{at: m.now + d, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Go implements Executor by deferring fn to the job queue.
func (m *ManualLoop) Go(fn func()) {
	m.Post(fn)
}

// Pending returns the number of queued jobs.
func (m *ManualLoop) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Step runs a single job and reports whether one ran.
func (m *ManualLoop) Step() bool {
	m.mu.Lock()
	if len(m.jobs) == 0 {
		m.mu.Unlock()
		return false
	}
	job := m.jobs[0]
	m.jobs = m.jobs[1:]
	m.mu.Unlock()
	job()
	return true
}

// RunPending runs jobs until the queue is empty and returns how many ran.
func (m *ManualLoop) RunPending() int {
	n := 0
	for m.Step() {
		n++
	}
	return n
}

// Advance moves the virtual clock, posts every timer that became due and
// runs the queue dry.
func (m *ManualLoop) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTimer
	kept := m.timers[:0]
	for _, t := range m.timers {
		switch {
		case t.stopped:
		case t.at <= m.now:
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	m.timers = kept
	m.mu.Unlock()

	for _, t := range due {
		t := t
		m.Post(func() {
			if !t.stopped {
				t.fn()
			}
		})
	}
	m.RunPending()
}

// ActiveTimers returns the number of armed, unfired timers.
func (m *ManualLoop) ActiveTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type manualTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}
