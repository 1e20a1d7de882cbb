// Package render decides which page or thumbnail renders next.
//
// # Overview
//
// A document can have thousands of pages but only a handful are on screen.
// Rendering is expensive, so exactly one view renders at a time and the
// choice of which one is remade after every completion, scroll and zoom.
//
// # Components
//
//   - state.go: the per-view lifecycle (initial, running, paused, finished)
//     and the Decision value recorded by the queue
//   - queue.go: Queue, the priority selection and the idle timer
//   - buffer.go: Buffer, a bounded MRU set of views that destroys what it evicts
//   - loop.go: Loop and ManualLoop, the single-threaded executors every view,
//     the queue and the buffer run on
//
// # Selection
//
//	visible views, in visible order ──> first one not finished
//	        │ all finished
//	        ▼
//	read ahead: Last.ID+1 scrolling down, First.ID-1 scrolling up
//	        │ missing or finished
//	        ▼
//	nothing: the viewer declines, thumbnails get a turn, then idle
//
// # Concurrency Model
//
// Nothing in this package takes locks around views. All calls happen on one
// Executor. A render's completion never schedules the next pass inline; it
// posts a job, so RenderView is never re-entered from inside Draw.
package render
