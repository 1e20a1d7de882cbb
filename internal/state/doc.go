// Package state provides thread-safe state shared between the render loop,
// the notes poller and the terminal UI.
//
// # Overview
//
// The render loop owns every page view and is the only goroutine allowed to
// touch them. The UI runs on its own goroutine inside bubbletea. Store is
// the hand-off point: the loop publishes composited frames, the poller
// publishes note syncs, and the UI reads immutable snapshots.
//
// # Architecture
//
//	Render loop:                 Notes poller:            UI:
//	┌──────────────────┐        ┌────────────────┐       ┌─────────────────┐
//	│ viewer.Frame()   │        │ FetchNotes()   │       │                 │
//	│      ↓           │        │      ↓         │       │                 │
//	│ PublishFrame()   │──┐     │ UpdateNotes()  │──┐    │ Snapshot()      │
//	└──────────────────┘  │     └────────────────┘  │    │      ↓          │
//	                      └──────────(mutex)────────┴───→│ render view     │
//	                                                     └─────────────────┘
//
// # Update Semantics
//
// PublishFrame replaces the frame and bumps Version so the UI can skip
// redraws of unchanged frames.
//
// UpdateNotes mirrors a poll result:
//
//	store.UpdateNotes(doc, nil)
//	→ notes and revision replaced, LastError cleared, failures reset
//
//	store.UpdateNotes(nil, err)
//	→ previous notes kept, LastError = err, ConsecutiveFailures++
//
// Snapshot.IsOffline reports two or more consecutive failures.
//
// # Snapshot Semantics
//
// Snapshot returns a copy with cloned slices and a wrapped copy of the last
// error, so callers may keep or modify it freely.
package state
