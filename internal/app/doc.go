// Package app is the composition root of folio.
//
// Run loads configuration and preferences, opens the document, and starts
// three cooperating pieces:
//
//   - the render loop, a render.Loop goroutine that owns every viewer,
//     page view and the rendering queue
//   - the notes poller, which fetches the document's notes from the notes
//     server and hands each new revision to the loop
//   - the terminal UI, which reads snapshots from state.Store and sends
//     user actions back through a session
//
// # Data Flow
//
//	┌─────────────┐  Controller calls   ┌───────────────┐
//	│  ui.Model   │ ──────────────────▶ │ session (loop) │
//	└─────▲───────┘                     └──────┬────────┘
//	      │ Changed()                          │ PublishFrame
//	┌─────┴───────┐                            │
//	│ state.Store │ ◀──────────────────────────┘
//	└─────▲───────┘
//	      │ UpdateNotes
//	┌─────┴───────┐   FetchNotes   ┌──────────────┐
//	│ notesPoller │ ─────────────▶ │ folio-notes  │
//	└─────────────┘                └──────────────┘
//
// The session is the only code that touches viewer state; every method it
// exposes to the UI is marshalled onto the loop. Frames are republished,
// coalesced, whenever the viewer reports a render or a view change.
//
// With Options.ExportDir set, Run skips the UI and writes every page to a
// PNG file instead, driving the same page views with a manual loop.
package app
