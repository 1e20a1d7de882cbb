// Package ui is the terminal front end of folio, built on bubbletea.
//
// The UI never touches viewer state directly. It reads immutable snapshots
// from state.Store, which the render loop publishes after every change,
// and it sends user actions through a Controller that runs them on that
// loop. A Model therefore only holds presentation state: sizes, the open
// panel, the prompt and the theme.
//
// # Layout
//
//	┌ header: title, page, zoom, rotation, render and notes status ┐
//	│ thumbnails │ page area (half block cells, two pixels per row)  │
//	│ notes or log panel (optional)                                  │
//	└ command bar or prompt                                          ┘
//
// Every size change is forwarded with Controller.Resize so the viewer
// composes frames at exactly the size of the page area.
//
// # Key Bindings
//
//   - j/k/h/l or arrows: scroll; space/b: screen down/up
//   - ]/[: next/previous page; g/G: first/last; ':' go to page
//   - +/-: zoom; 0/w/f/a: actual/width/fit/auto; z: zoom prompt
//   - r/R: rotate clockwise/counter-clockwise
//   - s: thumbnails; o: notes panel; L: log panel; tab: focus panel
//   - n/N: next/previous note; A: add note; d: delete (notes panel)
//   - T: cycle theme; ?: help; q or ctrl+c: quit
//
// Theme, zoom, rotation and sidebar visibility are saved to the prefs
// file on quit.
package ui
