// Package viewer lays page views out in a scrollable strip and drives the
// rendering queue from scroll, resize and zoom changes.
//
// # Components
//
//   - viewer.go: Viewer, document swaps, Update, ForceRendering and scrolling
//   - scale.go: numeric and preset scales, zoom steps and rotation
//   - thumbnails.go: ThumbnailViewer, the sidebar that renders only when
//     the page viewer is idle
//   - frame.go: compositing surfaces into terminal half-block lines
//   - load.go: page loading off the executor, one request per page
//
// # Update
//
//	scroll / resize / zoom
//	        │
//	        ▼
//	visible pages ──> buffer resized around them ──> queue pass
//	        │
//	        ▼
//	current page (kept while still fully visible) ──> updateviewarea
//
// Everything here runs on the render executor. Page loads are the only work
// that leaves it, and their results are posted back.
package viewer
