// Package page holds the views that paint a single document page: View for
// the main viewer and Thumbnail for the sidebar.
//
// Both share one lifecycle. Draw moves a view from initial to running and
// starts a document.RenderTask. Before each chunk the task asks the view
// whether it may continue; a view that is no longer the queue's highest
// priority parks the continuation and becomes paused until the queue
// resumes it. Cancelling a render returns the view to initial and settles
// quietly.
//
// Surfaces are sized from the viewport and the device pixel ratio, capped
// at MaxCanvasPixels. When a zoom would exceed the cap the existing surface
// is stretched instead of re-rendered.
package page
