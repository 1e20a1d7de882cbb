package viewer

import (
	"context"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/geometry"
	"github.com/five82/folio/internal/page"
	"github.com/five82/folio/internal/render"
)

// ThumbnailOptions configure a ThumbnailViewer.
type ThumbnailOptions struct {
	Context context.Context
	Queue   *render.Queue
	Exec    render.Executor
	Bus     *events.Bus

	// Width is the thumbnail width; zero means page.ThumbnailWidth.
	Width   int
	PageGap float64
	// Enabled reports whether the sidebar is on screen. Thumbnails only
	// render while it returns true.
	Enabled func() bool

	RenderSlice time.Duration
	OpsPerChunk int
}

// ThumbnailViewer owns the sidebar thumbnails. It renders only when the
// page viewer has nothing left to do, and reuses finished page surfaces
// when it can.
type ThumbnailViewer struct {
	exec   render.Executor
	queue  *render.Queue
	bus    *events.Bus
	loader *pageLoader

	thumbOpts page.ThumbnailOptions
	gap       float64

	doc         document.Document
	thumbs      []*page.Thumbnail
	renderables []render.Renderable

	rotation int
	scroll   geometry.ScrollState
	current  int

	log *logrus.Entry
}

// NewThumbnailViewer creates an empty thumbnail viewer and registers it
// with the queue. It follows the page viewer through bus events.
func NewThumbnailViewer(opts ThumbnailOptions) *ThumbnailViewer {
	gap := opts.PageGap
	if gap <= 0 {
		gap = DefaultPageGap
	}
	t := &ThumbnailViewer{
		exec:   opts.Exec,
		queue:  opts.Queue,
		bus:    opts.Bus,
		loader: newPageLoader(opts.Context, opts.Exec),
		gap:    gap,
		scroll: geometry.ScrollState{Down: true},
		log:    logrus.WithField("component", "thumbnail-viewer"),
		thumbOpts: page.ThumbnailOptions{
			Width:       opts.Width,
			Queue:       opts.Queue,
			Exec:        opts.Exec,
			Bus:         opts.Bus,
			RenderSlice: opts.RenderSlice,
			OpsPerChunk: opts.OpsPerChunk,
		},
	}
	enabled := opts.Enabled
	if enabled == nil {
		enabled = func() bool { return true }
	}
	if t.queue != nil {
		t.queue.SetThumbnailViewer(t, enabled)
	}
	t.bus.On(events.PageRendered, t.onPageRendered)
	t.bus.On(events.PageChanging, func(e events.Event) { t.ScrollThumbnailIntoView(e.PageNumber) })
	t.bus.On(events.RotationChanging, func(e events.Event) { t.SetRotation(e.Rotation) })
	return t
}

// Thumbnail returns the thumbnail for 1-based page n, or nil.
func (t *ThumbnailViewer) Thumbnail(n int) *page.Thumbnail {
	if n < 1 || n > len(t.thumbs) {
		return nil
	}
	return t.thumbs[n-1]
}

// Len returns the number of thumbnails.
func (t *ThumbnailViewer) Len() int { return len(t.thumbs) }

// ScrollState returns the sidebar scroll window.
func (t *ThumbnailViewer) ScrollState() geometry.ScrollState { return t.scroll }

// SetDocument replaces the document, cancelling every thumbnail render.
func (t *ThumbnailViewer) SetDocument(doc document.Document) {
	t.loader.reset()
	for _, th := range t.thumbs {
		th.Destroy()
	}
	t.thumbs = nil
	t.renderables = nil
	t.current = 0
	t.scroll.Top = 0
	t.doc = doc
	if doc == nil || doc.NumPages() == 0 {
		return
	}
	t.loader.load(doc, 1, func(first document.Page, err error) {
		if err != nil {
			t.log.WithError(err).Warn("unable to load the first page")
			first = nil
		}
		t.initThumbnails(doc, first)
	})
}

func (t *ThumbnailViewer) initThumbnails(doc document.Document, first document.Page) {
	defaultViewport := geometry.MustViewport([4]float64{0, 0, 612, 792})
	if first != nil {
		if vp, err := geometry.NewViewport(first.ViewBox()); err == nil {
			defaultViewport = vp
		}
	}
	n := doc.NumPages()
	t.thumbs = make([]*page.Thumbnail, n)
	t.renderables = make([]render.Renderable, n)
	for i := range n {
		opts := t.thumbOpts
		opts.ID = i + 1
		opts.DefaultViewport = defaultViewport
		opts.Rotation = t.rotation
		th := page.NewThumbnail(opts)
		t.thumbs[i] = th
		t.renderables[i] = th
	}
	if first != nil {
		t.thumbs[0].SetPage(first)
	}
	t.current = 1
}

// SetRotation rotates every thumbnail. Invalid rotations are ignored.
func (t *ThumbnailViewer) SetRotation(rotation int) {
	rotation, err := geometry.NormalizeRotation(rotation)
	if err != nil || rotation == t.rotation {
		return
	}
	t.rotation = rotation
	for _, th := range t.thumbs {
		th.SetRotation(rotation)
	}
}

func (t *ThumbnailViewer) layout() []geometry.Rect {
	boxes := make([]geometry.Rect, len(t.thumbs))
	width := t.scroll.Width
	for _, th := range t.thumbs {
		width = max(width, th.Viewport().Width())
	}
	y := t.gap
	for i, th := range t.thumbs {
		vp := th.Viewport()
		boxes[i] = geometry.Rect{X: (width - vp.Width()) / 2, Y: y, W: vp.Width(), H: vp.Height()}
		y += vp.Height() + t.gap
	}
	return boxes
}

// Visible returns the thumbnails in the sidebar window, top to bottom.
func (t *ThumbnailViewer) Visible() geometry.Visible {
	if len(t.thumbs) == 0 {
		return geometry.Visible{}
	}
	return geometry.VisibleElements(t.scroll, t.layout(), false)
}

// ForceRendering picks the next thumbnail with the queue and renders it.
func (t *ThumbnailViewer) ForceRendering(visible *geometry.Visible) bool {
	if len(t.thumbs) == 0 || t.queue == nil {
		return false
	}
	var vis geometry.Visible
	if visible != nil {
		vis = *visible
	} else {
		vis = t.Visible()
	}
	next := t.queue.GetHighestPriority(vis, t.renderables, t.scroll.Down)
	if next == nil {
		return false
	}
	th := t.thumbs[next.ID()-1]
	if th.Loaded() {
		t.queue.RenderView(th)
		return true
	}
	id := th.ID()
	t.loader.load(t.doc, id, func(p document.Page, err error) {
		if err != nil {
			t.log.WithError(err).WithField("page", id).Warn("unable to load page")
			th.SetLoadError(err)
		} else if !th.Loaded() {
			th.SetPage(p)
		}
		t.queue.RenderView(th)
	})
	return true
}

// onPageRendered copies a freshly rendered page into its idle thumbnail.
func (t *ThumbnailViewer) onPageRendered(e events.Event) {
	if e.Thumbnail || e.Err != nil || e.CSSTransform {
		return
	}
	pv, ok := e.Source.(*page.View)
	if !ok {
		return
	}
	if th := t.Thumbnail(e.PageNumber); th != nil && th.RenderingState() == render.StateInitial {
		th.SetImage(pv)
	}
}

// SetContainerSize sets the sidebar window size in layout units.
func (t *ThumbnailViewer) SetContainerSize(width, height float64) {
	t.scroll.Width = max(0, width)
	t.scroll.Height = max(0, height)
	t.scrollTo(t.scroll.Top)
}

// ScrollBy scrolls the sidebar vertically.
func (t *ThumbnailViewer) ScrollBy(dy float64) {
	t.scrollTo(t.scroll.Top + dy)
}

func (t *ThumbnailViewer) scrollTo(top float64) {
	boxes := t.layout()
	contentH := 0.0
	if len(boxes) > 0 {
		contentH = boxes[len(boxes)-1].Bottom() + t.gap
	}
	top = max(0, min(top, contentH-t.scroll.Height))
	if top == t.scroll.Top {
		return
	}
	t.scroll.Down = top > t.scroll.Top
	t.scroll.Top = top
	if t.queue != nil {
		t.exec.Post(func() { t.queue.RenderHighestPriority(nil) })
	}
}

// ScrollThumbnailIntoView highlights page n and scrolls the sidebar when
// its thumbnail is not entirely visible.
func (t *ThumbnailViewer) ScrollThumbnailIntoView(n int) {
	if n < 1 || n > len(t.thumbs) {
		return
	}
	t.current = n
	box := t.layout()[n-1]
	switch {
	case box.Y < t.scroll.Top:
		t.scrollTo(box.Y - t.gap)
	case box.Bottom() > t.scroll.Bottom():
		t.scrollTo(box.Bottom() + t.gap - t.scroll.Height)
	}
}

// Compose paints the sidebar window into an image, outlining the current
// page.
func (t *ThumbnailViewer) Compose() *image.RGBA {
	w, h := int(t.scroll.Width), int(t.scroll.Height)
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if w <= 0 || h <= 0 {
		return img
	}
	boxes := t.layout()
	visible := geometry.VisibleElements(t.scroll, boxes, false)
	tiles := make([]tile, 0, len(visible.Views))
	for _, vv := range visible.Views {
		th := t.thumbs[vv.ID-1]
		tl := tile{box: boxes[vv.ID-1], fill: placeholderColor}
		switch {
		case th.Err() != nil:
			tl.fill = errorColor
		case th.RenderingState() == render.StateFinished:
			tl.surface = th.Surface()
		}
		if vv.ID == t.current {
			tl.outline = selectedColor
		}
		tiles = append(tiles, tl)
	}
	composite(img, t.scroll, tiles)
	return img
}

// Frame returns the sidebar as terminal lines.
func (t *ThumbnailViewer) Frame() []string {
	return HalfBlocks(t.Compose())
}
