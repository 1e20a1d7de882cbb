package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/geometry"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/page"
	"github.com/five82/folio/internal/render"
)

// DefaultPageGap is the vertical space between pages in layout units.
const DefaultPageGap = 2

// Options configure a Viewer.
type Options struct {
	Context context.Context
	Queue   *render.Queue
	Exec    render.Executor
	Bus     *events.Bus
	Notes   *notes.Store

	// Scale is the initial scale value, a number or a preset name.
	// Empty means DefaultScaleValue.
	Scale string
	// CacheSize is the smallest page buffer capacity.
	CacheSize int
	PageGap   float64

	DevicePixelRatio float64
	MaxCanvasPixels  int
	UseOnlyCSSZoom   bool
	RenderSlice      time.Duration
	OpsPerChunk      int
}

// Viewer owns the page views of one document, lays them out in a vertical
// strip, tracks the scroll window and asks the rendering queue for work.
// All methods must run on the executor.
type Viewer struct {
	queue  *render.Queue
	bus    *events.Bus
	notes  *notes.Store
	loader *pageLoader

	pageOpts page.Options
	gap      float64
	minCache int

	doc         document.Document
	views       []*page.View
	renderables []render.Renderable
	buffer      *render.Buffer

	scale      float64
	scaleValue string
	rotation   int
	scroll     geometry.ScrollState
	current    int

	log *logrus.Entry
}

// New creates an empty viewer and registers it with the queue as the
// primary scheduler and idle handler.
func New(opts Options) *Viewer {
	gap := opts.PageGap
	if gap <= 0 {
		gap = DefaultPageGap
	}
	minCache := max(opts.CacheSize, render.DefaultCacheSize)
	v := &Viewer{
		queue:      opts.Queue,
		bus:        opts.Bus,
		notes:      opts.Notes,
		loader:     newPageLoader(opts.Context, opts.Exec),
		gap:        gap,
		minCache:   minCache,
		buffer:     render.NewBuffer(minCache),
		scale:      1,
		scaleValue: DefaultScaleValue,
		scroll:     geometry.ScrollState{Down: true, Right: true},
		log:        logrus.WithField("component", "viewer"),
	}
	if opts.Scale != "" {
		v.scaleValue = opts.Scale
	}
	v.pageOpts = page.Options{
		Queue:            opts.Queue,
		Exec:             opts.Exec,
		Bus:              opts.Bus,
		Notes:            opts.Notes,
		DevicePixelRatio: opts.DevicePixelRatio,
		MaxCanvasPixels:  opts.MaxCanvasPixels,
		UseOnlyCSSZoom:   opts.UseOnlyCSSZoom,
		RenderSlice:      opts.RenderSlice,
		OpsPerChunk:      opts.OpsPerChunk,
		OnBeforeDraw:     func(pv *page.View) { v.buffer.Push(pv) },
	}

	if v.queue != nil {
		v.queue.SetViewer(v)
		v.queue.SetOnIdle(v.Cleanup)
	}
	v.bus.On(events.NotesChanged, func(events.Event) { v.refreshNotes() })
	return v
}

// Document returns the current document, or nil.
func (v *Viewer) Document() document.Document { return v.doc }

// PagesCount returns the number of page views.
func (v *Viewer) PagesCount() int { return len(v.views) }

// View returns the view for 1-based page n, or nil.
func (v *Viewer) View(n int) *page.View {
	if n < 1 || n > len(v.views) {
		return nil
	}
	return v.views[n-1]
}

// Views returns the page views in page order.
func (v *Viewer) Views() []*page.View { return v.views }

// Buffer returns the page view buffer.
func (v *Viewer) Buffer() *render.Buffer { return v.buffer }

// CurrentPage returns the 1-based current page, or 0 without a document.
func (v *Viewer) CurrentPage() int { return v.current }

// Rotation returns the document rotation in degrees.
func (v *Viewer) Rotation() int { return v.rotation }

// ScrollState returns the scroll window.
func (v *Viewer) ScrollState() geometry.ScrollState { return v.scroll }

// SetDocument replaces the document. In-flight renders are cancelled and
// the old views destroyed. Page views are created once the first page has
// loaded; pagesinit follows. A nil document just clears the viewer.
func (v *Viewer) SetDocument(doc document.Document) {
	v.teardown()
	v.doc = doc
	if doc == nil || doc.NumPages() == 0 {
		v.bus.Dispatch(events.Event{Name: events.PagesInit, Source: v})
		return
	}
	v.loader.load(doc, 1, func(first document.Page, err error) {
		if err != nil {
			v.log.WithError(err).Error("unable to load the first page")
			first = nil
		}
		v.initViews(doc, first)
	})
}

func (v *Viewer) teardown() {
	v.loader.reset()
	for _, pv := range v.views {
		pv.Destroy()
	}
	v.views = nil
	v.renderables = nil
	v.buffer.Reset()
	v.current = 0
	v.scroll.Top = 0
	v.scroll.Left = 0
	v.scroll.Down = true
}

func (v *Viewer) initViews(doc document.Document, first document.Page) {
	defaultViewport := geometry.MustViewport([4]float64{0, 0, 612, 792})
	if first != nil {
		if vp, err := geometry.NewViewport(first.ViewBox()); err == nil {
			defaultViewport = vp
		}
	}

	n := doc.NumPages()
	v.views = make([]*page.View, n)
	v.renderables = make([]render.Renderable, n)
	for i := range n {
		opts := v.pageOpts
		opts.ID = i + 1
		opts.DefaultViewport = defaultViewport
		opts.Scale = v.scale
		opts.Rotation = v.rotation
		pv := page.NewView(opts)
		v.views[i] = pv
		v.renderables[i] = pv
	}
	if first != nil {
		v.views[0].SetPage(first)
	}
	v.current = 1

	if scale, ok := v.scaleFor(v.scaleValue, v.rotation); ok {
		v.setScale(scale, v.scaleValue, true)
	}
	v.log.WithField("pages", n).Debug("pages initialised")
	v.bus.Dispatch(events.Event{Name: events.PagesInit, Source: v, PagesCount: n})
	v.Update()
}

// layout returns the box of every page in layout units, top to bottom.
func (v *Viewer) layout() []geometry.Rect {
	boxes := make([]geometry.Rect, len(v.views))
	width := v.scroll.Width
	for _, pv := range v.views {
		width = max(width, pv.Viewport().Width())
	}
	y := v.gap
	for i, pv := range v.views {
		vp := pv.Viewport()
		boxes[i] = geometry.Rect{X: (width - vp.Width()) / 2, Y: y, W: vp.Width(), H: vp.Height()}
		y += vp.Height() + v.gap
	}
	return boxes
}

// contentSize returns the size of the whole page strip.
func (v *Viewer) contentSize(boxes []geometry.Rect) (w, h float64) {
	w = v.scroll.Width
	for _, b := range boxes {
		w = max(w, b.W)
	}
	if len(boxes) > 0 {
		h = boxes[len(boxes)-1].Bottom() + v.gap
	}
	return w, h
}

// Visible returns the pages intersecting the scroll window, most visible
// first.
func (v *Viewer) Visible() geometry.Visible {
	if len(v.views) == 0 {
		return geometry.Visible{}
	}
	return geometry.VisibleElements(v.scroll, v.layout(), true)
}

// Update recomputes the visible pages, resizes the buffer around them,
// runs a scheduling pass and tracks the current page. It runs after every
// scroll, resize and zoom.
func (v *Viewer) Update() {
	if len(v.views) == 0 {
		return
	}
	visible := v.Visible()
	if visible.Empty() {
		return
	}

	keep := make([]render.Buffered, 0, len(visible.Views))
	for _, vv := range visible.Views {
		keep = append(keep, v.views[vv.ID-1])
	}
	v.buffer.Resize(max(render.CapacityFor(len(visible.Views)), v.minCache), keep...)

	if v.queue != nil {
		v.queue.RenderHighestPriority(&visible)
	}

	current := visible.Views[0].ID
	for _, vv := range visible.Views {
		if vv.ID == v.current && vv.Percent >= 100 {
			current = v.current
			break
		}
	}
	v.setCurrent(current)
	v.bus.Dispatch(events.Event{Name: events.UpdateViewArea, Source: v, Location: v.Location()})
}

func (v *Viewer) setCurrent(n int) {
	if n == v.current {
		return
	}
	prev := v.current
	v.current = n
	v.bus.Dispatch(events.Event{Name: events.PageChanging, Source: v, PageNumber: n, Previous: prev})
}

// Location describes the scroll position relative to the current page in
// unscaled page units.
func (v *Viewer) Location() events.Location {
	loc := events.Location{PageNumber: v.current, Scale: v.scale, Rotation: v.rotation}
	if v.current < 1 || v.current > len(v.views) {
		return loc
	}
	box := v.layout()[v.current-1]
	loc.Top = (v.scroll.Top - box.Y) / v.scale
	loc.Left = (v.scroll.Left - box.X) / v.scale
	return loc
}

// ForceRendering picks the next page with the queue and renders it, loading
// the page first when needed. It reports whether anything was scheduled.
// visible may be nil.
func (v *Viewer) ForceRendering(visible *geometry.Visible) bool {
	if len(v.views) == 0 || v.queue == nil {
		return false
	}
	var vis geometry.Visible
	if visible != nil {
		vis = *visible
	} else {
		vis = v.Visible()
	}
	next := v.queue.GetHighestPriority(vis, v.renderables, v.scroll.Down)
	if next == nil {
		return false
	}
	pv := v.views[next.ID()-1]
	if pv.Loaded() {
		v.queue.RenderView(pv)
		return true
	}
	v.ensurePageLoaded(pv)
	return true
}

func (v *Viewer) ensurePageLoaded(pv *page.View) {
	id := pv.ID()
	v.loader.load(v.doc, id, func(p document.Page, err error) {
		if err != nil {
			v.log.WithError(err).WithField("page", id).Error("unable to load page")
			pv.SetLoadError(err)
		} else if !pv.Loaded() {
			pv.SetPage(p)
		}
		v.queue.RenderView(pv)
	})
}

// Cleanup runs when rendering has gone idle. It drops surfaces of finished
// pages outside the buffer and lets the document free decoded data.
func (v *Viewer) Cleanup() {
	released := 0
	for _, pv := range v.views {
		if pv.RenderingState() == render.StateFinished && !v.buffer.Has(pv) {
			pv.Reset()
			released++
		}
	}
	if v.doc != nil {
		v.doc.Cleanup()
	}
	v.log.WithField("released", released).Debug("idle cleanup")
	v.bus.Dispatch(events.Event{Name: events.Idle, Source: v})
}

func (v *Viewer) refreshNotes() {
	for _, pv := range v.views {
		if pv.RenderingState() == render.StateFinished {
			pv.RefreshNotes()
		}
	}
}

// SetContainerSize sets the scroll window size in layout units. A preset
// scale is recomputed for the new size.
func (v *Viewer) SetContainerSize(width, height float64) {
	v.scroll.Width = max(0, width)
	v.scroll.Height = max(0, height)
	if isPreset(v.scaleValue) && len(v.views) > 0 {
		if scale, ok := v.scaleFor(v.scaleValue, v.rotation); ok {
			v.setScale(scale, v.scaleValue, false)
		}
	}
	v.scroll.Top, v.scroll.Left = v.clampScroll(v.scroll.Top, v.scroll.Left)
	v.Update()
}

// ScrollTo moves the scroll window. The direction of the move is recorded
// for read-ahead.
func (v *Viewer) ScrollTo(top, left float64) {
	top, left = v.clampScroll(top, left)
	if top != v.scroll.Top {
		v.scroll.Down = top > v.scroll.Top
	}
	if left != v.scroll.Left {
		v.scroll.Right = left > v.scroll.Left
	}
	v.scroll.Top = top
	v.scroll.Left = left
	v.Update()
}

// ScrollBy moves the scroll window by a delta.
func (v *Viewer) ScrollBy(dx, dy float64) {
	v.ScrollTo(v.scroll.Top+dy, v.scroll.Left+dx)
}

func (v *Viewer) clampScroll(top, left float64) (float64, float64) {
	w, h := v.contentSize(v.layout())
	top = min(top, h-v.scroll.Height)
	left = min(left, w-v.scroll.Width)
	return max(0, top), max(0, left)
}

// ScrollPageIntoView makes page n current and scrolls its top edge to the
// top of the window.
func (v *Viewer) ScrollPageIntoView(n int) error {
	if n < 1 || n > len(v.views) {
		return fmt.Errorf("scroll to page %d: %w", n, document.ErrPageOutOfRange)
	}
	v.setCurrent(n)
	box := v.layout()[n-1]
	v.ScrollTo(box.Y, v.scroll.Left)
	return nil
}

// NextPage scrolls to the page after the current one.
func (v *Viewer) NextPage() bool {
	return v.ScrollPageIntoView(v.current+1) == nil
}

// PreviousPage scrolls to the page before the current one.
func (v *Viewer) PreviousPage() bool {
	return v.ScrollPageIntoView(v.current-1) == nil
}

// ScrollToNote centres the window on a note.
func (v *Viewer) ScrollToNote(n notes.Note) error {
	id := n.PageIndex + 1
	if id < 1 || id > len(v.views) {
		return fmt.Errorf("scroll to note on page index %d: %w", n.PageIndex, document.ErrPageOutOfRange)
	}
	v.setCurrent(id)
	box := v.layout()[id-1]
	r := v.views[id-1].Viewport().ToDeviceRect(geometry.Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height})
	v.ScrollTo(box.Y+r.Y+r.H/2-v.scroll.Height/2, box.X+r.X+r.W/2-v.scroll.Width/2)
	return nil
}
