package page

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/geometry"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/render"
)

// Options configure a page view.
type Options struct {
	ID int
	// DefaultViewport is used until the page itself is loaded.
	DefaultViewport geometry.Viewport
	Scale           float64
	Rotation        int

	Queue Priority
	Exec  render.Executor
	Bus   *events.Bus
	Notes *notes.Store

	DevicePixelRatio float64
	MaxCanvasPixels  int
	UseOnlyCSSZoom   bool
	RenderSlice      time.Duration
	OpsPerChunk      int

	// OnBeforeDraw runs when a draw starts; the viewer uses it to touch
	// the view in its buffer.
	OnBeforeDraw func(*View)
}

// View renders one document page at full size.
type View struct {
	lifecycle

	exec         render.Executor
	bus          *events.Bus
	notes        *notes.Store
	onBeforeDraw func(*View)

	dpr             float64
	maxCanvasPixels int
	useOnlyCSSZoom  bool
	slice           time.Duration
	opsPerChunk     int

	page         document.Page
	pageRotation int
	scale        float64
	rotation     int
	viewport     geometry.Viewport

	surface              *Surface
	zoomLayer            *Surface
	hasRestrictedScaling bool
	cssZoomed            bool
	overlay              []notes.Note
	err                  error

	log *logrus.Entry
}

var (
	_ render.Renderable = (*View)(nil)
	_ render.Buffered   = (*View)(nil)
)

// NewView creates an unloaded page view.
func NewView(opts Options) *View {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	v := &View{
		exec:            opts.Exec,
		bus:             opts.Bus,
		notes:           opts.Notes,
		onBeforeDraw:    opts.OnBeforeDraw,
		dpr:             opts.DevicePixelRatio,
		maxCanvasPixels: opts.MaxCanvasPixels,
		useOnlyCSSZoom:  opts.UseOnlyCSSZoom,
		slice:           opts.RenderSlice,
		opsPerChunk:     opts.OpsPerChunk,
		scale:           scale,
		rotation:        opts.Rotation,
		log:             logrus.WithFields(logrus.Fields{"component": "page-view", "page": opts.ID}),
	}
	v.lifecycle = lifecycle{id: opts.ID, queue: opts.Queue, self: v}
	box := opts.DefaultViewport.ViewBox()
	if opts.DefaultViewport.IsZero() {
		box = [4]float64{0, 0, 612, 792}
	}
	v.viewport = v.buildViewport(box)
	return v
}

func (v *View) buildViewport(box [4]float64) geometry.Viewport {
	vp, err := geometry.NewViewport(box, geometry.WithScale(v.scale), geometry.WithRotation(v.pageRotation+v.rotation))
	if err != nil {
		v.log.WithError(err).Error("invalid viewport")
		return v.viewport
	}
	return vp
}

// Page returns the loaded page, or nil.
func (v *View) Page() document.Page { return v.page }

// Loaded reports whether the page has been loaded.
func (v *View) Loaded() bool { return v.page != nil }

// Viewport returns the current viewport.
func (v *View) Viewport() geometry.Viewport { return v.viewport }

// Scale returns the current scale.
func (v *View) Scale() float64 { return v.scale }

// Surface returns the current surface, or nil.
func (v *View) Surface() *Surface { return v.surface }

// ZoomLayer returns the previous surface shown while a re-render runs.
func (v *View) ZoomLayer() *Surface { return v.zoomLayer }

// HasRestrictedScaling reports whether the last draw hit the pixel cap.
func (v *View) HasRestrictedScaling() bool { return v.hasRestrictedScaling }

// CSSZoomed reports whether the surface is shown stretched to a viewport it
// was not painted for.
func (v *View) CSSZoomed() bool { return v.cssZoomed }

// Err returns the last draw failure.
func (v *View) Err() error { return v.err }

// Overlay returns the notes painted over the page.
func (v *View) Overlay() []notes.Note { return v.overlay }

// SetPage attaches the loaded page and rebuilds the viewport from its box.
func (v *View) SetPage(p document.Page) {
	v.page = p
	if p == nil {
		v.Reset()
		return
	}
	v.loadErr = nil
	v.pageRotation = p.Rotation()
	v.viewport = v.buildViewport(p.ViewBox())
	v.Reset()
}

// Update changes scale and rotation. A finished surface is kept and
// stretched when re-rendering would exceed the pixel cap; otherwise the view
// resets and the old surface stays visible as a zoom layer until the new
// render completes.
func (v *View) Update(scale float64, rotation int) {
	if scale > 0 {
		v.scale = scale
	}
	v.rotation = rotation
	v.viewport = v.buildViewport(v.viewport.ViewBox())

	if v.surface != nil {
		if v.onlyCSSZoom() {
			v.cssZoomed = true
			v.bus.Dispatch(events.Event{Name: events.PageRendered, Source: v, PageNumber: v.id, CSSTransform: true})
			return
		}
		if v.zoomLayer == nil && v.state == render.StateFinished && v.err == nil {
			v.zoomLayer = v.surface
			v.surface = nil
		}
	}
	v.reset(true)
}

func (v *View) onlyCSSZoom() bool {
	if v.surface.Viewport.Rotation() != v.viewport.Rotation() {
		return false
	}
	if v.useOnlyCSSZoom {
		return true
	}
	if !v.hasRestrictedScaling || v.maxCanvasPixels <= 0 {
		return false
	}
	w := int(math.Floor(v.viewport.Width()) * v.surface.Scale.SX)
	h := int(math.Floor(v.viewport.Height()) * v.surface.Scale.SY)
	return w*h > v.maxCanvasPixels
}

// Reset discards the surface and any in-flight render.
func (v *View) Reset() { v.reset(false) }

func (v *View) reset(keepZoomLayer bool) {
	v.CancelRendering()
	if v.surface != nil {
		v.surface.Release()
		v.surface = nil
	}
	if !keepZoomLayer && v.zoomLayer != nil {
		v.zoomLayer.Release()
		v.zoomLayer = nil
	}
	v.cssZoomed = false
	v.overlay = nil
	v.err = nil
}

// Destroy releases every surface. The view can render again later.
func (v *View) Destroy() {
	v.reset(false)
	v.hasRestrictedScaling = false
}

// Draw starts rendering the page. done runs once drawing settles; a
// cancelled draw settles with nil.
func (v *View) Draw(done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if v.state != render.StateInitial {
		v.log.WithField("state", v.state).Error("draw requested for a view that is not initial")
		v.Reset()
	}
	if v.page == nil {
		v.state = render.StateFinished
		v.err = v.unloadedErr()
		err := v.err
		v.exec.Post(func() { done(err) })
		return
	}

	v.state = render.StateRunning
	if v.onBeforeDraw != nil {
		v.onBeforeDraw(v)
	}

	scale, restricted := ComputeOutputScale(v.viewport, v.dpr, v.maxCanvasPixels)
	v.hasRestrictedScaling = restricted
	surface := NewSurface(v.viewport, scale)
	v.surface = surface
	v.cssZoomed = false
	v.err = nil

	v.bus.Dispatch(events.Event{Name: events.PageRendering, Source: v, PageNumber: v.id})

	task := v.page.Render(v.exec, document.RenderParams{
		Canvas:      surface.Canvas,
		Viewport:    v.viewport,
		OutputScale: scale.SX,
		Slice:       v.slice,
		OpsPerChunk: v.opsPerChunk,
	})
	v.task = task
	task.OnContinue = v.onContinue
	task.OnComplete(func(err error) { v.finishDraw(task, surface, err, done) })
}

func (v *View) finishDraw(task *document.RenderTask, surface *Surface, err error, done func(error)) {
	if v.task == task {
		v.task = nil
	}
	if errors.Is(err, document.ErrRenderingCancelled) || v.surface != surface {
		done(nil)
		return
	}

	v.state = render.StateFinished
	v.resume = nil
	if v.zoomLayer != nil {
		v.zoomLayer.Release()
		v.zoomLayer = nil
	}

	if err != nil {
		v.err = err
		v.log.WithError(err).Debug("page render failed")
		v.bus.Dispatch(events.Event{Name: events.PageRendered, Source: v, PageNumber: v.id, Err: err})
		done(err)
		return
	}

	v.RefreshNotes()
	v.bus.Dispatch(events.Event{Name: events.PageRendered, Source: v, PageNumber: v.id})
	done(nil)
}

// RefreshNotes re-reads this page's notes from the store.
func (v *View) RefreshNotes() {
	if v.notes == nil {
		v.overlay = nil
		return
	}
	v.overlay = v.notes.ForPage(v.id - 1)
}

// NoteRects returns the overlay notes in surface-independent device space
// of the current viewport.
func (v *View) NoteRects() []geometry.Rect {
	if len(v.overlay) == 0 {
		return nil
	}
	out := make([]geometry.Rect, 0, len(v.overlay))
	for _, n := range v.overlay {
		out = append(out, v.viewport.ToDeviceRect(geometry.Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height}))
	}
	return out
}

// PaintNotes draws the overlay onto a canvas using transform m.
func PaintNotes(c *gg.Context, m gg.Matrix, list []notes.Note) error {
	if len(list) == 0 {
		return nil
	}
	c.Push()
	defer c.Pop()
	c.SetTransform(m)
	for _, n := range list {
		c.SetRGBA(1, 0.84, 0, 0.35)
		c.DrawRectangle(n.X, n.Y, n.Width, n.Height)
		if err := c.Fill(); err != nil {
			return fmt.Errorf("fill note: %w", err)
		}
		c.SetRGBA(0.85, 0.6, 0, 1)
		c.SetLineWidth(1)
		c.DrawRectangle(n.X, n.Y, n.Width, n.Height)
		if err := c.Stroke(); err != nil {
			return fmt.Errorf("stroke note: %w", err)
		}
	}
	return nil
}
