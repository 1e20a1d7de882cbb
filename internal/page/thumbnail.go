package page

import (
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/geometry"
	"github.com/five82/folio/internal/render"
)

// ThumbnailWidth is the default thumbnail width in pixels.
const ThumbnailWidth = 98

// ThumbnailOptions configure a thumbnail view.
type ThumbnailOptions struct {
	ID              int
	DefaultViewport geometry.Viewport
	Rotation        int
	Width           int

	Queue       Priority
	Exec        render.Executor
	Bus         *events.Bus
	RenderSlice time.Duration
	OpsPerChunk int
}

// Thumbnail renders a small copy of one page for the sidebar.
type Thumbnail struct {
	lifecycle

	exec        render.Executor
	bus         *events.Bus
	width       int
	slice       time.Duration
	opsPerChunk int

	page         document.Page
	box          [4]float64
	pageRotation int
	rotation     int
	viewport     geometry.Viewport

	surface *Surface
	err     error

	log *logrus.Entry
}

var (
	_ render.Renderable = (*Thumbnail)(nil)
	_ render.Buffered   = (*Thumbnail)(nil)
)

// NewThumbnail creates an unloaded thumbnail.
func NewThumbnail(opts ThumbnailOptions) *Thumbnail {
	width := opts.Width
	if width <= 0 {
		width = ThumbnailWidth
	}
	t := &Thumbnail{
		exec:        opts.Exec,
		bus:         opts.Bus,
		width:       width,
		slice:       opts.RenderSlice,
		opsPerChunk: opts.OpsPerChunk,
		rotation:    opts.Rotation,
		box:         opts.DefaultViewport.ViewBox(),
		log:         logrus.WithFields(logrus.Fields{"component": "thumbnail", "page": opts.ID}),
	}
	if opts.DefaultViewport.IsZero() {
		t.box = [4]float64{0, 0, 612, 792}
	}
	t.lifecycle = lifecycle{id: opts.ID, queue: opts.Queue, self: t}
	t.viewport = t.buildViewport()
	return t
}

// buildViewport scales the page so its rotated width equals the thumbnail width.
func (t *Thumbnail) buildViewport() geometry.Viewport {
	unit, err := geometry.NewViewport(t.box, geometry.WithRotation(t.pageRotation+t.rotation))
	if err != nil || unit.Width() <= 0 {
		t.log.WithError(err).Error("invalid thumbnail viewport")
		return t.viewport
	}
	vp, err := unit.Clone(geometry.WithScale(float64(t.width) / unit.Width()))
	if err != nil {
		return t.viewport
	}
	return vp
}

// Viewport returns the thumbnail viewport.
func (t *Thumbnail) Viewport() geometry.Viewport { return t.viewport }

// Surface returns the rendered thumbnail, or nil.
func (t *Thumbnail) Surface() *Surface { return t.surface }

// Err returns the last draw failure.
func (t *Thumbnail) Err() error { return t.err }

// Loaded reports whether the page has been loaded.
func (t *Thumbnail) Loaded() bool { return t.page != nil }

// SetPage attaches the loaded page.
func (t *Thumbnail) SetPage(p document.Page) {
	t.page = p
	if p != nil {
		t.loadErr = nil
		t.box = p.ViewBox()
		t.pageRotation = p.Rotation()
	}
	t.viewport = t.buildViewport()
	t.Reset()
}

// SetRotation changes the rotation and discards the thumbnail.
func (t *Thumbnail) SetRotation(rotation int) {
	t.rotation = rotation
	t.viewport = t.buildViewport()
	t.Reset()
}

// Reset discards the surface and any in-flight render.
func (t *Thumbnail) Reset() {
	t.CancelRendering()
	if t.surface != nil {
		t.surface.Release()
		t.surface = nil
	}
	t.err = nil
}

// Destroy releases the surface.
func (t *Thumbnail) Destroy() { t.Reset() }

// Draw renders the thumbnail from the page.
func (t *Thumbnail) Draw(done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if t.state != render.StateInitial {
		t.log.WithField("state", t.state).Error("draw requested for a thumbnail that is not initial")
		t.Reset()
	}
	if t.page == nil {
		t.state = render.StateFinished
		t.err = t.unloadedErr()
		err := t.err
		t.exec.Post(func() { done(err) })
		return
	}

	t.state = render.StateRunning
	surface := NewSurface(t.viewport, OutputScale{SX: 1, SY: 1})
	t.surface = surface

	task := t.page.Render(t.exec, document.RenderParams{
		Canvas:      surface.Canvas,
		Viewport:    t.viewport,
		Slice:       t.slice,
		OpsPerChunk: t.opsPerChunk,
	})
	t.task = task
	task.OnContinue = t.onContinue
	task.OnComplete(func(err error) {
		if t.task == task {
			t.task = nil
		}
		if errors.Is(err, document.ErrRenderingCancelled) || t.surface != surface {
			done(nil)
			return
		}
		t.state = render.StateFinished
		t.resume = nil
		t.err = err
		if err != nil {
			t.log.WithError(err).Debug("thumbnail render failed")
		}
		t.bus.Dispatch(events.Event{Name: events.PageRendered, Source: t, PageNumber: t.id, Thumbnail: true, Err: err})
		done(err)
	})
}

// SetImage fills an idle thumbnail from a finished page view instead of
// drawing it again. It does nothing when the page surface is missing,
// failed, rotated differently or smaller than the thumbnail.
func (t *Thumbnail) SetImage(v *View) bool {
	if t.state != render.StateInitial || v == nil {
		return false
	}
	src := v.Surface()
	if src == nil || src.Released() || v.RenderingState() != render.StateFinished || v.Err() != nil || v.CSSZoomed() {
		return false
	}
	if t.page == nil && v.Page() != nil {
		t.SetPage(v.Page())
	}
	if src.Viewport.Rotation() != t.viewport.Rotation() {
		return false
	}
	w, h := int(t.viewport.Width()), int(t.viewport.Height())
	if w <= 0 || h <= 0 || src.Width < w {
		return false
	}

	img := src.Image()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t.surface = surfaceFromImage(dst, t.viewport)
	t.state = render.StateFinished
	t.err = nil
	t.bus.Dispatch(events.Event{Name: events.PageRendered, Source: t, PageNumber: t.id, Thumbnail: true})
	return true
}
