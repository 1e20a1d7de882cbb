package viewer

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/render"
)

func testDoc(t *testing.T, pages int, mutate func(i int, p *document.PageSpec)) *document.File {
	t.Helper()
	specs := make([]document.PageSpec, pages)
	for i := range specs {
		specs[i] = document.PageSpec{
			Width:  100,
			Height: 100,
			Ops: []document.Op{
				{Kind: "rect", X: 60, Y: 60, W: 30, H: 30, Color: "#224488", Fill: true},
			},
		}
		if mutate != nil {
			mutate(i, &specs[i])
		}
	}
	doc, err := document.New("test", specs, t.TempDir())
	if err != nil {
		t.Fatalf("document.New returned error: %v", err)
	}
	return doc
}

type recorder struct {
	events []events.Event
}

func record(bus *events.Bus, names ...events.Name) *recorder {
	r := &recorder{}
	for _, n := range names {
		bus.On(n, func(e events.Event) { r.events = append(r.events, e) })
	}
	return r
}

func (r *recorder) named(name events.Name) []events.Event {
	var out []events.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	loop   *render.ManualLoop
	queue  *render.Queue
	bus    *events.Bus
	viewer *Viewer
	rec    *recorder
}

func newFixture(t *testing.T, width, height float64, mutate func(*Options)) *fixture {
	t.Helper()
	loop := render.NewManualLoop()
	queue := render.NewQueue(loop, time.Second)
	bus := events.NewBus()
	rec := record(bus,
		events.PagesInit, events.PageChanging, events.ScaleChanging,
		events.RotationChanging, events.UpdateViewArea, events.Idle,
	)
	opts := Options{Queue: queue, Exec: loop, Bus: bus, Scale: "1"}
	if mutate != nil {
		mutate(&opts)
	}
	v := New(opts)
	v.SetContainerSize(width, height)
	return &fixture{loop: loop, queue: queue, bus: bus, viewer: v, rec: rec}
}

func (f *fixture) open(doc document.Document) {
	f.viewer.SetDocument(doc)
	f.loop.RunPending()
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestViewer_SetDocumentRendersVisibleThenReadsAhead(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(testDoc(t, 5, nil))

	inits := f.rec.named(events.PagesInit)
	if len(inits) != 1 || inits[0].PagesCount != 5 {
		t.Fatalf("pagesinit events = %+v, want one with 5 pages", inits)
	}
	want := []render.State{
		render.StateFinished, render.StateFinished,
		render.StateInitial, render.StateInitial, render.StateInitial,
	}
	for i, w := range want {
		if got := f.viewer.View(i + 1).RenderingState(); got != w {
			t.Fatalf("page %d state = %v, want %v", i+1, got, w)
		}
	}
	if f.loop.ActiveTimers() != 1 {
		t.Fatalf("ActiveTimers = %d, want the idle timer", f.loop.ActiveTimers())
	}

	f.loop.Advance(time.Second)
	if len(f.rec.named(events.Idle)) != 1 {
		t.Fatalf("idle did not fire after the queue drained")
	}
}

func TestViewer_ScrollTracksCurrentPageAndDirection(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(testDoc(t, 6, nil))

	f.viewer.ScrollBy(0, 150)
	f.loop.RunPending()

	if f.viewer.CurrentPage() != 2 {
		t.Fatalf("CurrentPage = %d, want 2", f.viewer.CurrentPage())
	}
	changes := f.rec.named(events.PageChanging)
	if len(changes) != 1 || changes[0].PageNumber != 2 || changes[0].Previous != 1 {
		t.Fatalf("pagechanging = %+v, want 1 -> 2", changes)
	}
	if !f.viewer.ScrollState().Down {
		t.Fatalf("scrolling down not recorded")
	}
	// Pages 2 and 3 are visible; 4 is read ahead in the scroll direction.
	for id, want := range map[int]render.State{3: render.StateFinished, 4: render.StateFinished, 5: render.StateInitial} {
		if got := f.viewer.View(id).RenderingState(); got != want {
			t.Fatalf("page %d state = %v, want %v", id, got, want)
		}
	}

	f.viewer.ScrollBy(0, -150)
	if f.viewer.ScrollState().Down {
		t.Fatalf("scrolling up not recorded")
	}
	if f.viewer.CurrentPage() != 1 {
		t.Fatalf("CurrentPage = %d, want 1", f.viewer.CurrentPage())
	}
	loc := f.rec.named(events.UpdateViewArea)
	if last := loc[len(loc)-1].Location; last.PageNumber != 1 || last.Scale != 1 {
		t.Fatalf("last location = %+v", last)
	}
}

func TestViewer_FailedPageDoesNotBlockOthers(t *testing.T) {
	doc := testDoc(t, 3, func(i int, p *document.PageSpec) {
		if i == 0 {
			p.Ops = append(p.Ops, document.Op{Kind: "image", Src: "missing.png", W: 10, H: 10})
		}
	})
	f := newFixture(t, 120, 100, nil)
	f.open(doc)

	first := f.viewer.View(1)
	if first.RenderingState() != render.StateFinished || first.Err() == nil {
		t.Fatalf("page 1 state=%v err=%v, want finished with error", first.RenderingState(), first.Err())
	}
	second := f.viewer.View(2)
	if second.RenderingState() != render.StateFinished || second.Err() != nil {
		t.Fatalf("page 2 state=%v err=%v, want rendered", second.RenderingState(), second.Err())
	}
	if failed := f.viewer.Frame().Failed; len(failed) != 1 || failed[0] != 1 {
		t.Fatalf("Frame().Failed = %v, want [1]", failed)
	}
}

func TestViewer_BufferBoundsRenderedPages(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(testDoc(t, 30, nil))

	for range 30 {
		f.viewer.ScrollBy(0, 102)
		f.loop.RunPending()

		withSurface := 0
		for _, pv := range f.viewer.Views() {
			if pv.Surface() != nil {
				withSurface++
			}
		}
		if size := f.viewer.Buffer().Size(); withSurface > size || f.viewer.Buffer().Len() > size {
			t.Fatalf("%d pages hold surfaces, buffer len %d, capacity %d", withSurface, f.viewer.Buffer().Len(), size)
		}
	}
	if f.viewer.CurrentPage() != 30 {
		t.Fatalf("CurrentPage = %d, want 30 at the end", f.viewer.CurrentPage())
	}
}

func TestViewer_SetScale(t *testing.T) {
	tests := []struct {
		value     string
		want      float64
		wantValue string
		wantErr   bool
	}{
		{value: "2", want: 2, wantValue: "2"},
		{value: "50", want: MaxScale, wantValue: "10"},
		{value: "page-actual", want: 1, wantValue: ScalePageActual},
		{value: "page-width", want: 1.18, wantValue: ScalePageWidth},
		{value: "page-height", want: 0.98, wantValue: ScalePageHeight},
		{value: "page-fit", want: 0.98, wantValue: ScalePageFit},
		{value: "auto", want: 1.18, wantValue: ScaleAuto},
		{value: "bogus", wantErr: true},
		{value: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			f := newFixture(t, 120, 100, nil)
			f.open(testDoc(t, 2, nil))

			err := f.viewer.SetScale(tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidScale) {
					t.Fatalf("SetScale(%q) error = %v, want ErrInvalidScale", tt.value, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetScale(%q) returned error: %v", tt.value, err)
			}
			if !approx(f.viewer.Scale(), tt.want) || f.viewer.ScaleValue() != tt.wantValue {
				t.Fatalf("scale = %v/%q, want %v/%q", f.viewer.Scale(), f.viewer.ScaleValue(), tt.want, tt.wantValue)
			}
		})
	}
}

func TestViewer_PresetScaleFollowsContainer(t *testing.T) {
	f := newFixture(t, 120, 100, func(o *Options) { o.Scale = ScalePageWidth })
	f.open(testDoc(t, 2, nil))
	if !approx(f.viewer.Scale(), 1.18) {
		t.Fatalf("initial page-width scale = %v, want 1.18", f.viewer.Scale())
	}

	f.viewer.SetContainerSize(202, 100)
	if !approx(f.viewer.Scale(), 2) {
		t.Fatalf("scale after resize = %v, want 2", f.viewer.Scale())
	}
	scales := f.rec.named(events.ScaleChanging)
	if last := scales[len(scales)-1]; last.PresetValue != ScalePageWidth {
		t.Fatalf("scalechanging preset = %q, want page-width", last.PresetValue)
	}
}

func TestViewer_ZoomSteps(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(testDoc(t, 1, nil))

	steps := []struct {
		zoom func()
		want float64
	}{
		{func() { f.viewer.ZoomIn(1) }, 1.1},
		{func() { f.viewer.ZoomIn(1) }, 1.3},
		{func() { f.viewer.ZoomOut(1) }, 1.1},
		{func() { f.viewer.ZoomOut(100) }, MinScale},
		{func() { f.viewer.ZoomIn(200) }, MaxScale},
	}
	for i, s := range steps {
		s.zoom()
		if !approx(f.viewer.Scale(), s.want) {
			t.Fatalf("step %d: scale = %v, want %v", i, f.viewer.Scale(), s.want)
		}
	}
}

func TestViewer_ScaleChangeKeepsZoomLayerUntilRendered(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(testDoc(t, 2, nil))
	pv := f.viewer.View(1)
	old := pv.Surface()

	if err := f.viewer.SetScale("2"); err != nil {
		t.Fatalf("SetScale returned error: %v", err)
	}
	if pv.ZoomLayer() != old || pv.RenderingState() != render.StateRunning {
		t.Fatalf("zoom layer=%v state=%v, want old surface while re-rendering", pv.ZoomLayer() == old, pv.RenderingState())
	}

	f.loop.RunPending()
	if pv.ZoomLayer() != nil || pv.Surface().Width != 200 {
		t.Fatalf("after render: zoom layer %v, width %d", pv.ZoomLayer(), pv.Surface().Width)
	}
}

func TestViewer_SetRotation(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(testDoc(t, 2, nil))

	if err := f.viewer.SetRotation(45); err == nil {
		t.Fatalf("SetRotation(45) succeeded")
	}
	if err := f.viewer.SetRotation(-270); err != nil {
		t.Fatalf("SetRotation(-270) returned error: %v", err)
	}
	if f.viewer.Rotation() != 90 {
		t.Fatalf("Rotation = %d, want 90", f.viewer.Rotation())
	}
	rot := f.rec.named(events.RotationChanging)
	if len(rot) != 1 || rot[0].Rotation != 90 {
		t.Fatalf("rotationchanging = %+v", rot)
	}

	f.loop.RunPending()
	if got := f.viewer.View(1).Surface().Viewport.Rotation(); got != 90 {
		t.Fatalf("surface rotation = %d, want 90", got)
	}
}

func TestViewer_ScrollPageIntoViewKeepsFullyVisiblePage(t *testing.T) {
	f := newFixture(t, 120, 250, nil)
	f.open(testDoc(t, 3, nil))

	if err := f.viewer.ScrollPageIntoView(3); err != nil {
		t.Fatalf("ScrollPageIntoView returned error: %v", err)
	}
	// Page 2 is listed first in the visible set, but page 3 is still fully
	// visible and stays current.
	if f.viewer.CurrentPage() != 3 {
		t.Fatalf("CurrentPage = %d, want 3", f.viewer.CurrentPage())
	}
	if err := f.viewer.ScrollPageIntoView(9); !errors.Is(err, document.ErrPageOutOfRange) {
		t.Fatalf("ScrollPageIntoView(9) error = %v, want ErrPageOutOfRange", err)
	}
	if !f.viewer.PreviousPage() || f.viewer.CurrentPage() != 2 {
		t.Fatalf("PreviousPage did not move to page 2")
	}
}

func TestViewer_SetDocumentCancelsRunningRender(t *testing.T) {
	f := newFixture(t, 120, 100, func(o *Options) { o.OpsPerChunk = 1 })
	f.viewer.SetDocument(testDoc(t, 3, nil))
	for i := 0; i < 10; i++ {
		if pv := f.viewer.View(1); pv != nil && pv.RenderingState() == render.StateRunning {
			break
		}
		f.loop.Step()
	}
	old := f.viewer.View(1)
	if old == nil || old.RenderingState() != render.StateRunning {
		t.Fatalf("page 1 never started rendering")
	}

	f.open(testDoc(t, 2, nil))

	if old.RenderingState() != render.StateInitial || old.Task() != nil || old.Surface() != nil {
		t.Fatalf("old view state=%v task=%v, want destroyed", old.RenderingState(), old.Task())
	}
	if f.viewer.PagesCount() != 2 {
		t.Fatalf("PagesCount = %d, want 2", f.viewer.PagesCount())
	}
	if f.viewer.View(1) == old || f.viewer.View(1).RenderingState() != render.StateFinished {
		t.Fatalf("new document did not render")
	}
}

func TestViewer_NotesOverlayFollowsStore(t *testing.T) {
	bus := events.NewBus()
	store := notes.NewStore(bus, nil)
	loop := render.NewManualLoop()
	v := New(Options{Queue: render.NewQueue(loop, time.Second), Exec: loop, Bus: bus, Notes: store, Scale: "1"})
	v.SetContainerSize(120, 100)
	v.SetDocument(testDoc(t, 2, nil))
	loop.RunPending()

	store.SetDocumentNotes(notes.Document{PDFNotes: []notes.Note{
		{PageIndex: 0, X: 10, Y: 10, Width: 20, Height: 20, Text: "check"},
	}})
	if got := len(v.View(1).Overlay()); got != 1 {
		t.Fatalf("overlay has %d notes, want 1", got)
	}

	img := v.Compose()
	// Page 1 sits at x=10, y=2; the note covers page pixels 10..30.
	tinted := img.RGBAAt(25, 22)
	plain := img.RGBAAt(15, 50)
	if tinted.B >= plain.B || tinted.R < 0xf0 {
		t.Fatalf("note pixel %v not tinted against page pixel %v", tinted, plain)
	}
}

func TestViewer_FrameMatchesContainer(t *testing.T) {
	f := newFixture(t, 40, 30, nil)
	f.open(testDoc(t, 4, nil))

	frame := f.viewer.Frame()
	if len(frame.Lines) != 15 {
		t.Fatalf("Frame has %d lines, want 15", len(frame.Lines))
	}
	for i, line := range frame.Lines {
		if w := lipgloss.Width(line); w != 40 {
			t.Fatalf("line %d width = %d, want 40", i, w)
		}
	}
	if frame.PageNumber != 1 || frame.PagesCount != 4 || frame.Rendering != 0 {
		t.Fatalf("frame state = %+v", frame)
	}
}

func TestHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	lines := HalfBlocks(img)
	if len(lines) != 2 {
		t.Fatalf("HalfBlocks returned %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if lipgloss.Width(line) != 3 {
			t.Fatalf("line width = %d, want 3", lipgloss.Width(line))
		}
	}
	if got := HalfBlocks(image.NewRGBA(image.Rect(0, 0, 0, 0))); len(got) != 0 {
		t.Fatalf("empty image produced %d lines", len(got))
	}
}

func TestViewer_EmptyDocument(t *testing.T) {
	f := newFixture(t, 120, 100, nil)
	f.open(nil)
	if f.viewer.PagesCount() != 0 || f.viewer.ForceRendering(nil) {
		t.Fatalf("empty viewer scheduled work")
	}
	if len(f.rec.named(events.PagesInit)) != 1 {
		t.Fatalf("pagesinit not dispatched for an empty viewer")
	}
}
