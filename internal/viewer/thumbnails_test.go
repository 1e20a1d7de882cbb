package viewer

import (
	"testing"

	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/render"
)

type sidebarFixture struct {
	*fixture
	thumbs  *ThumbnailViewer
	enabled bool
}

func newSidebarFixture(t *testing.T, pages int, enabled bool) *sidebarFixture {
	t.Helper()
	f := newFixture(t, 120, 100, nil)
	s := &sidebarFixture{fixture: f, enabled: enabled}
	s.thumbs = NewThumbnailViewer(ThumbnailOptions{
		Queue:   f.queue,
		Exec:    f.loop,
		Bus:     f.bus,
		Width:   20,
		Enabled: func() bool { return s.enabled },
	})
	s.thumbs.SetContainerSize(30, 50)

	doc := testDoc(t, pages, nil)
	f.viewer.SetDocument(doc)
	s.thumbs.SetDocument(doc)
	f.loop.RunPending()
	return s
}

func TestThumbnails_ReusePageSurfaces(t *testing.T) {
	s := newSidebarFixture(t, 5, false)

	for id, want := range map[int]render.State{1: render.StateFinished, 2: render.StateFinished, 3: render.StateInitial} {
		if got := s.thumbs.Thumbnail(id).RenderingState(); got != want {
			t.Fatalf("thumbnail %d state = %v, want %v", id, got, want)
		}
	}
	if w := s.thumbs.Thumbnail(1).Surface().Width; w != 20 {
		t.Fatalf("thumbnail width = %d, want 20", w)
	}
}

func TestThumbnails_RenderOnlyWhenViewerIdle(t *testing.T) {
	s := newSidebarFixture(t, 6, true)

	// Pages 1 and 2 come from the page viewer; 3 is the last visible
	// thumbnail and 4 is read ahead.
	for id := 1; id <= 4; id++ {
		th := s.thumbs.Thumbnail(id)
		if th.RenderingState() != render.StateFinished || th.Err() != nil {
			t.Fatalf("thumbnail %d state=%v err=%v, want finished", id, th.RenderingState(), th.Err())
		}
	}
	if got := s.thumbs.Thumbnail(5).RenderingState(); got != render.StateInitial {
		t.Fatalf("thumbnail 5 state = %v, want initial", got)
	}
	if s.viewer.View(3).RenderingState() != render.StateInitial {
		t.Fatalf("page 3 rendered although it is neither visible nor next")
	}
	if s.loop.ActiveTimers() != 1 {
		t.Fatalf("queue did not go idle")
	}
}

func TestThumbnails_FollowCurrentPage(t *testing.T) {
	s := newSidebarFixture(t, 8, true)

	if err := s.viewer.ScrollPageIntoView(5); err != nil {
		t.Fatalf("ScrollPageIntoView returned error: %v", err)
	}
	if !s.thumbs.Visible().Contains(5) {
		t.Fatalf("thumbnail 5 not visible, sidebar at %v", s.thumbs.ScrollState().Top)
	}
	if top := s.thumbs.ScrollState().Top; top != 62 {
		t.Fatalf("sidebar top = %v, want 62", top)
	}

	s.loop.RunPending()
	if got := s.thumbs.Thumbnail(5).RenderingState(); got != render.StateFinished {
		t.Fatalf("thumbnail 5 state = %v, want finished", got)
	}
}

func TestThumbnails_RotationFollowsViewer(t *testing.T) {
	s := newSidebarFixture(t, 3, false)

	if err := s.viewer.SetRotation(180); err != nil {
		t.Fatalf("SetRotation returned error: %v", err)
	}
	th := s.thumbs.Thumbnail(1)
	if th.Viewport().Rotation() != 180 || th.RenderingState() != render.StateInitial {
		t.Fatalf("thumbnail rotation=%d state=%v", th.Viewport().Rotation(), th.RenderingState())
	}

	s.loop.RunPending()
	if th.RenderingState() != render.StateFinished {
		t.Fatalf("rotated page did not refill its thumbnail")
	}
}

func TestThumbnails_FrameOutlinesCurrent(t *testing.T) {
	s := newSidebarFixture(t, 3, true)
	img := s.thumbs.Compose()
	// Thumbnail 1 sits at x=5, y=2 in a 30px wide sidebar.
	if got := img.RGBAAt(5, 10); got != selectedColor {
		t.Fatalf("outline pixel = %v, want %v", got, selectedColor)
	}
	if lines := s.thumbs.Frame(); len(lines) != 25 {
		t.Fatalf("Frame has %d lines, want 25", len(lines))
	}
}

func TestThumbnails_IgnoreCSSOnlyRenders(t *testing.T) {
	s := newSidebarFixture(t, 2, false)
	th := s.thumbs.Thumbnail(1)
	th.Reset()

	s.bus.Dispatch(events.Event{Name: events.PageRendered, Source: s.viewer.View(1), PageNumber: 1, CSSTransform: true})
	if th.RenderingState() != render.StateInitial {
		t.Fatalf("css-only rezoom refilled a thumbnail")
	}
	s.bus.Dispatch(events.Event{Name: events.PageRendered, Source: s.viewer.View(1), PageNumber: 1})
	if th.RenderingState() != render.StateFinished {
		t.Fatalf("rendered page did not refill its thumbnail")
	}
}
