package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/render"
	"github.com/five82/folio/internal/state"
	"github.com/five82/folio/internal/ui"
	"github.com/five82/folio/internal/viewer"
)

// Default size of a note added from the UI, in page units.
const (
	newNoteWidth  = 144
	newNoteHeight = 36
)

// session owns everything that lives on the render loop. Its exported
// methods implement ui.Controller.
type session struct {
	ctx   context.Context
	exec  render.Executor
	call  func(fn func()) error
	store *state.Store

	bus    *events.Bus
	queue  *render.Queue
	notes  *notes.Store
	viewer *viewer.Viewer
	thumbs *viewer.ThumbnailViewer

	title      string
	documentID string
	sidebar    bool
	current    *notes.Note
	publishing bool

	log *logrus.Entry
}

var _ ui.Controller = (*session)(nil)

type sessionOptions struct {
	Context context.Context
	Exec    render.Executor
	// Call runs fn on the executor and waits for it.
	Call       func(fn func()) error
	Store      *state.Store
	Fetcher    notes.Fetcher
	Viewer     config.Viewer
	DocumentID string
	Scale      string
	Rotation   int
	Sidebar    bool
}

func newSession(opts sessionOptions) *session {
	s := &session{
		ctx:        opts.Context,
		exec:       opts.Exec,
		call:       opts.Call,
		store:      opts.Store,
		bus:        events.NewBus(),
		documentID: opts.DocumentID,
		sidebar:    opts.Sidebar,
		log:        logrus.WithField("component", "session"),
	}
	cfg := opts.Viewer
	s.queue = render.NewQueue(opts.Exec, cfg.IdleTimeout)
	s.notes = notes.NewStore(s.bus, s.saver(opts.Fetcher))

	scale := opts.Scale
	if scale == "" {
		scale = cfg.DefaultScale
	}
	s.viewer = viewer.New(viewer.Options{
		Context:          opts.Context,
		Queue:            s.queue,
		Exec:             opts.Exec,
		Bus:              s.bus,
		Notes:            s.notes,
		Scale:            scale,
		CacheSize:        cfg.CacheSize,
		PageGap:          cfg.PageGap,
		DevicePixelRatio: cfg.DevicePixelRatio,
		MaxCanvasPixels:  cfg.MaxCanvasPixels,
		UseOnlyCSSZoom:   cfg.UseOnlyCSSZoom,
		RenderSlice:      cfg.RenderSlice,
	})
	s.thumbs = viewer.NewThumbnailViewer(viewer.ThumbnailOptions{
		Context:     opts.Context,
		Queue:       s.queue,
		Exec:        opts.Exec,
		Bus:         s.bus,
		Width:       cfg.ThumbnailWidth,
		PageGap:     cfg.PageGap,
		Enabled:     func() bool { return s.sidebar },
		RenderSlice: cfg.RenderSlice,
	})

	if opts.Rotation != 0 {
		s.bus.Once(events.PagesInit, func(events.Event) {
			if err := s.viewer.SetRotation(opts.Rotation); err != nil {
				s.log.WithError(err).Warn("ignoring saved rotation")
			}
		})
	}
	for _, name := range []events.Name{
		events.PagesInit,
		events.PageRendering,
		events.PageRendered,
		events.UpdateViewArea,
		events.ScaleChanging,
		events.RotationChanging,
		events.NotesChanged,
		events.Idle,
	} {
		s.bus.On(name, func(events.Event) { s.schedulePublish() })
	}
	return s
}

// saver persists note edits off the loop and applies the saved list back
// on it.
func (s *session) saver(f notes.Fetcher) notes.SaveFunc {
	if f == nil {
		return nil
	}
	return func(documentID string, list []notes.Note) {
		s.exec.Go(func() {
			doc, err := f.SaveNotes(s.ctx, documentID, list)
			if err != nil {
				s.log.WithError(err).Warn("unable to save notes")
				s.store.UpdateNotes(nil, err)
				return
			}
			s.store.UpdateNotes(&doc, nil)
			s.exec.Post(func() { s.notes.SetDocumentNotes(doc) })
		})
	}
}

// open loads a document into both viewers. Runs on the loop.
func (s *session) open(doc document.Document) {
	s.title = doc.Title()
	s.viewer.SetDocument(doc)
	s.thumbs.SetDocument(doc)
	s.notes.SetDocumentNotes(notes.Document{DocumentID: s.documentID})
}

// applyNotes replaces the note list when the server revision moved.
func (s *session) applyNotes(doc notes.Document) {
	if doc.Revision == s.notes.Revision() && doc.DocumentID == s.notes.DocumentID() {
		return
	}
	s.notes.SetDocumentNotes(doc)
}

// schedulePublish coalesces bursts of events into one frame.
func (s *session) schedulePublish() {
	if s.publishing {
		return
	}
	s.publishing = true
	s.exec.Post(s.publish)
}

func (s *session) publish() {
	s.publishing = false
	var sidebar []string
	if s.sidebar {
		sidebar = s.thumbs.Frame()
	}
	s.store.PublishFrame(s.title, s.viewer.Frame(), sidebar)
}

func (s *session) Resize(mainCols, mainRows, sideCols, sideRows int) {
	s.run(func() {
		// A cell is one layout unit wide and two tall.
		s.thumbs.SetContainerSize(float64(sideCols), float64(2*sideRows))
		s.viewer.SetContainerSize(float64(mainCols), float64(2*mainRows))
		s.schedulePublish()
	})
}

func (s *session) ScrollBy(dx, dy int) {
	s.run(func() { s.viewer.ScrollBy(float64(dx), float64(2*dy)) })
}

func (s *session) ScrollScreen(dir int) {
	s.run(func() {
		h := s.viewer.ScrollState().Height
		s.viewer.ScrollBy(0, float64(dir)*max(1, h-4))
	})
}

func (s *session) NextPage() {
	s.run(func() { s.viewer.NextPage() })
}

func (s *session) PreviousPage() {
	s.run(func() { s.viewer.PreviousPage() })
}

func (s *session) GoToPage(n int) error {
	var err error
	if cerr := s.run(func() { err = s.viewer.ScrollPageIntoView(n) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *session) SetScale(value string) error {
	var err error
	if cerr := s.run(func() { err = s.viewer.SetScale(value) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *session) ZoomIn() {
	s.run(func() { s.viewer.ZoomIn(1) })
}

func (s *session) ZoomOut() {
	s.run(func() { s.viewer.ZoomOut(1) })
}

func (s *session) Rotate(delta int) error {
	var err error
	if cerr := s.run(func() { err = s.viewer.SetRotation(s.viewer.Rotation() + delta) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *session) SetSidebar(on bool) {
	s.run(func() {
		if s.sidebar == on {
			return
		}
		s.sidebar = on
		if on {
			s.thumbs.ScrollThumbnailIntoView(s.viewer.CurrentPage())
			s.queue.RenderHighestPriority(nil)
		}
		s.schedulePublish()
	})
}

func (s *session) NextNote() (notes.Note, bool) {
	return s.stepNote(s.notes.Next)
}

func (s *session) PreviousNote() (notes.Note, bool) {
	return s.stepNote(s.notes.Previous)
}

func (s *session) stepNote(step func(*notes.Note) (notes.Note, bool)) (notes.Note, bool) {
	var (
		n  notes.Note
		ok bool
	)
	s.run(func() {
		if n, ok = step(s.current); ok {
			s.showNote(n)
		}
	})
	return n, ok
}

func (s *session) ShowNote(n notes.Note) error {
	var err error
	if cerr := s.run(func() { err = s.showNote(n) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *session) showNote(n notes.Note) error {
	if err := s.viewer.ScrollToNote(n); err != nil {
		return err
	}
	s.current = &n
	return nil
}

// AddNote pins a note to the middle of the current page.
func (s *session) AddNote(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("add note: text is empty")
	}
	var err error
	cerr := s.run(func() {
		pv := s.viewer.View(s.viewer.CurrentPage())
		if pv == nil {
			err = fmt.Errorf("add note: %w", document.ErrPageOutOfRange)
			return
		}
		box := pv.Viewport().ViewBox()
		w := min(newNoteWidth, box[2]-box[0])
		h := min(newNoteHeight, box[3]-box[1])
		n := notes.Note{
			PageIndex: pv.ID() - 1,
			X:         (box[0] + box[2] - w) / 2,
			Y:         (box[1] + box[3] - h) / 2,
			Width:     w,
			Height:    h,
			Text:      text,
		}
		s.notes.Add(n)
		s.current = &n
	})
	if cerr != nil {
		return cerr
	}
	return err
}

func (s *session) DeleteNote(n notes.Note) error {
	return s.run(func() {
		s.notes.Delete(n)
		if s.current != nil && notes.Compare(*s.current, n) == 0 {
			s.current = nil
		}
	})
}

func (s *session) run(fn func()) error {
	if err := s.call(fn); err != nil {
		return fmt.Errorf("viewer busy: %w", err)
	}
	return nil
}
