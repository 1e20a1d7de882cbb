package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/viewer"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Title   string
	Frame   viewer.Frame
	Sidebar []string
	// Version increases with every published frame.
	Version uint64

	Notes               []notes.Note
	NotesRevision       string
	HasNotes            bool
	LastSynced          time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive note sync failures
}

// IsOffline returns true when the notes server has been unreachable for
// multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates the render loop, the notes poller and the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	once    sync.Once
	changed chan struct{}
}

// Changed returns a channel that receives a value after updates. Updates
// made while nobody is receiving coalesce into one.
func (s *Store) Changed() <-chan struct{} {
	s.once.Do(func() { s.changed = make(chan struct{}, 1) })
	return s.changed
}

func (s *Store) notify() {
	s.once.Do(func() { s.changed = make(chan struct{}, 1) })
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// PublishFrame replaces the viewer picture. Called from the render loop.
func (s *Store) PublishFrame(title string, frame viewer.Frame, sidebar []string) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Title = title
	s.snapshot.Frame = frame
	s.snapshot.Sidebar = sidebar
	s.snapshot.Version++
}

// UpdateNotes records a note sync. When err is non-nil the previous notes
// are kept but the error is recorded for visibility.
func (s *Store) UpdateNotes(doc *notes.Document, err error) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastSynced = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if doc != nil {
		s.snapshot.Notes = slices.Clone(doc.PDFNotes)
		s.snapshot.NotesRevision = doc.Revision
		s.snapshot.HasNotes = true
	} else {
		s.snapshot.Notes = nil
		s.snapshot.NotesRevision = ""
		s.snapshot.HasNotes = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Notes = slices.Clone(s.snapshot.Notes)
	snap.Sidebar = slices.Clone(s.snapshot.Sidebar)
	snap.Frame.Lines = slices.Clone(s.snapshot.Frame.Lines)
	snap.Frame.Failed = slices.Clone(s.snapshot.Frame.Failed)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
