package notes

import (
	"slices"
	"sync"

	"github.com/five82/folio/internal/events"
)

// SaveFunc persists a new note list for a document. Implementations
// acknowledge by calling Store.SetDocumentNotes with the saved list.
type SaveFunc func(documentID string, list []Note)

// Store is the viewer's copy of a document's notes.
type Store struct {
	bus  *events.Bus
	save SaveFunc

	mu         sync.RWMutex
	documentID string
	revision   string
	list       []Note
}

// NewStore creates an empty store. bus may be nil.
func NewStore(bus *events.Bus, save SaveFunc) *Store {
	return &Store{bus: bus, save: save}
}

// SetDocumentNotes replaces the list and dispatches noteschanged.
func (s *Store) SetDocumentNotes(doc Document) {
	list := slices.Clone(doc.PDFNotes)
	Sort(list)

	s.mu.Lock()
	s.documentID = doc.DocumentID
	s.revision = doc.Revision
	s.list = list
	s.mu.Unlock()

	s.bus.Dispatch(events.Event{Name: events.NotesChanged, Source: s})
}

// DocumentID returns the document the notes belong to.
func (s *Store) DocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID
}

// Revision returns the revision of the current list.
func (s *Store) Revision() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// All returns a copy of every note in canonical order.
func (s *Store) All() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.list)
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// Next returns the note after n, wrapping around. A nil n returns the first
// note; an unknown n also returns the first note.
func (s *Store) Next(n *Note) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.list) == 0 {
		return Note{}, false
	}
	if n == nil {
		return s.list[0], true
	}
	i := indexOf(s.list, *n)
	return s.list[(i+1)%len(s.list)], true
}

// Previous returns the note before n, wrapping around. A nil or unknown n
// returns the last note.
func (s *Store) Previous(n *Note) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.list) == 0 {
		return Note{}, false
	}
	i := -1
	if n != nil {
		i = indexOf(s.list, *n)
	}
	if i <= 0 {
		return s.list[len(s.list)-1], true
	}
	return s.list[i-1], true
}

// ForPage returns the notes on the 0-based page index.
func (s *Store) ForPage(pageIndex int) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Note
	for _, n := range s.list {
		if n.PageIndex == pageIndex {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the i-th note on a page.
func (s *Store) Get(pageIndex, indexOnPage int) (Note, bool) {
	onPage := s.ForPage(pageIndex)
	if indexOnPage < 0 || indexOnPage >= len(onPage) {
		return Note{}, false
	}
	return onPage[indexOnPage], true
}

// Add saves the list with n added. Adding an existing note does nothing.
func (s *Store) Add(n Note) {
	s.mu.RLock()
	if indexOf(s.list, n) != -1 {
		s.mu.RUnlock()
		return
	}
	list := append(slices.Clone(s.list), n)
	s.mu.RUnlock()

	Sort(list)
	s.persist(list)
}

// Delete saves the list without n. Deleting an unknown note does nothing.
func (s *Store) Delete(n Note) {
	s.mu.RLock()
	i := indexOf(s.list, n)
	if i == -1 {
		s.mu.RUnlock()
		return
	}
	list := slices.Delete(slices.Clone(s.list), i, i+1)
	s.mu.RUnlock()

	s.persist(list)
}

// SetText saves the list with the text of n replaced.
func (s *Store) SetText(n Note, text string) {
	s.mu.RLock()
	changed := false
	list := slices.Clone(s.list)
	for i, o := range list {
		if Compare(o, n) == 0 && o.Text != text {
			list[i].Text = text
			changed = true
		}
	}
	s.mu.RUnlock()

	if changed {
		Sort(list)
		s.persist(list)
	}
}

func (s *Store) persist(list []Note) {
	if s.save == nil {
		return
	}
	s.save(s.DocumentID(), list)
}
