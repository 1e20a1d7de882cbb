package notes

import (
	"cmp"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Note is a rectangle of text pinned to a page. PageIndex is 0-based.
type Note struct {
	PageIndex int     `json:"pageIndex"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Text      string  `json:"text"`
}

// Document is the notes payload for one document.
type Document struct {
	DocumentID string `json:"documentId"`
	Revision   string `json:"revision"`
	PDFNotes   []Note `json:"pdfNotes"`
}

// SaveRequest is the body of a notes PUT.
type SaveRequest struct {
	PDFNotes []Note `json:"pdfNotes"`
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

// Compare orders notes canonically. Zero means the notes are the same note.
func Compare(a, b Note) int {
	if c := cmp.Compare(b.PageIndex, a.PageIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Y, a.Y); c != 0 {
		return c
	}
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Height, b.Height); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Width, b.Width); c != 0 {
		return c
	}
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a.Text, b.Text)
}

// Sort orders notes canonically in place.
func Sort(list []Note) {
	slices.SortStableFunc(list, Compare)
}

func indexOf(list []Note, n Note) int {
	return slices.IndexFunc(list, func(o Note) bool { return Compare(o, n) == 0 })
}
