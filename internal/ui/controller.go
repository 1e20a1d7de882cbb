package ui

import "github.com/five82/folio/internal/notes"

// Controller drives the viewer on behalf of the UI. Implementations run each
// call on the render loop; methods that return an error wait for it.
type Controller interface {
	// Resize sets the viewer and sidebar areas in terminal cells.
	Resize(mainCols, mainRows, sideCols, sideRows int)

	// ScrollBy scrolls by whole cells.
	ScrollBy(dx, dy int)
	// ScrollScreen scrolls by a window height; dir is 1 or -1.
	ScrollScreen(dir int)
	NextPage()
	PreviousPage()
	GoToPage(n int) error

	SetScale(value string) error
	ZoomIn()
	ZoomOut()
	Rotate(delta int) error

	SetSidebar(on bool)

	NextNote() (notes.Note, bool)
	PreviousNote() (notes.Note, bool)
	ShowNote(n notes.Note) error
	AddNote(text string) error
	DeleteNote(n notes.Note) error
}
