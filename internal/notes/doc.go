// Package notes holds the per-document note list the viewer overlays on
// pages, and the HTTP client that loads and saves it.
//
// # Ordering
//
// Notes are kept in one canonical order: page index descending, then y
// descending, x ascending, height ascending, width ascending and finally
// text in collation order. Next and Previous walk that order and wrap.
//
// # Saving
//
// Store never mutates its list in place. Add, Delete and SetText compute the
// new list and hand it to the save callback; the list only changes once the
// caller acknowledges the save by calling SetDocumentNotes.
package notes
