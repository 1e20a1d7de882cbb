// Package document loads display-list documents and paints their pages.
//
// A document file is TOML: a title and a list of pages, each with a size,
// a background and ordered ops (rect, line, circle, text, image). Painting
// runs as a RenderTask that yields between chunks so a scheduler can pause
// it, resume it or cancel it.
package document
