package document

import (
	"context"
	"errors"
	"time"

	"github.com/gogpu/gg"

	"github.com/five82/folio/internal/geometry"
	"github.com/five82/folio/internal/render"
)

// ErrPageOutOfRange is returned when a page number is outside the document.
var ErrPageOutOfRange = errors.New("page out of range")

// Document is a sequence of pages.
type Document interface {
	Title() string
	NumPages() int
	// Page loads page n (1-based). It may block on I/O and is safe to call
	// off the render loop.
	Page(ctx context.Context, n int) (Page, error)
	// Cleanup drops cached page resources that no render is using. It runs on
	// the render loop.
	Cleanup()
}

// Page is a loaded page that can paint itself.
type Page interface {
	Number() int
	// ViewBox is the page box in page units: xMin, yMin, xMax, yMax.
	ViewBox() [4]float64
	// Rotation is the page's intrinsic rotation in degrees.
	Rotation() int
	// Render starts painting on exec and returns the running task.
	Render(exec render.Executor, params RenderParams) *RenderTask
}

// RenderParams describes one paint of a page onto a canvas.
type RenderParams struct {
	Canvas   *gg.Context
	Viewport geometry.Viewport
	// OutputScale maps viewport units to canvas pixels. Zero means 1.
	OutputScale float64
	// Slice bounds the time spent per chunk. Zero means DefaultSlice.
	Slice time.Duration
	// OpsPerChunk caps the operations painted per chunk. Zero means no cap.
	OpsPerChunk int
}

func (p RenderParams) transform() gg.Matrix {
	s := p.OutputScale
	if s <= 0 {
		s = 1
	}
	return gg.Scale(s, s).Multiply(p.Viewport.Transform())
}
