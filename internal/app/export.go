package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/page"
	"github.com/five82/folio/internal/render"
)

// ExportOptions configure a headless export.
type ExportOptions struct {
	DocumentPath string
	OutDir       string
	Scale        float64
	Rotation     int
	Viewer       config.Viewer
	// Notes are painted onto the pages when set.
	Notes *notes.Document
}

// Export renders every page of a document to page-NNN.png files and
// returns their paths. Pages go through the rendering queue in printing
// mode on a manual loop, so no idle cleanup runs between them.
func Export(ctx context.Context, opts ExportOptions) ([]string, error) {
	doc, err := document.Load(opts.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	defer doc.Cleanup()

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	loop := render.NewManualLoop()
	queue := render.NewQueue(loop, opts.Viewer.IdleTimeout)
	queue.SetPrinting(true)
	bus := events.NewBus()
	store := notes.NewStore(bus, nil)
	if opts.Notes != nil {
		store.SetDocumentNotes(*opts.Notes)
	}

	paths := make([]string, 0, doc.NumPages())
	for n := 1; n <= doc.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := exportPage(ctx, loop, queue, bus, store, doc, n, scale, opts)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	logrus.WithFields(logrus.Fields{"pages": len(paths), "dir": opts.OutDir}).Info("export finished")
	return paths, nil
}

func exportPage(ctx context.Context, loop *render.ManualLoop, queue *render.Queue, bus *events.Bus, store *notes.Store, doc document.Document, n int, scale float64, opts ExportOptions) (string, error) {
	p, err := doc.Page(ctx, n)
	if err != nil {
		return "", fmt.Errorf("load page %d: %w", n, err)
	}
	pv := page.NewView(page.Options{
		ID:               n,
		Scale:            scale,
		Rotation:         opts.Rotation,
		Queue:            queue,
		Exec:             loop,
		Bus:              bus,
		Notes:            store,
		DevicePixelRatio: opts.Viewer.DevicePixelRatio,
		MaxCanvasPixels:  opts.Viewer.MaxCanvasPixels,
	})
	defer pv.Destroy()
	pv.SetPage(p)

	queue.RenderView(pv)
	loop.RunPending()
	if pv.RenderingState() != render.StateFinished {
		return "", fmt.Errorf("render page %d: stopped in state %v", n, pv.RenderingState())
	}
	if err := pv.Err(); err != nil {
		return "", fmt.Errorf("render page %d: %w", n, err)
	}

	surface := pv.Surface()
	if err := page.PaintNotes(surface.Canvas, surface.Transform(), pv.Overlay()); err != nil {
		return "", fmt.Errorf("paint notes on page %d: %w", n, err)
	}
	path := filepath.Join(opts.OutDir, fmt.Sprintf("page-%03d.png", n))
	if err := surface.Canvas.SavePNG(path); err != nil {
		return "", fmt.Errorf("write page %d: %w", n, err)
	}
	return path, nil
}
