package viewer

import (
	"context"

	"github.com/five82/folio/internal/document"
	"github.com/five82/folio/internal/render"
)

// pageLoader fetches pages off the executor and hands them back on it. A
// page already being loaded is not requested twice, and results that arrive
// after reset are dropped.
type pageLoader struct {
	ctx     context.Context
	exec    render.Executor
	gen     int
	pending map[int]struct{}
}

func newPageLoader(ctx context.Context, exec render.Executor) *pageLoader {
	if ctx == nil {
		ctx = context.Background()
	}
	return &pageLoader{ctx: ctx, exec: exec, pending: make(map[int]struct{})}
}

// reset forgets pending loads; their results are discarded.
func (l *pageLoader) reset() {
	l.gen++
	clear(l.pending)
}

// loading reports whether page n is being fetched.
func (l *pageLoader) loading(n int) bool {
	_, ok := l.pending[n]
	return ok
}

// load fetches page n of doc and calls fn on the executor.
func (l *pageLoader) load(doc document.Document, n int, fn func(document.Page, error)) {
	if l.loading(n) {
		return
	}
	l.pending[n] = struct{}{}
	gen := l.gen
	ctx := l.ctx
	l.exec.Go(func() {
		p, err := doc.Page(ctx, n)
		l.exec.Post(func() {
			if gen != l.gen {
				return
			}
			delete(l.pending, n)
			fn(p, err)
		})
	})
}
