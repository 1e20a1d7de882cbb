package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// notesPoller fetches a document's notes at a fixed cadence, backing off
// while the server is unreachable.
type notesPoller struct {
	store      *state.Store
	fetcher    notes.Fetcher
	documentID string
	interval   time.Duration
	// apply receives every successful fetch. It is called from the poller
	// goroutine and must hand the document to the render loop.
	apply func(notes.Document)
}

// Start launches a background goroutine that refreshes the notes. It
// returns immediately.
func (p *notesPoller) Start(ctx context.Context) {
	if p.interval <= 0 {
		p.interval = defaultPollInterval
	}
	go func() {
		failures := 0
		for {
			if p.refresh(ctx) {
				failures = 0
			} else {
				failures++
			}
			timer := time.NewTimer(calculateBackoff(failures, p.interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func (p *notesPoller) refresh(ctx context.Context) bool {
	doc, err := p.fetcher.FetchNotes(ctx, p.documentID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.store.UpdateNotes(nil, err)
		logrus.WithError(err).WithField("document", p.documentID).Warn("notes poll failed")
		return false
	}
	p.store.UpdateNotes(&doc, nil)
	if p.apply != nil {
		p.apply(doc)
	}
	return true
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
