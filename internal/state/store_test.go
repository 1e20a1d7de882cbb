package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/viewer"
)

func TestStore_UpdateNotesAndSnapshotClone(t *testing.T) {
	var s Store

	doc := &notes.Document{
		DocumentID: "doc",
		Revision:   "01J",
		PDFNotes:   []notes.Note{{PageIndex: 1, Text: "a"}, {PageIndex: 0, Text: "b"}},
	}

	before := time.Now()
	s.UpdateNotes(doc, nil)

	snap := s.Snapshot()
	if !snap.HasNotes || snap.NotesRevision != "01J" {
		t.Fatalf("snapshot revision = %q HasNotes=%v, want 01J/true", snap.NotesRevision, snap.HasNotes)
	}
	if len(snap.Notes) != 2 || snap.Notes[0].Text != "a" {
		t.Fatalf("snapshot notes = %#v, want 2 notes", snap.Notes)
	}
	if snap.LastSynced.Before(before) {
		t.Fatalf("LastSynced = %v, want >= %v", snap.LastSynced, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Notes[0].Text = "changed"
	if s.Snapshot().Notes[0].Text != "a" {
		t.Fatalf("Snapshot should clone notes")
	}
}

func TestStore_UpdateErrorKeepsPreviousNotes(t *testing.T) {
	var s Store

	s.UpdateNotes(&notes.Document{Revision: "r1", PDFNotes: []notes.Note{{Text: "kept"}}}, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.UpdateNotes(nil, origErr)

	snap := s.Snapshot()
	if snap.NotesRevision != prev.NotesRevision || len(snap.Notes) != 1 {
		t.Fatalf("notes changed on error: got %#v want %#v", snap.Notes, prev.Notes)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	tests := []struct {
		err     error
		want    int
		offline bool
	}{
		{errors.New("fail 1"), 1, false},
		{errors.New("fail 2"), 2, true},
		{errors.New("fail 3"), 3, true},
		{nil, 0, false},
	}
	for _, tt := range tests {
		var doc *notes.Document
		if tt.err == nil {
			doc = &notes.Document{}
		}
		s.UpdateNotes(doc, tt.err)
		snap := s.Snapshot()
		if snap.ConsecutiveFailures != tt.want || snap.IsOffline() != tt.offline {
			t.Fatalf("after %v: failures=%d offline=%v, want %d/%v", tt.err, snap.ConsecutiveFailures, snap.IsOffline(), tt.want, tt.offline)
		}
	}
}

func TestStore_PublishFrame(t *testing.T) {
	var s Store

	s.PublishFrame("Report", viewer.Frame{Lines: []string{"a", "b"}, PageNumber: 3}, []string{"x"})
	s.PublishFrame("Report", viewer.Frame{Lines: []string{"c"}, PageNumber: 4}, nil)

	snap := s.Snapshot()
	if snap.Version != 2 || snap.Title != "Report" || snap.Frame.PageNumber != 4 {
		t.Fatalf("snapshot = %+v", snap)
	}
	snap.Frame.Lines[0] = "mutated"
	if s.Snapshot().Frame.Lines[0] != "c" {
		t.Fatalf("Snapshot should clone frame lines")
	}
}

func TestStore_ChangedCoalesces(t *testing.T) {
	var s Store

	s.PublishFrame("a", viewer.Frame{}, nil)
	s.UpdateNotes(nil, errors.New("offline"))

	select {
	case <-s.Changed():
	default:
		t.Fatalf("Changed did not fire after updates")
	}
	select {
	case <-s.Changed():
		t.Fatalf("Changed fired twice for coalesced updates")
	default:
	}
}
