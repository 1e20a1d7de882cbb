package notes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/five82/folio/internal/events"
)

func TestCompare_CanonicalOrder(t *testing.T) {
	list := []Note{
		{PageIndex: 0, Y: 10, X: 5, Text: "b"},
		{PageIndex: 1, Y: 10, X: 5, Text: "a"},
		{PageIndex: 0, Y: 20, X: 5, Text: "c"},
		{PageIndex: 0, Y: 10, X: 1, Text: "d"},
		{PageIndex: 0, Y: 10, X: 5, Text: "a"},
		{PageIndex: 0, Y: 10, X: 5, Height: 1, Text: "a"},
	}
	Sort(list)

	want := []string{"a", "c", "d", "a", "b", "a"}
	for i, n := range list {
		if n.Text != want[i] {
			t.Fatalf("order = %+v, want texts %v", list, want)
		}
	}
	if list[0].PageIndex != 1 || list[5].Height != 1 {
		t.Fatalf("order = %+v", list)
	}
}

func TestStore_NextPreviousWrap(t *testing.T) {
	s := NewStore(nil, nil)
	if _, ok := s.Next(nil); ok {
		t.Fatalf("Next on empty store returned a note")
	}

	s.SetDocumentNotes(Document{DocumentID: "doc", PDFNotes: []Note{
		{PageIndex: 0, Text: "third"},
		{PageIndex: 2, Text: "first"},
		{PageIndex: 1, Text: "second"},
	}})

	first, _ := s.Next(nil)
	if first.Text != "first" {
		t.Fatalf("Next(nil) = %q, want first", first.Text)
	}
	last, _ := s.Previous(nil)
	if last.Text != "third" {
		t.Fatalf("Previous(nil) = %q, want third", last.Text)
	}
	if n, _ := s.Next(&last); n.Text != "first" {
		t.Fatalf("Next(last) = %q, want wrap to first", n.Text)
	}
	if n, _ := s.Previous(&first); n.Text != "third" {
		t.Fatalf("Previous(first) = %q, want wrap to third", n.Text)
	}
	second, _ := s.Next(&first)
	if p, _ := s.Previous(&second); p.Text != "first" {
		t.Fatalf("Previous(second) = %q, want first", p.Text)
	}
}

func TestStore_MutationsGoThroughSave(t *testing.T) {
	bus := events.NewBus()
	changes := 0
	bus.On(events.NotesChanged, func(events.Event) { changes++ })

	var saved [][]Note
	var s *Store
	s = NewStore(bus, func(documentID string, list []Note) {
		if documentID != "doc" {
			t.Fatalf("save documentID = %q, want doc", documentID)
		}
		saved = append(saved, list)
		s.SetDocumentNotes(Document{DocumentID: documentID, PDFNotes: list})
	})
	s.SetDocumentNotes(Document{DocumentID: "doc"})

	a := Note{PageIndex: 0, X: 1, Y: 1, Width: 10, Height: 10, Text: "a"}
	s.Add(a)
	s.Add(a)
	if len(saved) != 1 || s.Len() != 1 {
		t.Fatalf("saves=%d len=%d after duplicate add, want 1/1", len(saved), s.Len())
	}

	s.SetText(a, "a")
	if len(saved) != 1 {
		t.Fatalf("unchanged text triggered a save")
	}
	s.SetText(a, "edited")
	got, ok := s.Get(0, 0)
	if !ok || got.Text != "edited" {
		t.Fatalf("Get(0,0) = %+v, want edited text", got)
	}

	s.Delete(a)
	if len(saved) != 2 {
		t.Fatalf("delete of stale note saved: %d", len(saved))
	}
	s.Delete(got)
	if s.Len() != 0 || len(saved) != 3 {
		t.Fatalf("len=%d saves=%d after delete, want 0/3", s.Len(), len(saved))
	}
	if changes != 4 {
		t.Fatalf("noteschanged dispatched %d times, want 4", changes)
	}
}

func TestStore_ForPage(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetDocumentNotes(Document{PDFNotes: []Note{
		{PageIndex: 1, Y: 5, Text: "low"},
		{PageIndex: 1, Y: 50, Text: "high"},
		{PageIndex: 3, Text: "other"},
	}})
	onPage := s.ForPage(1)
	if len(onPage) != 2 || onPage[0].Text != "high" {
		t.Fatalf("ForPage(1) = %+v", onPage)
	}
	if _, ok := s.Get(1, 2); ok {
		t.Fatalf("Get past the end returned a note")
	}
}

func TestClient_FetchAndSave(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotContentType string
	var gotBody SaveRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(Document{DocumentID: "doc 1", Revision: "r1", PDFNotes: []Note{{Text: "x"}}})
		case http.MethodPut:
			gotContentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(Document{DocumentID: "doc 1", Revision: "r2", PDFNotes: gotBody.PDFNotes})
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	doc, err := c.FetchNotes(ctx, "doc 1")
	if err != nil {
		t.Fatalf("FetchNotes returned error: %v", err)
	}
	if doc.Revision != "r1" || len(doc.PDFNotes) != 1 {
		t.Fatalf("FetchNotes = %+v", doc)
	}
	if gotMethod != http.MethodGet || gotPath != "/api/documents/doc 1/pdf-notes" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}

	doc, err = c.SaveNotes(ctx, "doc 1", nil)
	if err != nil {
		t.Fatalf("SaveNotes returned error: %v", err)
	}
	if gotMethod != http.MethodPut || gotContentType != "application/json" {
		t.Fatalf("save request = %s content-type %q", gotMethod, gotContentType)
	}
	if gotBody.PDFNotes == nil || doc.Revision != "r2" {
		t.Fatalf("save body = %+v, response = %+v", gotBody, doc)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(server.URL)
	if _, err := c.FetchNotes(context.Background(), "doc"); err == nil {
		t.Fatalf("FetchNotes returned nil error for 409")
	}
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != defaultAPIBind {
		t.Fatalf("url = %q", u.String())
	}
	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}
