package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/state"
	"github.com/five82/folio/internal/viewer"
)

type fakeController struct {
	calls []string
	err   error
	next  notes.Note
}

func (f *fakeController) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeController) Resize(a, b, c, d int) {
	f.record("Resize(%d,%d,%d,%d)", a, b, c, d)
}

func (f *fakeController) ScrollBy(dx, dy int) {
	f.record("ScrollBy(%d,%d)", dx, dy)
}

func (f *fakeController) ScrollScreen(dir int) {
	f.record("ScrollScreen(%d)", dir)
}

func (f *fakeController) NextPage() {
	f.record("NextPage")
}

func (f *fakeController) PreviousPage() {
	f.record("PreviousPage")
}

func (f *fakeController) GoToPage(n int) error {
	f.record("GoToPage(%d)", n)
	return f.err
}

func (f *fakeController) SetScale(v string) error {
	f.record("SetScale(%s)", v)
	return f.err
}

func (f *fakeController) ZoomIn() {
	f.record("ZoomIn")
}

func (f *fakeController) ZoomOut() {
	f.record("ZoomOut")
}

func (f *fakeController) Rotate(d int) error {
	f.record("Rotate(%d)", d)
	return f.err
}

func (f *fakeController) SetSidebar(on bool) {
	f.record("SetSidebar(%t)", on)
}

func (f *fakeController) NextNote() (notes.Note, bool) {
	f.record("NextNote")
	return f.next, true
}

func (f *fakeController) PreviousNote() (notes.Note, bool) {
	f.record("PreviousNote")
	return notes.Note{}, false
}

func (f *fakeController) ShowNote(n notes.Note) error {
	f.record("ShowNote(%d)", n.PageIndex)
	return f.err
}

func (f *fakeController) AddNote(text string) error {
	f.record("AddNote(%s)", text)
	return f.err
}

func (f *fakeController) DeleteNote(n notes.Note) error {
	f.record("DeleteNote(%d)", n.PageIndex)
	return f.err
}

func newTestModel(t *testing.T) (Model, *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	cfg := config.Default()
	cfg.Log.File = ""
	m := NewModel(Options{
		Context:    t.Context(),
		Controller: ctrl,
		Config:     &cfg,
		Prefs:      prefs.Default(),
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	return m, ctrl
}

// update feeds msg to m and runs the returned command, following batches
// and feeding action results back in.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	return runCmd(t, m, cmd)
}

func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = runCmd(t, m, c)
		}
	case actionMsg:
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// typeText sends keystrokes to an open prompt. The cursor blink commands
// the text input returns are dropped.
func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(runes(string(r)))
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_KeysDriveController(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runes("j"), "ScrollBy(0,2)"},
		{tea.KeyMsg{Type: tea.KeyUp}, "ScrollBy(0,-2)"},
		{runes("l"), "ScrollBy(4,0)"},
		{runes(" "), "ScrollScreen(1)"},
		{runes("b"), "ScrollScreen(-1)"},
		{runes("]"), "NextPage"},
		{runes("["), "PreviousPage"},
		{runes("g"), "GoToPage(1)"},
		{runes("+"), "ZoomIn"},
		{runes("-"), "ZoomOut"},
		{runes("w"), "SetScale(page-width)"},
		{runes("f"), "SetScale(page-fit)"},
		{runes("0"), "SetScale(page-actual)"},
		{runes("r"), "Rotate(90)"},
		{runes("R"), "Rotate(-90)"},
		{runes("n"), "NextNote"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, ctrl := newTestModel(t)
			update(t, m, tt.key)
			if len(ctrl.calls) != 1 || ctrl.calls[0] != tt.want {
				t.Fatalf("calls = %v, want [%s]", ctrl.calls, tt.want)
			}
		})
	}
}

func TestModel_LastPageUsesSnapshot(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.snapshot.Frame = viewer.Frame{PageNumber: 1, PagesCount: 7}
	update(t, m, runes("G"))
	if !slices.Equal(ctrl.calls, []string{"GoToPage(7)"}) {
		t.Fatalf("calls = %v, want [GoToPage(7)]", ctrl.calls)
	}
}

func TestModel_WindowSizeResizesViewer(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if !slices.Equal(ctrl.calls, []string{"Resize(100,38,0,0)"}) {
		t.Fatalf("calls = %v", ctrl.calls)
	}

	// Same size again is not forwarded.
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if len(ctrl.calls) != 1 {
		t.Fatalf("repeated size forwarded: %v", ctrl.calls)
	}

	// The sidebar takes the thumbnail width plus padding and a border.
	ctrl.calls = nil
	update(t, m, runes("s"))
	want := []string{"Resize(75,38,24,38)", "SetSidebar(true)"}
	if !slices.Equal(ctrl.calls, want) {
		t.Fatalf("calls = %v, want %v", ctrl.calls, want)
	}
}

func TestModel_PanelShrinksPageArea(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	ctrl.calls = nil
	m = update(t, m, runes("o"))
	if m.panel != panelNotes || !m.focused {
		t.Fatalf("notes panel not open and focused")
	}
	if !slices.Equal(ctrl.calls, []string{"Resize(100,28,0,0)"}) {
		t.Fatalf("calls = %v", ctrl.calls)
	}
}

func TestModel_GoToPagePrompt(t *testing.T) {
	m, ctrl := newTestModel(t)
	next, _ := m.Update(runes(":"))
	m = next.(Model)
	if m.promptKind != promptPage {
		t.Fatalf("prompt not opened")
	}
	m = typeText(m, "12")
	if len(ctrl.calls) != 0 {
		t.Fatalf("typing reached the controller: %v", ctrl.calls)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !slices.Equal(ctrl.calls, []string{"GoToPage(12)"}) {
		t.Fatalf("calls = %v, want [GoToPage(12)]", ctrl.calls)
	}
	if m.promptKind != promptNone {
		t.Fatalf("prompt still open after enter")
	}
}

func TestModel_PromptRejectsBadPage(t *testing.T) {
	m, ctrl := newTestModel(t)
	next, _ := m.Update(runes(":"))
	m = next.(Model)
	m = typeText(m, "x")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(ctrl.calls) != 0 {
		t.Fatalf("calls = %v, want none", ctrl.calls)
	}
	if !m.statusErr || !strings.Contains(m.status, "not a page number") {
		t.Fatalf("status = %q, want a page number error", m.status)
	}
}

func TestModel_ScalePromptAcceptsPercent(t *testing.T) {
	m, ctrl := newTestModel(t)
	next, _ := m.Update(runes("z"))
	m = next.(Model)
	m = typeText(m, "150%")
	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !slices.Equal(ctrl.calls, []string{"SetScale(1.5)"}) {
		t.Fatalf("calls = %v, want [SetScale(1.5)]", ctrl.calls)
	}
}

func TestModel_EscapeCancelsPrompt(t *testing.T) {
	m, ctrl := newTestModel(t)
	next, _ := m.Update(runes("A"))
	m = next.(Model)
	m = typeText(m, "x")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.promptKind != promptNone || len(ctrl.calls) != 0 {
		t.Fatalf("prompt=%v calls=%v", m.promptKind, ctrl.calls)
	}
}

func TestModel_ActionErrorsShowInStatus(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.err = errors.New("page 9 out of range")
	m = update(t, m, runes("g"))
	if !m.statusErr || m.status != "page 9 out of range" {
		t.Fatalf("status = %q err=%v", m.status, m.statusErr)
	}
}

func TestModel_NotesPanelSelectsAndDeletes(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.snapshot = state.Snapshot{
		HasNotes: true,
		Notes: []notes.Note{
			{PageIndex: 0, Text: "intro"},
			{PageIndex: 2, Text: "budget"},
		},
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m = update(t, m, runes("o"))
	m = update(t, m, runes("j"))
	if m.noteCursor != 1 {
		t.Fatalf("noteCursor = %d, want 1", m.noteCursor)
	}
	ctrl.calls = nil
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	update(t, m, runes("d"))
	want := []string{"ShowNote(2)", "DeleteNote(2)"}
	if !slices.Equal(ctrl.calls, want) {
		t.Fatalf("calls = %v, want %v", ctrl.calls, want)
	}
}

func TestModel_NextNoteMovesCursor(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.snapshot.Notes = []notes.Note{{PageIndex: 0, Text: "a"}, {PageIndex: 1, Text: "b"}}
	ctrl.next = m.snapshot.Notes[1]
	m = update(t, m, runes("n"))
	if m.noteCursor != 1 {
		t.Fatalf("noteCursor = %d, want 1", m.noteCursor)
	}
}

func TestModel_ViewShowsHeader(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})
	m.snapshot = state.Snapshot{
		Title: "Quarterly report",
		Frame: viewer.Frame{
			Lines:      []string{"x"},
			PageNumber: 1,
			PagesCount: 3,
			Scale:      1.5,
			ScaleValue: "1.5",
			Rotation:   90,
			Failed:     []int{2},
		},
	}
	view := m.View()
	for _, want := range []string{"folio", "Quarterly report", "1/3", "150%", "90°", "Failed:"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View() missing %q", want)
		}
	}
	if got := strings.Count(view, "\n") + 1; got != 20 {
		t.Fatalf("View() has %d lines, want 20", got)
	}
}

func TestModel_QuitSavesPrefs(t *testing.T) {
	m, _ := newTestModel(t)
	m.snapshot.Frame = viewer.Frame{PagesCount: 2, ScaleValue: "page-fit", Rotation: 180}
	next, _ := m.Update(runes("T"))
	m = next.(Model)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command did not quit")
	}

	got, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	want := prefs.Prefs{Theme: "Dracula", Scale: "page-fit", Rotation: 180}
	if got != want {
		t.Fatalf("saved prefs = %+v, want %+v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a long title", 8, "a lon..."},
		{"abcdef", 3, "abc"},
		{"anything", 0, ""},
		{"übergröße", 6, "übe..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
	if got := truncateMiddle("/home/user/docs/report.pdf", 15); got != "/hom...port.pdf" {
		t.Fatalf("truncateMiddle = %q", got)
	}
}

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "OFFLINE"},
		{errors.New("dial tcp: connection refused"), "OFFLINE"},
		{errors.New("lookup notes: no such host"), "HOST NOT FOUND"},
		{errors.New("context deadline exceeded (Client.Timeout exceeded)"), "ERROR"},
		{errors.New("i/o timeout"), "TIMEOUT"},
	}
	for _, tt := range tests {
		if got := classifyConnectionError(tt.err); got != tt.want {
			t.Fatalf("classifyConnectionError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
