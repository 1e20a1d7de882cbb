package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/notes"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/state"
)

const (
	uiTick         = time.Second
	panelHeight    = 8
	logLines       = 200
	sidebarPadding = 4
	statusTTL      = 4 * time.Second
)

// Options configure the terminal UI.
type Options struct {
	Context    context.Context
	Store      *state.Store
	Controller Controller
	Config     *config.Config
	Prefs      prefs.Prefs
	PrefsPath  string
}

type panelKind int

const (
	panelNone panelKind = iota
	panelNotes
	panelLogs
)

type promptKind int

const (
	promptNone promptKind = iota
	promptPage
	promptScale
	promptNote
)

type (
	tickMsg         time.Time
	storeChangedMsg struct{}
)

type logsMsg struct {
	lines []string
	err   error
}

// actionMsg carries the outcome of a Controller call.
type actionMsg struct {
	err  error
	note *notes.Note
}

// Model is the bubbletea model of the viewer UI.
type Model struct {
	ctx   context.Context
	store *state.Store
	ctrl  Controller
	cfg   *config.Config

	prefs     prefs.Prefs
	prefsPath string

	theme Theme
	keys  keyMap
	help  help.Model

	width, height int
	sized         [4]int

	snapshot state.Snapshot

	showHelp bool
	sidebar  bool
	panel    panelKind
	focused  bool

	notesView  viewport.Model
	noteCursor int

	logView  viewport.Model
	logLines []string

	prompt     textinput.Model
	promptKind promptKind

	status    string
	statusErr bool
	statusAt  time.Time
}

// NewModel builds the UI model.
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return Model{
		ctx:       ctx,
		store:     opts.Store,
		ctrl:      opts.Controller,
		cfg:       cfg,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		theme:     GetTheme(opts.Prefs.Theme),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		sidebar:   opts.Prefs.Sidebar,
		notesView: viewport.New(0, 0),
		logView:   viewport.New(0, 0),
		prompt:    ti,
	}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(opts Options) error {
	m := NewModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForStore())
}

func tick() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForStore() tea.Cmd {
	if m.store == nil {
		return nil
	}
	ctx, ch := m.ctx, m.store.Changed()
	return func() tea.Msg {
		select {
		case <-ch:
			return storeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) readLogs() tea.Cmd {
	path := m.cfg.Log.File
	return func() tea.Msg {
		lines, err := readLogTail(path)
		return logsMsg{lines: lines, err: err}
	}
}

// do runs fn against the controller off the UI goroutine.
func (m Model) do(fn func(Controller) error) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		return actionMsg{err: fn(ctrl)}
	}
}

func (m Model) doNote(fn func(Controller) (notes.Note, bool)) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		n, ok := fn(ctrl)
		if !ok {
			return actionMsg{}
		}
		return actionMsg{note: &n}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		cmd := m.resize()
		return m, cmd

	case storeChangedMsg:
		m.snapshot = m.store.Snapshot()
		m.refreshNotesView()
		return m, m.waitForStore()

	case tickMsg:
		cmds := []tea.Cmd{tick()}
		if m.panel == panelLogs {
			cmds = append(cmds, m.readLogs())
		}
		if m.status != "" && time.Since(m.statusAt) > statusTTL {
			m.status = ""
		}
		return m, tea.Batch(cmds...)

	case logsMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.logLines = msg.lines
		m.refreshLogView()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		if msg.note != nil {
			m.selectNote(*msg.note)
		}
		return m, nil

	case tea.KeyMsg:
		if m.promptKind != promptNone {
			return m.updatePrompt(msg)
		}
		if m.showHelp {
			if key.Matches(msg, m.keys.Help, m.keys.Escape, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
	m.statusAt = time.Now()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	if m.focused && m.panel != panelNone {
		if cmd, handled := m.handlePanelKey(msg); handled {
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, k.Quit):
		m.savePrefs()
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.refreshNotesView()
		m.refreshLogView()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, k.Down):
		return m, m.do(func(c Controller) error { c.ScrollBy(0, 2); return nil })
	case key.Matches(msg, k.Up):
		return m, m.do(func(c Controller) error { c.ScrollBy(0, -2); return nil })
	case key.Matches(msg, k.Left):
		return m, m.do(func(c Controller) error { c.ScrollBy(-4, 0); return nil })
	case key.Matches(msg, k.Right):
		return m, m.do(func(c Controller) error { c.ScrollBy(4, 0); return nil })
	case key.Matches(msg, k.PageDown):
		return m, m.do(func(c Controller) error { c.ScrollScreen(1); return nil })
	case key.Matches(msg, k.PageUp):
		return m, m.do(func(c Controller) error { c.ScrollScreen(-1); return nil })

	case key.Matches(msg, k.NextPage):
		return m, m.do(func(c Controller) error { c.NextPage(); return nil })
	case key.Matches(msg, k.PrevPage):
		return m, m.do(func(c Controller) error { c.PreviousPage(); return nil })
	case key.Matches(msg, k.FirstPage):
		return m, m.do(func(c Controller) error { return c.GoToPage(1) })
	case key.Matches(msg, k.LastPage):
		last := m.snapshot.Frame.PagesCount
		return m, m.do(func(c Controller) error { return c.GoToPage(last) })
	case key.Matches(msg, k.GoToPage):
		cmd := m.openPrompt(promptPage, "Page: ")
		return m, cmd

	case key.Matches(msg, k.ZoomIn):
		return m, m.do(func(c Controller) error { c.ZoomIn(); return nil })
	case key.Matches(msg, k.ZoomOut):
		return m, m.do(func(c Controller) error { c.ZoomOut(); return nil })
	case key.Matches(msg, k.ScaleActual):
		return m, m.setScale("page-actual")
	case key.Matches(msg, k.ScaleWidth):
		return m, m.setScale("page-width")
	case key.Matches(msg, k.ScaleFit):
		return m, m.setScale("page-fit")
	case key.Matches(msg, k.ScaleAuto):
		return m, m.setScale("auto")
	case key.Matches(msg, k.ScalePrompt):
		cmd := m.openPrompt(promptScale, "Zoom: ")
		return m, cmd
	case key.Matches(msg, k.RotateCW):
		return m, m.do(func(c Controller) error { return c.Rotate(90) })
	case key.Matches(msg, k.RotateCCW):
		return m, m.do(func(c Controller) error { return c.Rotate(-90) })

	case key.Matches(msg, k.ToggleSidebar):
		m.sidebar = !m.sidebar
		on := m.sidebar
		cmd := m.resize()
		return m, tea.Batch(cmd, m.do(func(c Controller) error { c.SetSidebar(on); return nil }))
	case key.Matches(msg, k.ToggleNotes):
		m.togglePanel(panelNotes)
		cmd := m.resize()
		return m, cmd
	case key.Matches(msg, k.ToggleLogs):
		m.togglePanel(panelLogs)
		cmds := []tea.Cmd{m.resize()}
		if m.panel == panelLogs {
			cmds = append(cmds, m.readLogs())
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, k.Focus):
		if m.panel != panelNone {
			m.focused = !m.focused
		}
		return m, nil

	case key.Matches(msg, k.NextNote):
		return m, m.doNote(func(c Controller) (notes.Note, bool) { return c.NextNote() })
	case key.Matches(msg, k.PrevNote):
		return m, m.doNote(func(c Controller) (notes.Note, bool) { return c.PreviousNote() })
	case key.Matches(msg, k.AddNote):
		cmd := m.openPrompt(promptNote, "Note: ")
		return m, cmd
	}
	return m, nil
}

// handlePanelKey handles keys while the bottom panel has focus.
func (m *Model) handlePanelKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	k := m.keys
	switch m.panel {
	case panelNotes:
		list := m.snapshot.Notes
		switch {
		case key.Matches(msg, k.Down):
			if m.noteCursor < len(list)-1 {
				m.noteCursor++
				m.refreshNotesView()
			}
			return nil, true
		case key.Matches(msg, k.Up):
			if m.noteCursor > 0 {
				m.noteCursor--
				m.refreshNotesView()
			}
			return nil, true
		case key.Matches(msg, k.Confirm):
			if n, ok := m.selectedNote(); ok {
				return m.do(func(c Controller) error { return c.ShowNote(n) }), true
			}
			return nil, true
		case key.Matches(msg, k.DeleteNote):
			if n, ok := m.selectedNote(); ok {
				return m.do(func(c Controller) error { return c.DeleteNote(n) }), true
			}
			return nil, true
		}
	case panelLogs:
		switch {
		case key.Matches(msg, k.Down):
			m.logView.ScrollDown(1)
			return nil, true
		case key.Matches(msg, k.Up):
			m.logView.ScrollUp(1)
			return nil, true
		case key.Matches(msg, k.FirstPage):
			m.logView.GotoTop()
			return nil, true
		case key.Matches(msg, k.LastPage):
			m.logView.GotoBottom()
			return nil, true
		}
	}
	if key.Matches(msg, k.Escape) {
		m.focused = false
		return nil, true
	}
	return nil, false
}

func (m *Model) togglePanel(p panelKind) {
	if m.panel == p {
		m.panel = panelNone
		m.focused = false
		return
	}
	m.panel = p
	m.focused = true
}

func (m Model) setScale(value string) tea.Cmd {
	return m.do(func(c Controller) error { return c.SetScale(value) })
}

func (m *Model) openPrompt(kind promptKind, label string) tea.Cmd {
	m.promptKind = kind
	m.prompt.Prompt = label
	m.prompt.SetValue("")
	return m.prompt.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.prompt.Value())
		kind := m.promptKind
		m.closePrompt()
		if value == "" {
			return m, nil
		}
		cmd := m.submitPrompt(kind, value)
		return m, cmd
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.promptKind = promptNone
	m.prompt.Blur()
}

func (m *Model) submitPrompt(kind promptKind, value string) tea.Cmd {
	switch kind {
	case promptPage:
		n, err := strconv.Atoi(value)
		if err != nil {
			m.setStatus("not a page number: "+value, true)
			return nil
		}
		return m.do(func(c Controller) error { return c.GoToPage(n) })
	case promptScale:
		// "150%" means 1.5.
		if pct, ok := strings.CutSuffix(value, "%"); ok {
			if f, err := strconv.ParseFloat(pct, 64); err == nil {
				value = strconv.FormatFloat(f/100, 'f', -1, 64)
			}
		}
		return m.setScale(value)
	case promptNote:
		return m.do(func(c Controller) error { return c.AddNote(value) })
	}
	return nil
}

// layout returns the main and sidebar areas in cells.
func (m Model) layout() (mainCols, mainRows, sideCols, sideRows int) {
	rows := m.height - 2 // header and command bar
	if m.panel != panelNone {
		rows -= m.panelRows() + 2 // title and border
	}
	rows = max(rows, 0)
	cols := m.width
	if m.sidebar {
		sideCols = min(m.cfg.Viewer.ThumbnailWidth+sidebarPadding, cols/3)
		cols -= sideCols + 1
		sideRows = rows
	}
	return max(cols, 0), rows, sideCols, sideRows
}

func (m Model) panelRows() int {
	return min(panelHeight, max(m.height/3, 1))
}

func (m *Model) resize() tea.Cmd {
	mainCols, mainRows, sideCols, sideRows := m.layout()
	w := max(m.width-4, 0)
	m.notesView.Width, m.notesView.Height = w, m.panelRows()
	m.logView.Width, m.logView.Height = w, m.panelRows()
	m.refreshNotesView()
	m.refreshLogView()

	sized := [4]int{mainCols, mainRows, sideCols, sideRows}
	if sized == m.sized {
		return nil
	}
	m.sized = sized
	return m.do(func(c Controller) error {
		c.Resize(mainCols, mainRows, sideCols, sideRows)
		return nil
	})
}

func (m *Model) savePrefs() {
	p := m.prefs
	p.Theme = m.theme.Name
	p.Sidebar = m.sidebar
	if v := m.snapshot.Frame.ScaleValue; v != "" {
		p.Scale = v
	}
	if m.snapshot.Frame.PagesCount > 0 {
		p.Rotation = m.snapshot.Frame.Rotation
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		logrus.WithError(err).Warn("unable to save preferences")
		return
	}
	m.prefs = p
}
