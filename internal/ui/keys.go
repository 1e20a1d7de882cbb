package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Focus      key.Binding
	Escape     key.Binding
	Confirm    key.Binding

	// Scrolling
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Pages
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	GoToPage  key.Binding

	// Scale and rotation
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	ScaleActual key.Binding
	ScaleWidth  key.Binding
	ScaleFit    key.Binding
	ScaleAuto   key.Binding
	ScalePrompt key.Binding
	RotateCW    key.Binding
	RotateCCW   key.Binding

	// Panels
	ToggleSidebar key.Binding
	ToggleNotes   key.Binding
	ToggleLogs    key.Binding

	// Notes
	NextNote   key.Binding
	PrevNote   key.Binding
	AddNote    key.Binding
	DeleteNote key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Focus panel"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("j/k", "Scroll"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/k", "Scroll"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/l", "Pan"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("h/l", "Pan"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("b", "pgup"),
			key.WithHelp("b/space", "Screen up/down"),
		),
		PageDown: key.NewBinding(
			key.WithKeys(" ", "pgdown"),
			key.WithHelp("b/space", "Screen up/down"),
		),

		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("[/]", "Prev/next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[/]", "Prev/next page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g/G", "First/last page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("g/G", "First/last page"),
		),
		GoToPage: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "Go to page"),
		),

		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "Zoom"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("+/-", "Zoom"),
		),
		ScaleActual: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "Actual size"),
		),
		ScaleWidth: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Fit width"),
		),
		ScaleFit: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Fit page"),
		),
		ScaleAuto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Automatic zoom"),
		),
		ScalePrompt: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "Set zoom"),
		),
		RotateCW: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r/R", "Rotate"),
		),
		RotateCCW: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("r/R", "Rotate"),
		),

		ToggleSidebar: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Thumbnails"),
		),
		ToggleNotes: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Notes"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log"),
		),

		NextNote: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n/N", "Next/prev note"),
		),
		PrevNote: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("n/N", "Next/prev note"),
		),
		AddNote: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Add note"),
		),
		DeleteNote: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete note"),
		),
	}
}

// ShortHelp implements help.KeyMap for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.NextPage, k.ZoomIn, k.ScaleWidth, k.RotateCW, k.ToggleSidebar, k.ToggleNotes, k.GoToPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Left, k.PageDown, k.NextPage, k.FirstPage, k.GoToPage},
		{k.ZoomIn, k.ScaleActual, k.ScaleWidth, k.ScaleFit, k.ScaleAuto, k.ScalePrompt, k.RotateCW},
		{k.ToggleSidebar, k.ToggleNotes, k.ToggleLogs, k.Focus, k.NextNote, k.AddNote, k.DeleteNote},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
