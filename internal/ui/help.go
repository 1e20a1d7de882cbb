package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title    string
	bindings []key.Binding
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	k := m.keys

	sections := []helpSection{
		{"Scrolling", []key.Binding{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown}},
		{"Pages", []key.Binding{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.GoToPage}},
		{"Zoom", []key.Binding{k.ZoomIn, k.ZoomOut, k.ScaleActual, k.ScaleWidth, k.ScaleFit, k.ScaleAuto, k.ScalePrompt, k.RotateCW, k.RotateCCW}},
		{"Panels", []key.Binding{k.ToggleSidebar, k.ToggleNotes, k.ToggleLogs, k.Focus}},
		{"Notes", []key.Binding{k.NextNote, k.PrevNote, k.AddNote, k.DeleteNote}},
		{"General", []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}
	short := m.help
	short.Width = 36
	b.WriteString("\n")
	b.WriteString(short.View(k))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
