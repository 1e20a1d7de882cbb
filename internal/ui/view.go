package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/logtail"
	"github.com/five82/folio/internal/notes"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}

	sections := []string{m.renderHeader(), m.renderBody()}
	if m.panel != panelNone {
		sections = append(sections, m.renderPanel())
	}
	sections = append(sections, m.renderCommandBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderBody places the thumbnail sidebar next to the page area.
func (m Model) renderBody() string {
	mainCols, rows, sideCols, _ := m.layout()
	bg := NewBgStyle(m.theme.Background)

	main := fitLines(m.snapshot.Frame.Lines, mainCols, rows, bg)
	if !m.sidebar || sideCols == 0 {
		return strings.Join(main, "\n")
	}
	side := fitLines(m.snapshot.Sidebar, sideCols, rows, bg)
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Border)).
		Background(lipgloss.Color(m.theme.Background)).Render("│")

	out := make([]string, rows)
	for i := range rows {
		out[i] = side[i] + border + main[i]
	}
	return strings.Join(out, "\n")
}

// fitLines pads or cuts rendered lines to exactly rows lines of cols cells.
func fitLines(lines []string, cols, rows int, bg BgStyle) []string {
	out := make([]string, rows)
	for i := range rows {
		if i < len(lines) && lipgloss.Width(lines[i]) <= cols {
			out[i] = bg.FillLine(lines[i], cols)
			continue
		}
		out[i] = bg.Spaces(cols)
	}
	return out
}

func (m Model) renderPanel() string {
	borderColor := m.theme.Border
	if m.focused {
		borderColor = m.theme.BorderFocus
	}
	styles := m.theme.Styles()

	var title, body string
	switch m.panel {
	case panelNotes:
		title = fmt.Sprintf("Notes (%d)", len(m.snapshot.Notes))
		body = m.notesView.View()
	case panelLogs:
		title = "Log " + truncateMiddle(m.cfg.Log.File, max(m.width-12, 10))
		body = m.logView.View()
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true, false, false, false).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(m.width).
		PaddingLeft(2)
	return styles.AccentText.Bold(true).PaddingLeft(1).Render(title) + "\n" + box.Render(body)
}

func (m *Model) refreshNotesView() {
	list := m.snapshot.Notes
	if m.noteCursor >= len(list) {
		m.noteCursor = max(len(list)-1, 0)
	}
	styles := m.theme.Styles()
	if len(list) == 0 {
		m.notesView.SetContent(styles.FaintText.Render("No notes. Press A to add one to the current page."))
		return
	}
	lines := make([]string, len(list))
	width := max(m.notesView.Width-16, 10)
	for i, n := range list {
		text := strings.ReplaceAll(n.Text, "\n", " ")
		line := fmt.Sprintf("p.%-4d %s", n.PageIndex+1, truncate(text, width))
		if i == m.noteCursor {
			lines[i] = styles.Selected.Render("▸ " + line)
			continue
		}
		lines[i] = styles.Text.Render("  " + line)
	}
	m.notesView.SetContent(strings.Join(lines, "\n"))

	// Keep the cursor in view.
	switch {
	case m.noteCursor < m.notesView.YOffset:
		m.notesView.SetYOffset(m.noteCursor)
	case m.noteCursor >= m.notesView.YOffset+m.notesView.Height:
		m.notesView.SetYOffset(m.noteCursor - m.notesView.Height + 1)
	}
}

func (m Model) selectedNote() (notes.Note, bool) {
	if m.noteCursor < 0 || m.noteCursor >= len(m.snapshot.Notes) {
		return notes.Note{}, false
	}
	return m.snapshot.Notes[m.noteCursor], true
}

// selectNote moves the cursor to n when it is in the list.
func (m *Model) selectNote(n notes.Note) {
	for i, candidate := range m.snapshot.Notes {
		if notes.Compare(candidate, n) == 0 {
			m.noteCursor = i
			m.refreshNotesView()
			return
		}
	}
}

func (m *Model) refreshLogView() {
	if len(m.logLines) == 0 {
		m.logView.SetContent(m.theme.Styles().FaintText.Render("Log is empty."))
		return
	}
	atBottom := m.logView.AtBottom()
	threshold, err := logrus.ParseLevel(m.cfg.Log.Level)
	if err != nil {
		threshold = logrus.InfoLevel
	}
	lines := logtail.ColorizeLines(m.logLines, threshold, m.theme.Styles().LogStyles())
	m.logView.SetContent(strings.Join(lines, "\n"))
	if atBottom || m.logView.YOffset == 0 {
		m.logView.GotoBottom()
	}
}

func readLogTail(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	return logtail.Read(path, logLines)
}
