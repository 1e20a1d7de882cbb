package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar above the page area.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	frame := m.snapshot.Frame
	if frame.PagesCount == 0 {
		return styles.Header.Width(m.width).Render(
			bg.Render("folio", styles.Logo) + bg.Spaces(2) +
				bg.Render("Loading document...", styles.WarningText.Bold(true)),
		)
	}

	compact := m.width < 100
	parts := []string{bg.Render("folio", styles.Logo)}

	if title := m.snapshot.Title; title != "" {
		maxTitle := 48
		if compact {
			maxTitle = 24
		}
		parts = append(parts, bg.Render(truncateMiddle(title, maxTitle), styles.Text.Bold(true)))
	}

	parts = append(parts,
		bg.Render("Page", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", frame.PageNumber, frame.PagesCount), styles.Text),
		bg.Render("Zoom", styles.MutedText)+bg.Space()+
			bg.Render(formatScale(frame.Scale, frame.ScaleValue), styles.InfoText),
	)
	if frame.Rotation != 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("↻ %d°", frame.Rotation), styles.InfoText))
	}

	if frame.Rendering > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("● rendering %d", frame.Rendering), styles.WarningText))
	}
	if n := len(frame.Failed); n > 0 {
		parts = append(parts,
			bg.Render("Failed:", styles.MutedText)+bg.Space()+
				bg.Render(strconv.Itoa(n), styles.DangerText))
	}

	parts = append(parts, m.notesStatus(styles, bg, compact))

	if m.status != "" {
		style := styles.WarningText
		if m.statusErr {
			style = styles.DangerText
		}
		parts = append(parts,
			bg.Render("!", style.Bold(true))+bg.Space()+bg.Render(truncate(m.status, 60), style))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// notesStatus describes the notes sync state.
func (m Model) notesStatus(styles Styles, bg BgStyle, compact bool) string {
	snap := m.snapshot
	label := bg.Render("Notes:", styles.MutedText) + bg.Space()
	if snap.IsOffline() {
		text := label + bg.Render(classifyConnectionError(snap.LastError), styles.DangerText.Bold(true))
		if ts := formatTimestamp(snap.LastSynced); ts != "" && !compact {
			text += bg.Space() + bg.Render(ts, styles.FaintText)
		}
		return text
	}
	if !snap.HasNotes {
		return label + bg.Render("…", styles.FaintText)
	}
	text := label + bg.Render(strconv.Itoa(len(snap.Notes)), styles.Text)
	if ts := formatTimestamp(snap.LastSynced); ts != "" && !compact {
		text += bg.Space() + bg.Render(ts, styles.MutedText)
	}
	return text
}

func formatScale(scale float64, value string) string {
	pct := fmt.Sprintf("%.0f%%", scale*100)
	switch value {
	case "", "auto":
		if value == "auto" {
			return pct + " auto"
		}
		return pct
	case "page-actual":
		return pct + " actual"
	case "page-width":
		return pct + " width"
	case "page-height":
		return pct + " height"
	case "page-fit":
		return pct + " fit"
	}
	return pct
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// formatTimestamp formats a sync time with a relative indicator.
func formatTimestamp(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	since := time.Since(at)
	s := at.Format("15:04:05")
	switch {
	case since < time.Minute:
		s += " (now)"
	case since < time.Hour:
		s += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		s += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return s
}

// renderCommandBar renders the key hints, or the prompt while one is open.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.promptKind != promptNone {
		return lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.Surface)).
			Width(m.width).
			Render(m.prompt.View())
	}

	type cmd struct{ key, desc string }
	var commands []cmd
	switch {
	case m.focused && m.panel == panelNotes:
		commands = []cmd{
			{"j/k", "Select"},
			{"enter", "Show"},
			{"d", "Delete"},
			{"esc", "Pages"},
			{"o", "Close"},
		}
	case m.focused && m.panel == panelLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"esc", "Pages"},
			{"L", "Close"},
		}
	default:
		commands = []cmd{
			{"[/]", "Page"},
			{":", "Go to"},
			{"+/-", "Zoom"},
			{"r", "Rotate"},
			{"s", "Thumbnails"},
			{"o", "Notes"},
			{"A", "Add note"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

// truncate truncates a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle keeps the start and the end of s.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 5 {
		return string(r[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
