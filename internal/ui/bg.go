package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments on a fixed background so joined segments
// do not leave unstyled gaps.
type BgStyle struct {
	bg    lipgloss.Color
	plain lipgloss.Style
}

// NewBgStyle returns a BgStyle for the given background color.
func NewBgStyle(bg string) BgStyle {
	c := lipgloss.Color(bg)
	return BgStyle{bg: c, plain: lipgloss.NewStyle().Background(c)}
}

// Render renders text with style on the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	return style.Background(b.bg).Render(text)
}

// Space renders one background cell.
func (b BgStyle) Space() string { return b.plain.Render(" ") }

// Spaces renders n background cells.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.plain.Render(strings.Repeat(" ", n))
}

// Sep renders a separator on the background.
func (b BgStyle) Sep(s string) string { return b.plain.Render(s) }

// Join joins rendered parts with a plain separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.plain.Render(sep))
}

// FillLine pads a rendered line to width with background cells.
func (b BgStyle) FillLine(line string, width int) string {
	return line + b.Spaces(width-lipgloss.Width(line))
}
