package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// PanelString frames inner using the current theme.
func PanelString(inner string) string {
	return lipgloss.NewStyle().
		Border(current.Border).
		BorderForeground(current.BorderColor).
		Padding(0, 1).
		Render(inner)
}

// Panel draws a framed box around lines.
func Panel(w io.Writer, lines []string) {
	fmt.Fprintln(w, PanelString(strings.Join(lines, "\n")))
}
