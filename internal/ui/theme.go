package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, DoneText                            lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	Border                   lipgloss.Border
	BorderColor              lipgloss.TerminalColor
}

var current = themeFor("classic")

// SetTheme switches to classic, neon or mono. Unknown names mean classic.
func SetTheme(name string) { current = themeFor(name) }

// Expose what renderers need
func Current() Theme { return current }

func themeFor(name string) Theme {
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:         "neon",
			Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
			Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			Accent:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
			Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			Selected:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
			DoneText:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
			BoxUnchecked: "◻", BoxChecked: "◼",
			SymDone: "✔", SymPending: "•",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("13"),
		}
	case "mono":
		plain := lipgloss.NewStyle()
		return Theme{
			Name:  "mono",
			Title: plain, Muted: plain, Accent: plain,
			Success: plain, Error: plain, Pending: plain,
			Selected: plain.Reverse(true), DoneText: plain,
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
			Border:      lipgloss.ASCIIBorder(),
			BorderColor: lipgloss.NoColor{},
		}
	default: // classic
		return Theme{
			Name:         "classic",
			Title:        lipgloss.NewStyle().Bold(true),
			Muted:        lipgloss.NewStyle().Faint(true),
			Accent:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			Selected:     lipgloss.NewStyle().Bold(true).Reverse(true),
			DoneText:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
			BoxUnchecked: "☐", BoxChecked: "☑",
			SymDone: "✔", SymPending: "•",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("8"),
		}
	}
}
