package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// SetColorMode overrides terminal detection. disable wins over force.
func SetColorMode(force, disable bool) {
	switch {
	case disable:
		lipgloss.SetColorProfile(termenv.Ascii)
	case force:
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Success.Render(current.SymDone+" "+msg))
}

func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Error.Render("✖ "+msg))
}

// Hint prints a muted follow-up line.
func Hint(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Muted.Render(msg))
}
