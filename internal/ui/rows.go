package ui

import (
	"fmt"

	"github.com/Makepad-fr/tada/internal/model"
)

const maxTextWidth = 80

// Header is the title line with done/pending/total counts.
func Header(c model.Collection) string {
	d, p := c.Stats()
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		current.Title.Render("Todos"),
		current.Success.Render(current.SymDone), d,
		current.Pending.Render(current.SymPending), p,
		current.Accent.Render("Total"), len(c),
	)
}

// Row renders one entry: id, checkbox and text.
func Row(e model.Entry) string {
	box := current.Muted.Render(current.BoxUnchecked)
	text := Truncate(e.Text, maxTextWidth)
	if e.Done {
		box = current.Success.Render(current.BoxChecked)
		text = current.DoneText.Render(text)
	}
	return fmt.Sprintf("%s %s %s", current.Muted.Render(fmt.Sprintf("#%-3d", e.ID)), box, text)
}

// Rows renders entries in stored order.
func Rows(c model.Collection) []string {
	if len(c) == 0 {
		return []string{current.Muted.Render("no items")}
	}
	out := make([]string, 0, len(c))
	for _, e := range c {
		out = append(out, Row(e))
	}
	return out
}

// GroupedRows renders pending entries first, then done ones, each keeping
// stored order.
func GroupedRows(c model.Collection) []string {
	var pend, done model.Collection
	for _, e := range c {
		if e.Done {
			done = append(done, e)
		} else {
			pend = append(pend, e)
		}
	}
	var lines []string
	lines = append(lines, current.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, current.Muted.Render("(none)"))
	} else {
		lines = append(lines, Rows(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, current.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, current.Muted.Render("(none)"))
	} else {
		lines = append(lines, Rows(done)...)
	}
	return lines
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
