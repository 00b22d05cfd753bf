package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
)

// Row is one line of a two-column listing.
type Row struct {
	Key         string
	Description string
}

// Table renders rows as two aligned columns. Descriptions are truncated to
// fit into width columns; a width of 0 disables truncation.
func (t *Theme) Table(rows []Row, width int) string {
	keyWidth := 0
	for _, r := range rows {
		if w := ansi.PrintableRuneWidth(r.Key); w > keyWidth {
			keyWidth = w
		}
	}
	keyStyle := t.lg.NewStyle().Width(keyWidth + 2).Foreground(lipgloss.Color(ColorCyan))
	descStyle := t.lg.NewStyle().Foreground(lipgloss.Color(ColorGray))

	lines := make([]string, len(rows))
	for i, r := range rows {
		desc := r.Description
		if width > 0 {
			desc = Truncate(desc, width-keyWidth-4)
		}
		lines[i] = "  " + keyStyle.Render(r.Key) + descStyle.Render(desc)
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to at most width printable columns, ending in "…".
// Newlines are flattened first.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || ansi.PrintableRuneWidth(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}
