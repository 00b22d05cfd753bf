package input

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/embedsh/internal/repl/render"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/ansi"
	"github.com/rivo/uniseg"
)

// RenderConfig holds the styles of the line editor.
type RenderConfig struct {
	PromptStyle   lipgloss.Style
	CursorStyle   lipgloss.Style
	SelectedStyle lipgloss.Style
	DimStyle      lipgloss.Style
}

// DefaultRenderConfig returns the default styles.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		// Prompts arrive already styled by the session.
		PromptStyle:   lipgloss.NewStyle(),
		CursorStyle:   lipgloss.NewStyle().Reverse(true),
		SelectedStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(render.ColorYellow)),
		DimStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorGray)),
	}
}

// Renderer draws the line editor.
type Renderer struct {
	config RenderConfig
	width  int
}

// NewRenderer creates a Renderer.
func NewRenderer(config RenderConfig) *Renderer {
	return &Renderer{config: config, width: 80}
}

// SetWidth sets the terminal width.
func (r *Renderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// RenderLine renders the prompt and the buffer. Lines wider than the
// terminal scroll horizontally so the cursor stays visible.
func (r *Renderer) RenderLine(prompt string, buf *Buffer, showCursor bool) string {
	promptLine := prompt
	if i := strings.LastIndex(prompt, "\n"); i >= 0 {
		promptLine = prompt[i+1:]
	}
	available := r.width - ansi.PrintableRuneWidth(promptLine) - 1
	if available < 1 {
		available = 1
	}

	runes := []rune(buf.Text())
	start, end := visibleRange(runes, buf.Pos(), available)

	var b strings.Builder
	b.WriteString(r.config.PromptStyle.Render(prompt))
	b.WriteString(string(runes[start:buf.Pos()]))
	if showCursor {
		under := " "
		after := buf.Pos()
		if buf.Pos() < len(runes) {
			under = string(runes[buf.Pos()])
			after++
		}
		b.WriteString(r.config.CursorStyle.Render(under))
		if after < end {
			b.WriteString(string(runes[after:end]))
		}
	} else {
		b.WriteString(string(runes[buf.Pos():end]))
	}
	return b.String()
}

// visibleRange returns the window [start, end) of runes around pos whose
// display width fits into width columns, reserving one column for the cursor.
func visibleRange(runes []rune, pos, width int) (start, end int) {
	cols := func(rs []rune) int { return uniseg.StringWidth(string(rs)) }

	start = 0
	for start < pos && cols(runes[start:pos])+1 > width {
		start++
	}
	end = pos
	for end < len(runes) && cols(runes[start:end+1]) < width {
		end++
	}
	return start, end
}

// RenderCompletions renders the candidates on one line, the selected one
// highlighted, truncated to the terminal width.
func (r *Renderer) RenderCompletions(cs *CompletionState) string {
	if !cs.IsActive() || len(cs.Suggestions()) < 2 {
		return ""
	}
	parts := make([]string, len(cs.Suggestions()))
	for i, s := range cs.Suggestions() {
		if i == cs.Selected() {
			parts[i] = r.config.SelectedStyle.Render(s)
		} else {
			parts[i] = r.config.DimStyle.Render(s)
		}
	}
	line := strings.Join(parts, "  ")
	if ansi.PrintableRuneWidth(line) > r.width {
		line = render.Truncate(line, r.width)
	}
	return line
}

// RenderSearch renders the Ctrl+R prompt line.
func (r *Renderer) RenderSearch(s *HistorySearchState) string {
	match := s.Match()
	if match == "" && s.Query() != "" {
		match = r.config.DimStyle.Render("no match")
	}
	return fmt.Sprintf("(history search)`%s': %s", s.Query(), match)
}
