// Package render formats everything the embedded shell prints besides
// evaluation results: the banner, the call-site message, tracebacks and
// command listings.
package render

import (
	"io"

	"github.com/atinylittleshell/embedsh/internal/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ANSI color indexes
const (
	ColorCyan   = "12" // Function names
	ColorYellow = "11" // Messages
	ColorGreen  = "10" // In prompt
	ColorRed    = "9"  // Out prompt, errors and the trigger marker
	ColorGray   = "8"  // Line numbers and secondary text
)

// Symbols
const (
	SymbolMarker = "--->"
	SymbolError  = "✗"
)

var (
	// FunctionStyle is used for function names in headers and tracebacks
	FunctionStyle = styles.Style{Foreground: ColorCyan}

	// MarkerStyle is used for the marker of the triggering line
	MarkerStyle = styles.Style{Foreground: ColorRed, Bold: true}

	// LineNumberStyle is used for source line numbers
	LineNumberStyle = styles.Style{Foreground: ColorGray}

	// ErrorStyle is used for evaluation errors
	ErrorStyle = styles.Style{Foreground: ColorRed}

	// InStyle is used for the input prompt
	InStyle = styles.Style{Foreground: ColorGreen}

	// OutStyle is used for the out prompt
	OutStyle = styles.Style{Foreground: ColorRed}

	// DimStyle is used for secondary information
	DimStyle = styles.Style{Foreground: ColorGray}
)

// Theme binds the styles to one output.
type Theme struct {
	fmt *styles.Formatter
	lg  *lipgloss.Renderer
	// MessageColor colors the banner and exit message.
	MessageColor string
}

// NewTheme creates a theme for w. Colors follow mode, see styles.NewFormatter.
func NewTheme(w io.Writer, mode styles.ColorMode, messageColor string) *Theme {
	f := styles.NewFormatter(w, mode)
	lg := lipgloss.NewRenderer(w)
	if f.Enabled() {
		lg.SetColorProfile(termenv.ANSI)
	} else {
		lg.SetColorProfile(termenv.Ascii)
	}
	return &Theme{fmt: f, lg: lg, MessageColor: messageColor}
}

// PlainTheme returns a theme that never emits escape sequences.
func PlainTheme() *Theme {
	lg := lipgloss.NewRenderer(io.Discard)
	lg.SetColorProfile(termenv.Ascii)
	return &Theme{fmt: styles.Plain(), lg: lg, MessageColor: "yellow"}
}

// Colored reports whether the theme emits escape sequences.
func (t *Theme) Colored() bool {
	return t.fmt.Enabled()
}

// Apply styles s.
func (t *Theme) Apply(s string, style styles.Style) string {
	return t.fmt.Format(s, style)
}

// Message styles s in the message color.
func (t *Theme) Message(s string, bold bool) string {
	return t.fmt.Format(s, styles.Style{Foreground: t.MessageColor, Bold: bold})
}

// Error styles an error line.
func (t *Theme) Error(s string) string {
	return t.fmt.Format(SymbolError+" "+s, ErrorStyle)
}
