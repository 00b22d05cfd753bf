// Package styles formats shell messages with ANSI colors when the output
// supports them and passes text through untouched when it does not.
package styles

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ColorMode selects when colors are emitted.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Style is a foreground color plus an optional bold attribute.
type Style struct {
	// Foreground is a color name (yellow, red, ...) or an ANSI color index ("11").
	Foreground string
	Bold       bool
}

// Formatter renders styled strings for a single output.
type Formatter struct {
	output  *termenv.Output
	enabled bool
}

var colorNames = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
	"gray":    "8",
	"grey":    "8",
}

// NewFormatter creates a formatter for w. In auto mode colors are only used
// when w is a terminal with a color profile and NO_COLOR is unset.
func NewFormatter(w io.Writer, mode ColorMode) *Formatter {
	out := termenv.NewOutput(w)
	enabled := false
	switch mode {
	case ColorAlways:
		out = termenv.NewOutput(w, termenv.WithProfile(termenv.ANSI))
		enabled = true
	case ColorNever:
		enabled = false
	default:
		enabled = os.Getenv("NO_COLOR") == "" && out.ColorProfile() != termenv.Ascii
	}
	return &Formatter{output: out, enabled: enabled}
}

// Plain returns a formatter that never emits escape sequences.
func Plain() *Formatter {
	return &Formatter{enabled: false}
}

// Enabled reports whether escape sequences are emitted.
func (f *Formatter) Enabled() bool {
	return f != nil && f.enabled
}

// Format applies style to s. With colors disabled s is returned unchanged.
func (f *Formatter) Format(s string, style Style) string {
	if !f.Enabled() || s == "" {
		return s
	}
	styled := f.output.String(s)
	if style.Foreground != "" {
		styled = styled.Foreground(f.output.Color(colorCode(style.Foreground)))
	}
	if style.Bold {
		styled = styled.Bold()
	}
	return styled.String()
}

func colorCode(name string) string {
	if code, ok := colorNames[name]; ok {
		return code
	}
	return name
}
