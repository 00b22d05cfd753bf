package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atinylittleshell/embedsh/internal/callsite"
)

// Site renders a call-site record:
//
//	Stopped at /src/app/main.go:42 in main.run
//	     41 	cfg := load()
//	---> 42 	embedsh.Sh()
//	     43 	serve(cfg)
//
// Without a source window only the header line is returned.
func (t *Theme) Site(rec callsite.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stopped at %s:%d in %s", rec.File, rec.Line, t.Apply(rec.ShortFunction(), FunctionStyle))
	if rec.HasSource() {
		b.WriteString("\n")
		b.WriteString(t.Window(rec))
	}
	return b.String()
}

// Window renders the numbered source lines of rec, marking the triggering line.
func (t *Theme) Window(rec callsite.Record) string {
	if !rec.HasSource() {
		return ""
	}
	width := len(strconv.Itoa(rec.StartLine + len(rec.Lines) - 1))
	blank := strings.Repeat(" ", len(SymbolMarker))

	lines := make([]string, len(rec.Lines))
	for i, src := range rec.Lines {
		marker := blank
		if i == rec.Index {
			marker = t.Apply(SymbolMarker, MarkerStyle)
		}
		num := t.Apply(fmt.Sprintf("%*d", width, rec.StartLine+i), LineNumberStyle)
		lines[i] = marker + " " + num + " " + src
	}
	return strings.Join(lines, "\n")
}

// Traceback renders a recovered panic value and the frames it unwound
// through, most recent call first, each with context lines.
func (t *Theme) Traceback(value any, frames []callsite.Frame, context int) string {
	var b strings.Builder
	b.WriteString(t.Apply(fmt.Sprintf("panic: %v", value), ErrorStyle))
	if err, ok := value.(error); ok {
		fmt.Fprintf(&b, " (%T)", err)
	}
	b.WriteString("\n\n")
	b.WriteString("Traceback (most recent call first):")
	for _, f := range callsite.UserFrames(frames) {
		rec := callsite.FromFrame(f, context)
		fmt.Fprintf(&b, "\n%s\n\t%s:%d", t.Apply(f.ShortFunction(), FunctionStyle), f.File, f.Line)
		if rec.HasSource() {
			b.WriteString("\n")
			b.WriteString(t.Window(rec))
		}
	}
	return b.String()
}

// Stack renders frames one per line with their locations.
func (t *Theme) Stack(frames []callsite.Frame) string {
	lines := make([]string, 0, len(frames))
	for i, f := range frames {
		lines = append(lines, fmt.Sprintf("#%-2d %s\n    %s:%d",
			i, t.Apply(f.ShortFunction(), FunctionStyle), f.File, f.Line))
	}
	return strings.Join(lines, "\n")
}
