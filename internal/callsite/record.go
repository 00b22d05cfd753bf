// Package callsite captures where a breakpoint fired: the calling frame, a
// window of the surrounding source, and the goroutine's stack.
package callsite

import (
	"fmt"
	"runtime"
)

// DefaultContext is the number of source lines shown around a call site.
const DefaultContext = 3

// Record describes the location a breakpoint fired from.
type Record struct {
	Frame

	// Lines is the source window around Line. Empty when the source is unavailable.
	Lines []string
	// StartLine is the 1-based line number of Lines[0].
	StartLine int
	// Index is the position of the triggering line inside Lines, or -1.
	Index int
}

// HasSource reports whether a source window was captured.
func (r Record) HasSource() bool {
	return len(r.Lines) > 0 && r.Index >= 0
}

// Capture builds a Record for the frame skip levels above its caller:
// skip 0 is the function calling Capture, 1 is that function's caller and so on.
// A stack shallower than requested is a bug in the caller's frame accounting
// and panics.
func Capture(skip, context int) Record {
	return captureWith(defaultCache, skip+1, context)
}

func captureWith(cache *SourceCache, skip, context int) Record {
	frame, ok := frameAt(skip + 1)
	if !ok {
		panic(fmt.Sprintf("callsite: stack is shallower than %d frames", skip))
	}

	return fromFrame(cache, frame, context)
}

// FromFrame builds a Record for an already resolved frame, as used when
// rendering each entry of a traceback.
func FromFrame(frame Frame, context int) Record {
	return fromFrame(defaultCache, frame, context)
}

func fromFrame(cache *SourceCache, frame Frame, context int) Record {
	rec := Record{Frame: frame, Index: -1}
	lines := cache.Lines(frame.File)
	if lines == nil {
		return rec
	}

	start, idx := Window(len(lines), frame.Line, context)
	if idx < 0 {
		return rec
	}
	end := start + context
	if end > len(lines) {
		end = len(lines)
	}

	rec.Lines = append([]string(nil), lines[start:end]...)
	rec.StartLine = start + 1
	rec.Index = idx
	return rec
}

// Window returns the 0-based start of a context window of at most context
// lines centered on the 1-based line, and the index of that line inside the
// window. The window is shifted to stay within total lines. idx is -1 when
// no window can be formed.
func Window(total, line, context int) (start, idx int) {
	if context <= 0 || line < 1 || line > total {
		return 0, -1
	}
	start = line - 1 - context/2
	if start > total-context {
		start = total - context
	}
	if start < 0 {
		start = 0
	}
	return start, line - 1 - start
}

// frameAt resolves the logical frame skip levels above frameAt's caller.
// CallersFrames is used so inlined calls resolve to their own function.
func frameAt(skip int) (Frame, bool) {
	var pcs [16]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return Frame{}, false
	}
	f, _ := runtime.CallersFrames(pcs[:n]).Next()
	if f.Function == "" && f.File == "" {
		return Frame{}, false
	}
	return newFrame(f), true
}
