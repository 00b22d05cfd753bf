package callsite

import (
	"runtime"
	"strings"

	"github.com/samber/lo"
)

const maxStackDepth = 128

// Frame is a single resolved stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
	Package  string
	// Runtime marks frames inside the Go runtime (scheduler, panic machinery).
	Runtime bool
}

func newFrame(f runtime.Frame) Frame {
	return Frame{
		Function: f.Function,
		File:     f.File,
		Line:     f.Line,
		Package:  packageName(f.Function),
		Runtime:  strings.HasPrefix(f.Function, "runtime."),
	}
}

// ShortFunction strips the import path, keeping "pkg.Func" or "pkg.(*T).Method".
func (f Frame) ShortFunction() string {
	name := f.Function
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "???"
	}
	return name
}

// Stack returns the frames of the current goroutine, starting skip levels
// above the caller of Stack.
func Stack(skip int) []Frame {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	return collect(pcs[:n])
}

// PanicStack returns the frames of a propagating panic, starting at the
// function that panicked. It must be called from a deferred function. When
// no panic machinery is found on the stack it behaves like Stack.
func PanicStack(skip int) []Frame {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := collect(pcs[:n])

	_, at, found := lo.FindIndexOf(frames, func(f Frame) bool {
		return f.Function == "runtime.gopanic"
	})
	if !found {
		return frames
	}

	// Runtime-raised panics (nil dereference, bad index) leave helper frames
	// such as runtime.sigpanic between gopanic and the faulting function.
	rest := frames[at+1:]
	for len(rest) > 0 && rest[0].Runtime {
		rest = rest[1:]
	}
	return rest
}

// UserFrames drops frames that belong to the Go runtime.
func UserFrames(frames []Frame) []Frame {
	return lo.Filter(frames, func(f Frame, _ int) bool {
		return !f.Runtime
	})
}

func collect(pcs []uintptr) []Frame {
	if len(pcs) == 0 {
		return nil
	}
	var frames []Frame
	it := runtime.CallersFrames(pcs)
	for {
		f, more := it.Next()
		frames = append(frames, newFrame(f))
		if !more {
			break
		}
	}
	return frames
}

func packageName(function string) string {
	lastSlash := strings.LastIndex(function, "/")
	prefix := ""
	rest := function
	if lastSlash >= 0 {
		prefix = function[:lastSlash+1]
		rest = function[lastSlash+1:]
	}
	if dot := strings.Index(rest, "."); dot >= 0 {
		return prefix + rest[:dot]
	}
	return function
}
