// Package executor evaluates shell input for embedded sessions. Input is Lua
// source run in a long-lived gopher-lua state into which Go values can be
// bound; lines starting with "!" go to a POSIX shell interpreter.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atinylittleshell/embedsh/internal/bash"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// LastResultName is the global holding the most recent non-nil result.
const LastResultName = "_"

// DefaultMaxDepth bounds how deep bound Go values are expanded into tables.
const DefaultMaxDepth = 5

// ErrTimeout is returned when an evaluation exceeds the configured timeout.
var ErrTimeout = errors.New("evaluation timed out")

// ErrClosed is returned when evaluating on a closed executor.
var ErrClosed = errors.New("executor is closed")

// Options configures an Executor.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Timeout bounds each evaluation. Zero means no limit.
	Timeout  time.Duration
	MaxDepth int
	Logger   *zap.Logger
}

// Result is the outcome of evaluating one input.
type Result struct {
	// Values are the values the chunk returned, empty for statements.
	Values []lua.LValue
	// Display is the rendering shown after the out prompt, empty when there
	// is nothing to show.
	Display string
}

// Executor owns the Lua state and the shell runner of one shell handle.
// gopher-lua states are not goroutine-safe, so every entry point locks.
type Executor struct {
	mu       sync.Mutex
	L        *lua.LState
	bridge   *Bridge
	shell    *bash.Runner
	stdout   io.Writer
	stderr   io.Writer
	timeout  time.Duration
	logger   *zap.Logger
	bindings map[string]interface{}
	closed   bool
}

// New creates an Executor.
func New(opts Options) (*Executor, error) {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	shell, err := bash.NewRunner(opts.Stdin, opts.Stdout, opts.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create shell runner: %w", err)
	}

	L := lua.NewState()
	e := &Executor{
		L:        L,
		bridge:   NewBridge(L, opts.MaxDepth),
		shell:    shell,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		bindings: make(map[string]interface{}),
	}
	L.SetGlobal("print", L.NewFunction(e.luaPrint))
	L.SetGlobal("sh", L.NewFunction(e.luaShell))
	return e, nil
}

// Bind exposes value to Lua under name, replacing any earlier binding.
// The Go value is kept for inspection commands.
func (e *Executor) Bind(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.bindings[name] = value
	e.L.SetGlobal(name, e.bridge.ToLuaValue(value))
}

// Binding returns the Go value bound under name.
func (e *Executor) Binding(name string) (interface{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.bindings[name]
	return v, ok
}

// BindingNames returns the bound names in sorted order.
func (e *Executor) BindingNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global returns the Go form of a Lua global, for names that were assigned
// in the session rather than bound from Go.
func (e *Executor) Global(name string) (interface{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false
	}
	lv := e.L.GetGlobal(name)
	if lv == lua.LNil {
		return nil, false
	}
	return e.bridge.ToGoValue(lv), true
}

// Names returns the names of all global variables, bound or not, sorted.
func (e *Executor) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	return tableKeys(e.L.G.Global)
}

// Fields returns the sorted string keys of the table at a dotted path such
// as "user.Address". Paths that do not name a table yield nil.
func (e *Executor) Fields(path string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || path == "" {
		return nil
	}
	var cur lua.LValue = e.L.G.Global
	for _, part := range strings.Split(path, ".") {
		t, ok := cur.(*lua.LTable)
		if !ok {
			return nil
		}
		cur = t.RawGetString(part)
	}
	t, ok := cur.(*lua.LTable)
	if !ok {
		return nil
	}
	return tableKeys(t)
}

func tableKeys(t *lua.LTable) []string {
	var keys []string
	t.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			keys = append(keys, string(ks))
		}
	})
	sort.Strings(keys)
	return keys
}

// Eval runs one input. Expressions are tried first by compiling the input
// as "return <src>"; if that does not compile the input runs as statements.
func (e *Executor) Eval(ctx context.Context, src string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Result{}, ErrClosed
	}

	fn, err := e.L.LoadString("return " + src)
	if err != nil {
		fn, err = e.L.LoadString(src)
		if err != nil {
			return Result{}, fmt.Errorf("syntax error: %w", err)
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	top := e.L.GetTop()
	e.L.Push(fn)
	if err := e.pcall(); err != nil {
		e.L.SetTop(top)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return Result{}, ErrTimeout
			}
			return Result{}, ctxErr
		}
		return Result{}, err
	}

	n := e.L.GetTop() - top
	values := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		values[i] = e.L.Get(top + i + 1)
	}
	e.L.SetTop(top)

	result := Result{Values: values}
	if len(values) > 0 && !allNil(values) {
		e.L.SetGlobal(LastResultName, values[0])
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = Repr(e.L, v, e.bridge.maxDepth)
		}
		result.Display = strings.Join(parts, "\t")
	}
	return result, nil
}

// pcall calls the function on top of the stack, converting Go panics raised
// by bound functions into errors.
func (e *Executor) pcall() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go panic: %v", r)
		}
	}()
	return e.L.PCall(0, lua.MultRet, nil)
}

func allNil(values []lua.LValue) bool {
	for _, v := range values {
		if v != lua.LNil {
			return false
		}
	}
	return true
}

// RunShell runs a POSIX shell command with the session's standard streams.
func (e *Executor) RunShell(ctx context.Context, command string) (int, error) {
	return e.shell.Run(ctx, command)
}

// ShellOutput runs command in a subshell and returns its standard output.
// A non-zero exit status is an error.
func (e *Executor) ShellOutput(ctx context.Context, command string) (string, error) {
	out, errOut, code, err := e.shell.RunCaptured(ctx, command)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("%s: exit status %d: %s", command, code, strings.TrimSpace(errOut))
	}
	return out, nil
}

// ShellDir returns the shell's working directory.
func (e *Executor) ShellDir() string {
	return e.shell.Dir()
}

// Close releases the Lua state.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}

// luaPrint replaces Lua's print so output follows the session's writer.
func (e *Executor) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(e.stdout, strings.Join(parts, "\t"))
	return 0
}

// luaShell implements sh(cmd), returning stdout, stderr and the exit code.
func (e *Executor) luaShell(L *lua.LState) int {
	cmd := L.CheckString(1)
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, errOut, code, err := e.shell.RunCaptured(ctx, cmd)
	if err != nil {
		e.logger.Debug("sh() failed", zap.String("command", cmd), zap.Error(err))
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(out))
	L.Push(lua.LString(errOut))
	L.Push(lua.LNumber(code))
	return 3
}
