// Package bash runs the `!command` shell escapes typed into an embedded shell.
// Commands are interpreted by mvdan.cc/sh, so no system shell is required and
// the working directory persists between escapes of the same shell.
package bash

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// threadSafeBuffer lets pipelines inside one command write concurrently.
type threadSafeBuffer struct {
	buffer bytes.Buffer
	mutex  sync.Mutex
}

func (b *threadSafeBuffer) Write(p []byte) (n int, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

func (b *threadSafeBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}

// Runner executes shell commands on behalf of an embedded shell.
type Runner struct {
	runner *interp.Runner
}

// NewRunner creates a runner with the process environment, wired to the given streams.
func NewRunner(stdin io.Reader, stdout, stderr io.Writer) (*Runner, error) {
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(stdin, stdout, stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shell runner: %w", err)
	}
	return &Runner{runner: runner}, nil
}

// Run parses and runs command in the runner itself, so `cd` and variable
// assignments persist. A non-zero exit status is returned as the exit code,
// not as an error.
func (r *Runner) Run(ctx context.Context, command string) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return 1, fmt.Errorf("failed to parse shell command: %w", err)
	}

	err = r.runner.Run(ctx, prog)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return int(status), nil
		}
		return 1, err
	}
	return 0, nil
}

// RunCaptured runs command in a subshell and returns its output.
// Returns stdout, stderr, exit code, and any execution error.
func (r *Runner) RunCaptured(ctx context.Context, command string) (string, string, int, error) {
	subShell := r.runner.Subshell()

	outBuf := &threadSafeBuffer{}
	errBuf := &threadSafeBuffer{}
	interp.StdIO(nil, outBuf, errBuf)(subShell) //nolint:errcheck

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "", "", 1, fmt.Errorf("failed to parse shell command: %w", err)
	}

	err = subShell.Run(ctx, prog)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return outBuf.String(), errBuf.String(), int(status), nil
		}
		return outBuf.String(), errBuf.String(), 1, err
	}
	return outBuf.String(), errBuf.String(), 0, nil
}

// Dir returns the runner's current working directory.
func (r *Runner) Dir() string {
	return r.runner.Dir
}
