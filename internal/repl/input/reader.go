package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrInterrupt is returned by ReadLine when the operator pressed Ctrl+C.
var ErrInterrupt = errors.New("interrupt")

// LineReader reads one line of operator input. io.EOF ends the session.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	// SetHistory replaces the navigable history, newest first.
	SetHistory(history []string)
	// KeyMap returns the bindings in effect, nil for readers without an editor.
	KeyMap() *KeyMap
}

// ReaderOptions configures NewReader.
type ReaderOptions struct {
	Mode               EditingMode
	CompletionProvider CompletionProvider
	Logger             *zap.Logger
}

// NewReader returns a TerminalReader when in and out are both terminals and
// a ScannerReader otherwise.
func NewReader(in io.Reader, out io.Writer, opts ReaderOptions) LineReader {
	if isTerminal(in) && isTerminal(out) {
		return &TerminalReader{in: in, out: out, opts: opts}
	}
	return NewScannerReader(in, out)
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalReader edits each line with a Bubble Tea program.
type TerminalReader struct {
	in      io.Reader
	out     io.Writer
	opts    ReaderOptions
	history []string
	keymap  *KeyMap
}

// ReadLine implements LineReader.
func (r *TerminalReader) ReadLine(prompt string) (string, error) {
	width := 80
	if f, ok := r.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = w
		}
	}

	model := New(Config{
		Prompt:             prompt,
		Mode:               r.opts.Mode,
		History:            r.history,
		CompletionProvider: r.opts.CompletionProvider,
		Width:              width,
		Logger:             r.opts.Logger,
	})
	r.keymap = model.KeyMap()

	final, err := tea.NewProgram(model,
		tea.WithInput(r.in),
		tea.WithOutput(r.out),
	).Run()
	if err != nil {
		return "", fmt.Errorf("line editor failed: %w", err)
	}

	m, _ := final.(Model)
	r.keymap = m.KeyMap()
	switch res := m.Result(); res.Type {
	case ResultSubmit:
		return res.Value, nil
	case ResultInterrupt:
		return "", ErrInterrupt
	default:
		return "", io.EOF
	}
}

// SetHistory implements LineReader.
func (r *TerminalReader) SetHistory(history []string) {
	r.history = history
}

// KeyMap implements LineReader.
func (r *TerminalReader) KeyMap() *KeyMap {
	if r.keymap == nil {
		return New(Config{Mode: r.opts.Mode}).KeyMap()
	}
	return r.keymap
}

// ScannerReader reads newline-terminated lines, for pipes and tests.
type ScannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader creates a ScannerReader. The prompt is written to out
// before each read.
func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(in), out: out}
}

// ReadLine implements LineReader.
func (r *ScannerReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		fmt.Fprintln(r.out)
		return "", io.EOF
	}
	line := strings.TrimSuffix(r.scanner.Text(), "\r")
	fmt.Fprintln(r.out)
	return line, nil
}

// SetHistory implements LineReader.
func (r *ScannerReader) SetHistory([]string) {}

// KeyMap implements LineReader.
func (r *ScannerReader) KeyMap() *KeyMap {
	return nil
}
