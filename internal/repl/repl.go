// Package repl runs embedded shell sessions: it shows the banner and the
// call site, reads operator input, dispatches magic commands and shell
// escapes, evaluates everything else and keeps the execution count.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/atinylittleshell/embedsh/internal/callsite"
	"github.com/atinylittleshell/embedsh/internal/history"
	"github.com/atinylittleshell/embedsh/internal/repl/completion"
	"github.com/atinylittleshell/embedsh/internal/repl/config"
	"github.com/atinylittleshell/embedsh/internal/repl/environ"
	"github.com/atinylittleshell/embedsh/internal/repl/executor"
	"github.com/atinylittleshell/embedsh/internal/repl/input"
	"github.com/atinylittleshell/embedsh/internal/repl/render"
	"github.com/atinylittleshell/embedsh/internal/styles"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrExit is returned by a command that ends the session.
var ErrExit = errors.New("exit requested")

// ErrAbort is returned by Embed when the operator asked to abort the program.
var ErrAbort = errors.New("abort requested")

// killed disables every future session in the process.
var killed atomic.Bool

// Kill disables all future sessions. A running session is not affected.
func Kill() {
	killed.Store(true)
}

// Killed reports whether sessions are disabled.
func Killed() bool {
	return killed.Load()
}

// Revive re-enables sessions after Kill, for programs that turn breakpoints
// back on.
func Revive() {
	killed.Store(false)
}

// Binding is a named Go value exposed to the session.
type Binding struct {
	Name  string
	Value interface{}
}

// Session describes one opening of the shell.
type Session struct {
	// Site is where the shell was opened from.
	Site callsite.Record
	// Message is shown after the banner and by %where. Defaults to the
	// rendered Site.
	Message string
	// Frames is the stack shown by %stack.
	Frames []callsite.Frame
	Vars   []Binding
}

// Options configures a REPL.
type Options struct {
	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
	// History persists inputs across processes. Optional.
	History *history.HistoryManager
	// Reader overrides the line reader chosen from Stdin and Stdout.
	Reader input.LineReader
}

type inputRecord struct {
	count  int
	source string
}

// REPL is a shell handle. Sessions on one handle run one at a time and
// share the evaluator state, the input history and the execution count.
type REPL struct {
	mu sync.Mutex

	config  *config.Config
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
	theme   *render.Theme
	exec    *executor.Executor
	reader  input.LineReader
	history *history.HistoryManager
	env     *environ.Provider

	count         int
	inputs        []inputRecord
	lastOutput    string
	historyLoaded bool
	closed        bool
}

// New creates a REPL.
func New(opts Options) (*REPL, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exec, err := executor.New(executor.Options{
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
		Timeout:  cfg.EvalTimeout,
		MaxDepth: cfg.MaxDepth,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}

	r := &REPL{
		config:  cfg,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		logger:  logger,
		theme:   render.NewTheme(opts.Stdout, styles.ColorMode(cfg.Colors), cfg.MessageColor),
		exec:    exec,
		history: opts.History,
		env: environ.NewProvider(logger,
			environ.NewSystemInfoRetriever(),
			environ.NewBuildInfoRetriever(),
			environ.NewWorkingDirectoryRetriever(exec),
			environ.NewGitStatusRetriever(exec, logger),
		),
		count: 1,
	}

	r.reader = opts.Reader
	if r.reader == nil {
		r.reader = input.NewReader(opts.Stdin, opts.Stdout, input.ReaderOptions{
			Mode:               input.EditingMode(cfg.EditingMode),
			CompletionProvider: completion.NewProvider(exec, commandNames()),
			Logger:             logger,
		})
	}
	return r, nil
}

// Count returns the execution count the next input will get.
func (r *REPL) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Theme returns the theme used for output.
func (r *REPL) Theme() *render.Theme {
	return r.theme
}

// Close releases the evaluator and the history database.
func (r *REPL) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.exec.Close()
	if r.history != nil {
		return r.history.Close()
	}
	return nil
}

// Embed runs a session and blocks until the operator leaves it. It returns
// immediately when sessions are disabled. ErrAbort is returned when the
// operator used %abort.
func (r *REPL) Embed(ctx context.Context, s Session) error {
	if Killed() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A session that was queued behind this lock may have killed shells.
	if Killed() {
		return nil
	}

	if s.Message == "" {
		s.Message = r.theme.Site(s.Site)
	}
	sessionID := uuid.NewString()
	site := fmt.Sprintf("%s:%d", s.Site.File, s.Site.Line)
	logger := r.logger.With(zap.String("session", sessionID), zap.String("site", site))
	logger.Info("embedded shell opened", zap.Int("count", r.count), zap.Int("vars", len(s.Vars)))

	for _, v := range s.Vars {
		r.exec.Bind(v.Name, v.Value)
	}
	r.loadHistory(logger)

	render.RenderBanner(r.stdout, r.theme, s.Message)

	var result error
	for {
		r.reader.SetHistory(r.recentInputs())
		line, err := r.reader.ReadLine(r.theme.Apply(r.config.InPrompt(r.count), render.InStyle))
		if errors.Is(err, input.ErrInterrupt) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("reading input failed", zap.Error(err))
			}
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		err = r.execute(ctx, &s, line)
		r.record(logger, sessionID, site, line, err)
		r.count++

		if errors.Is(err, ErrExit) {
			break
		}
		if errors.Is(err, ErrAbort) {
			result = ErrAbort
			break
		}
		if err != nil {
			fmt.Fprintln(r.stderr, r.theme.Error(err.Error()))
		}
	}

	render.RenderExit(r.stdout, r.theme)
	logger.Info("embedded shell closed", zap.Int("count", r.count), zap.Bool("aborted", result != nil))
	return result
}

// execute runs one non-empty input line.
func (r *REPL) execute(ctx context.Context, s *Session, line string) error {
	trimmed := strings.TrimSpace(line)

	if cmd, args, ok := lookupCommand(trimmed); ok {
		return cmd.run(r, ctx, s, args)
	}

	if strings.HasPrefix(trimmed, "!") {
		code, err := r.exec.RunShell(ctx, trimmed[1:])
		if err != nil {
			return err
		}
		if code != 0 {
			return fmt.Errorf("exit status %d", code)
		}
		return nil
	}

	res, err := r.exec.Eval(ctx, line)
	if err != nil {
		return err
	}
	if res.Display != "" {
		r.lastOutput = res.Display
		fmt.Fprintln(r.stdout, r.theme.Apply(r.config.OutPrompt(r.count), render.OutStyle)+res.Display)
	}
	return nil
}

func (r *REPL) record(logger *zap.Logger, sessionID, site, line string, err error) {
	failed := err != nil && !errors.Is(err, ErrExit) && !errors.Is(err, ErrAbort)
	r.inputs = append(r.inputs, inputRecord{count: r.count, source: line})
	logger.Debug("input executed", zap.Int("count", r.count), zap.Bool("failed", failed))

	if r.history == nil {
		return
	}
	_, dbErr := r.history.Record(history.HistoryEntry{
		SessionID:      sessionID,
		ExecutionCount: r.count,
		Source:         line,
		Site:           site,
		Failed:         failed,
	})
	if dbErr != nil {
		logger.Warn("failed to record history", zap.Error(dbErr))
	}
}

// loadHistory seeds the in-memory history from the database once per handle.
func (r *REPL) loadHistory(logger *zap.Logger) {
	if r.history == nil || r.historyLoaded {
		return
	}
	r.historyLoaded = true
	entries, err := r.history.GetRecentEntries("", r.config.History.Limit)
	if err != nil {
		logger.Warn("failed to load history", zap.Error(err))
		return
	}
	previous := make([]inputRecord, 0, len(entries)+len(r.inputs))
	for _, e := range entries {
		previous = append(previous, inputRecord{count: e.ExecutionCount, source: e.Source})
	}
	r.inputs = append(previous, r.inputs...)
}

// recentInputs returns input sources newest first for line editor navigation.
func (r *REPL) recentInputs() []string {
	out := make([]string, 0, len(r.inputs))
	for i := len(r.inputs) - 1; i >= 0; i-- {
		out = append(out, r.inputs[i].source)
	}
	return out
}

// termWidth returns the width of the output terminal, or 80.
func (r *REPL) termWidth() int {
	if f, ok := r.stdout.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
