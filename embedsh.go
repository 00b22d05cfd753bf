package embedsh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/atinylittleshell/embedsh/internal/callsite"
	"github.com/atinylittleshell/embedsh/internal/core"
	"github.com/atinylittleshell/embedsh/internal/history"
	"github.com/atinylittleshell/embedsh/internal/repl"
	"github.com/atinylittleshell/embedsh/internal/repl/config"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultContext is the number of source lines shown around a breakpoint.
const DefaultContext = callsite.DefaultContext

// ErrAborted is the panic value raised at the breakpoint after %abort.
var ErrAborted = errors.New("embedsh: aborted from embedded shell")

// Var is a named value made available to the shell.
type Var struct {
	Name  string
	Value any
}

// V binds value to name inside the shell.
func V(name string, value any) Var {
	return Var{Name: name, Value: value}
}

// Shell is a long-lived shell handle. The execution count, evaluator state
// and input history carry over from one breakpoint to the next. Breakpoints
// hit concurrently from several goroutines run one after another.
type Shell struct {
	repl         *repl.REPL
	config       *config.Config
	logger       *zap.Logger
	contextLines int
	closeLogger  bool
}

// New creates a Shell. Without WithConfig the configuration is loaded from
// $EMBEDSH_CONFIG or ~/.embedsh/config.yaml plus EMBEDSH_* overrides; problems
// with it are reported on the error stream and defaults are used. An error is
// only returned when the history database cannot be opened.
func New(opts ...Option) (*Shell, error) {
	o := &options{contextLines: -1}
	for _, opt := range opts {
		opt(o)
	}
	if o.stderr == nil {
		o.stderr = os.Stderr
	}

	var cfg *config.Config
	var configErrors []error
	if o.config != nil {
		c := *o.config
		cfg = &c
	} else {
		cfg, configErrors = loadConfig()
	}
	if o.contextLines >= 0 {
		cfg.ContextLines = o.contextLines
	}

	s := &Shell{config: cfg, contextLines: cfg.ContextLines}

	s.logger = o.logger
	if s.logger == nil {
		logger, err := newFileLogger(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(o.stderr, "embedsh: logging disabled: %v\n", err)
		}
		s.logger = logger
		s.closeLogger = err == nil && cfg.LogFile != ""
	}
	for _, err := range configErrors {
		s.logger.Warn("embedsh configuration problem", zap.Error(err))
		fmt.Fprintf(o.stderr, "embedsh: config: %v\n", err)
	}

	hist := o.history
	if hist == nil && cfg.History.Enabled {
		var err error
		hist, err = openHistory(cfg.History.File)
		if err != nil {
			return nil, err
		}
	}

	r, err := repl.New(repl.Options{
		Config:  cfg,
		Stdin:   o.stdin,
		Stdout:  o.stdout,
		Stderr:  o.stderr,
		Logger:  s.logger,
		History: hist,
	})
	if err != nil {
		if hist != nil {
			hist.Close()
		}
		return nil, err
	}
	s.repl = r
	return s, nil
}

func loadConfig() (*config.Config, []error) {
	loader := config.NewLoader(zap.NewNop())
	result, err := loader.LoadDefaultConfigPath()
	if err != nil {
		result = loader.LoadDefaults()
		return result.Config, append([]error{err}, result.Errors...)
	}
	return result.Config, result.Errors
}

func newFileLogger(path, level string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	if err := core.EnsureParentDir(path); err != nil {
		return zap.NewNop(), err
	}

	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{path}
	loggerConfig.ErrorOutputPaths = []string{path}

	logger, err := loggerConfig.Build()
	if err != nil {
		return zap.NewNop(), fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func openHistory(path string) (*history.HistoryManager, error) {
	if path == "" {
		path = core.HistoryFile()
	}
	if err := core.EnsureParentDir(path); err != nil {
		return nil, err
	}
	h, err := history.NewHistoryManager(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	return h, nil
}

var (
	defaultShell *Shell
	defaultOnce  sync.Once
)

// Default returns the process-wide shell, creating it on first use. When the
// history database cannot be opened the shell runs without it.
func Default() *Shell {
	defaultOnce.Do(func() {
		s, err := New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "embedsh: %v; continuing without history\n", err)
			cfg, _ := loadConfig()
			cfg.History.Enabled = false
			s, err = New(WithConfig(cfg))
		}
		if err != nil {
			panic(fmt.Sprintf("embedsh: %v", err))
		}
		defaultShell = s
	})
	return defaultShell
}

// Disable turns every later breakpoint in the process into a no-op, like
// %kill_embedded.
func Disable() {
	repl.Kill()
}

// Enable re-activates breakpoints after Disable or %kill_embedded.
func Enable() {
	repl.Revive()
}

// Enabled reports whether breakpoints open a shell.
func Enabled() bool {
	return !repl.Killed()
}

// Count returns the execution count the next input will get.
func (s *Shell) Count() int {
	return s.repl.Count()
}

// Close releases the evaluator, the history database and the log file.
func (s *Shell) Close() error {
	err := s.repl.Close()
	if s.closeLogger {
		_ = s.logger.Sync()
	}
	return err
}

func (s *Shell) active() bool {
	return Enabled() && !s.config.Disabled
}

// Open stops at the function depth frames above Open (1 is the caller of
// Open) and runs the shell there, showing context source lines around the
// call. It returns when the operator leaves the shell. After %abort it
// panics with ErrAborted.
func (s *Shell) Open(depth, context int, vars ...Var) {
	if !s.active() {
		return
	}
	if context < 0 {
		context = s.contextLines
	}
	rec := callsite.Capture(depth, context)
	frames := callsite.Stack(depth)
	s.run(repl.Session{Site: rec, Frames: frames}, vars)
}

func (s *Shell) run(session repl.Session, vars []Var) {
	session.Vars = lo.Map(vars, func(v Var, _ int) repl.Binding {
		return repl.Binding{Name: v.Name, Value: v.Value}
	})
	if err := s.repl.Embed(context.Background(), session); errors.Is(err, repl.ErrAbort) {
		panic(ErrAborted)
	}
}

// Sh opens the default shell at the line calling Sh.
func Sh(vars ...Var) {
	Default().Open(2, -1, vars...)
}

// Recover is meant to be deferred. When a panic is propagating it opens the
// default shell with the panic value and a traceback, then re-panics with the
// same value once the operator leaves. Without a panic it opens the shell at
// the deferring function.
func Recover(vars ...Var) {
	r := recover()
	s := Default()

	if r == nil {
		if s.active() {
			frames := callsite.UserFrames(callsite.Stack(1))
			if len(frames) > 0 {
				s.run(repl.Session{Site: callsite.FromFrame(frames[0], s.contextLines), Frames: frames}, vars)
			}
		}
		return
	}

	if s.active() {
		frames := callsite.UserFrames(callsite.PanicStack(0))
		session := repl.Session{
			Message: s.repl.Theme().Traceback(r, frames, s.contextLines),
			Frames:  frames,
		}
		if len(frames) > 0 {
			session.Site = callsite.FromFrame(frames[0], s.contextLines)
		}
		s.run(session, vars)
	}
	panic(r)
}
