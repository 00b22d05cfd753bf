package embedsh

import (
	"io"

	"github.com/atinylittleshell/embedsh/internal/history"
	"github.com/atinylittleshell/embedsh/internal/repl/config"
	"go.uber.org/zap"
)

type options struct {
	config       *config.Config
	logger       *zap.Logger
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	history      *history.HistoryManager
	contextLines int
}

// Option customizes a Shell created by New.
type Option func(*options)

// WithConfig uses a copy of cfg instead of loading the configuration file
// and the EMBEDSH_* environment.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger logs to logger instead of the configured log file.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIO sets the streams the shell reads from and writes to. Nil streams
// keep the process defaults.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(o *options) {
		o.stdin = in
		o.stdout = out
		o.stderr = errOut
	}
}

// WithHistory records inputs into h. The shell takes ownership and closes it
// in Close.
func WithHistory(h *History) Option {
	return func(o *options) {
		o.history = h
	}
}

// WithContextLines sets how many source lines are shown around a breakpoint.
func WithContextLines(n int) Option {
	return func(o *options) {
		o.contextLines = n
	}
}
