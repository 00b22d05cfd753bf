package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinylittleshell/embedsh/internal/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv overrides the configuration file location.
const ConfigPathEnv = "EMBEDSH_CONFIG"

// Loader handles loading and parsing of configuration files.
type Loader struct {
	logger *zap.Logger
	getenv func(string) string
}

// NewLoader creates a new configuration loader reading overrides from the process environment.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
		getenv: os.Getenv,
	}
}

// LoadResult contains the result of loading a configuration file.
type LoadResult struct {
	Config *Config
	// Path is the file that was read, empty if none was.
	Path   string
	Errors []error
}

// LoadFromFile loads configuration from a YAML file.
// Returns the configuration and any non-fatal errors encountered.
// If the file doesn't exist, returns default configuration with no error.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l.LoadDefaults(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := l.LoadFromString(string(content))
	if err != nil {
		return nil, err
	}
	result.Path = path
	return result, nil
}

// LoadFromString loads configuration from YAML source.
// Malformed YAML falls back to defaults and is reported in LoadResult.Errors.
func (l *Loader) LoadFromString(source string) (*LoadResult, error) {
	result := &LoadResult{
		Config: DefaultConfig(),
		Errors: []error{},
	}

	if strings.TrimSpace(source) != "" {
		parsed := DefaultConfig()
		if err := yaml.Unmarshal([]byte(source), parsed); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parse error: %w", err))
		} else {
			result.Config = parsed
		}
	}

	l.finish(result)
	return result, nil
}

// LoadDefaultConfigPath loads configuration from $EMBEDSH_CONFIG, or
// ~/.embedsh/config.yaml when unset.
func (l *Loader) LoadDefaultConfigPath() (*LoadResult, error) {
	path := l.getenv(ConfigPathEnv)
	if path == "" {
		path = core.ConfigFile()
	}
	return l.LoadFromFile(path)
}

// LoadDefaults returns the default configuration with the environment
// overrides applied, for when no file could be read.
func (l *Loader) LoadDefaults() *LoadResult {
	result := &LoadResult{Config: DefaultConfig(), Errors: []error{}}
	l.finish(result)
	return result
}

func (l *Loader) finish(result *LoadResult) {
	l.applyEnv(result)
	result.Errors = append(result.Errors, normalize(result.Config)...)
	for _, err := range result.Errors {
		l.logger.Warn("embedsh configuration problem", zap.Error(err))
	}
}

// applyEnv applies EMBEDSH_* overrides on top of file values.
func (l *Loader) applyEnv(result *LoadResult) {
	cfg := result.Config

	if v := l.getenv("EMBEDSH_DISABLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Disabled = b
		} else {
			result.Errors = append(result.Errors, fmt.Errorf("EMBEDSH_DISABLE: %w", err))
		}
	}
	if v := l.getenv("EMBEDSH_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.History.Enabled = b
		} else {
			result.Errors = append(result.Errors, fmt.Errorf("EMBEDSH_HISTORY: %w", err))
		}
	}
	if v := l.getenv("EMBEDSH_CONTEXT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ContextLines = n
		} else {
			result.Errors = append(result.Errors, fmt.Errorf("EMBEDSH_CONTEXT: %w", err))
		}
	}
	if v := l.getenv("EMBEDSH_EVAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.EvalTimeout = d
		} else {
			result.Errors = append(result.Errors, fmt.Errorf("EMBEDSH_EVAL_TIMEOUT: %w", err))
		}
	}
	if v := l.getenv("EMBEDSH_COLORS"); v != "" {
		cfg.Colors = strings.ToLower(v)
	}
	if v := l.getenv("NO_COLOR"); v != "" {
		cfg.Colors = ColorsNever
	}
	if v := l.getenv("EMBEDSH_EDITING_MODE"); v != "" {
		cfg.EditingMode = strings.ToLower(v)
	}
	if v := l.getenv("EMBEDSH_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := l.getenv("EMBEDSH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

// normalize resets invalid values to their defaults and reports each one.
func normalize(cfg *Config) []error {
	defaults := DefaultConfig()
	var errs []error

	switch cfg.Colors {
	case ColorsAuto, ColorsAlways, ColorsNever:
	default:
		errs = append(errs, fmt.Errorf("invalid colors %q, using %q", cfg.Colors, defaults.Colors))
		cfg.Colors = defaults.Colors
	}

	switch cfg.EditingMode {
	case EditingModeVi, EditingModeEmacs:
	default:
		errs = append(errs, fmt.Errorf("invalid editing_mode %q, using %q", cfg.EditingMode, defaults.EditingMode))
		cfg.EditingMode = defaults.EditingMode
	}

	if cfg.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("invalid context_lines %d, using %d", cfg.ContextLines, defaults.ContextLines))
		cfg.ContextLines = defaults.ContextLines
	}
	if cfg.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("invalid max_depth %d, using %d", cfg.MaxDepth, defaults.MaxDepth))
		cfg.MaxDepth = defaults.MaxDepth
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = defaults.History.Limit
	}
	if cfg.EvalTimeout < 0 {
		errs = append(errs, fmt.Errorf("invalid eval_timeout %s, disabling it", cfg.EvalTimeout))
		cfg.EvalTimeout = 0
	}
	if cfg.PromptIn == "" {
		cfg.PromptIn = defaults.PromptIn
	}
	if cfg.PromptOut == "" {
		cfg.PromptOut = defaults.PromptOut
	}
	if cfg.MessageColor == "" {
		cfg.MessageColor = defaults.MessageColor
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q, using %q", cfg.LogLevel, defaults.LogLevel))
		cfg.LogLevel = defaults.LogLevel
	}

	return errs
}
