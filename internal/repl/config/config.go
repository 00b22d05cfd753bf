// Package config provides configuration management for embedded shells.
// It handles loading the YAML configuration file, applying EMBEDSH_*
// environment overrides and normalizing invalid values back to defaults.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Editing modes for the line editor.
const (
	EditingModeVi    = "vi"
	EditingModeEmacs = "emacs"
)

// Color modes.
const (
	ColorsAuto   = "auto"
	ColorsAlways = "always"
	ColorsNever  = "never"
)

// PromptCountPlaceholder is replaced by the execution count in prompt templates.
const PromptCountPlaceholder = "{n}"

// Config holds all embedded shell configuration.
type Config struct {
	// PromptIn is the input prompt template, e.g. "In <{n}>: ".
	PromptIn string `yaml:"prompt_in"`

	// PromptOut is the result prompt template, e.g. "Out<{n}>: ".
	PromptOut string `yaml:"prompt_out"`

	// MessageColor colors the banner and exit message.
	MessageColor string `yaml:"message_color"`

	// Colors is one of auto, always or never.
	Colors string `yaml:"colors"`

	// EditingMode is vi or emacs.
	EditingMode string `yaml:"editing_mode"`

	// ContextLines is the number of source lines shown around a breakpoint.
	ContextLines int `yaml:"context_lines"`

	// Disabled turns every breakpoint into a no-op.
	Disabled bool `yaml:"disabled"`

	History HistoryConfig `yaml:"history"`

	// LogFile enables logging to the given path. Empty disables logging.
	LogFile string `yaml:"log_file"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// EvalTimeout bounds a single evaluated input. Zero means no limit.
	EvalTimeout time.Duration `yaml:"eval_timeout"`

	// MaxDepth bounds how deep bound Go values are converted for evaluation.
	MaxDepth int `yaml:"max_depth"`
}

// HistoryConfig controls the optional persistent input history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// File is the sqlite database path. Empty means the default data directory.
	File string `yaml:"file"`
	// Limit is how many entries are loaded for Up/Down navigation.
	Limit int `yaml:"limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		PromptIn:     "In <" + PromptCountPlaceholder + ">: ",
		PromptOut:    "Out<" + PromptCountPlaceholder + ">: ",
		MessageColor: "yellow",
		Colors:       ColorsAuto,
		EditingMode:  EditingModeVi,
		ContextLines: 3,
		History: HistoryConfig{
			Limit: 500,
		},
		LogLevel: "info",
		MaxDepth: 5,
	}
}

// FormatPrompt substitutes the execution count into a prompt template.
func FormatPrompt(template string, count int) string {
	return strings.ReplaceAll(template, PromptCountPlaceholder, strconv.Itoa(count))
}

// InPrompt returns the input prompt for the given execution count.
func (c *Config) InPrompt(count int) string {
	return FormatPrompt(c.PromptIn, count)
}

// OutPrompt returns the result prompt for the given execution count.
func (c *Config) OutPrompt(count int) string {
	return FormatPrompt(c.PromptOut, count)
}

// IsVi reports whether vi key bindings are active.
func (c *Config) IsVi() bool {
	return c.EditingMode == EditingModeVi
}
