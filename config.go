package embedsh

import (
	"github.com/atinylittleshell/embedsh/internal/history"
	"github.com/atinylittleshell/embedsh/internal/repl/config"
)

// Config is the shell configuration accepted by WithConfig.
type Config = config.Config

// HistoryConfig controls the persistent input history.
type HistoryConfig = config.HistoryConfig

// History is a persistent input history opened with OpenHistory.
type History = history.HistoryManager

// Values for Config.Colors and Config.EditingMode.
const (
	ColorsAuto   = config.ColorsAuto
	ColorsAlways = config.ColorsAlways
	ColorsNever  = config.ColorsNever

	EditingModeVi    = config.EditingModeVi
	EditingModeEmacs = config.EditingModeEmacs
)

// DefaultConfig returns the built-in configuration without reading the
// config file or the environment.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadConfig reads $EMBEDSH_CONFIG or ~/.embedsh/config.yaml and applies the
// EMBEDSH_* overrides. The returned config is always usable; the errors list
// what was ignored.
func LoadConfig() (*Config, []error) {
	return loadConfig()
}

// OpenHistory opens the history database at path, creating it if needed. An
// empty path uses the default data directory.
func OpenHistory(path string) (*History, error) {
	return openHistory(path)
}
