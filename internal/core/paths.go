package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Paths holds the on-disk locations used by optional file features. Nothing is
// created until one of those features asks for its directory.
type Paths struct {
	HomeDir     string
	DataDir     string
	LogFile     string
	HistoryFile string
	ConfigFile  string
}

var (
	defaultPaths *Paths
	pathsMu      sync.Mutex
)

func ensureDefaultPaths() *Paths {
	pathsMu.Lock()
	defer pathsMu.Unlock()

	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fall back to the working directory so a missing $HOME never stops a breakpoint.
			homeDir = "."
		}

		dataDir := filepath.Join(homeDir, ".embedsh")
		defaultPaths = &Paths{
			HomeDir:     homeDir,
			DataDir:     dataDir,
			LogFile:     filepath.Join(dataDir, "embedsh.log"),
			HistoryFile: filepath.Join(dataDir, "history.db"),
			ConfigFile:  filepath.Join(dataDir, "config.yaml"),
		}
	}
	return defaultPaths
}

func HomeDir() string {
	return ensureDefaultPaths().HomeDir
}

func DataDir() string {
	return ensureDefaultPaths().DataDir
}

func LogFile() string {
	return ensureDefaultPaths().LogFile
}

func HistoryFile() string {
	return ensureDefaultPaths().HistoryFile
}

func ConfigFile() string {
	return ensureDefaultPaths().ConfigFile
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// ResetPaths clears the cached paths, forcing them to be reinitialized.
// This is primarily used for testing purposes.
func ResetPaths() {
	pathsMu.Lock()
	defer pathsMu.Unlock()
	defaultPaths = nil
}
