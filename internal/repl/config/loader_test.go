package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(env map[string]string) *Loader {
	l := NewLoader(nil)
	l.getenv = func(key string) string { return env[key] }
	return l
}

func TestLoadFromString_Empty(t *testing.T) {
	result, err := newTestLoader(nil).LoadFromString("")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadFromString_Values(t *testing.T) {
	src := `
prompt_in: "debug[{n}]> "
prompt_out: "=> "
colors: never
editing_mode: emacs
context_lines: 5
eval_timeout: 2s
history:
  enabled: true
  limit: 10
`
	result, err := newTestLoader(nil).LoadFromString(src)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	cfg := result.Config
	assert.Equal(t, "debug[4]> ", cfg.InPrompt(4))
	assert.Equal(t, "=> ", cfg.OutPrompt(4))
	assert.Equal(t, ColorsNever, cfg.Colors)
	assert.False(t, cfg.IsVi())
	assert.Equal(t, 5, cfg.ContextLines)
	assert.Equal(t, 2*time.Second, cfg.EvalTimeout)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 10, cfg.History.Limit)
	// Unset keys keep their defaults.
	assert.Equal(t, "yellow", cfg.MessageColor)
}

func TestLoadFromString_ParseError(t *testing.T) {
	result, err := newTestLoader(nil).LoadFromString("colors: [never")
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "parse error")
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadFromString_InvalidValuesNormalized(t *testing.T) {
	src := `
colors: rainbow
editing_mode: nano
context_lines: -2
log_level: loud
`
	result, err := newTestLoader(nil).LoadFromString(src)
	require.NoError(t, err)
	assert.Len(t, result.Errors, 4)

	cfg := result.Config
	assert.Equal(t, ColorsAuto, cfg.Colors)
	assert.Equal(t, EditingModeVi, cfg.EditingMode)
	assert.Equal(t, 3, cfg.ContextLines)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromString_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"EMBEDSH_DISABLE":      "true",
		"EMBEDSH_COLORS":       "ALWAYS",
		"EMBEDSH_EDITING_MODE": "emacs",
		"EMBEDSH_CONTEXT":      "9",
		"EMBEDSH_HISTORY":      "1",
		"EMBEDSH_LOG_FILE":     "/tmp/embedsh.log",
		"EMBEDSH_LOG_LEVEL":    "DEBUG",
		"EMBEDSH_EVAL_TIMEOUT": "250ms",
	}
	result, err := newTestLoader(env).LoadFromString("colors: never\ncontext_lines: 1\n")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	cfg := result.Config
	assert.True(t, cfg.Disabled)
	assert.Equal(t, ColorsAlways, cfg.Colors)
	assert.Equal(t, EditingModeEmacs, cfg.EditingMode)
	assert.Equal(t, 9, cfg.ContextLines)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/embedsh.log", cfg.LogFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.EvalTimeout)
}

func TestLoadFromString_NoColorWins(t *testing.T) {
	env := map[string]string{"EMBEDSH_COLORS": "always", "NO_COLOR": "1"}
	result, err := newTestLoader(env).LoadFromString("")
	require.NoError(t, err)
	assert.Equal(t, ColorsNever, result.Config.Colors)
}

func TestLoadFromString_BadEnv(t *testing.T) {
	env := map[string]string{"EMBEDSH_DISABLE": "maybe", "EMBEDSH_CONTEXT": "lots"}
	result, err := newTestLoader(env).LoadFromString("")
	require.NoError(t, err)
	assert.Len(t, result.Errors, 2)
	assert.False(t, result.Config.Disabled)
	assert.Equal(t, 3, result.Config.ContextLines)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context_lines: 7\n"), 0644))

	result, err := newTestLoader(nil).LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.Equal(t, 7, result.Config.ContextLines)
}

func TestLoadFromFile_Missing(t *testing.T) {
	result, err := newTestLoader(nil).LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, result.Path)
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadDefaultConfigPath_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("editing_mode: emacs\n"), 0644))

	result, err := newTestLoader(map[string]string{ConfigPathEnv: path}).LoadDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.Equal(t, EditingModeEmacs, result.Config.EditingMode)
}

func TestLoadDefaults_AppliesEnv(t *testing.T) {
	result := newTestLoader(map[string]string{
		"EMBEDSH_DISABLE": "1",
		"NO_COLOR":        "1",
	}).LoadDefaults()

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Path)
	assert.True(t, result.Config.Disabled)
	assert.Equal(t, ColorsNever, result.Config.Colors)
}

func TestLoadFromFile_Unreadable(t *testing.T) {
	_, err := newTestLoader(nil).LoadFromFile(t.TempDir())
	assert.ErrorContains(t, err, "failed to read config file")
}
