package embedsh_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinylittleshell/embedsh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicOptions(t *testing.T) {
	cfg := embedsh.DefaultConfig()
	cfg.Colors = embedsh.ColorsNever
	cfg.EditingMode = embedsh.EditingModeEmacs
	cfg.PromptIn = "in[{n}] "

	h, err := embedsh.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	s, err := embedsh.New(
		embedsh.WithConfig(cfg),
		embedsh.WithHistory(h),
		embedsh.WithIO(strings.NewReader("x = 40 + 2\n"), &out, &errOut),
	)
	require.NoError(t, err)
	defer s.Close()

	s.Open(1, 0)
	assert.Contains(t, out.String(), "in[1] ")
	assert.Empty(t, errOut.String())

	entries, err := h.SearchHistory("40 + 2", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadConfig_UnreadableFileKeepsEnv(t *testing.T) {
	t.Setenv("EMBEDSH_CONFIG", t.TempDir())
	t.Setenv("EMBEDSH_DISABLE", "1")
	t.Setenv("EMBEDSH_CONTEXT", "9")

	cfg, errs := embedsh.LoadConfig()
	require.NotEmpty(t, errs)
	assert.ErrorContains(t, errs[0], "failed to read config file")
	assert.True(t, cfg.Disabled)
	assert.Equal(t, 9, cfg.ContextLines)
}
