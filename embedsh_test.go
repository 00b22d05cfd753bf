package embedsh

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/atinylittleshell/embedsh/internal/callsite"
	"github.com/atinylittleshell/embedsh/internal/history"
	"github.com/atinylittleshell/embedsh/internal/repl"
	"github.com/atinylittleshell/embedsh/internal/repl/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Colors = config.ColorsNever
	return cfg
}

func newTestShell(t *testing.T, input string, opts ...Option) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(Enable)

	var out, errOut bytes.Buffer
	all := append([]Option{
		WithConfig(testConfig()),
		WithIO(strings.NewReader(input), &out, &errOut),
	}, opts...)
	s, err := New(all...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, &out, &errOut
}

// useDefault makes s the shell returned by Default for the rest of the test.
func useDefault(t *testing.T, s *Shell) {
	t.Helper()
	defaultOnce.Do(func() {})
	defaultShell = s
	t.Cleanup(func() {
		defaultOnce = sync.Once{}
		defaultShell = nil
	})
}

func TestOpen_RendersCallSite(t *testing.T) {
	s, out, _ := newTestShell(t, "")

	_, file, line, _ := runtime.Caller(0)
	s.Open(1, 3)

	text := out.String()
	assert.Contains(t, text, fmt.Sprintf("Stopped at %s:%d in embedsh.TestOpen_RendersCallSite\n", file, line+1))
	assert.Contains(t, text, fmt.Sprintf("---> %d \ts.Open(1, 3)\n", line+1))
	assert.Equal(t, 1, strings.Count(text, "\n---> "))
	assert.True(t, strings.HasSuffix(text, "** Leaving embedded shell.\n"))
}

func TestOpen_ContextWindowSize(t *testing.T) {
	for _, context := range []int{1, 2, 5} {
		t.Run(fmt.Sprint(context), func(t *testing.T) {
			s, out, _ := newTestShell(t, "")
			s.Open(1, context)

			lines := strings.Split(out.String(), "\n")
			_, at, found := findLine(lines, "Stopped at ")
			require.True(t, found)
			window := 0
			for _, l := range lines[at+1:] {
				if l == "" {
					break
				}
				window++
			}
			assert.Equal(t, context, window)
		})
	}
}

func findLine(lines []string, prefix string) (string, int, bool) {
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l, i, true
		}
	}
	return "", -1, false
}

func TestOpen_MissingSource(t *testing.T) {
	s, out, _ := newTestShell(t, "")

	rec := callsite.FromFrame(callsite.Frame{Function: "main.gone", File: "/does/not/exist.go", Line: 7}, 3)
	s.run(repl.Session{Site: rec}, nil)

	assert.Contains(t, out.String(), "Stopped at /does/not/exist.go:7 in main.gone\n\n")
	assert.NotContains(t, out.String(), "--->")
}

func TestOpen_CounterAcrossBreakpoints(t *testing.T) {
	s, out, _ := newTestShell(t, "1\nexit\n2\n")

	s.Open(1, 3)
	first := out.String()
	assert.Contains(t, first, "Out<1>: 1\n")
	assert.Contains(t, first, "In <2>: ")

	out.Reset()
	s.Open(1, 3)
	second := out.String()
	assert.Contains(t, second, "In <3>: ")
	assert.Contains(t, second, "Out<3>: 2\n")
	assert.Equal(t, 4, s.Count())
}

func TestOpen_KillEmbedded(t *testing.T) {
	s, out, _ := newTestShell(t, "%kill_embedded\n")

	s.Open(1, 3)
	assert.False(t, Enabled())

	out.Reset()
	s.Open(1, 3)
	assert.Empty(t, out.String())
}

func TestDisable(t *testing.T) {
	s, out, _ := newTestShell(t, "1\n")

	Disable()
	s.Open(1, 3)
	assert.Empty(t, out.String())
}

func TestEnable(t *testing.T) {
	s, out, _ := newTestShell(t, "%kill_embedded\nexit\n1\n")

	s.Open(1, 3)
	require.False(t, Enabled())

	Enable()
	assert.True(t, Enabled())
	out.Reset()
	s.Open(1, 3)
	assert.Contains(t, out.String(), "Out<3>: 1\n")
}

func TestOpen_DisabledByConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Disabled = true
	s, out, _ := newTestShell(t, "1\n", WithConfig(cfg))

	s.Open(1, 3)
	assert.Empty(t, out.String())
	assert.True(t, Enabled())
}

func TestOpen_Abort(t *testing.T) {
	s, out, _ := newTestShell(t, "%abort\n")

	assert.PanicsWithValue(t, ErrAborted, func() { s.Open(1, 3) })
	assert.Contains(t, out.String(), "** Leaving embedded shell.")
}

func TestOpen_BannerIsPlainWithoutColors(t *testing.T) {
	s, out, _ := newTestShell(t, "")

	s.Open(1, 3)
	assert.True(t, strings.HasPrefix(out.String(),
		"\n** Entering embedded shell:\nHit Ctrl-D to exit this shell and resume execution.\nUse %kill_embedded to deactivate future shells.\n"))
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestSh(t *testing.T) {
	s, out, _ := newTestShell(t, "x + 1\n")
	useDefault(t, s)

	_, file, line, _ := runtime.Caller(0)
	Sh(V("x", 41))

	assert.Contains(t, out.String(), fmt.Sprintf("Stopped at %s:%d in embedsh.TestSh\n", file, line+1))
	assert.Contains(t, out.String(), "Out<1>: 42\n")
}

func panicking() {
	defer Recover()
	panic("boom")
}

func returning() {
	defer Recover()
}

func TestRecover_Panic(t *testing.T) {
	s, out, _ := newTestShell(t, "")
	useDefault(t, s)

	assert.PanicsWithValue(t, "boom", panicking)

	text := out.String()
	assert.Contains(t, text, "panic: boom")
	assert.Contains(t, text, "Traceback (most recent call first):")
	assert.Contains(t, text, "embedsh.panicking")
	assert.Contains(t, text, `panic("boom")`)
}

func TestRecover_PanicWhenDisabled(t *testing.T) {
	s, out, _ := newTestShell(t, "")
	useDefault(t, s)
	Disable()

	assert.PanicsWithValue(t, "boom", panicking)
	assert.Empty(t, out.String())
}

func TestRecover_NoPanic(t *testing.T) {
	s, out, _ := newTestShell(t, "")
	useDefault(t, s)

	assert.NotPanics(t, returning)
	assert.Contains(t, out.String(), "in embedsh.returning")
	assert.NotContains(t, out.String(), "Traceback")
}

func TestNew_Logger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s, _, _ := newTestShell(t, "1\n", WithLogger(zap.New(core)))

	s.Open(1, 3)
	assert.Equal(t, 1, logs.FilterMessage("embedded shell opened").Len())
	assert.Equal(t, 1, logs.FilterMessage("embedded shell closed").Len())
}

func TestNew_LogFile(t *testing.T) {
	cfg := testConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "embedsh.log")
	s, _, _ := newTestShell(t, "", WithConfig(cfg))

	s.Open(1, 3)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "embedded shell opened")
}

func TestNew_History(t *testing.T) {
	cfg := testConfig()
	cfg.History.Enabled = true
	cfg.History.File = filepath.Join(t.TempDir(), "history.db")
	s, _, _ := newTestShell(t, "a = 1\n", WithConfig(cfg))

	s.Open(1, 3)
	require.NoError(t, s.Close())

	h, err := history.NewHistoryManager(cfg.History.File)
	require.NoError(t, err)
	defer h.Close()
	entries, err := h.GetRecentEntries("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a = 1", entries[0].Source)
}

func TestNew_WithHistory(t *testing.T) {
	h, err := history.NewHistoryManager(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	s, _, _ := newTestShell(t, "b = 2\n%history search b\n", WithHistory(h))

	s.Open(1, 3)
	entries, err := h.SearchHistory("b = 2", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNew_ContextLinesOption(t *testing.T) {
	s, _, _ := newTestShell(t, "", WithContextLines(7))
	assert.Equal(t, 7, s.contextLines)
}

func TestNew_ContextLinesOptionKeepsConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ContextLines = 3
	s, _, _ := newTestShell(t, "", WithConfig(cfg), WithContextLines(7))

	assert.Equal(t, 7, s.contextLines)
	assert.Equal(t, 3, cfg.ContextLines)
}
