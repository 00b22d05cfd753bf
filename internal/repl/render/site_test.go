package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinylittleshell/embedsh/internal/callsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSite_WithSource(t *testing.T) {
	rec := callsite.Record{
		Frame:     callsite.Frame{Function: "example.com/app.run", File: "/src/app/main.go", Line: 10},
		Lines:     []string{"\tcfg := load()", "\tembedsh.Sh()", "\tserve(cfg)"},
		StartLine: 9,
		Index:     1,
	}

	expected := strings.Join([]string{
		"Stopped at /src/app/main.go:10 in app.run",
		"      9 \tcfg := load()",
		"---> 10 \tembedsh.Sh()",
		"     11 \tserve(cfg)",
	}, "\n")
	assert.Equal(t, expected, PlainTheme().Site(rec))
}

func TestSite_WithoutSource(t *testing.T) {
	rec := callsite.Record{
		Frame: callsite.Frame{Function: "main.main", File: "/gone/main.go", Line: 4},
		Index: -1,
	}
	assert.Equal(t, "Stopped at /gone/main.go:4 in main.main", PlainTheme().Site(rec))
}

func TestSite_ExactlyOneMarker(t *testing.T) {
	rec := callsite.Capture(0, 5)
	out := PlainTheme().Site(rec)

	assert.Equal(t, 1, strings.Count(out, SymbolMarker))
	assert.Contains(t, out, "site_test.go")
	assert.Contains(t, out, "callsite.Capture(0, 5)")
}

func TestTraceback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boom.go")
	require.NoError(t, os.WriteFile(path, []byte("package boom\n\nfunc explode() {\n\tpanic(\"boom\")\n}\n"), 0644))

	frames := []callsite.Frame{
		{Function: "example.com/boom.explode", File: path, Line: 4},
		{Function: "runtime.goexit", File: "/go/src/runtime/asm.s", Line: 1, Runtime: true},
	}
	out := PlainTheme().Traceback("boom", frames, 3)

	assert.True(t, strings.HasPrefix(out, "panic: boom\n\nTraceback (most recent call first):"))
	assert.Contains(t, out, "boom.explode\n\t"+path+":4")
	assert.Contains(t, out, "---> 4 \tpanic(\"boom\")")
	assert.NotContains(t, out, "runtime.goexit")
}

func TestTraceback_ErrorValue(t *testing.T) {
	out := PlainTheme().Traceback(os.ErrNotExist, nil, 3)
	assert.Contains(t, out, "panic: file does not exist (*errors.errorString)")
}

func TestStack(t *testing.T) {
	frames := []callsite.Frame{
		{Function: "main.inner", File: "/a.go", Line: 3},
		{Function: "main.main", File: "/a.go", Line: 9},
	}
	out := PlainTheme().Stack(frames)
	assert.Equal(t, "#0  main.inner\n    /a.go:3\n#1  main.main\n    /a.go:9", out)
}
