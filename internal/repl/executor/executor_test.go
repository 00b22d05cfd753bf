package executor

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func newTestExecutor(t *testing.T, opts Options) (*Executor, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	if opts.Stdout == nil {
		opts.Stdout = &out
	}
	exec, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(exec.Close)
	return exec, &out
}

func TestEval_Expression(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	res, err := exec.Eval(context.Background(), "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "3", res.Display)
	require.Len(t, res.Values, 1)
	assert.Equal(t, lua.LNumber(3), res.Values[0])
}

func TestEval_Statement(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	res, err := exec.Eval(context.Background(), "x = 40")
	require.NoError(t, err)
	assert.Empty(t, res.Display)
	assert.Empty(t, res.Values)

	res, err = exec.Eval(context.Background(), "x + 2")
	require.NoError(t, err)
	assert.Equal(t, "42", res.Display)
}

func TestEval_LastResult(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	_, err := exec.Eval(context.Background(), `"hello"`)
	require.NoError(t, err)

	res, err := exec.Eval(context.Background(), "_ .. \" world\"")
	require.NoError(t, err)
	assert.Equal(t, `"hello world"`, res.Display)
}

func TestEval_MultipleValues(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	res, err := exec.Eval(context.Background(), `1, "a", nil`)
	require.NoError(t, err)
	assert.Equal(t, "1\t\"a\"\tnil", res.Display)
}

func TestEval_NilShowsNothing(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	res, err := exec.Eval(context.Background(), "nil")
	require.NoError(t, err)
	assert.Empty(t, res.Display)
}

func TestEval_Errors(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	_, err := exec.Eval(context.Background(), "1 +")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")

	_, err = exec.Eval(context.Background(), `error("nope")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")

	// The state stays usable after an error.
	res, err := exec.Eval(context.Background(), "2 * 2")
	require.NoError(t, err)
	assert.Equal(t, "4", res.Display)
}

func TestEval_PrintUsesStdout(t *testing.T) {
	exec, out := newTestExecutor(t, Options{})

	res, err := exec.Eval(context.Background(), `print("a", 1, true)`)
	require.NoError(t, err)
	assert.Empty(t, res.Display)
	assert.Equal(t, "a\t1\ttrue\n", out.String())
}

func TestEval_Timeout(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{Timeout: 50 * time.Millisecond})

	_, err := exec.Eval(context.Background(), "while true do end")
	assert.True(t, errors.Is(err, ErrTimeout))

	res, err := exec.Eval(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Display)
}

func TestEval_Closed(t *testing.T) {
	exec, err := New(Options{})
	require.NoError(t, err)
	exec.Close()
	exec.Close()

	_, err = exec.Eval(context.Background(), "1")
	assert.ErrorIs(t, err, ErrClosed)
}

type user struct {
	Name  string
	Age   int
	Tags  []string
	notes string
}

func (u *user) Greeting(prefix string) string {
	return prefix + ", " + u.Name
}

func TestBind(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})
	u := &user{Name: "ada", Age: 36, Tags: []string{"x", "y"}, notes: "hidden"}
	exec.Bind("u", u)
	exec.Bind("n", 7)

	tests := []struct {
		src      string
		expected string
	}{
		{"u.Name", `"ada"`},
		{"u.Age + n", "43"},
		{"#u.Tags", "2"},
		{"u.Tags[2]", `"y"`},
		{"u.notes", ""},
		{`u:Greeting("hi")`, `"hi, ada"`},
		{`u.Greeting("hey")`, `"hey, ada"`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := exec.Eval(context.Background(), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Display)
		})
	}

	v, ok := exec.Binding("u")
	require.True(t, ok)
	assert.Same(t, u, v)
	assert.Equal(t, []string{"n", "u"}, exec.BindingNames())
}

func TestBind_Functions(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})
	exec.Bind("add", func(a, b int) int { return a + b })
	exec.Bind("fail", func() error { return errors.New("broken") })
	exec.Bind("join", func(sep string, parts ...string) string {
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += sep
			}
			out += p
		}
		return out
	})

	res, err := exec.Eval(context.Background(), "add(2, 3)")
	require.NoError(t, err)
	assert.Equal(t, "5", res.Display)

	res, err = exec.Eval(context.Background(), `join("-", "a", "b", "c")`)
	require.NoError(t, err)
	assert.Equal(t, `"a-b-c"`, res.Display)

	_, err = exec.Eval(context.Background(), "fail()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, err = exec.Eval(context.Background(), "add(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 arguments")
}

func TestGlobal(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	_, err := exec.Eval(context.Background(), `t = {a = 1, b = {2, 3}}`)
	require.NoError(t, err)

	v, ok := exec.Global("t")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"a": int64(1), "b": []interface{}{int64(2), int64(3)}}, v)

	_, ok = exec.Global("missing")
	assert.False(t, ok)
}

func TestRunShell(t *testing.T) {
	exec, out := newTestExecutor(t, Options{})

	code, err := exec.RunShell(context.Background(), "echo hi")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hi\n", out.String())

	code, err = exec.RunShell(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestShellOutput(t *testing.T) {
	exec, out := newTestExecutor(t, Options{})

	got, err := exec.ShellOutput(context.Background(), "echo quiet")
	require.NoError(t, err)
	assert.Equal(t, "quiet\n", got)
	assert.Empty(t, out.String())

	_, err = exec.ShellOutput(context.Background(), "echo nope >&2; false")
	assert.ErrorContains(t, err, "exit status 1: nope")
}

func TestLuaShell(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})

	res, err := exec.Eval(context.Background(), `sh("echo captured")`)
	require.NoError(t, err)
	assert.Equal(t, "\"captured\\n\"\t\"\"\t0", res.Display)
}

func TestNamesAndFields(t *testing.T) {
	exec, _ := newTestExecutor(t, Options{})
	exec.Bind("u", &user{Name: "ada"})

	names := exec.Names()
	assert.Contains(t, names, "u")
	assert.Contains(t, names, "print")

	fields := exec.Fields("u")
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "Greeting")
	assert.Nil(t, exec.Fields("u.Name"))
	assert.Nil(t, exec.Fields("missing.x"))
}
