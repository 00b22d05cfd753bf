package completion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	names  []string
	fields map[string][]string
	dir    string
}

func (f *fakeSource) Names() []string             { return f.names }
func (f *fakeSource) Fields(path string) []string { return f.fields[path] }
func (f *fakeSource) ShellDir() string            { return f.dir }

var magics = []string{"%where", "%who", "%vars", "%kill_embedded"}

func TestProvider_Magics(t *testing.T) {
	p := NewProvider(&fakeSource{}, magics)

	assert.Equal(t, []string{"%where", "%who"}, p.GetCompletions("%wh", 3))
	assert.Equal(t, []string{"%kill_embedded"}, p.GetCompletions("%kill", 5))
	assert.Nil(t, p.GetCompletions("x = %wh", 7))
}

func TestProvider_Names(t *testing.T) {
	p := NewProvider(&fakeSource{names: []string{"user", "users", "print", "_"}}, magics)

	assert.Equal(t, []string{"user", "users"}, p.GetCompletions("print(us", 8))
	assert.Contains(t, p.GetCompletions("", 0), "print")
}

func TestProvider_Fields(t *testing.T) {
	src := &fakeSource{fields: map[string][]string{
		"user":         {"Address", "Age", "Name"},
		"user.Address": {"City", "Zip"},
	}}
	p := NewProvider(src, magics)

	assert.Equal(t, []string{"user.Age"}, p.GetCompletions("user.Ag", 7))
	assert.Equal(t, []string{"user.Address.City"}, p.GetCompletions("user.Address.Ci", 15))
	assert.Empty(t, p.GetCompletions("nope.x", 6))
}

func TestProvider_Files(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0644))

	p := NewProvider(&fakeSource{dir: dir}, magics)

	assert.Equal(t, []string{"readme.md", "src/"}, p.GetCompletions("!ls ", 4))
	assert.Equal(t, []string{"src/main.go"}, p.GetCompletions("!cat src/m", 10))
	assert.Equal(t, []string{".hidden"}, p.GetCompletions("!cat .h", 7))
	assert.Nil(t, p.GetCompletions("!cat missing/", 13))
}

func TestRank(t *testing.T) {
	candidates := []string{"zeta", "alpha", "alphabet", "lalpha"}

	got := Rank("alp", candidates)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"alpha", "alphabet"}, got[:2])
	assert.Equal(t, "lalpha", got[2])

	assert.Equal(t, candidates, Rank("", candidates))
	assert.Empty(t, Rank("qq", candidates))
}
