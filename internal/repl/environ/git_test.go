package environ

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeShell answers commands from a table; unknown commands fail.
type fakeShell map[string]string

func (f fakeShell) ShellOutput(_ context.Context, command string) (string, error) {
	out, ok := f[command]
	if !ok {
		return "", errors.New("exit status 128")
	}
	return out, nil
}

func TestGitStatusRetriever(t *testing.T) {
	t.Run("Name returns correct value", func(t *testing.T) {
		retriever := NewGitStatusRetriever(fakeShell{}, nil)
		assert.Equal(t, "git", retriever.Name())
	})

	t.Run("GetContext outside git repository", func(t *testing.T) {
		retriever := NewGitStatusRetriever(fakeShell{}, zap.NewNop())
		ctx, err := retriever.GetContext()
		assert.NoError(t, err)
		assert.Equal(t, "not in a git repository", ctx)
	})

	t.Run("GetContext clean checkout", func(t *testing.T) {
		retriever := NewGitStatusRetriever(fakeShell{
			"git rev-parse --show-toplevel":   "/src/app\n",
			"git rev-parse --abbrev-ref HEAD": "main\n",
			"git rev-parse --short HEAD":      "1a2b3c4\n",
			"git status --porcelain":          "",
		}, nil)
		ctx, err := retriever.GetContext()
		assert.NoError(t, err)
		assert.Equal(t, "main @ 1a2b3c4 in /src/app, clean", ctx)
	})

	t.Run("GetContext with changes and no commits", func(t *testing.T) {
		retriever := NewGitStatusRetriever(fakeShell{
			"git rev-parse --show-toplevel":   "/src/app\n",
			"git rev-parse --abbrev-ref HEAD": "HEAD\n",
			"git status --porcelain":          " M main.go\n?? notes.txt\n",
		}, nil)
		ctx, err := retriever.GetContext()
		assert.NoError(t, err)
		assert.Equal(t, "HEAD @ (no commits) in /src/app, 2 changed files", ctx)
	})

	t.Run("GetContext status failure", func(t *testing.T) {
		retriever := NewGitStatusRetriever(fakeShell{
			"git rev-parse --show-toplevel": "/src/app\n",
		}, nil)
		_, err := retriever.GetContext()
		assert.Error(t, err)
	})
}
