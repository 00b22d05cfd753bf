package environ

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ShellRunner runs a shell command and returns its output.
type ShellRunner interface {
	ShellOutput(ctx context.Context, command string) (string, error)
}

// GitStatusRetriever reports the git checkout the shell's directory is in.
type GitStatusRetriever struct {
	runner ShellRunner
	logger *zap.Logger
}

// NewGitStatusRetriever creates a new GitStatusRetriever.
func NewGitStatusRetriever(runner ShellRunner, logger *zap.Logger) *GitStatusRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitStatusRetriever{
		runner: runner,
		logger: logger,
	}
}

// Name returns the retriever name.
func (r *GitStatusRetriever) Name() string {
	return "git"
}

// GetContext returns e.g. "main @ 1a2b3c4 in /src/app, 2 changed files".
// Outside a repository it reports that instead of failing.
func (r *GitStatusRetriever) GetContext() (string, error) {
	ctx := context.Background()

	root, err := r.runner.ShellOutput(ctx, "git rev-parse --show-toplevel")
	if err != nil {
		r.logger.Debug("error running `git rev-parse --show-toplevel`", zap.Error(err))
		return "not in a git repository", nil
	}

	branch, err := r.runner.ShellOutput(ctx, "git rev-parse --abbrev-ref HEAD")
	if err != nil {
		branch = "(no branch)"
	}
	commit, err := r.runner.ShellOutput(ctx, "git rev-parse --short HEAD")
	if err != nil {
		commit = "(no commits)"
	}
	status, err := r.runner.ShellOutput(ctx, "git status --porcelain")
	if err != nil {
		r.logger.Debug("error running `git status`", zap.Error(err))
		return "", err
	}

	changes := "clean"
	if n := countLines(status); n > 0 {
		changes = fmt.Sprintf("%d changed files", n)
	}
	return fmt.Sprintf("%s @ %s in %s, %s",
		strings.TrimSpace(branch), strings.TrimSpace(commit), strings.TrimSpace(root), changes), nil
}

func countLines(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
