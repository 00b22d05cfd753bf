package environ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticDir string

func (d staticDir) ShellDir() string { return string(d) }

func TestWorkingDirectoryRetriever(t *testing.T) {
	retriever := NewWorkingDirectoryRetriever(staticDir("/srv/app"))
	assert.Equal(t, "working dir", retriever.Name())

	ctx, err := retriever.GetContext()
	assert.NoError(t, err)
	assert.Equal(t, "/srv/app", ctx)
}
