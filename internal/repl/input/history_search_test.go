package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistorySearch(t *testing.T) {
	history := []string{"print(user.Name)", "%vars", "print(user.Name)", "x = 1"}
	s := NewHistorySearchState()
	s.Start("draft")
	assert.True(t, s.IsActive())

	for _, r := range "prn" {
		s.AddChar(r, history)
	}
	assert.Equal(t, "prn", s.Query())
	assert.Equal(t, 1, s.MatchCount())
	assert.Equal(t, "print(user.Name)", s.Match())

	assert.True(t, s.DeleteChar(history))
	assert.True(t, s.DeleteChar(history))
	assert.True(t, s.DeleteChar(history))
	assert.False(t, s.DeleteChar(history))
	assert.Equal(t, "", s.Match())

	assert.Equal(t, "draft", s.Accept())
	assert.False(t, s.IsActive())
}

func TestHistorySearch_Cancel(t *testing.T) {
	s := NewHistorySearchState()
	s.Start("draft")
	s.AddChar('x', []string{"x = 1"})
	assert.Equal(t, "x = 1", s.Match())
	assert.Equal(t, "draft", s.Cancel())
}
