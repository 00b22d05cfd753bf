package callsite

import (
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 64

var defaultCache = NewSourceCache(defaultCacheSize)

// SourceCache keeps the lines of recently displayed source files. Tracebacks
// repeatedly show the same handful of files, so reading each one once is enough.
type SourceCache struct {
	files *lru.Cache[string, []string]
}

// NewSourceCache creates a cache holding up to size files.
func NewSourceCache(size int) *SourceCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	files, err := lru.New[string, []string](size)
	if err != nil {
		// Only returned for a non-positive size, which is handled above.
		panic(err)
	}
	return &SourceCache{files: files}
}

// Lines returns the lines of path, or nil if the file cannot be read.
// Unreadable files are not cached so a later build can still be picked up.
func (c *SourceCache) Lines(path string) []string {
	if path == "" {
		return nil
	}
	if lines, ok := c.files.Get(path); ok {
		return lines
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := splitLines(string(data))
	c.files.Add(path, lines)
	return lines
}

// Purge drops every cached file.
func (c *SourceCache) Purge() {
	c.files.Purge()
}

// Len returns the number of cached files.
func (c *SourceCache) Len() int {
	return c.files.Len()
}

// SourceLines reads path through the process-wide cache.
func SourceLines(path string) []string {
	return defaultCache.Lines(path)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
