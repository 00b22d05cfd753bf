// Package completion supplies tab completion candidates for the embedded
// shell: magic commands, variables and their fields, and file paths after a
// shell escape.
package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Source exposes the evaluator state completion draws from.
type Source interface {
	// Names returns the global variable names.
	Names() []string
	// Fields returns the keys of the table at a dotted path.
	Fields(path string) []string
	// ShellDir returns the working directory of the shell escape.
	ShellDir() string
}

// Provider implements input.CompletionProvider.
type Provider struct {
	source Source
	magics []string
}

// NewProvider creates a provider completing magics and names from source.
func NewProvider(source Source, magics []string) *Provider {
	sorted := append([]string(nil), magics...)
	sort.Strings(sorted)
	return &Provider{source: source, magics: sorted}
}

// GetCompletions returns candidates for the word ending at pos.
func (p *Provider) GetCompletions(line string, pos int) []string {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	before := string(runes[:pos])

	if strings.HasPrefix(before, "!") {
		return p.fileCompletions(lastField(before[1:]))
	}

	word := currentWord(before)
	switch {
	case strings.HasPrefix(word, "%"):
		if strings.TrimSpace(before) != word {
			return nil
		}
		return Rank(word, p.magics)
	case p.source == nil:
		return nil
	case strings.Contains(word, "."):
		i := strings.LastIndex(word, ".")
		base, prefix := word[:i], word[i+1:]
		fields := p.source.Fields(base)
		out := Rank(prefix, fields)
		for j := range out {
			out[j] = base + "." + out[j]
		}
		return out
	default:
		return Rank(word, p.source.Names())
	}
}

// Rank orders candidates for prefix: exact prefix matches first in sorted
// order, then fuzzy matches by score. An empty prefix returns everything.
func Rank(prefix string, candidates []string) []string {
	if prefix == "" {
		return append([]string(nil), candidates...)
	}
	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	for _, m := range fuzzy.Find(prefix, candidates) {
		if !seen[m.Str] {
			seen[m.Str] = true
			out = append(out, m.Str)
		}
	}
	return out
}

// fileCompletions lists entries of the directory named by word's dirname,
// relative to the shell's working directory. Directories end in "/".
func (p *Provider) fileCompletions(word string) []string {
	dir, base := filepath.Split(word)
	root := "."
	if p.source != nil {
		root = p.source.ShellDir()
	}
	lookup := dir
	if strings.HasPrefix(lookup, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			lookup = filepath.Join(home, lookup[2:])
		}
	}
	if !filepath.IsAbs(lookup) {
		lookup = filepath.Join(root, lookup)
	}

	entries, err := os.ReadDir(lookup)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		out = append(out, dir+name)
	}
	sort.Strings(out)
	return out
}

// currentWord returns the completable word at the end of s, including a
// leading % for magics.
func currentWord(s string) string {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c == '_' || c == '.' || c == '%' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			i--
			continue
		}
		break
	}
	return s[i:]
}

func lastField(s string) string {
	if i := strings.LastIndexAny(s, " \t"); i >= 0 {
		return s[i+1:]
	}
	return s
}
