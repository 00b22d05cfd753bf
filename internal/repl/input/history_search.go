package input

import (
	"github.com/sahilm/fuzzy"
)

// HistorySearchState is the state of a Ctrl+R search through earlier inputs.
// Matches are ranked fuzzily, best first.
type HistorySearchState struct {
	active   bool
	query    []rune
	matches  []string
	index    int
	original string
}

// NewHistorySearchState creates an inactive search.
func NewHistorySearchState() *HistorySearchState {
	return &HistorySearchState{}
}

// IsActive reports whether a search is in progress.
func (s *HistorySearchState) IsActive() bool {
	return s.active
}

// Query returns the search text.
func (s *HistorySearchState) Query() string {
	return string(s.query)
}

// Start begins a search, remembering the line being edited.
func (s *HistorySearchState) Start(current string) {
	*s = HistorySearchState{active: true, original: current}
}

// AddChar appends r to the query and re-ranks history.
func (s *HistorySearchState) AddChar(r rune, history []string) {
	s.query = append(s.query, r)
	s.search(history)
}

// DeleteChar removes the last query rune. Returns false if the query was empty.
func (s *HistorySearchState) DeleteChar(history []string) bool {
	if len(s.query) == 0 {
		return false
	}
	s.query = s.query[:len(s.query)-1]
	s.search(history)
	return true
}

func (s *HistorySearchState) search(history []string) {
	s.index = 0
	s.matches = nil
	if len(s.query) == 0 {
		return
	}
	for _, m := range fuzzy.Find(string(s.query), dedupe(history)) {
		s.matches = append(s.matches, m.Str)
	}
}

// Match returns the current match, or "" when nothing matches.
func (s *HistorySearchState) Match() string {
	if s.index < len(s.matches) {
		return s.matches[s.index]
	}
	return ""
}

// MatchCount returns the number of matches.
func (s *HistorySearchState) MatchCount() int {
	return len(s.matches)
}

// Next moves to the next weaker match.
func (s *HistorySearchState) Next() {
	if s.index+1 < len(s.matches) {
		s.index++
	}
}

// Accept ends the search and returns the line to edit: the current match, or
// the original line when nothing matched.
func (s *HistorySearchState) Accept() string {
	line := s.Match()
	if line == "" {
		line = s.original
	}
	*s = HistorySearchState{}
	return line
}

// Cancel ends the search and returns the original line.
func (s *HistorySearchState) Cancel() string {
	line := s.original
	*s = HistorySearchState{}
	return line
}

// dedupe keeps the first occurrence of each entry. History is newest first,
// so the most recent copy survives.
func dedupe(history []string) []string {
	seen := make(map[string]bool, len(history))
	out := make([]string, 0, len(history))
	for _, h := range history {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}
