package input

// CompletionProvider supplies tab completion candidates.
type CompletionProvider interface {
	// GetCompletions returns candidates for the word ending at pos in line.
	GetCompletions(line string, pos int) []string
}

// CompletionState tracks an in-progress cycle through completion candidates.
type CompletionState struct {
	active      bool
	suggestions []string
	selected    int
	start, end  int
	original    string
}

// NewCompletionState creates an inactive completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{selected: -1}
}

// Reset deactivates completion.
func (cs *CompletionState) Reset() {
	*cs = CompletionState{selected: -1}
}

// IsActive reports whether candidates are being cycled.
func (cs *CompletionState) IsActive() bool {
	return cs.active
}

// Suggestions returns the candidates.
func (cs *CompletionState) Suggestions() []string {
	return cs.suggestions
}

// Selected returns the index of the current candidate, -1 before the first.
func (cs *CompletionState) Selected() int {
	return cs.selected
}

// Activate starts cycling suggestions for the word at [start, end) of original.
func (cs *CompletionState) Activate(suggestions []string, original string, start, end int) {
	cs.active = true
	cs.suggestions = suggestions
	cs.selected = -1
	cs.start, cs.end = start, end
	cs.original = original
}

// Next selects the next candidate, wrapping around.
func (cs *CompletionState) Next() string {
	if !cs.active || len(cs.suggestions) == 0 {
		return ""
	}
	cs.selected = (cs.selected + 1) % len(cs.suggestions)
	return cs.suggestions[cs.selected]
}

// Prev selects the previous candidate, wrapping around.
func (cs *CompletionState) Prev() string {
	if !cs.active || len(cs.suggestions) == 0 {
		return ""
	}
	cs.selected--
	if cs.selected < 0 {
		cs.selected = len(cs.suggestions) - 1
	}
	return cs.suggestions[cs.selected]
}

// Apply returns original with the completed word replaced by suggestion and
// the cursor position after it.
func (cs *CompletionState) Apply(suggestion string) (string, int) {
	runes := []rune(cs.original)
	out := make([]rune, 0, len(runes)+len(suggestion))
	out = append(out, runes[:cs.start]...)
	out = append(out, []rune(suggestion)...)
	cursor := len(out)
	out = append(out, runes[cs.end:]...)
	return string(out), cursor
}

// Cancel deactivates completion and returns the text before completion started.
func (cs *CompletionState) Cancel() string {
	original := cs.original
	cs.Reset()
	return original
}

// WordBoundary returns the rune range [start, end) of the completable word
// around pos. Words are identifiers with dots and slashes, so "cfg.Na" and
// "src/ma" complete as a whole, and may start with % for magics.
func WordBoundary(line string, pos int) (start, end int) {
	runes := []rune(line)
	pos = clamp(pos, 0, len(runes))
	start = pos
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	if start > 0 && runes[start-1] == '%' {
		start--
	}
	end = pos
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return start, end
}

func isWordRune(r rune) bool {
	return r == '_' || r == '.' || r == '/' || r == '~' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
