package input

import (
	"slices"
	"unicode"
)

// Buffer holds the text of the line being edited and the cursor position,
// both in runes.
type Buffer struct {
	runes []rune
	pos   int
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferWithText creates a buffer holding text with the cursor at the end.
func NewBufferWithText(text string) *Buffer {
	b := &Buffer{}
	b.SetText(text)
	return b
}

// Text returns the buffer content.
func (b *Buffer) Text() string {
	return string(b.runes)
}

// Len returns the length in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Pos returns the cursor position.
func (b *Buffer) Pos() int {
	return b.pos
}

// SetText replaces the content and moves the cursor to the end.
func (b *Buffer) SetText(text string) {
	b.runes = []rune(text)
	b.pos = len(b.runes)
}

// SetPos moves the cursor, clamped to [0, Len].
func (b *Buffer) SetPos(pos int) {
	b.pos = clamp(pos, 0, len(b.runes))
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.runes = b.runes[:0]
	b.pos = 0
}

// Insert inserts runes at the cursor and moves the cursor past them.
func (b *Buffer) Insert(runes ...rune) {
	b.runes = slices.Insert(b.runes, b.pos, runes...)
	b.pos += len(runes)
}

// InsertString inserts text at the cursor.
func (b *Buffer) InsertString(text string) {
	b.Insert([]rune(text)...)
}

// DeleteBackward deletes the rune before the cursor.
func (b *Buffer) DeleteBackward() bool {
	if b.pos == 0 {
		return false
	}
	b.runes = slices.Delete(b.runes, b.pos-1, b.pos)
	b.pos--
	return true
}

// DeleteForward deletes the rune under the cursor.
func (b *Buffer) DeleteForward() bool {
	if b.pos >= len(b.runes) {
		return false
	}
	b.runes = slices.Delete(b.runes, b.pos, b.pos+1)
	return true
}

// DeleteToStart deletes everything before the cursor.
func (b *Buffer) DeleteToStart() {
	b.runes = slices.Delete(b.runes, 0, b.pos)
	b.pos = 0
}

// DeleteToEnd deletes everything from the cursor on.
func (b *Buffer) DeleteToEnd() {
	b.runes = b.runes[:b.pos]
}

// DeleteWordBackward deletes from the start of the previous word to the cursor.
func (b *Buffer) DeleteWordBackward() {
	end := b.pos
	b.WordBackward()
	b.runes = slices.Delete(b.runes, b.pos, end)
}

// DeleteWordForward deletes from the cursor to the end of the next word.
func (b *Buffer) DeleteWordForward() {
	start := b.pos
	b.WordForward()
	b.runes = slices.Delete(b.runes, start, b.pos)
	b.pos = start
}

// WordBackward moves to the start of the previous whitespace-separated word.
func (b *Buffer) WordBackward() {
	i := b.pos
	for i > 0 && unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	b.pos = i
}

// WordForward moves past the end of the next whitespace-separated word.
func (b *Buffer) WordForward() {
	i := b.pos
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	b.pos = i
}

// ViWordForward moves to the start of the next word, as vi's "w".
func (b *Buffer) ViWordForward() {
	i := b.pos
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	b.pos = i
}

// TextBeforeCursor returns the text left of the cursor.
func (b *Buffer) TextBeforeCursor() string {
	return string(b.runes[:b.pos])
}

// TextAfterCursor returns the text from the cursor on.
func (b *Buffer) TextAfterCursor() string {
	return string(b.runes[b.pos:])
}

func clamp(v, low, high int) int {
	return max(low, min(v, high))
}
