package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is an editing operation triggered by a key.
type Action int

const (
	ActionNone Action = iota

	// Navigation
	ActionCharacterForward
	ActionCharacterBackward
	ActionWordForward
	ActionWordBackward
	ActionLineStart
	ActionLineEnd

	// Deletion
	ActionDeleteCharacterBackward
	ActionDeleteCharacterForward
	ActionDeleteWordBackward
	ActionDeleteWordForward
	ActionDeleteBeforeCursor
	ActionDeleteAfterCursor

	// History and completion
	ActionHistoryPrevious
	ActionHistoryNext
	ActionHistorySearch
	ActionComplete
	ActionCompleteBackward

	// Line control
	ActionSubmit
	ActionCancel
	ActionInterrupt
	ActionEOF
	ActionClearScreen
	ActionPaste

	// Vi normal mode
	ActionViInsert      // i
	ActionViAppend      // a
	ActionViAppendEnd   // A
	ActionViInsertStart // I
	ActionViChangeToEnd // C
	ActionViChangeLine  // S
	ActionViDeleteChar  // x
	ActionViWordForward // w
)

var actionNames = map[Action]string{
	ActionNone:                    "None",
	ActionCharacterForward:        "CharacterForward",
	ActionCharacterBackward:       "CharacterBackward",
	ActionWordForward:             "WordForward",
	ActionWordBackward:            "WordBackward",
	ActionLineStart:               "LineStart",
	ActionLineEnd:                 "LineEnd",
	ActionDeleteCharacterBackward: "DeleteCharacterBackward",
	ActionDeleteCharacterForward:  "DeleteCharacterForward",
	ActionDeleteWordBackward:      "DeleteWordBackward",
	ActionDeleteWordForward:       "DeleteWordForward",
	ActionDeleteBeforeCursor:      "DeleteBeforeCursor",
	ActionDeleteAfterCursor:       "DeleteAfterCursor",
	ActionHistoryPrevious:         "HistoryPrevious",
	ActionHistoryNext:             "HistoryNext",
	ActionHistorySearch:           "HistorySearch",
	ActionComplete:                "Complete",
	ActionCompleteBackward:        "CompleteBackward",
	ActionSubmit:                  "Submit",
	ActionCancel:                  "Cancel",
	ActionInterrupt:               "Interrupt",
	ActionEOF:                     "EOF",
	ActionClearScreen:             "ClearScreen",
	ActionPaste:                   "Paste",
	ActionViInsert:                "ViInsert",
	ActionViAppend:                "ViAppend",
	ActionViAppendEnd:             "ViAppendEnd",
	ActionViInsertStart:           "ViInsertStart",
	ActionViChangeToEnd:           "ViChangeToEnd",
	ActionViChangeLine:            "ViChangeLine",
	ActionViDeleteChar:            "ViDeleteChar",
	ActionViWordForward:           "ViWordForward",
}

// String returns the name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "Unknown"
}

// Binding maps keys to an action. The embedded key.Binding carries the help
// text shown by %keys.
type Binding struct {
	key.Binding
	Action Action
}

func bind(action Action, help string, keys ...string) Binding {
	return Binding{
		Binding: key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help)),
		Action:  action,
	}
}

// KeyMap is an ordered set of bindings. Earlier bindings win.
type KeyMap struct {
	Name     string
	bindings []Binding
	lookup   map[string]Action
}

// NewKeyMap creates a KeyMap from bindings.
func NewKeyMap(name string, bindings []Binding) *KeyMap {
	km := &KeyMap{Name: name, bindings: bindings, lookup: make(map[string]Action)}
	for _, b := range bindings {
		for _, k := range b.Keys() {
			if _, exists := km.lookup[k]; !exists {
				km.lookup[k] = b.Action
			}
		}
	}
	return km
}

// Lookup returns the action bound to msg, or ActionNone.
func (km *KeyMap) Lookup(msg tea.KeyMsg) Action {
	if action, ok := km.lookup[msg.String()]; ok {
		return action
	}
	return ActionNone
}

// Bindings returns the bindings in order.
func (km *KeyMap) Bindings() []Binding {
	return append([]Binding(nil), km.bindings...)
}

// ShortHelp implements help.KeyMap.
func (km *KeyMap) ShortHelp() []key.Binding {
	var out []key.Binding
	for _, b := range km.bindings {
		switch b.Action {
		case ActionSubmit, ActionEOF, ActionHistoryPrevious, ActionComplete:
			out = append(out, b.Binding)
		}
	}
	return out
}

// FullHelp implements help.KeyMap, one column per group of eight bindings.
func (km *KeyMap) FullHelp() [][]key.Binding {
	var cols [][]key.Binding
	for i := 0; i < len(km.bindings); i += 8 {
		end := min(i+8, len(km.bindings))
		col := make([]key.Binding, 0, end-i)
		for _, b := range km.bindings[i:end] {
			col = append(col, b.Binding)
		}
		cols = append(cols, col)
	}
	return cols
}

// lineControl bindings are shared by every mode.
func lineControl() []Binding {
	return []Binding{
		bind(ActionSubmit, "run input", "enter"),
		bind(ActionEOF, "leave shell (empty line)", "ctrl+d"),
		bind(ActionInterrupt, "discard line", "ctrl+c"),
		bind(ActionComplete, "complete", "tab"),
		bind(ActionCompleteBackward, "previous completion", "shift+tab"),
		bind(ActionHistoryPrevious, "older input", "up"),
		bind(ActionHistoryNext, "newer input", "down"),
		bind(ActionHistorySearch, "search history", "ctrl+r"),
		bind(ActionClearScreen, "clear screen", "ctrl+l"),
		bind(ActionPaste, "paste", "ctrl+v"),
	}
}

// EmacsKeyMap returns emacs-style bindings.
func EmacsKeyMap() *KeyMap {
	return NewKeyMap("emacs", append(lineControl(),
		bind(ActionCharacterForward, "forward char", "right", "ctrl+f"),
		bind(ActionCharacterBackward, "backward char", "left", "ctrl+b"),
		bind(ActionWordForward, "forward word", "alt+f", "alt+right", "ctrl+right"),
		bind(ActionWordBackward, "backward word", "alt+b", "alt+left", "ctrl+left"),
		bind(ActionLineStart, "line start", "ctrl+a", "home"),
		bind(ActionLineEnd, "line end", "ctrl+e", "end"),
		bind(ActionDeleteCharacterBackward, "delete backward", "backspace", "ctrl+h"),
		bind(ActionDeleteCharacterForward, "delete forward", "delete"),
		bind(ActionDeleteWordBackward, "delete word backward", "ctrl+w", "alt+backspace"),
		bind(ActionDeleteWordForward, "delete word forward", "alt+d"),
		bind(ActionDeleteBeforeCursor, "delete to line start", "ctrl+u"),
		bind(ActionDeleteAfterCursor, "delete to line end", "ctrl+k"),
		bind(ActionHistoryPrevious, "older input", "ctrl+p"),
		bind(ActionHistoryNext, "newer input", "ctrl+n"),
		bind(ActionCancel, "cancel", "esc"),
	))
}

// ViInsertKeyMap returns the bindings of vi insert mode. Esc switches to
// normal mode.
func ViInsertKeyMap() *KeyMap {
	return NewKeyMap("vi insert", append(lineControl(),
		bind(ActionCancel, "normal mode", "esc"),
		bind(ActionCharacterForward, "forward char", "right"),
		bind(ActionCharacterBackward, "backward char", "left"),
		bind(ActionLineStart, "line start", "home"),
		bind(ActionLineEnd, "line end", "end"),
		bind(ActionDeleteCharacterBackward, "delete backward", "backspace", "ctrl+h"),
		bind(ActionDeleteCharacterForward, "delete forward", "delete"),
		bind(ActionDeleteWordBackward, "delete word backward", "ctrl+w"),
		bind(ActionDeleteBeforeCursor, "delete to line start", "ctrl+u"),
	))
}

// ViNormalKeyMap returns the bindings of vi normal mode.
func ViNormalKeyMap() *KeyMap {
	return NewKeyMap("vi normal", append(lineControl(),
		bind(ActionCharacterBackward, "left", "h", "left"),
		bind(ActionCharacterForward, "right", "l", "right"),
		bind(ActionLineStart, "line start", "0", "home"),
		bind(ActionLineEnd, "line end", "$", "end"),
		bind(ActionViWordForward, "next word", "w"),
		bind(ActionWordBackward, "previous word", "b"),
		bind(ActionViDeleteChar, "delete char", "x"),
		bind(ActionDeleteCharacterBackward, "delete char before", "X", "backspace"),
		bind(ActionViInsert, "insert", "i"),
		bind(ActionViAppend, "append", "a"),
		bind(ActionViAppendEnd, "append at end", "A"),
		bind(ActionViInsertStart, "insert at start", "I"),
		bind(ActionDeleteAfterCursor, "delete to end", "D"),
		bind(ActionViChangeToEnd, "change to end", "C"),
		bind(ActionViChangeLine, "change line", "S"),
		bind(ActionHistoryPrevious, "older input", "k"),
		bind(ActionHistoryNext, "newer input", "j"),
	))
}
