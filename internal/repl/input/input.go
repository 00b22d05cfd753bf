// Package input reads lines for the embedded shell. On a terminal lines are
// edited with a Bubble Tea component offering emacs or vi bindings, history
// navigation and search, tab completion and clipboard paste; elsewhere a
// plain line scanner is used.
package input

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ResultType indicates how an edit ended.
type ResultType int

const (
	// ResultNone means the line is still being edited.
	ResultNone ResultType = iota
	// ResultSubmit means Enter was pressed.
	ResultSubmit
	// ResultInterrupt means Ctrl+C was pressed.
	ResultInterrupt
	// ResultEOF means Ctrl+D was pressed on an empty line.
	ResultEOF
)

// Result is the outcome of editing one line.
type Result struct {
	Type  ResultType
	Value string
}

// EditingMode selects the key bindings.
type EditingMode string

const (
	ModeEmacs EditingMode = "emacs"
	ModeVi    EditingMode = "vi"
)

// Model is the Bubble Tea model of the line editor.
type Model struct {
	buffer *Buffer
	prompt string
	mode   EditingMode
	normal bool // vi normal mode

	emacs    *KeyMap
	viInsert *KeyMap
	viNormal *KeyMap

	history      []string // newest first
	historyIndex int      // 0 is the line being edited
	savedInput   string

	completion *CompletionState
	provider   CompletionProvider
	search     *HistorySearchState

	renderer *Renderer
	result   Result
	logger   *zap.Logger
}

// Config configures a Model.
type Config struct {
	Prompt string
	Mode   EditingMode
	// History holds earlier inputs, newest first.
	History            []string
	CompletionProvider CompletionProvider
	RenderConfig       *RenderConfig
	Width              int
	Logger             *zap.Logger
}

// New creates a Model.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderConfig := DefaultRenderConfig()
	if cfg.RenderConfig != nil {
		renderConfig = *cfg.RenderConfig
	}
	renderer := NewRenderer(renderConfig)
	renderer.SetWidth(cfg.Width)

	mode := cfg.Mode
	if mode != ModeVi {
		mode = ModeEmacs
	}

	return Model{
		buffer:     NewBuffer(),
		prompt:     cfg.Prompt,
		mode:       mode,
		emacs:      EmacsKeyMap(),
		viInsert:   ViInsertKeyMap(),
		viNormal:   ViNormalKeyMap(),
		history:    cfg.History,
		completion: NewCompletionState(),
		provider:   cfg.CompletionProvider,
		search:     NewHistorySearchState(),
		renderer:   renderer,
		logger:     logger,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.SetWidth(msg.Width)
		return m, nil
	case pasteMsg:
		m.buffer.Insert(sanitizeRunes([]rune(msg))...)
		return m, nil
	case tea.KeyMsg:
		if m.search.IsActive() {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.result.Type != ResultNone {
		if m.result.Type == ResultInterrupt {
			return m.renderer.RenderLine(m.prompt, m.buffer, false) + "^C"
		}
		return m.renderer.RenderLine(m.prompt, m.buffer, false)
	}
	if m.search.IsActive() {
		return m.renderer.RenderSearch(m.search)
	}
	view := m.renderer.RenderLine(m.prompt, m.buffer, true)
	if completions := m.renderer.RenderCompletions(m.completion); completions != "" {
		view += "\n" + completions
	}
	return view
}

// Result returns how editing ended; Type is ResultNone while editing.
func (m Model) Result() Result {
	return m.result
}

// Value returns the text being edited.
func (m Model) Value() string {
	return m.buffer.Text()
}

// Buffer returns the edit buffer.
func (m Model) Buffer() *Buffer {
	return m.buffer
}

// Normal reports whether vi normal mode is active.
func (m Model) Normal() bool {
	return m.normal
}

// KeyMap returns the bindings currently in effect.
func (m Model) KeyMap() *KeyMap {
	switch {
	case m.mode == ModeEmacs:
		return m.emacs
	case m.normal:
		return m.viNormal
	default:
		return m.viInsert
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.KeyMap().Lookup(msg)

	if m.completion.IsActive() {
		switch action {
		case ActionComplete:
			m.cycleCompletion(true)
			return m, nil
		case ActionCompleteBackward:
			m.cycleCompletion(false)
			return m, nil
		case ActionCancel:
			m.buffer.SetText(m.completion.Cancel())
			return m, nil
		}
		m.completion.Reset()
	}

	switch action {
	case ActionSubmit:
		m.result = Result{Type: ResultSubmit, Value: m.buffer.Text()}
		return m, tea.Quit
	case ActionInterrupt:
		m.result = Result{Type: ResultInterrupt}
		return m, tea.Quit
	case ActionEOF:
		if m.buffer.Len() == 0 {
			m.result = Result{Type: ResultEOF}
			return m, tea.Quit
		}
		m.buffer.DeleteForward()
	case ActionClearScreen:
		return m, tea.ClearScreen
	case ActionPaste:
		return m, Paste
	case ActionComplete:
		m.startCompletion()
	case ActionHistorySearch:
		m.search.Start(m.buffer.Text())
	case ActionHistoryPrevious:
		m.historyPrevious()
	case ActionHistoryNext:
		m.historyNext()
	case ActionCancel:
		if m.mode == ModeVi && !m.normal {
			m.normal = true
			// Leaving insert mode puts the cursor on the last inserted rune.
			m.buffer.SetPos(m.buffer.Pos() - 1)
		}

	case ActionCharacterForward:
		m.buffer.SetPos(m.buffer.Pos() + 1)
	case ActionCharacterBackward:
		m.buffer.SetPos(m.buffer.Pos() - 1)
	case ActionWordForward:
		m.buffer.WordForward()
	case ActionViWordForward:
		m.buffer.ViWordForward()
	case ActionWordBackward:
		m.buffer.WordBackward()
	case ActionLineStart:
		m.buffer.SetPos(0)
	case ActionLineEnd:
		m.buffer.SetPos(m.buffer.Len())

	case ActionDeleteCharacterBackward:
		m.buffer.DeleteBackward()
	case ActionDeleteCharacterForward, ActionViDeleteChar:
		m.buffer.DeleteForward()
	case ActionDeleteWordBackward:
		m.buffer.DeleteWordBackward()
	case ActionDeleteWordForward:
		m.buffer.DeleteWordForward()
	case ActionDeleteBeforeCursor:
		m.buffer.DeleteToStart()
	case ActionDeleteAfterCursor:
		m.buffer.DeleteToEnd()

	case ActionViInsert:
		m.normal = false
	case ActionViAppend:
		m.normal = false
		m.buffer.SetPos(m.buffer.Pos() + 1)
	case ActionViAppendEnd:
		m.normal = false
		m.buffer.SetPos(m.buffer.Len())
	case ActionViInsertStart:
		m.normal = false
		m.buffer.SetPos(0)
	case ActionViChangeToEnd:
		m.buffer.DeleteToEnd()
		m.normal = false
	case ActionViChangeLine:
		m.buffer.Clear()
		m.normal = false

	default:
		if len(msg.Runes) > 0 && !(m.mode == ModeVi && m.normal) {
			m.buffer.Insert(sanitizeRunes(msg.Runes)...)
			m.historyIndex = 0
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.buffer.SetText(m.search.Accept())
		m.result = Result{Type: ResultSubmit, Value: m.buffer.Text()}
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyCtrlG, tea.KeyCtrlC:
		m.buffer.SetText(m.search.Cancel())
	case tea.KeyCtrlR:
		m.search.Next()
	case tea.KeyBackspace:
		if !m.search.DeleteChar(m.history) {
			m.buffer.SetText(m.search.Cancel())
		}
	case tea.KeyRunes, tea.KeySpace:
		for _, r := range msg.Runes {
			m.search.AddChar(r, m.history)
		}
	default:
		// Any other key accepts the match for further editing.
		m.buffer.SetText(m.search.Accept())
	}
	return m, nil
}

func (m *Model) historyPrevious() {
	if m.historyIndex >= len(m.history) {
		return
	}
	if m.historyIndex == 0 {
		m.savedInput = m.buffer.Text()
	}
	m.historyIndex++
	m.buffer.SetText(m.history[m.historyIndex-1])
}

func (m *Model) historyNext() {
	if m.historyIndex == 0 {
		return
	}
	m.historyIndex--
	if m.historyIndex == 0 {
		m.buffer.SetText(m.savedInput)
		return
	}
	m.buffer.SetText(m.history[m.historyIndex-1])
}

func (m *Model) startCompletion() {
	if m.provider == nil {
		return
	}
	text := m.buffer.Text()
	suggestions := m.provider.GetCompletions(text, m.buffer.Pos())
	if len(suggestions) == 0 {
		return
	}
	start, end := WordBoundary(text, m.buffer.Pos())
	m.completion.Activate(suggestions, text, start, end)
	m.cycleCompletion(true)
	if len(suggestions) == 1 {
		m.completion.Reset()
	}
}

func (m *Model) cycleCompletion(forward bool) {
	var suggestion string
	if forward {
		suggestion = m.completion.Next()
	} else {
		suggestion = m.completion.Prev()
	}
	if suggestion == "" {
		return
	}
	text, pos := m.completion.Apply(suggestion)
	m.buffer.SetText(text)
	m.buffer.SetPos(pos)
}

// pasteMsg carries clipboard content.
type pasteMsg string

// Paste reads the system clipboard.
func Paste() tea.Msg {
	s, err := clipboard.ReadAll()
	if err != nil {
		return nil
	}
	return pasteMsg(s)
}

// sanitizeRunes replaces tabs and line breaks with spaces.
func sanitizeRunes(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		switch r {
		case '\t', '\n', '\r':
			out[i] = ' '
		default:
			out[i] = r
		}
	}
	return out
}
