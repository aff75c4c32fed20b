// Package tui is the interactive presenter. It drives the engine on a
// timer and renders its snapshots; all state lives in the engine.
package tui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vltamanec/logpulse/internal/engine"
)

// DefaultTick is the refresh interval
const DefaultTick = 100 * time.Millisecond

const (
	headerHeight = 2
	footerHeight = 2
	hscrollStep  = 8
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeFilter
	modeSearch
	modeHighlight
	modeSave
	modeTimeJump
)

var prompts = map[inputMode]string{
	modeFilter:    "Filter: ",
	modeSearch:    "Search: ",
	modeHighlight: "Highlight (empty clears): ",
	modeSave:      "Save to: ",
	modeTimeJump:  "Go to time: ",
}

// Options configures the presenter
type Options struct {
	Title string
	Tick  time.Duration
	// Copy stores text on the system clipboard
	Copy func(string) error
}

// Model represents the TUI state
type Model struct {
	eng  *engine.Engine
	opts Options
	keys keyMap
	help help.Model

	width  int
	height int
	ready  bool

	mode  inputMode
	input textinput.Model

	detail     bool
	detailView viewport.Model

	offset  int // first visible row drawn in the feed
	hscroll int
}

// TickMsg triggers one engine step and a redraw
type TickMsg time.Time

// New creates a new TUI model over eng
func New(eng *engine.Engine, opts Options) Model {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		eng:   eng,
		opts:  opts,
		keys:  defaultKeyMap(),
		help:  help.New(),
		input: ti,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.detailView = viewport.New(m.detailWidth(), m.feedHeight())
			m.ready = true
		} else {
			m.detailView.Width = m.detailWidth()
			m.detailView.Height = m.feedHeight()
		}

	case TickMsg:
		m.eng.Tick(time.Time(msg))
		cmds = append(cmds, tickCmd(m.opts.Tick))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		switch {
		case m.detail:
			cmd = m.updateDetail(msg)
		case m.mode != modeNormal:
			cmd = m.updateInput(msg)
		default:
			cmd = m.updateFeed(msg)
		}
		cmds = append(cmds, cmd)
	}

	m.scroll()
	return m, tea.Batch(cmds...)
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Close) {
		m.detail = false
		return nil
	}
	var cmd tea.Cmd
	m.detailView, cmd = m.detailView.Update(msg)
	return cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if m.mode == modeFilter {
			_ = m.eng.SetFilter("")
		}
		m.endInput()
		return nil
	case "enter":
		m.submit(m.input.Value())
		m.endInput()
		return nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter && m.input.Value() != before {
		// the filter applies as it is typed; a half-written regex keeps
		// the last valid one
		_ = m.eng.SetFilter(m.input.Value())
	}
	return cmd
}

func (m *Model) submit(value string) {
	switch m.mode {
	case modeFilter:
		_ = m.eng.SetFilter(value)
	case modeSearch:
		_ = m.eng.SetSearch(value)
	case modeHighlight:
		_ = m.eng.AddHighlight(value)
	case modeSave:
		if value != "" {
			_, _ = m.eng.ExportFile(value)
		}
	case modeTimeJump:
		if value != "" {
			m.eng.JumpToTime(value)
		}
	}
}

func (m *Model) beginInput(mode inputMode) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompts[mode]
	m.input.SetValue("")
	m.input.Focus()
	return textinput.Blink
}

func (m *Model) endInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) updateFeed(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.eng.TogglePause()
	case key.Matches(msg, m.keys.Filter):
		_ = m.eng.SetFilter("")
		return m.beginInput(modeFilter)
	case key.Matches(msg, m.keys.Search):
		return m.beginInput(modeSearch)
	case key.Matches(msg, m.keys.Highlight):
		return m.beginInput(modeHighlight)
	case key.Matches(msg, m.keys.Save):
		return m.beginInput(modeSave)
	case key.Matches(msg, m.keys.TimeJump):
		return m.beginInput(modeTimeJump)
	case key.Matches(msg, m.keys.NextMatch):
		m.eng.SearchNext()
	case key.Matches(msg, m.keys.PrevMatch):
		m.eng.SearchPrev()
	case key.Matches(msg, m.keys.ErrorsOnly):
		m.eng.ToggleErrorsOnly()
	case key.Matches(msg, m.keys.Detail):
		m.openDetail()
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Clear):
		m.eng.Clear()
	case key.Matches(msg, m.keys.Up):
		m.up(1)
	case key.Matches(msg, m.keys.Down):
		m.eng.Move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.up(m.feedHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.eng.Move(m.feedHeight())
	case key.Matches(msg, m.keys.Top):
		m.eng.Top()
		m.eng.Backfill()
	case key.Matches(msg, m.keys.Bottom):
		m.eng.Bottom()
	case key.Matches(msg, m.keys.Left):
		m.hscroll -= hscrollStep
		if m.hscroll < 0 {
			m.hscroll = 0
		}
	case key.Matches(msg, m.keys.Right):
		m.hscroll += hscrollStep
	}
	return nil
}

// up moves the selection towards older entries and loads history once the
// top of the buffer is reached.
func (m *Model) up(n int) {
	if m.eng.Selected() <= 0 {
		m.eng.Backfill()
	}
	m.eng.Move(-n)
}

func (m *Model) openDetail() {
	snap := m.eng.Snapshot(m.eng.Selected(), 1)
	if len(snap.Rows) == 0 {
		return
	}
	row := snap.Rows[0]
	m.detail = true
	m.detailView.SetContent(renderDetail(&row.Entry, row.ContinuationSpans, m.detailWidth()-2))
	m.detailView.GotoTop()
}

func (m *Model) copySelected() {
	text, ok := m.eng.ClipboardText(m.eng.Selected())
	if !ok {
		return
	}
	if err := m.opts.Copy(text); err != nil {
		m.eng.Notify(fmt.Sprintf("Copy failed: %v", err))
		return
	}
	m.eng.Notify("Copied to clipboard")
}

// scroll keeps the selected row inside the feed window
func (m *Model) scroll() {
	height := m.feedHeight()
	total := m.eng.VisibleCount()
	selected := m.eng.Selected()

	if m.eng.Following() || selected < 0 {
		m.offset = total - height
	} else if selected < m.offset {
		m.offset = selected
	} else if selected >= m.offset+height {
		m.offset = selected - height + 1
	}
	if m.offset > total-height {
		m.offset = total - height
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) feedHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) detailWidth() int {
	w := m.width * 8 / 10
	if w < 20 {
		return m.width
	}
	return w
}

// tickCmd creates a periodic tick command
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
