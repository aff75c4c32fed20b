package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the feed bindings
type keyMap struct {
	Quit       key.Binding
	Pause      key.Binding
	Filter     key.Binding
	Search     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	ErrorsOnly key.Binding
	Highlight  key.Binding
	Detail     key.Binding
	Copy       key.Binding
	Clear      key.Binding
	Save       key.Binding
	TimeJump   key.Binding

	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	Close   key.Binding
	Confirm key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Search:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "search")),
		NextMatch:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "next/prev")),
		PrevMatch:  key.NewBinding(key.WithKeys("N")),
		ErrorsOnly: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "errors")),
		Highlight:  key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "highlight")),
		Detail:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		TimeJump:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goto time")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓", "nav")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←→", "scroll")),
		Right:    key.NewBinding(key.WithKeys("right", "l")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
		Top:      key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "history")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G")),

		Close:   key.NewBinding(key.WithKeys("esc", "q")),
		Confirm: key.NewBinding(key.WithKeys("enter")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Quit, k.Pause, k.Filter, k.Search, k.NextMatch, k.ErrorsOnly, k.Highlight,
		k.Detail, k.Copy, k.Save, k.TimeJump, k.Clear, k.Up, k.Left, k.Top,
	}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
