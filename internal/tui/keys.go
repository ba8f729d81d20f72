package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev  key.Binding
	Next  key.Binding
	Reset key.Binding
	Help  key.Binding
	Quit  key.Binding

	// reset is only shown by the preview.
	showReset bool
}

func newKeyMap(showReset bool) keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Reset: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "time of day"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		showReset: showReset,
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.showReset {
		return []key.Binding{k.Prev, k.Next, k.Reset, k.Quit}
	}
	return []key.Binding{k.Prev, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Help}}
}
