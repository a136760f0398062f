package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play     key.Binding
	Next     key.Binding
	Prev     key.Binding
	SeekBack key.Binding
	SeekFwd  key.Binding
	Mute     key.Binding
	Tracks   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Play:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		SeekBack: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		SeekFwd:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		Mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Tracks:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tracks")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.SeekBack, k.SeekFwd, k.Next, k.Prev, k.Mute, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Mute},
		{k.SeekBack, k.SeekFwd},
		{k.Next, k.Prev, k.Tracks},
		{k.Help, k.Quit},
	}
}
