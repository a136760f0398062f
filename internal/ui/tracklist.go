package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nie11kun/Love-Timeline/internal/playlist"
)

type trackItem struct {
	index int
	track playlist.Track
}

func (i trackItem) Title() string {
	return fmt.Sprintf("%d. %s", i.index+1, i.track.Title)
}

func (i trackItem) Description() string { return i.track.Artist }
func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }

// trackList is the pick-a-song overlay opened over the player bar.
type trackList struct {
	list list.Model
	open bool
}

func newTrackList(p *playlist.Playlist) trackList {
	tracks := p.Tracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{index: i, track: t}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#A0306A", Dark: "#F4A3C8"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#A0306A", Dark: "#F4A3C8"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#A0306A", Dark: "#F4A3C8"})

	l := list.New(items, delegate, 60, 16)
	l.Title = "tracks"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle
	return trackList{list: l}
}

func (t *trackList) show(current int) {
	t.open = true
	t.list.Select(current)
}

func (t *trackList) setSize(w, h int) {
	t.list.SetWidth(w)
	t.list.SetHeight(h)
}

func (t trackList) update(msg tea.Msg) (trackList, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && t.list.FilterState() != list.Filtering {
		switch k.String() {
		case "enter":
			item, ok := t.list.SelectedItem().(trackItem)
			if !ok {
				return t, nil
			}
			t.open = false
			index := item.index
			return t, func() tea.Msg { return trackSelectedMsg{index: index} }
		case "esc", "tab", "q":
			t.open = false
			return t, nil
		case "ctrl+c":
			t.open = false
			return t, tea.Quit
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t trackList) view() string {
	return t.list.View()
}
