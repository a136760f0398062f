package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/engine"
)

type frameMsg time.Time

type engineEventMsg struct {
	ev engine.Event
}

type configReloadedMsg struct {
	cfg config.Config
}

type configErrorMsg struct {
	err error
}

type trackSelectedMsg struct {
	index int
}

func frameCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(max(fps, 1)), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// waitEvent blocks for the next engine event. The model re-issues it after
// every delivered event.
func waitEvent(events <-chan engine.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return engineEventMsg{ev: ev}
	}
}

func waitConfig(w *config.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case cfg, ok := <-w.Updates:
			if !ok {
				return nil
			}
			return configReloadedMsg{cfg: cfg}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return configErrorMsg{err: err}
		}
	}
}
