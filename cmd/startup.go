package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nie11kun/Love-Timeline/internal/ui"
)

// prepareStatus reports how far the player setup got.
type prepareStatus struct {
	done  int
	total int
	title string
}

type prepareFunc func(report func(prepareStatus)) (ui.Model, error)

type startupStatusMsg prepareStatus

type startupResolvedMsg struct {
	model ui.Model
	err   error
}

// startupModel shows a spinner and a progress bar while the playlist is
// read, then hands the program over to the player model.
type startupModel struct {
	prepare  prepareFunc
	spinner  spinner.Model
	progress progress.Model
	status   prepareStatus
	statusCh chan prepareStatus
	errMsg   string
	width    int
	height   int
}

func newStartupModel(prepare prepareFunc) startupModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#A0306A", Dark: "#F4A3C8"})

	p := progress.New(
		progress.WithScaledGradient("#F4A3C8", "#A0306A"),
		progress.WithoutPercentage(),
	)

	return startupModel{
		prepare:  prepare,
		spinner:  s,
		progress: p,
		statusCh: make(chan prepareStatus, 16),
	}
}

func (m startupModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForStatus(), m.prepareCmd())
}

func (m startupModel) prepareCmd() tea.Cmd {
	prepare, statusCh := m.prepare, m.statusCh
	return func() tea.Msg {
		defer close(statusCh)
		model, err := prepare(func(s prepareStatus) {
			select {
			case statusCh <- s:
			default:
			}
		})
		return startupResolvedMsg{model: model, err: err}
	}
}

func (m startupModel) waitForStatus() tea.Cmd {
	if m.statusCh == nil {
		return nil
	}
	statusCh := m.statusCh
	return func() tea.Msg {
		status, ok := <-statusCh
		if !ok {
			return nil
		}
		return startupStatusMsg(status)
	}
}

func (m startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(20, min(60, msg.Width-8))
		return m, nil

	case spinner.TickMsg:
		if m.errMsg != "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startupStatusMsg:
		m.status = prepareStatus(msg)
		return m, m.waitForStatus()

	case startupResolvedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.statusCh = nil
			return m, nil
		}

		cmds := []tea.Cmd{msg.model.Init()}
		if m.width > 0 || m.height > 0 {
			w, h := m.width, m.height
			cmds = append(cmds, func() tea.Msg {
				return tea.WindowSizeMsg{Width: w, Height: h}
			})
		}
		return msg.model, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}
	return m, nil
}

func (m startupModel) View() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(startupHeaderStyle.Render("love timeline"))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString("  ")
		b.WriteString(startupErrorStyle.Render(m.errMsg))
		b.WriteString("\n\n  ")
		b.WriteString(startupHelpStyle.Render("q quit"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(startupStatusStyle.Render("Reading playlist..."))
	b.WriteString("\n")
	if m.status.total > 0 {
		ratio := float64(m.status.done) / float64(m.status.total)
		b.WriteString("  ")
		b.WriteString(m.progress.ViewAs(ratio))
		b.WriteString(fmt.Sprintf("  %d/%d\n", m.status.done, m.status.total))
		if m.status.title != "" {
			b.WriteString("  ")
			b.WriteString(startupHelpStyle.Render(m.status.title))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n  ")
	b.WriteString(startupHelpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

var (
	startupHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#A0306A", Dark: "#F4A3C8"})
	startupStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	startupHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
	startupErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#A00000", Dark: "#FF8080"})
)
