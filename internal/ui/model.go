package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/engine"
	"github.com/nie11kun/Love-Timeline/internal/milestones"
	"github.com/nie11kun/Love-Timeline/internal/render"
	"github.com/nie11kun/Love-Timeline/internal/transport"
	"github.com/rs/zerolog"
)

const (
	appName    = "love timeline"
	seekStep   = 5 * time.Second
	vizRows    = 8
	minWidth   = 30
	statusTTL  = 5 * time.Second
	leftMargin = 2

	// Lines above the visualizer: blank, header, blank, title, artist, blank.
	vizTop = 6
	// The progress line sits one blank line below the visualizer.
	progressRow = vizTop + vizRows + 1
)

// Deps are the collaborators the player bar drives.
type Deps struct {
	Controller *transport.Controller
	Binding    *engine.Binding
	Loop       *render.Loop
	Raster     *render.Raster
	Milestones []milestones.Milestone
	Watcher    *config.Watcher
	FPS        int
	Log        zerolog.Logger
}

// Model is the Bubbletea model for the player bar. All transport changes
// happen inside Update, which makes it the single owner of playback state.
type Model struct {
	ctrl    *transport.Controller
	binding *engine.Binding
	loop    *render.Loop
	raster  *render.Raster
	watcher *config.Watcher
	log     zerolog.Logger

	dates   []milestones.Milestone
	now     func() time.Time
	fps     int
	profile colorProfile

	keys   keyMap
	help   help.Model
	tracks trackList
	knob   knob

	width    int
	height   int
	quitting bool

	status     string
	statusErr  bool
	statusTime time.Time
}

// New creates the player model.
func New(d Deps) Model {
	fps := d.FPS
	if fps <= 0 {
		fps = render.DefaultFPS
	}
	m := Model{
		ctrl:    d.Controller,
		binding: d.Binding,
		loop:    d.Loop,
		raster:  d.Raster,
		watcher: d.Watcher,
		log:     d.Log,
		dates:   d.Milestones,
		now:     time.Now,
		fps:     fps,
		profile: detectColorProfile(),
		keys:    newKeyMap(),
		help:    help.New(),
		tracks:  newTrackList(d.Controller.Playlist()),
		knob:    newKnob(fps),
	}
	m.resize(50, 0)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.fps),
		waitEvent(m.binding.Events()),
		waitConfig(m.watcher),
		tea.SetWindowTitle(m.windowTitle()),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.tracks.open {
			var cmd tea.Cmd
			m.tracks, cmd = m.tracks.update(msg)
			return m, cmd
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case trackSelectedMsg:
		m.report(m.ctrl.JumpTo(msg.index))
		return m, tea.SetWindowTitle(m.windowTitle())

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m.loop.Frame()
		m.knob.step(m.ratio())
		if m.status != "" && time.Since(m.statusTime) > statusTTL {
			m.status = ""
		}
		return m, frameCmd(m.fps)

	case engineEventMsg:
		return m.handleEvent(msg.ev)

	case configReloadedMsg:
		m.loop.SetOptions(msg.cfg.RenderOptions())
		m.setStatus("config reloaded", false)
		m.log.Info().Float64("smoothing", msg.cfg.Smoothing).Msg("config reloaded")
		return m, waitConfig(m.watcher)

	case configErrorMsg:
		m.setStatus(fmt.Sprintf("config: %v", msg.err), true)
		m.log.Warn().Err(msg.err).Msg("config reload failed")
		return m, waitConfig(m.watcher)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	}

	if m.tracks.open {
		var cmd tea.Cmd
		m.tracks, cmd = m.tracks.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.binding.Close()
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	case key.Matches(msg, m.keys.Play):
		m.report(m.ctrl.TogglePlay())
		return m, tea.SetWindowTitle(m.windowTitle())
	case key.Matches(msg, m.keys.Next):
		m.report(m.ctrl.NextTrack())
		return m, tea.SetWindowTitle(m.windowTitle())
	case key.Matches(msg, m.keys.Prev):
		m.report(m.ctrl.PreviousTrack())
		return m, tea.SetWindowTitle(m.windowTitle())
	case key.Matches(msg, m.keys.SeekBack):
		m.report(m.ctrl.SeekBy(-seekStep))
	case key.Matches(msg, m.keys.SeekFwd):
		m.report(m.ctrl.SeekBy(seekStep))
	case key.Matches(msg, m.keys.Mute):
		m.report(m.ctrl.ToggleMute())
	case key.Matches(msg, m.keys.Tracks):
		m.tracks.show(m.ctrl.State().Index)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if m.tracks.open {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Y != progressRow {
		return m, nil
	}
	x0, width := m.progressBarSpan()
	if f, ok := barFraction(msg.X, x0, width); ok {
		m.report(m.ctrl.SeekFraction(f))
	}
	return m, nil
}

// handleEvent applies an engine event. Events from a replaced source are
// dropped; the wait is re-armed either way.
func (m Model) handleEvent(ev engine.Event) (Model, tea.Cmd) {
	next := waitEvent(m.binding.Events())
	if !m.binding.Current(ev) {
		return m, next
	}
	switch ev.Kind {
	case engine.TimeUpdate:
		m.ctrl.OnTimeUpdate(ev.Position)
	case engine.DurationKnown:
		m.ctrl.OnDurationKnown(ev.Duration)
	case engine.TrackEnded:
		m.report(m.ctrl.OnTrackEnded())
		return m, tea.Batch(next, tea.SetWindowTitle(m.windowTitle()))
	}
	return m, next
}

// report shows a failed transport action on the status line. The controller
// has already logged it and left playback paused.
func (m *Model) report(err error) {
	if err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.statusTime = time.Now()
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	cols := max(m.contentWidth(), 1)
	m.raster.SetSize(cols, vizRows*2)
	m.help.Width = cols
	m.tracks.setSize(cols, max(h-2, 8))
}

func (m Model) contentWidth() int {
	w := m.width
	if w < minWidth {
		w = 50
	}
	return w - 2*leftMargin
}

func (m Model) ratio() float64 {
	s := m.ctrl.State()
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration)
}

func (m Model) timeLabels() (string, string) {
	s := m.ctrl.State()
	return formatClock(s.Position), formatClock(s.Duration)
}

// progressBarSpan returns the first column and width of the progress bar.
func (m Model) progressBarSpan() (int, int) {
	elapsed, total := m.timeLabels()
	x0 := leftMargin + len(elapsed) + 1
	width := m.contentWidth() - len(elapsed) - len(total) - 2
	return x0, max(width, 10)
}

func (m Model) headerLine() string {
	line := headerStyle.Render(appName)
	if latest, ok := milestones.Latest(m.dates, m.now()); ok {
		if days, err := latest.DaysSince(m.now()); err == nil {
			line += "  " + milestoneStyle.Render(fmt.Sprintf("%s · 第 %d 天", latest.Event, days))
		}
	}
	return line
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.tracks.open {
		return "\n" + m.tracks.view()
	}

	s := m.ctrl.State()
	track := m.ctrl.Track()
	pad := strings.Repeat(" ", leftMargin)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(pad + m.headerLine() + "\n")
	b.WriteString("\n")
	b.WriteString(pad + titleStyle.Render(track.Title) + "\n")
	b.WriteString(pad + artistStyle.Render(track.Artist) + "\n")
	b.WriteString("\n")

	for _, row := range strings.Split(renderCells(m.raster.Image(), m.profile), "\n") {
		b.WriteString(pad + row + "\n")
	}
	b.WriteString("\n")

	elapsed, total := m.timeLabels()
	_, barWidth := m.progressBarSpan()
	fmt.Fprintf(&b, "%s%s %s %s\n", pad,
		timeStyle.Render(elapsed), renderProgressBar(m.knob.pos, barWidth), timeStyle.Render(total))
	b.WriteString("\n")
	b.WriteString(pad + m.statusLine(s) + "\n")
	b.WriteString("\n")
	b.WriteString(pad + m.help.View(m.keys) + "\n")

	view := b.String()
	if gap := m.height - lipgloss.Height(view); gap > 0 {
		view += strings.Repeat("\n", gap)
	}
	return view
}

func (m Model) statusLine(s transport.State) string {
	icon, text := "❚❚", "paused"
	if s.Playing {
		icon, text = "▶", "playing"
	}
	left := fmt.Sprintf("%s  %s", icon, text)
	if s.Muted {
		left += "  muted"
	}
	right := fmt.Sprintf("%d/%d", s.Index+1, m.ctrl.Playlist().Len())

	line := statusStyle.Render(left)
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		line += "  " + style.Render(m.status)
	}
	gap := max(m.contentWidth()-lipgloss.Width(line)-len(right), 2)
	return line + strings.Repeat(" ", gap) + statusStyle.Render(right)
}

func (m Model) windowTitle() string {
	title := m.ctrl.Track().Title
	if m.ctrl.State().Playing {
		return "▶ " + title + " · " + appName
	}
	return "⏸ " + title + " · " + appName
}
