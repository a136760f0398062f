package ui

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/engine"
	"github.com/nie11kun/Love-Timeline/internal/milestones"
	"github.com/nie11kun/Love-Timeline/internal/playlist"
	"github.com/nie11kun/Love-Timeline/internal/render"
	"github.com/nie11kun/Love-Timeline/internal/spectrum"
	"github.com/nie11kun/Love-Timeline/internal/transport"
	"github.com/rs/zerolog"
)

type testOutput struct {
	loads   []string
	plays   int
	pauses  int
	seeks   []time.Duration
	playErr error
	done    chan struct{}
}

func (o *testOutput) Load(source string) (time.Duration, error) {
	o.loads = append(o.loads, source)
	o.done = make(chan struct{})
	return 3 * time.Minute, nil
}

func (o *testOutput) Play() error {
	if o.playErr != nil {
		return o.playErr
	}
	o.plays++
	return nil
}

func (o *testOutput) Pause()                       { o.pauses++ }
func (o *testOutput) SetMuted(bool)                {}
func (o *testOutput) SeekTo(t time.Duration) error { o.seeks = append(o.seeks, t); return nil }
func (o *testOutput) Position() time.Duration      { return 0 }
func (o *testOutput) Done() <-chan struct{}        { return o.done }
func (o *testOutput) Suspended() bool              { return false }
func (o *testOutput) Resume() error                { return nil }

type flatSampler struct{}

func (flatSampler) Sample() (spectrum.Snapshot, error) { return nil, spectrum.ErrUnavailable }
func (flatSampler) Bins() int                          { return 16 }

func newTestModel(t *testing.T) (Model, *testOutput) {
	t.Helper()
	list, err := playlist.New([]playlist.Track{
		{Title: "Can't Help Falling in Love", Artist: "Elvis Presley", Source: "a.mp3"},
		{Title: "All of Me", Artist: "John Legend", Source: "b.mp3"},
		{Title: "Perfect", Artist: "Ed Sheeran", Source: "c.mp3"},
	})
	if err != nil {
		t.Fatalf("playlist.New: %v", err)
	}
	out := &testOutput{}
	b := engine.New(list, func() (engine.Output, error) { return out, nil }, zerolog.Nop())
	t.Cleanup(b.Close)

	raster := render.NewRaster(1, 1)
	m := New(Deps{
		Controller: transport.New(list, b, zerolog.Nop()),
		Binding:    b,
		Loop:       render.NewLoop(flatSampler{}, raster, render.DefaultOptions()),
		Raster:     raster,
		Milestones: milestones.Default(),
		FPS:        30,
		Log:        zerolog.Nop(),
	})
	m.profile = colorNone
	return m, out
}

func press(m Model, k string) (Model, tea.Cmd) {
	if k == "space" {
		return m.handleMsg(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	}
	return m.handleMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestSpaceActivatesAndStartsPlayback(t *testing.T) {
	m, out := newTestModel(t)
	next, cmd := press(m, "space")
	if cmd == nil {
		t.Fatal("expected window title command")
	}
	if !next.ctrl.State().Playing {
		t.Fatal("expected playing after space")
	}
	if len(out.loads) != 1 || out.plays != 1 {
		t.Fatalf("expected one load and one start, loads=%v plays=%d", out.loads, out.plays)
	}

	next, _ = press(next, "space")
	if next.ctrl.State().Playing || out.pauses != 1 {
		t.Fatalf("expected paused after second space, pauses=%d", out.pauses)
	}
}

func TestStartFailureShowsStatusAndStaysPaused(t *testing.T) {
	m, out := newTestModel(t)
	out.playErr = errors.New("device busy")
	next, _ := press(m, "space")
	if next.ctrl.State().Playing {
		t.Fatal("expected paused after start failure")
	}
	if !next.statusErr || !strings.Contains(next.status, "device busy") {
		t.Fatalf("expected error status, got %q", next.status)
	}
}

func TestStaleEngineEventIsDropped(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, "space")
	stale := engine.Event{Kind: engine.DurationKnown, Gen: m.binding.Generation() + 7, Duration: time.Hour}

	next, cmd := m.handleMsg(engineEventMsg{ev: stale})
	if cmd == nil {
		t.Fatal("expected event wait to be re-armed")
	}
	if next.ctrl.State().Duration != 0 {
		t.Fatalf("expected stale duration ignored, got %v", next.ctrl.State().Duration)
	}
}

func TestCurrentEventsUpdateController(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, "space")
	gen := m.binding.Generation()

	m, _ = m.handleMsg(engineEventMsg{ev: engine.Event{Kind: engine.DurationKnown, Gen: gen, Duration: 3 * time.Minute}})
	m, _ = m.handleMsg(engineEventMsg{ev: engine.Event{Kind: engine.TimeUpdate, Gen: gen, Position: 42 * time.Second}})
	s := m.ctrl.State()
	if s.Duration != 3*time.Minute || s.Position != 42*time.Second {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestTrackEndedOnLastTrackWrapsAndKeepsPlaying(t *testing.T) {
	m, out := newTestModel(t)
	m, _ = press(m, "space")
	m, _ = press(m, "p")
	if m.ctrl.State().Index != 2 {
		t.Fatalf("expected last track, got %d", m.ctrl.State().Index)
	}

	m, _ = m.handleMsg(engineEventMsg{ev: engine.Event{Kind: engine.TrackEnded, Gen: m.binding.Generation()}})
	s := m.ctrl.State()
	if s.Index != 0 || !s.Playing {
		t.Fatalf("expected wrap to 0 while playing, got %+v", s)
	}
	if got := out.loads[len(out.loads)-1]; got != "a.mp3" {
		t.Fatalf("expected a.mp3 loaded, got %s", got)
	}
}

func TestClickOnProgressBarSeeks(t *testing.T) {
	m, out := newTestModel(t)
	m, _ = press(m, "space")
	m, _ = m.handleMsg(engineEventMsg{ev: engine.Event{Kind: engine.DurationKnown, Gen: m.binding.Generation(), Duration: 3 * time.Minute}})

	x0, width := m.progressBarSpan()
	m, _ = m.handleMsg(tea.MouseMsg{X: x0 + width - 1, Y: progressRow, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := m.ctrl.State().Position; got != 3*time.Minute {
		t.Fatalf("expected seek to end, got %v", got)
	}

	m, _ = m.handleMsg(tea.MouseMsg{X: x0, Y: progressRow - 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(out.seeks) != 1 {
		t.Fatalf("expected click off the bar to be ignored, seeks=%v", out.seeks)
	}
}

func TestSeekKeysAreClamped(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, "space")
	m, _ = m.handleMsg(engineEventMsg{ev: engine.Event{Kind: engine.DurationKnown, Gen: m.binding.Generation(), Duration: 3 * time.Second}})

	m, _ = m.handleMsg(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.ctrl.State().Position; got != 3*time.Second {
		t.Fatalf("expected clamp to duration, got %v", got)
	}
	m, _ = m.handleMsg(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.handleMsg(tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.ctrl.State().Position; got != 0 {
		t.Fatalf("expected clamp to zero, got %v", got)
	}
}

func TestMuteTwiceKeepsPlayback(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, "space")
	m, _ = press(m, "m")
	if !m.ctrl.State().Muted {
		t.Fatal("expected muted")
	}
	m, _ = press(m, "m")
	s := m.ctrl.State()
	if s.Muted || !s.Playing {
		t.Fatalf("expected unmuted and still playing, got %+v", s)
	}
}

func TestFrameReschedulesUntilQuit(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.handleMsg(frameMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected next frame to be scheduled")
	}
	if next.loop.Frames() != 1 {
		t.Fatalf("expected one frame, got %d", next.loop.Frames())
	}

	next, _ = press(next, "q")
	if !next.quitting {
		t.Fatal("expected quitting")
	}
	after, cmd := next.handleMsg(frameMsg(time.Now()))
	if cmd != nil {
		t.Fatal("expected no frame scheduled after quit")
	}
	if after.loop.Frames() != 1 {
		t.Fatalf("expected no frame painted after quit, got %d", after.loop.Frames())
	}
}

func TestConfigReloadAppliesRenderOptions(t *testing.T) {
	m, _ := newTestModel(t)
	cfg := config.Default()
	cfg.Smoothing = 0.5
	next, _ := m.handleMsg(configReloadedMsg{cfg: cfg})
	if got := next.loop.Options().Smoothing; got != 0.5 {
		t.Fatalf("expected smoothing 0.5, got %v", got)
	}
	if next.status == "" {
		t.Fatal("expected reload status")
	}
}

func TestTrackListSelectionJumps(t *testing.T) {
	m, out := newTestModel(t)
	m, _ = m.handleMsg(tea.KeyMsg{Type: tea.KeyTab})
	if !m.tracks.open {
		t.Fatal("expected track list open")
	}
	m, _ = m.handleMsg(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.handleMsg(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.tracks.open {
		t.Fatal("expected selection command and closed list")
	}
	sel, ok := cmd().(trackSelectedMsg)
	if !ok || sel.index != 1 {
		t.Fatalf("expected track 1 selected, got %#v", sel)
	}

	m, _ = m.handleMsg(sel)
	if m.ctrl.State().Index != 1 {
		t.Fatalf("expected index 1, got %d", m.ctrl.State().Index)
	}
	if len(out.loads) != 0 {
		t.Fatal("expected no load before activation")
	}
}

func TestViewShowsTrackAndMilestone(t *testing.T) {
	m, _ := newTestModel(t)
	m.now = func() time.Time { return time.Date(2024, 6, 18, 9, 0, 0, 0, time.Local) }
	m, _ = m.handleMsg(tea.WindowSizeMsg{Width: 60, Height: 30})

	view := m.View()
	for _, want := range []string{"Can't Help Falling in Love", "Elvis Presley", "第 1 天", "1/3", "paused"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if lipgloss.Height(view) < 30 {
		t.Fatalf("expected view padded to window height, got %d", lipgloss.Height(view))
	}
	lines := strings.Split(view, "\n")
	if !strings.Contains(lines[progressRow], "0:00") {
		t.Fatalf("expected progress bar on row %d, got %q", progressRow, lines[progressRow])
	}
}

func TestRenderCellsTrueColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, red)
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(1, 1, blue)

	out := renderCells(img, colorTrueColor)
	if strings.Count(out, "\x1b[38;2;255;0;0m") != 1 || strings.Count(out, "\x1b[48;2;0;0;255m") != 1 {
		t.Fatalf("expected repeated colors to be emitted once, got %q", out)
	}
	if strings.Count(out, upperHalf) != 2 || !strings.HasSuffix(out, "\x1b[0m") {
		t.Fatalf("unexpected cells %q", out)
	}
}

func TestRenderCellsWithoutColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	img.SetRGBA(0, 0, white)
	img.SetRGBA(0, 1, white)
	img.SetRGBA(1, 1, white)

	if got := renderCells(img, colorNone); got != "█▄ " {
		t.Fatalf("expected mono glyphs, got %q", got)
	}
}

func TestBarFraction(t *testing.T) {
	if _, ok := barFraction(4, 5, 10); ok {
		t.Fatal("expected miss left of bar")
	}
	if _, ok := barFraction(15, 5, 10); ok {
		t.Fatal("expected miss right of bar")
	}
	if f, ok := barFraction(14, 5, 10); !ok || f != 1 {
		t.Fatalf("expected 1 at last cell, got %v %v", f, ok)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[time.Duration]string{
		-time.Second:                              "0:00",
		59*time.Second + 900*time.Millisecond:     "0:59",
		4*time.Minute + 5*time.Second:             "4:05",
		time.Hour + 2*time.Minute + 3*time.Second: "1:02:03",
	}
	for d, want := range cases {
		if got := formatClock(d); got != want {
			t.Fatalf("formatClock(%v) = %q, want %q", d, got, want)
		}
	}
}
