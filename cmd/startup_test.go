package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/player"
	"github.com/nie11kun/Love-Timeline/internal/spectrum"
	"github.com/nie11kun/Love-Timeline/internal/ui"
	"github.com/rs/zerolog"
)

func TestStartupModelErrorStopsSpinner(t *testing.T) {
	m := newStartupModel(nil)

	model, cmd := m.Update(startupResolvedMsg{err: errBoom{}})
	if cmd != nil {
		t.Fatal("expected no command on error")
	}
	startup := model.(startupModel)
	if startup.errMsg != "boom" {
		t.Fatalf("expected error message, got %q", startup.errMsg)
	}
	if !strings.Contains(startup.View(), "boom") {
		t.Fatal("expected error in view")
	}
	if _, cmd := startup.Update(startup.spinner.Tick()); cmd != nil {
		t.Fatal("expected spinner to stop after an error")
	}
}

func TestStartupModelConsumesStatusUpdates(t *testing.T) {
	m := newStartupModel(nil)

	model, cmd := m.Update(startupStatusMsg{done: 3, total: 7, title: "Lover"})
	if cmd == nil {
		t.Fatal("expected waitForStatus command")
	}
	startup := model.(startupModel)
	if startup.status.done != 3 || startup.status.total != 7 {
		t.Fatalf("unexpected status: %+v", startup.status)
	}
	if view := startup.View(); !strings.Contains(view, "3/7") || !strings.Contains(view, "Lover") {
		t.Fatalf("expected progress in view:\n%s", view)
	}
}

func TestStartupPrepareReportsAndResolves(t *testing.T) {
	m := newStartupModel(func(report func(prepareStatus)) (ui.Model, error) {
		report(prepareStatus{done: 1, total: 1, title: "only"})
		return ui.Model{}, errBoom{}
	})

	msg := m.prepareCmd()()
	resolved, ok := msg.(startupResolvedMsg)
	if !ok {
		t.Fatalf("expected startupResolvedMsg, got %T", msg)
	}
	if !errors.Is(resolved.err, errBoom{}) {
		t.Fatalf("expected boom, got %v", resolved.err)
	}

	if got := m.waitForStatus()(); got != startupStatusMsg(prepareStatus{done: 1, total: 1, title: "only"}) {
		t.Fatalf("unexpected status msg %#v", got)
	}
	if got := m.waitForStatus()(); got != nil {
		t.Fatalf("expected nil after channel close, got %#v", got)
	}
}

func TestStartupHandsOffToPlayer(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "a.wav"), 440, 50*time.Millisecond)
	list, err := loadPlaylist(config.Default(), writeM3U(t, dir, "a.wav"))
	if err != nil {
		t.Fatal(err)
	}
	analyzer, err := spectrum.New(spectrum.DefaultFFTSize)
	if err != nil {
		t.Fatal(err)
	}
	s := &session{cfg: config.Default(), list: list, analyzer: analyzer, log: zerolog.Nop()}

	var reports []prepareStatus
	player, err := s.build(func(p prepareStatus) { reports = append(reports, p) })
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(reports) != 1 || reports[0].total != 1 {
		t.Fatalf("expected one progress report, got %+v", reports)
	}

	m := newStartupModel(nil)
	m, _ = updateStartup(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	next, cmd := m.Update(startupResolvedMsg{model: player})
	if cmd == nil {
		t.Fatal("expected player init command")
	}
	if _, ok := next.(ui.Model); !ok {
		t.Fatalf("expected ui.Model, got %T", next)
	}
}

func updateStartup(t *testing.T, m startupModel, msg tea.Msg) (startupModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(startupModel)
	if !ok {
		t.Fatalf("expected startupModel, got %T", next)
	}
	return sm, cmd
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestSessionDeviceFailureIsFinal(t *testing.T) {
	calls := 0
	s := &session{log: zerolog.Nop(), openGraph: func(zerolog.Logger) (*player.Graph, error) {
		calls++
		return nil, errBoom{}
	}}

	if _, err := s.newOutput(); !errors.Is(err, errBoom{}) {
		t.Fatalf("expected device error, got %v", err)
	}
	_, err := s.newOutput()
	if !errors.Is(err, errBoom{}) || !strings.Contains(err.Error(), "until restart") {
		t.Fatalf("expected final device error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one device attempt, got %d", calls)
	}
	s.close()
}
