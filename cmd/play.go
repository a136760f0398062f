package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/engine"
	"github.com/nie11kun/Love-Timeline/internal/logging"
	"github.com/nie11kun/Love-Timeline/internal/milestones"
	"github.com/nie11kun/Love-Timeline/internal/player"
	"github.com/nie11kun/Love-Timeline/internal/playlist"
	"github.com/nie11kun/Love-Timeline/internal/render"
	"github.com/nie11kun/Love-Timeline/internal/spectrum"
	"github.com/nie11kun/Love-Timeline/internal/transport"
	"github.com/nie11kun/Love-Timeline/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type PlayParams struct {
	Config   string `short:"c" optional:"true" help:"Config file; theme and smoothing reload on save" default:""`
	Playlist string `short:"p" optional:"true" help:"Playlist file (.yaml, .m3u, .pls)" default:""`
	LogLevel string `long:"log-level" optional:"true" help:"Log level: debug, info, warn, error" default:""`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play the playlist with the spectrum bar",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			os.Exit(RunPlay(params, os.Stderr))
		},
	}.ToCobra()
}

func RunPlay(params *PlayParams, stderr io.Writer) int {
	cfg, err := config.Load(params.Config)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}
	level := cfg.Log.Level
	if params.LogLevel != "" {
		level = params.LogLevel
	}
	log, closer, err := logging.Open(cfg.Log.File, level)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}
	defer closer.Close()

	list, err := loadPlaylist(cfg, params.Playlist)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}
	analyzer, err := spectrum.New(cfg.FFTSize)
	if err != nil {
		fmt.Fprintf(stderr, "play: %v\n", err)
		return 1
	}

	var watcher *config.Watcher
	if params.Config != "" {
		if watcher, err = config.Watch(params.Config); err != nil {
			log.Warn().Err(err).Str("path", params.Config).Msg("config watch unavailable")
		} else {
			defer watcher.Close()
		}
	}

	s := &session{cfg: cfg, list: list, analyzer: analyzer, watcher: watcher, log: log}
	defer s.close()

	program := tea.NewProgram(newStartupModel(s.build), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		log.Error().Err(err).Msg("ui stopped")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// session wires one player run. The audio graph is created by the binding
// on the first play key press and closed when the program exits.
type session struct {
	cfg      config.Config
	list     *playlist.Playlist
	analyzer *spectrum.Analyzer
	watcher  *config.Watcher
	log      zerolog.Logger

	// openGraph defaults to player.NewGraph.
	openGraph func(zerolog.Logger) (*player.Graph, error)
	graph     *player.Graph
	graphErr  error
}

func (s *session) build(report func(prepareStatus)) (ui.Model, error) {
	list := s.list.Enrich(func(done, total int, t playlist.Track) {
		report(prepareStatus{done: done, total: total, title: t.Title})
	})
	s.log.Info().Int("tracks", list.Len()).Msg("playlist ready")

	binding := engine.New(list, s.newOutput, s.log)
	raster := render.NewRaster(1, 1)
	return ui.New(ui.Deps{
		Controller: transport.New(list, binding, s.log),
		Binding:    binding,
		Loop:       render.NewLoop(s.analyzer, raster, s.cfg.RenderOptions()),
		Raster:     raster,
		Milestones: milestones.Default(),
		Watcher:    s.watcher,
		FPS:        s.cfg.FPS,
		Log:        s.log,
	}), nil
}

// newOutput opens the audio device. oto allows one context per process,
// even when creating it failed, so the first failure is final.
func (s *session) newOutput() (engine.Output, error) {
	if s.graphErr != nil {
		return nil, fmt.Errorf("audio device unavailable until restart: %w", s.graphErr)
	}
	open := s.openGraph
	if open == nil {
		open = player.NewGraph
	}
	g, err := open(s.log)
	if err != nil {
		s.graphErr = err
		s.log.Error().Err(err).Msg("audio device unavailable")
		return nil, err
	}
	s.analyzer.Attach(g.Tap())
	s.graph = g
	return g, nil
}

func (s *session) close() {
	if s.graph != nil {
		_ = s.graph.Close()
	}
}
