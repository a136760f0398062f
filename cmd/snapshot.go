package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/logging"
	"github.com/nie11kun/Love-Timeline/internal/player"
	"github.com/nie11kun/Love-Timeline/internal/render"
	"github.com/nie11kun/Love-Timeline/internal/spectrum"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type SnapshotParams struct {
	Out      string `short:"o" help:"PNG file to write"`
	Config   string `short:"c" optional:"true" help:"Config file" default:""`
	Playlist string `short:"p" optional:"true" help:"Playlist file (.yaml, .m3u, .pls)" default:""`
	Track    int    `short:"t" optional:"true" help:"Track number, starting at 1" default:"1"`
	At       string `optional:"true" help:"Position to start rendering from" default:"30s"`
	Window   string `short:"w" optional:"true" help:"How long to render before capturing" default:"2s"`
	Width    int    `optional:"true" help:"Image width in pixels" default:"640"`
	Height   int    `optional:"true" help:"Image height in pixels" default:"120"`
}

func SnapshotCmd() *cobra.Command {
	return boa.CmdT[SnapshotParams]{
		Use:         "snapshot",
		Short:       "Render the spectrum bar for a track to a PNG",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *SnapshotParams, cmd *cobra.Command, args []string) {
			os.Exit(RunSnapshot(cmd.Context(), params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

// snapshotJob is one headless render.
type snapshotJob struct {
	source string
	at     time.Duration
	window time.Duration
	width  int
	height int
	out    string
}

func RunSnapshot(ctx context.Context, params *SnapshotParams, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(params.Config)
	if err != nil {
		fmt.Fprintf(stderr, "snapshot: %v\n", err)
		return 1
	}
	list, err := loadPlaylist(cfg, params.Playlist)
	if err != nil {
		fmt.Fprintf(stderr, "snapshot: %v\n", err)
		return 1
	}
	if params.Track < 1 || params.Track > list.Len() {
		fmt.Fprintf(stderr, "snapshot: track %d out of range 1..%d\n", params.Track, list.Len())
		return 1
	}
	at, err := time.ParseDuration(params.At)
	if err != nil {
		fmt.Fprintf(stderr, "snapshot: --at: %v\n", err)
		return 1
	}
	window, err := time.ParseDuration(params.Window)
	if err != nil || window <= 0 {
		fmt.Fprintf(stderr, "snapshot: --window must be a positive duration\n")
		return 1
	}
	if params.Width <= 0 || params.Height <= 0 {
		fmt.Fprintf(stderr, "snapshot: image size must be positive\n")
		return 1
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log := logging.Console(stderr, level)
	job := snapshotJob{
		source: list.Get(params.Track - 1).Source,
		at:     at,
		window: window,
		width:  params.Width,
		height: params.Height,
		out:    params.Out,
	}
	if err := renderSnapshot(ctx, cfg, job, log); err != nil {
		fmt.Fprintf(stderr, "snapshot: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", params.Out)
	return 0
}

// renderSnapshot decodes the job's source without an audio device and runs
// the render loop for the job's window, pushing one frame of audio through
// the tap per painted frame. The last painted frame is written as PNG.
func renderSnapshot(ctx context.Context, cfg config.Config, job snapshotJob, log zerolog.Logger) error {
	analyzer, err := spectrum.New(cfg.FFTSize)
	if err != nil {
		return err
	}
	tap := player.NewTap(player.TapSize)
	stream, err := player.OpenStream(job.source, tap)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.SeekTo(min(job.at, stream.Duration())); err != nil {
		return err
	}
	analyzer.Attach(tap)

	step := time.Second / time.Duration(cfg.FPS)
	// Prime the tap so the first frame has audio to analyse.
	if err := stream.Advance(step); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	raster := render.NewRaster(job.width, job.height)
	loop := render.NewLoop(analyzer, raster, cfg.RenderOptions())

	ctx, cancel := context.WithTimeout(ctx, job.window)
	defer cancel()

	var streamErr error
	err = loop.Run(ctx, cfg.FPS, func() {
		if streamErr != nil {
			return
		}
		if err := stream.Advance(step); err != nil {
			streamErr = err
			cancel()
		}
	})
	switch {
	case streamErr != nil && !errors.Is(streamErr, io.EOF):
		return streamErr
	case err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled):
		return err
	}
	if loop.Frames() == 0 {
		loop.Frame()
	}

	log.Debug().
		Str("source", job.source).
		Dur("position", stream.Position()).
		Uint64("frames", loop.Frames()).
		Msg("snapshot rendered")
	return raster.WritePNG(job.out)
}
