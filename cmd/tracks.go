package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/playlist"
	"github.com/spf13/cobra"
)

type TracksParams struct {
	Config   string `short:"c" optional:"true" help:"Config file" default:""`
	Playlist string `short:"p" optional:"true" help:"Playlist file (.yaml, .m3u, .pls)" default:""`
	Tags     bool   `short:"t" optional:"true" help:"Fill missing titles and artists from file tags"`
}

func TracksCmd() *cobra.Command {
	return boa.CmdT[TracksParams]{
		Use:         "tracks",
		Short:       "List the playlist",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *TracksParams, cmd *cobra.Command, args []string) {
			os.Exit(RunTracks(params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

func RunTracks(params *TracksParams, stdout, stderr io.Writer) int {
	cfg, err := config.Load(params.Config)
	if err != nil {
		fmt.Fprintf(stderr, "tracks: %v\n", err)
		return 1
	}
	list, err := loadPlaylist(cfg, params.Playlist)
	if err != nil {
		fmt.Fprintf(stderr, "tracks: %v\n", err)
		return 1
	}
	if params.Tags {
		list = list.Enrich(nil)
	}
	renderTracks(stdout, list)
	return 0
}

func renderTracks(w io.Writer, list *playlist.Playlist) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Artist", "Source"})
	for i, tr := range list.Tracks() {
		t.AppendRow(table.Row{i + 1, tr.Title, tr.Artist, tr.Source})
	}
	t.Render()
}
