// Package cmd holds the love-timeline subcommands.
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/nie11kun/Love-Timeline/internal/config"
	"github.com/nie11kun/Love-Timeline/internal/playlist"
)

func paramEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// loadPlaylist picks the playlist: an explicit path wins over the config's,
// and without either the compiled-in list is used.
func loadPlaylist(cfg config.Config, override string) (*playlist.Playlist, error) {
	path := override
	if path == "" {
		path = cfg.Playlist
	}
	if path == "" {
		return playlist.Default(), nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case playlist.IsListExt(ext):
		return playlist.LoadM3U(path)
	case ext == ".yaml" || ext == ".yml":
		return playlist.Load(path)
	default:
		return nil, fmt.Errorf("unsupported playlist %s (want .yaml, .m3u or .pls)", path)
	}
}
