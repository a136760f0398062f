package playlist

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// ReadMetadata builds a Track for path from its ID3v2 tags, falling back to
// the file name when no title is tagged.
func ReadMetadata(path string) Track {
	t := Track{Source: path}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		t.Title = strings.TrimSpace(tag.Title())
		t.Artist = strings.TrimSpace(tag.Artist())
		if t.Title != "" {
			return t
		}
	}

	base := filepath.Base(path)
	t.Title = strings.TrimSuffix(base, filepath.Ext(base))
	return t
}

// Enrich returns a copy of p where tracks without a title or artist are
// filled from their files' tags. progress, if set, is called after each
// track.
func (p *Playlist) Enrich(progress func(done, total int, t Track)) *Playlist {
	out := make([]Track, len(p.tracks))
	for i, t := range p.tracks {
		if t.Title == "" || t.Artist == "" {
			meta := ReadMetadata(t.Source)
			if t.Title == "" {
				t.Title = meta.Title
			}
			if t.Artist == "" {
				t.Artist = meta.Artist
			}
		}
		out[i] = t
		if progress != nil {
			progress(i+1, len(out), t)
		}
	}
	return &Playlist{tracks: out}
}
