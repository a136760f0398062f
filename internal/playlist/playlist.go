package playlist

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed playlist.yaml
var defaultPlaylist []byte

// ErrEmpty is returned when a playlist has no tracks.
var ErrEmpty = errors.New("playlist is empty")

// Track describes one entry of the playlist.
type Track struct {
	Title  string `yaml:"title"`
	Artist string `yaml:"artist"`
	Source string `yaml:"source"`
}

// Playlist is an immutable, cyclic, index-addressed list of tracks.
type Playlist struct {
	tracks []Track
}

// New creates a Playlist from tracks. The slice is copied.
func New(tracks []Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmpty
	}
	return &Playlist{tracks: append([]Track(nil), tracks...)}, nil
}

// Default returns the compiled-in playlist.
func Default() *Playlist {
	p, err := parse(defaultPlaylist)
	if err != nil {
		panic(fmt.Sprintf("playlist: embedded playlist: %v", err))
	}
	return p
}

// Load reads a YAML playlist file. Relative sources are resolved against the
// file's directory.
func Load(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("playlist %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return p.WithRoot(filepath.Dir(abs)), nil
}

func parse(data []byte) (*Playlist, error) {
	var tracks []Track
	if err := yaml.Unmarshal(data, &tracks); err != nil {
		return nil, err
	}
	return New(tracks)
}

// WithRoot returns a copy whose relative sources are joined onto dir.
func (p *Playlist) WithRoot(dir string) *Playlist {
	if dir == "" {
		return p
	}
	out := make([]Track, len(p.tracks))
	for i, t := range p.tracks {
		t.Source = resolveEntryPath(t.Source, dir)
		out[i] = t
	}
	return &Playlist{tracks: out}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int { return len(p.tracks) }

// Get returns the track at index i, wrapping out-of-range indexes.
func (p *Playlist) Get(i int) Track {
	return p.tracks[p.wrap(i)]
}

// Tracks returns a copy of all tracks in order.
func (p *Playlist) Tracks() []Track {
	return append([]Track(nil), p.tracks...)
}

// Next returns the index after i, wrapping to 0 after the last track.
func (p *Playlist) Next(i int) int { return p.wrap(i + 1) }

// Previous returns the index before i, wrapping to the last track before 0.
func (p *Playlist) Previous(i int) int { return p.wrap(i - 1) }

// Wrap maps any integer onto a valid index.
func (p *Playlist) Wrap(i int) int { return p.wrap(i) }

func (p *Playlist) wrap(i int) int {
	n := len(p.tracks)
	return ((i % n) + n) % n
}
