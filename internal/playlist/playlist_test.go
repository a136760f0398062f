package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func threeTracks(t *testing.T) *Playlist {
	t.Helper()
	p, err := New([]Track{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestNextWrapsModuloLength(t *testing.T) {
	p := threeTracks(t)
	for start := range p.Len() {
		idx := start
		for n := 1; n <= 7; n++ {
			idx = p.Next(idx)
			if want := (start + n) % 3; idx != want {
				t.Fatalf("start %d after %d next: got %d, want %d", start, n, idx, want)
			}
		}
	}
}

func TestPreviousWrapsModuloLength(t *testing.T) {
	p := threeTracks(t)
	for start := range p.Len() {
		idx := start
		for n := 1; n <= 7; n++ {
			idx = p.Previous(idx)
			if want := ((start-n)%3 + 3) % 3; idx != want {
				t.Fatalf("start %d after %d previous: got %d, want %d", start, n, idx, want)
			}
		}
	}
}

func TestGetWrapsOutOfRangeIndex(t *testing.T) {
	p := threeTracks(t)
	if got := p.Get(4).Title; got != "B" {
		t.Fatalf("Get(4) = %q, want B", got)
	}
	if got := p.Get(-1).Title; got != "C" {
		t.Fatalf("Get(-1) = %q, want C", got)
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("New(nil) error = %v, want ErrEmpty", err)
	}
}

func TestDefaultHasCompiledInTracks(t *testing.T) {
	p := Default()
	if p.Len() != 3 {
		t.Fatalf("expected 3 default tracks, got %d", p.Len())
	}
	if got := p.Get(1).Artist; got != "John Legend" {
		t.Fatalf("expected second artist John Legend, got %q", got)
	}
}

func TestWithRootResolvesRelativeSources(t *testing.T) {
	p, _ := New([]Track{{Source: "a.mp3"}, {Source: "/abs/b.mp3"}})
	got := p.WithRoot("/music").Tracks()
	if got[0].Source != filepath.Join("/music", "a.mp3") {
		t.Fatalf("relative source = %q", got[0].Source)
	}
	if got[1].Source != "/abs/b.mp3" {
		t.Fatalf("absolute source changed to %q", got[1].Source)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.yaml")
	content := "- title: One\n  artist: X\n  source: one.mp3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []Track{{Title: "One", Artist: "X", Source: filepath.Join(dir, "one.mp3")}}
	if !reflect.DeepEqual(p.Tracks(), want) {
		t.Fatalf("Load() = %#v, want %#v", p.Tracks(), want)
	}
}

func TestLoadM3USkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.m3u")
	content := "\uFEFF#EXTM3U\n\nsong1.mp3\n#comment\nnotes.txt\nsub/song2.wav\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	p, err := LoadM3U(path)
	if err != nil {
		t.Fatalf("LoadM3U() error = %v", err)
	}
	want := []Track{
		{Title: "song1", Source: filepath.Join(dir, "song1.mp3")},
		{Title: "song2", Source: filepath.Join(dir, "sub", "song2.wav")},
	}
	if !reflect.DeepEqual(p.Tracks(), want) {
		t.Fatalf("LoadM3U() = %#v, want %#v", p.Tracks(), want)
	}
}

func TestLoadPLS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.pls")
	content := "[playlist]\n file1 = one.flac \nTitle1=One\nFileX=bad.mp3\nFile3=\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	p, err := LoadM3U(path)
	if err != nil {
		t.Fatalf("LoadM3U() error = %v", err)
	}
	want := []Track{{Title: "one", Source: filepath.Join(dir, "one.flac")}}
	if !reflect.DeepEqual(p.Tracks(), want) {
		t.Fatalf("LoadM3U() = %#v, want %#v", p.Tracks(), want)
	}
}

func TestLoadM3UEmptyIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.m3u")
	if err := os.WriteFile(path, []byte("#EXTM3U\n"), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	if _, err := LoadM3U(path); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestEnrichFillsFromFileNameAndReportsProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "first-dance.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, _ := New([]Track{
		{Source: path},
		{Title: "Kept", Artist: "Someone", Source: "missing.mp3"},
	})

	var calls []int
	out := p.Enrich(func(done, total int, _ Track) {
		if total != 2 {
			t.Fatalf("expected total 2, got %d", total)
		}
		calls = append(calls, done)
	})
	if got := out.Get(0).Title; got != "first-dance" {
		t.Fatalf("expected title from file name, got %q", got)
	}
	if got := out.Get(1).Title; got != "Kept" {
		t.Fatalf("expected tagged title kept, got %q", got)
	}
	if len(calls) != 2 || calls[1] != 2 {
		t.Fatalf("unexpected progress calls %v", calls)
	}
}
