package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

var listExts = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".pls":  true,
}

// IsSupportedExt returns true if the extension is a playable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsListExt returns true if the extension is an m3u/pls playlist.
func IsListExt(ext string) bool {
	return listExts[strings.ToLower(ext)]
}

// LoadM3U parses a local .m3u/.m3u8/.pls file. Entries with unsupported
// extensions are skipped; metadata is read from tags where present.
func LoadM3U(path string) (*Playlist, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsListExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}

	baseDir := filepath.Dir(absPath)
	scanner := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))

	var entries []string
	switch ext {
	case ".pls":
		entries = parsePLS(scanner, baseDir)
	default:
		entries = parseM3U(scanner, baseDir)
	}

	tracks := make([]Track, 0, len(entries))
	for _, e := range entries {
		if !IsSupportedExt(filepath.Ext(e)) {
			continue
		}
		tracks = append(tracks, ReadMetadata(e))
	}
	return New(tracks)
}

func parseM3U(scanner *bufio.Scanner, baseDir string) []string {
	entries := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, resolveEntryPath(line, baseDir))
	}
	return entries
}

func parsePLS(scanner *bufio.Scanner, baseDir string) []string {
	entries := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if val == "" || !isPLSFileKey(key) {
			continue
		}

		entries = append(entries, resolveEntryPath(val, baseDir))
	}
	return entries
}

func isPLSFileKey(key string) bool {
	if !strings.HasPrefix(strings.ToLower(key), "file") {
		return false
	}
	rest := key[len("File"):]
	if rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}

func resolveEntryPath(raw, baseDir string) string {
	p := filepath.Clean(raw)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
