package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 2 // 16-bit = 2 bytes
	bytesPerSec  = sampleRate * channelCount * bitDepth
	frameBytes   = channelCount * bitDepth

	// TapSize is the number of mono samples kept for analysis.
	TapSize = 4096
)

// ErrNoSource is returned by Play before any source was loaded.
var ErrNoSource = errors.New("no source loaded")

// countingReader wraps an io.Reader and tracks bytes read. It remembers
// hitting EOF, since decoders may report a length the data never reaches.
type countingReader struct {
	reader io.Reader
	pos    int64
	eof    bool
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	if err == io.EOF {
		cr.eof = true
	}
	cr.mu.Unlock()
	return n, err
}

// Drained reports whether the source returned EOF since the last SetPos.
func (cr *countingReader) Drained() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.eof
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.eof = false
	cr.mu.Unlock()
}

// sourceEnded reports whether everything the source will produce has been
// read, either by reaching EOF or by reaching its reported length.
func sourceEnded(counter *countingReader, total int64) bool {
	return counter.Drained() || counter.Pos() >= total
}

// Graph is the session's single audio pipeline: one oto context, a tap for
// spectrum analysis, and the currently loaded source. Only the source is
// swapped on track changes; the context lives until Close.
type Graph struct {
	ID string

	otoCtx *oto.Context
	tap    *Tap
	log    zerolog.Logger

	mu        sync.Mutex
	file      *os.File
	decoder   audioDecoder
	counter   *countingReader
	otoPlayer *oto.Player
	muted     bool
	paused    bool
	suspended bool
	done      chan struct{}
	stopMon   chan struct{}
	closed    bool
}

// NewGraph creates the oto context. The host may refuse audio output; the
// error is returned unchanged so callers can report it and let the user
// retry.
func NewGraph(log zerolog.Logger) (*Graph, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-ready

	id := uuid.NewString()
	g := &Graph{
		ID:     id,
		otoCtx: ctx,
		tap:    NewTap(TapSize),
		log:    log.With().Str("graph", id).Logger(),
		paused: true,
	}
	g.log.Info().Msg("audio graph created")
	return g, nil
}

// Tap returns the analysis tap wired between the decoder and the output.
func (g *Graph) Tap() *Tap { return g.tap }

// Load opens source and replaces the current decoder. Playback is left
// paused; the returned duration is the decoded length. If source cannot be
// opened the previous source is released anyway, so nothing keeps playing.
func (g *Graph) Load(source string) (time.Duration, error) {
	f, dec, src, length, err := openSource(source)
	if err != nil {
		g.mu.Lock()
		g.releaseLocked()
		g.paused = true
		g.mu.Unlock()
		g.tap.Clear()
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.releaseLocked()
	g.file = f
	g.decoder = dec
	g.counter = &countingReader{reader: src}
	g.tap.attach(g.counter, channelCount)
	g.otoPlayer = g.otoCtx.NewPlayer(g.tap)
	g.applyVolumeLocked()
	g.paused = true
	g.done = make(chan struct{})
	g.stopMon = make(chan struct{})
	go g.monitor(g.counter, length, g.otoPlayer, g.done, g.stopMon)

	g.log.Debug().Str("source", source).Int64("bytes", length).Msg("source loaded")
	return bytesToDuration(length), nil
}

func (g *Graph) releaseLocked() {
	if g.stopMon != nil {
		close(g.stopMon)
		g.stopMon = nil
	}
	if g.otoPlayer != nil {
		g.otoPlayer.Pause()
		g.otoPlayer = nil
	}
	if g.file != nil {
		g.file.Close()
		g.file = nil
	}
	g.decoder = nil
}

// openSource opens and validates source, returning a stereo s16le reader
// and its length in output bytes.
func openSource(source string) (*os.File, audioDecoder, io.Reader, int64, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, 0, err
	}
	if dec.SampleRate() != sampleRate || dec.ChannelCount() < 1 || dec.ChannelCount() > channelCount {
		f.Close()
		return nil, nil, nil, 0, fmt.Errorf("%w: %d Hz, %d channels", ErrUnsupported, dec.SampleRate(), dec.ChannelCount())
	}

	var src io.Reader = dec
	length := dec.Length()
	if dec.ChannelCount() == 1 {
		src = &monoToStereo{src: dec}
		length *= 2
	}
	return f, dec, src, length, nil
}

// monitor closes done once the source has been fully read and drained.
func (g *Graph) monitor(counter *countingReader, total int64, out *oto.Player, done, stop chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		g.mu.Lock()
		select {
		case <-stop:
			g.mu.Unlock()
			return
		default:
		}
		if !g.paused && sourceEnded(counter, total) && !out.IsPlaying() {
			close(done)
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()
	}
}

// Play starts or resumes output of the loaded source.
func (g *Graph) Play() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.otoPlayer == nil {
		return ErrNoSource
	}
	if err := g.otoCtx.Err(); err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	g.otoPlayer.Play()
	g.paused = false
	return nil
}

// Pause stops output without discarding the decode position.
func (g *Graph) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.otoPlayer != nil {
		g.otoPlayer.Pause()
	}
	g.paused = true
}

// SetMuted gates output volume. Decoding and position are unaffected.
func (g *Graph) SetMuted(muted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.muted = muted
	g.applyVolumeLocked()
}

func (g *Graph) applyVolumeLocked() {
	if g.otoPlayer == nil {
		return
	}
	if g.muted {
		g.otoPlayer.SetVolume(0)
	} else {
		g.otoPlayer.SetVolume(1)
	}
}

// SeekTo moves playback to an absolute position, clamped to the source.
func (g *Graph) SeekTo(target time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.decoder == nil {
		return ErrNoSource
	}
	total := g.decoder.Length()
	if g.decoder.ChannelCount() == 1 {
		total *= 2
	}
	newPos := clampSeekByteOffset(target, total)

	decPos := newPos
	if g.decoder.ChannelCount() == 1 {
		decPos /= 2
	}
	if _, err := g.decoder.Seek(decPos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	g.counter.SetPos(newPos)

	// Recreate the oto player to flush its buffer.
	wasPaused := g.paused
	g.otoPlayer.Pause()
	g.otoPlayer = g.otoCtx.NewPlayer(g.tap)
	g.applyVolumeLocked()
	if !wasPaused {
		g.otoPlayer.Play()
	}

	// The monitor watches the old oto player; restart it.
	close(g.stopMon)
	g.stopMon = make(chan struct{})
	select {
	case <-g.done:
		g.done = make(chan struct{})
	default:
	}
	go g.monitor(g.counter, total, g.otoPlayer, g.done, g.stopMon)
	return nil
}

// clampSeekByteOffset converts target into a byte offset inside [0, total]
// aligned to a sample frame.
func clampSeekByteOffset(target time.Duration, total int64) int64 {
	pos := int64(target.Seconds() * float64(bytesPerSec))
	pos = max(0, min(pos, total))
	return pos - pos%frameBytes
}

func bytesToDuration(n int64) time.Duration {
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}

// Position returns the current playback position.
func (g *Graph) Position() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.counter == nil {
		return 0
	}
	pos := g.counter.Pos()
	if g.otoPlayer != nil {
		pos -= int64(g.otoPlayer.BufferedSize())
	}
	return bytesToDuration(max(pos, 0))
}

// Done returns a channel that closes when the loaded source finishes.
func (g *Graph) Done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Suspended reports whether the output device is suspended.
func (g *Graph) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

// Resume reactivates a suspended output device.
func (g *Graph) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.suspended {
		return nil
	}
	if err := g.otoCtx.Resume(); err != nil {
		return err
	}
	g.suspended = false
	g.log.Debug().Msg("audio graph resumed")
	return nil
}

// Close releases the loaded source and suspends the device. The oto
// context itself cannot be destroyed and stays with the process.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	g.releaseLocked()
	if g.otoCtx != nil {
		if err := g.otoCtx.Suspend(); err != nil {
			g.log.Warn().Err(err).Msg("suspending audio device")
		} else {
			g.suspended = true
		}
	}
	g.log.Info().Msg("audio graph closed")
	return nil
}

// monoToStereo duplicates every 16-bit sample into both channels.
type monoToStereo struct {
	src     io.Reader
	scratch []byte
}

func (m *monoToStereo) Read(p []byte) (int, error) {
	want := len(p) / 4 * 2
	if want == 0 {
		return 0, nil
	}
	if cap(m.scratch) < want {
		m.scratch = make([]byte, want)
	}
	buf := m.scratch[:want]
	n, err := m.src.Read(buf)
	n -= n % 2
	for i := 0; i < n; i += 2 {
		copy(p[i*2:], buf[i:i+2])
		copy(p[i*2+2:], buf[i:i+2])
	}
	return n * 2, err
}
