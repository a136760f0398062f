// Package engine binds transport state to the audio output.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/nie11kun/Love-Timeline/internal/playlist"
	"github.com/nie11kun/Love-Timeline/internal/transport"
	"github.com/rs/zerolog"
)

var (
	// ErrActivationBlocked means the host refused to create or resume audio
	// output. The user has to retry with another interaction.
	ErrActivationBlocked = errors.New("audio activation blocked")
	// ErrLoad means a source could not be opened or decoded.
	ErrLoad = errors.New("loading source failed")
	// ErrStart means a loaded source could not start playing.
	ErrStart = errors.New("starting playback failed")
)

// Output is the single decode/output resource driven by the binding.
type Output interface {
	Load(source string) (time.Duration, error)
	Play() error
	Pause()
	SetMuted(muted bool)
	SeekTo(t time.Duration) error
	Position() time.Duration
	Done() <-chan struct{}
	Suspended() bool
	Resume() error
}

// Factory creates the Output. It is called at most once per Binding.
type Factory func() (Output, error)

// Phase is the binding's view of the output.
type Phase int

const (
	Idle Phase = iota
	Paused
	Playing
)

func (p Phase) String() string {
	switch p {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

const defaultPollInterval = 200 * time.Millisecond

// Binding applies transport.State changes to an Output and reports
// playback progress back as Events. Sync, Activate and Seek must be called
// from the same goroutine that consumes Events.
type Binding struct {
	list    *playlist.Playlist
	factory Factory
	log     zerolog.Logger

	out     Output
	phase   Phase
	applied transport.State
	muted   bool

	gen          uint64
	dur          time.Duration
	events       chan Event
	stopPump     chan struct{}
	pollInterval time.Duration
}

// New creates a Binding. The Output is not created until Activate.
func New(list *playlist.Playlist, factory Factory, log zerolog.Logger) *Binding {
	return &Binding{
		list:         list,
		factory:      factory,
		log:          log,
		events:       make(chan Event, 16),
		pollInterval: defaultPollInterval,
	}
}

// Events returns the channel playback events are delivered on.
func (b *Binding) Events() <-chan Event { return b.events }

// Phase returns the current phase.
func (b *Binding) Phase() Phase { return b.phase }

// Generation identifies the currently loaded source. Events carrying an
// older generation belong to a replaced source.
func (b *Binding) Generation() uint64 { return b.gen }

// Current reports whether ev belongs to the loaded source.
func (b *Binding) Current(ev Event) bool { return ev.Gen == b.gen && b.gen != 0 }

// Activated reports whether the output exists.
func (b *Binding) Activated() bool { return b.out != nil }

// Activate creates the Output on first use and resumes it if the host
// suspended it. The Output is never recreated.
func (b *Binding) Activate() error {
	if b.out == nil {
		out, err := b.factory()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrActivationBlocked, err)
		}
		b.out = out
		b.log.Info().Msg("audio output activated")
		return nil
	}
	if b.out.Suspended() {
		if err := b.out.Resume(); err != nil {
			return fmt.Errorf("%w: resume: %w", ErrActivationBlocked, err)
		}
	}
	return nil
}

// Sync brings the output in line with s. Before activation it only records
// s. A track change loads the new source and, if s is playing, starts it
// right away.
func (b *Binding) Sync(s transport.State) error {
	if b.out == nil {
		b.applied = s
		return nil
	}

	if s.Index != b.applied.Index || (s.Playing && (b.phase == Idle || b.finished())) {
		if err := b.load(s.Index); err != nil {
			b.applied = s
			b.applied.Playing = false
			return err
		}
	}

	if s.Muted != b.muted {
		b.out.SetMuted(s.Muted)
		b.muted = s.Muted
	}

	switch {
	case s.Playing && b.phase == Paused:
		if err := b.out.Play(); err != nil {
			b.applied = s
			b.applied.Playing = false
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		b.phase = Playing
		b.log.Debug().Int("track", s.Index).Msg("playing")
	case !s.Playing && b.phase == Playing:
		b.out.Pause()
		b.phase = Paused
		b.log.Debug().Int("track", s.Index).Msg("paused")
	}

	b.applied = s
	return nil
}

func (b *Binding) load(index int) error {
	b.stop()
	// A failed load must not leave the previous source audible.
	if b.phase == Playing {
		b.out.Pause()
	}
	b.phase = Idle

	track := b.list.Get(index)
	dur, err := b.out.Load(track.Source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, track.Source, err)
	}

	// Loading replaces the output's stream, so a playing output is now paused
	// until Sync restarts it.
	b.phase = Paused
	b.dur = dur
	b.startPump()

	b.log.Info().Int("track", index).Str("title", track.Title).Dur("duration", dur).Msg("source loaded")
	return nil
}

// startPump begins a new generation of events for the loaded source.
func (b *Binding) startPump() {
	b.gen++
	b.stopPump = make(chan struct{})
	go b.pump(b.gen, b.dur, b.out.Done(), b.stopPump)
}

// finished reports whether the loaded source played to its end. A one-track
// playlist wraps onto the same index, which still needs a reload.
func (b *Binding) finished() bool {
	if b.phase == Idle {
		return false
	}
	select {
	case <-b.out.Done():
		return true
	default:
		return false
	}
}

// Seek moves the loaded source. Without a loaded source it does nothing.
// Seeking a source that already ended reopens it under a new generation, so
// a TrackEnded still waiting in Events is stale.
func (b *Binding) Seek(t time.Duration) error {
	if b.out == nil || b.phase == Idle {
		return nil
	}
	ended := b.finished()
	if err := b.out.SeekTo(t); err != nil {
		return err
	}
	if ended {
		b.stop()
		b.startPump()
		b.log.Debug().Dur("position", t).Msg("ended source reopened by seek")
	}
	return nil
}

// Close stops event delivery for the loaded source.
func (b *Binding) Close() {
	b.stop()
}

func (b *Binding) stop() {
	if b.stopPump != nil {
		close(b.stopPump)
		b.stopPump = nil
	}
}

// pump reports the duration once, then positions until the source ends or
// is replaced.
func (b *Binding) pump(gen uint64, dur time.Duration, done <-chan struct{}, stop chan struct{}) {
	send := func(ev Event) bool {
		ev.Gen = gen
		select {
		case b.events <- ev:
			return true
		case <-stop:
			return false
		}
	}

	if !send(Event{Kind: DurationKnown, Duration: dur}) {
		return
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-done:
			send(Event{Kind: TrackEnded})
			return
		case <-ticker.C:
			if !send(Event{Kind: TimeUpdate, Position: b.out.Position()}) {
				return
			}
		}
	}
}
