// Package transport owns the player's playback state. Every mutation goes
// through Controller; it is meant to be driven from a single goroutine (the
// Bubbletea Update loop), so it does no locking of its own.
package transport

import (
	"time"

	"github.com/nie11kun/Love-Timeline/internal/playlist"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// State is a snapshot of playback state.
type State struct {
	Index    int
	Playing  bool
	Muted    bool
	Position time.Duration
	Duration time.Duration // zero until the source reports it
}

// Binding applies State to the audio engine.
type Binding interface {
	// Activate creates the audio graph on first use, or resumes it when the
	// host suspended it. Must be called from a user-initiated action.
	Activate() error
	// Sync brings the engine in line with s.
	Sync(s State) error
	// Seek moves the loaded source to t.
	Seek(t time.Duration) error
}

// Controller implements play/pause, track navigation, seeking and muting.
type Controller struct {
	list    *playlist.Playlist
	binding Binding
	log     zerolog.Logger
	state   State
}

// New creates a Controller positioned on the first track, paused.
func New(list *playlist.Playlist, binding Binding, log zerolog.Logger) *Controller {
	return &Controller{
		list:    list,
		binding: binding,
		log:     log,
	}
}

// State returns the current playback state.
func (c *Controller) State() State { return c.state }

// Track returns the current track.
func (c *Controller) Track() playlist.Track { return c.list.Get(c.state.Index) }

// Playlist returns the playlist the controller navigates.
func (c *Controller) Playlist() *playlist.Playlist { return c.list }

// TogglePlay flips between playing and paused. On the play edge the audio
// graph is activated first. If activation or start fails the controller
// stays paused and the error is returned.
func (c *Controller) TogglePlay() error {
	next := c.state
	next.Playing = !c.state.Playing
	if next.Playing {
		if err := c.binding.Activate(); err != nil {
			c.log.Warn().Err(err).Msg("audio activation refused")
			return err
		}
	}
	return c.apply(next)
}

// NextTrack advances to the following track, wrapping after the last one.
func (c *Controller) NextTrack() error {
	return c.changeTrack(c.list.Next(c.state.Index))
}

// PreviousTrack moves to the preceding track, wrapping before the first.
func (c *Controller) PreviousTrack() error {
	return c.changeTrack(c.list.Previous(c.state.Index))
}

// JumpTo switches to track i, wrapped into range. Choosing the current
// track seeks it back to the start.
func (c *Controller) JumpTo(i int) error {
	i = c.list.Wrap(i)
	if i == c.state.Index {
		return c.Seek(0)
	}
	return c.changeTrack(i)
}

func (c *Controller) changeTrack(index int) error {
	next := c.state
	next.Index = index
	next.Position = 0
	next.Duration = 0
	return c.apply(next)
}

// Seek moves to t, clamped to [0, Duration]. It does nothing while the
// duration is unknown.
func (c *Controller) Seek(t time.Duration) error {
	if c.state.Duration <= 0 {
		return nil
	}
	t = lo.Clamp(t, 0, c.state.Duration)
	c.state.Position = t
	if err := c.binding.Seek(t); err != nil {
		c.log.Error().Err(err).Dur("target", t).Msg("seek failed")
		return err
	}
	return nil
}

// SeekFraction seeks to f of the duration, f in [0, 1].
func (c *Controller) SeekFraction(f float64) error {
	f = lo.Clamp(f, 0, 1)
	return c.Seek(time.Duration(f * float64(c.state.Duration)))
}

// SeekBy seeks relative to the current position.
func (c *Controller) SeekBy(d time.Duration) error {
	return c.Seek(c.state.Position + d)
}

// ToggleMute flips the silent-output flag. Play state and position are
// untouched.
func (c *Controller) ToggleMute() error {
	next := c.state
	next.Muted = !c.state.Muted
	return c.apply(next)
}

// OnTimeUpdate records the position reported by the engine.
func (c *Controller) OnTimeUpdate(t time.Duration) {
	t = max(t, 0)
	if c.state.Duration > 0 {
		t = min(t, c.state.Duration)
	}
	c.state.Position = t
}

// OnDurationKnown records the loaded source's duration.
func (c *Controller) OnDurationKnown(d time.Duration) {
	c.state.Duration = max(d, 0)
	if c.state.Duration > 0 {
		c.state.Position = min(c.state.Position, c.state.Duration)
	}
}

// OnTrackEnded advances to the next track; the playlist is cyclic, so
// playback never stops on its own.
func (c *Controller) OnTrackEnded() error {
	c.log.Debug().Int("track", c.state.Index).Msg("track ended")
	return c.NextTrack()
}

func (c *Controller) apply(next State) error {
	c.state = next
	if err := c.binding.Sync(next); err != nil {
		c.state.Playing = false
		c.log.Error().Err(err).
			Int("track", next.Index).
			Str("source", c.list.Get(next.Index).Source).
			Msg("playback failed")
		return err
	}
	return nil
}
