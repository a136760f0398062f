package engine

import "time"

// EventKind identifies what an Event reports.
type EventKind int

const (
	TimeUpdate EventKind = iota
	DurationKnown
	TrackEnded
)

// Event is a playback notification from the output.
type Event struct {
	Kind     EventKind
	Gen      uint64
	Position time.Duration
	Duration time.Duration
}
