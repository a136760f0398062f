package ui

import "github.com/charmbracelet/harmonica"

// knob eases the progress marker toward the playback ratio so seeks and
// track changes glide instead of jumping.
type knob struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newKnob(fps int) knob {
	return knob{spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 8, 1)}
}

func (k *knob) step(target float64) float64 {
	k.pos, k.vel = k.spring.Update(k.pos, k.vel, target)
	k.pos = max(0, min(1, k.pos))
	return k.pos
}
