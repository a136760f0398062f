// Package render draws the bar spectrum and background gradient of the
// player bar, one frame at a time.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nie11kun/Love-Timeline/internal/spectrum"
)

const (
	DefaultSmoothing = 0.9
	DefaultDensity   = 2.5
	DefaultFPS       = 30
)

// Sampler provides spectrum snapshots.
type Sampler interface {
	Sample() (spectrum.Snapshot, error)
	Bins() int
}

// Theme controls colors.
type Theme struct {
	Top        color.RGBA
	Bottom     color.RGBA
	Saturation float64
	Lightness  float64
}

// DefaultTheme is a dark rose gradient with fully saturated bars.
var DefaultTheme = Theme{
	Top:        color.RGBA{R: 0x2b, G: 0x10, B: 0x2a, A: 0xff},
	Bottom:     color.RGBA{R: 0x0d, G: 0x06, B: 0x1a, A: 0xff},
	Saturation: 1.0,
	Lightness:  0.5,
}

// Options configures a Loop.
type Options struct {
	Smoothing float64 // weight of the previous frame, in [0, 1)
	Density   float64 // bar width multiplier
	Theme     Theme
}

// DefaultOptions returns the reference settings.
func DefaultOptions() Options {
	return Options{
		Smoothing: DefaultSmoothing,
		Density:   DefaultDensity,
		Theme:     DefaultTheme,
	}
}

// Loop owns the smoothed spectrum buffer and paints frames onto a Surface.
// A Loop is not safe for concurrent use.
type Loop struct {
	sampler  Sampler
	surface  Surface
	opts     Options
	smoothed []float64
	frames   uint64
}

// NewLoop creates a Loop whose buffer length equals sampler.Bins().
func NewLoop(sampler Sampler, surface Surface, opts Options) *Loop {
	l := &Loop{
		sampler:  sampler,
		surface:  surface,
		smoothed: make([]float64, sampler.Bins()),
	}
	l.SetOptions(opts)
	return l
}

// SetOptions replaces the visual options. The buffer is kept.
func (l *Loop) SetOptions(opts Options) {
	if opts.Smoothing < 0 || opts.Smoothing >= 1 {
		opts.Smoothing = DefaultSmoothing
	}
	if opts.Density <= 0 {
		opts.Density = DefaultDensity
	}
	l.opts = opts
}

// Options returns the current options.
func (l *Loop) Options() Options { return l.opts }

// Surface returns the drawing surface.
func (l *Loop) Surface() Surface { return l.surface }

// Frames returns the number of frames painted.
func (l *Loop) Frames() uint64 { return l.frames }

// Smoothed returns a copy of the smoothed spectrum.
func (l *Loop) Smoothed() []float64 {
	return append([]float64(nil), l.smoothed...)
}

// Frame samples, smooths and paints one frame. When no snapshot is
// available the previous buffer is drawn again.
func (l *Loop) Frame() {
	if snap, err := l.sampler.Sample(); err == nil {
		l.blend(snap)
	}
	l.paint()
	l.frames++
}

func (l *Loop) blend(snap spectrum.Snapshot) {
	a := l.opts.Smoothing
	for i := range l.smoothed {
		var x float64
		if i < len(snap) {
			x = snap[i]
		}
		v := l.smoothed[i]*a + x*(1-a)
		l.smoothed[i] = max(0, min(1, v))
	}
}

func (l *Loop) paint() {
	w, h := l.surface.Size()
	l.surface.Clear()
	l.surface.FillGradient(image.Rect(0, 0, w, h), l.opts.Theme.Top, l.opts.Theme.Bottom)

	bins := len(l.smoothed)
	if bins == 0 {
		return
	}
	barWidth := math.Max(1, float64(w)/float64(bins)*l.opts.Density)
	x := 0.0
	for i, v := range l.smoothed {
		if int(x) >= w {
			break
		}
		barHeight := math.Round(v * float64(h))
		if barHeight >= 1 {
			x0 := int(x)
			x1 := max(int(x+barWidth), x0+1)
			r := image.Rect(x0, h-int(barHeight), x1, h)
			l.surface.FillRoundedRect(r, barWidth/2, barColor(i, bins, l.opts.Theme))
		}
		x += barWidth + 1
	}
}

// barColor cycles the hue across the bins.
func barColor(i, bins int, theme Theme) color.RGBA {
	hue := float64(i) / float64(bins) * 360
	r, g, b := colorful.Hsl(hue, theme.Saturation, theme.Lightness).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Run paints frames at fps until ctx is cancelled, calling present after
// each one. No frame is painted after Run returns.
func (l *Loop) Run(ctx context.Context, fps int, present func()) error {
	if fps <= 0 {
		return fmt.Errorf("render: invalid frame rate %d", fps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		// A tick and a cancellation can be ready together; cancellation wins.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Frame()
		if present != nil {
			present()
		}
	}
}
