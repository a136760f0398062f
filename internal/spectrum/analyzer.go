// Package spectrum turns the most recent audio samples into a normalized
// frequency-magnitude snapshot.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	// DefaultFFTSize gives 128 bins.
	DefaultFFTSize = 256

	minDecibels = -100.0
	maxDecibels = -30.0
)

// ErrUnavailable is returned by Sample before a source is attached.
var ErrUnavailable = errors.New("spectrum analysis unavailable")

// Source provides recent mono samples in [-1, 1], oldest first.
type Source interface {
	Samples(n int) []float64
}

// Snapshot holds one magnitude per frequency bin, each in [0, 1].
type Snapshot []float64

// Analyzer reads a Source on demand. Its bin count is fixed at construction.
// Sample reuses an internal buffer and must not be called concurrently.
type Analyzer struct {
	size int
	win  []float64
	buf  []float64

	mu  sync.Mutex
	src Source
}

// New creates an Analyzer with a power-of-two fftSize.
func New(fftSize int) (*Analyzer, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size %d is not a power of two", fftSize)
	}
	return &Analyzer{
		size: fftSize,
		win:  window.Hann(fftSize),
		buf:  make([]float64, fftSize),
	}, nil
}

// Attach wires the analyzer to src. Later calls replace the source.
func (a *Analyzer) Attach(src Source) {
	a.mu.Lock()
	a.src = src
	a.mu.Unlock()
}

// Bins returns the number of frequency bins per snapshot.
func (a *Analyzer) Bins() int { return a.size / 2 }

// Sample returns the current spectrum. Missing history is zero-padded at
// the front so a freshly started source ramps up instead of failing.
func (a *Analyzer) Sample() (Snapshot, error) {
	a.mu.Lock()
	src := a.src
	a.mu.Unlock()
	if src == nil {
		return nil, ErrUnavailable
	}

	samples := src.Samples(a.size)
	clear(a.buf)
	copy(a.buf[a.size-len(samples):], samples)
	for i := range a.buf {
		a.buf[i] *= a.win[i]
	}

	spec := fft.FFTReal(a.buf)
	out := make(Snapshot, a.Bins())
	for i := range out {
		mag := cmplx.Abs(spec[i]) / float64(a.size)
		out[i] = normalize(mag)
	}
	return out, nil
}

// normalize maps a linear magnitude onto [0, 1] across the decibel window.
func normalize(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := (db - minDecibels) / (maxDecibels - minDecibels)
	return max(0, min(1, v))
}
