package spectrum

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

type fixedSource []float64

func (s fixedSource) Samples(n int) []float64 {
	if n > len(s) {
		n = len(s)
	}
	return s[len(s)-n:]
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	for _, size := range []int{0, 1, 100, 255} {
		if _, err := New(size); err == nil {
			t.Fatalf("expected error for size %d", size)
		}
	}
	a, err := New(DefaultFFTSize)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Bins() != 128 {
		t.Fatalf("expected 128 bins, got %d", a.Bins())
	}
}

func TestSampleWithoutSourceIsUnavailable(t *testing.T) {
	a, _ := New(64)
	if _, err := a.Sample(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSilenceIsFlat(t *testing.T) {
	a, _ := New(64)
	a.Attach(fixedSource(make([]float64, 64)))
	snap, err := a.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(snap) != 32 {
		t.Fatalf("expected 32 bins, got %d", len(snap))
	}
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("bin %d = %v, want 0", i, v)
		}
	}
}

func TestSinePeaksAtItsBin(t *testing.T) {
	const size = 256
	const bin = 16
	samples := make([]float64, size)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * bin * float64(i) / size)
	}
	a, _ := New(size)
	a.Attach(fixedSource(samples))

	snap, err := a.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if snap[bin] != 1 {
		t.Fatalf("expected full-scale peak at bin %d, got %v", bin, snap[bin])
	}
	if snap[bin+40] >= 0.5 {
		t.Fatalf("expected distant bin to be quiet, got %v", snap[bin+40])
	}
}

func TestSnapshotStaysNormalized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := make([]float64, 300)
	for i := range samples {
		samples[i] = rng.Float64()*2 - 1
	}
	a, _ := New(128)
	a.Attach(fixedSource(samples))
	snap, _ := a.Sample()
	for i, v := range snap {
		if v < 0 || v > 1 {
			t.Fatalf("bin %d = %v outside [0,1]", i, v)
		}
	}
}

func TestShortHistoryIsZeroPadded(t *testing.T) {
	a, _ := New(64)
	a.Attach(fixedSource([]float64{0.5, -0.5, 0.5}))
	snap, err := a.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(snap) != a.Bins() {
		t.Fatalf("expected %d bins, got %d", a.Bins(), len(snap))
	}
}
