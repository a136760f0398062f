package player

import (
	"encoding/binary"
	"io"
	"sync"
)

// Tap passes s16le PCM through unchanged while copying a mono mix of every
// frame into a ring buffer for spectrum analysis.
type Tap struct {
	mu       sync.Mutex
	src      io.Reader
	channels int
	buf      []float64
	w        int // write position
	len      int // current fill level
	carry    []byte
}

// NewTap creates a tap holding the last size mono samples.
func NewTap(size int) *Tap {
	return &Tap{
		buf:      make([]float64, size),
		channels: 2,
	}
}

// attach swaps the upstream reader. Buffered history is kept so the
// visualization does not drop to zero between tracks.
func (t *Tap) attach(src io.Reader, channels int) {
	t.mu.Lock()
	t.src = src
	if channels > 0 {
		t.channels = channels
	}
	t.carry = t.carry[:0]
	t.mu.Unlock()
}

func (t *Tap) Read(p []byte) (int, error) {
	t.mu.Lock()
	src := t.src
	t.mu.Unlock()
	if src == nil {
		return 0, io.EOF
	}

	n, err := src.Read(p)
	if n > 0 {
		t.write(p[:n])
	}
	return n, err
}

func (t *Tap) write(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frameSize := t.channels * 2
	data := p
	if len(t.carry) > 0 {
		data = append(t.carry, p...)
	}
	whole := len(data) - len(data)%frameSize
	for off := 0; off < whole; off += frameSize {
		var sum float64
		for ch := range t.channels {
			sum += float64(int16(binary.LittleEndian.Uint16(data[off+ch*2:])))
		}
		t.buf[t.w] = sum / float64(t.channels) / 32768.0
		t.w = (t.w + 1) % len(t.buf)
	}
	t.len += whole / frameSize
	if t.len > len(t.buf) {
		t.len = len(t.buf)
	}
	t.carry = append(t.carry[:0], data[whole:]...)
}

// Samples returns up to n most recent mono samples in chronological order.
func (t *Tap) Samples(n int) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n > t.len {
		n = t.len
	}
	if n == 0 {
		return nil
	}

	out := make([]float64, n)
	size := len(t.buf)
	start := (t.w - n + size) % size
	for i := range n {
		out[i] = t.buf[(start+i)%size]
	}
	return out
}

// Clear drops buffered history.
func (t *Tap) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.w = 0
	t.len = 0
	t.carry = t.carry[:0]
}
