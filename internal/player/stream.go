package player

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Stream decodes a source through a Tap without an output device. It backs
// headless rendering, where the caller advances audio time by hand.
type Stream struct {
	file    *os.File
	dec     audioDecoder
	counter *countingReader
	tap     *Tap
	length  int64
	scratch []byte
}

// OpenStream opens source and wires it into tap.
func OpenStream(source string, tap *Tap) (*Stream, error) {
	f, dec, src, length, err := openSource(source)
	if err != nil {
		return nil, err
	}
	s := &Stream{
		file:    f,
		dec:     dec,
		counter: &countingReader{reader: src},
		tap:     tap,
		length:  length,
	}
	tap.attach(s.counter, channelCount)
	return s, nil
}

// Duration returns the decoded length.
func (s *Stream) Duration() time.Duration { return bytesToDuration(s.length) }

// Position returns how much audio has passed through the tap.
func (s *Stream) Position() time.Duration { return bytesToDuration(s.counter.Pos()) }

// SeekTo moves the decoder, clamped to the source.
func (s *Stream) SeekTo(target time.Duration) error {
	pos := clampSeekByteOffset(target, s.length)
	decPos := pos
	if s.dec.ChannelCount() == 1 {
		decPos /= 2
	}
	if _, err := s.dec.Seek(decPos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	s.counter.SetPos(pos)
	return nil
}

// Advance pushes d worth of audio through the tap. It returns io.EOF once
// the source is exhausted.
func (s *Stream) Advance(d time.Duration) error {
	n := int64(d.Seconds() * float64(bytesPerSec))
	n -= n % frameBytes
	if n <= 0 {
		return nil
	}
	if int64(cap(s.scratch)) < n {
		s.scratch = make([]byte, n)
	}
	_, err := io.ReadFull(s.tap, s.scratch[:n])
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return err
}

// Close releases the source file.
func (s *Stream) Close() error {
	return s.file.Close()
}
