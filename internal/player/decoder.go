package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupported is returned for sources no decoder can handle.
var ErrUnsupported = errors.New("unsupported audio format")

// audioDecoder yields interleaved s16le PCM.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, fmt.Errorf("decoding MP3: %w", err)
		}
		return &mp3Decoder{dec: dec}, nil
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

type mp3Decoder struct {
	dec *mp3.Decoder
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// pcmState holds the bookkeeping shared by decoders that convert frames
// into s16le themselves: leftover bytes from the last frame and the output
// byte position.
type pcmState struct {
	buf        []byte
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
}

func (s *pcmState) drain(p []byte) (int, bool) {
	if len(s.buf) == 0 {
		return 0, false
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	s.pos += int64(n)
	return n, true
}

func (s *pcmState) emit(p, raw []byte) int {
	written := copy(p, raw)
	if written < len(raw) {
		s.buf = raw[written:]
	}
	s.pos += int64(written)
	return written
}

// target resolves a Seek request to a clamped output byte position and the
// sample frame it starts at.
func (s *pcmState) target(offset int64, whence int) (int64, int64) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = s.totalBytes + offset
	}
	newPos = max(0, min(newPos, s.totalBytes))
	return newPos, newPos / (int64(s.channels) * 2)
}

func (s *pcmState) Length() int64     { return s.totalBytes }
func (s *pcmState) SampleRate() int   { return s.sampleRate }
func (s *pcmState) ChannelCount() int { return s.channels }

func clamp16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

type wavDecoder struct {
	pcmState
	file         *os.File
	pcmStart     int64
	srcBitDepth  int
	srcFrameSize int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels == 0 || bitDepth%8 != 0 || bitDepth == 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: WAV with %d channels at %d bits", ErrUnsupported, channels, bitDepth)
	}
	srcFrameSize := int64(channels) * int64(bitDepth) / 8

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	return &wavDecoder{
		pcmState: pcmState{
			totalBytes: dec.PCMLen() / srcFrameSize * int64(channels) * 2,
			sampleRate: int(dec.SampleRate),
			channels:   channels,
		},
		file:         f,
		pcmStart:     pcmStart,
		srcBitDepth:  bitDepth,
		srcFrameSize: srcFrameSize,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	width := d.srcBitDepth / 8
	samples := max(len(p)/2, 1)
	src := make([]byte, samples*width)
	n, err := io.ReadFull(d.file, src)
	got := n / width
	if got == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, got*2)
	for i := range got {
		off := i * width
		var sample int
		switch d.srcBitDepth {
		case 8:
			sample = (int(src[off]) - 128) << 8
		case 16:
			sample = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			sample = int(s >> 8)
		case 32:
			sample = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(sample)))
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos, frame := d.target(offset, whence)
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrameSize, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.buf = nil
	d.pos = newPos
	return newPos, nil
}

type flacDecoder struct {
	pcmState
	stream *flac.Stream
	bps    int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmState: pcmState{
			totalBytes: int64(info.NSamples) * int64(channels) * 2,
			sampleRate: int(info.SampleRate),
			channels:   channels,
		},
		stream: stream,
		bps:    int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := range nSamples {
		for ch := range d.channels {
			sample := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				sample >>= d.bps - 16
			case d.bps < 16:
				sample <<= 16 - d.bps
			}
			off := (i*d.channels + ch) * 2
			binary.LittleEndian.PutUint16(raw[off:], uint16(clamp16(sample)))
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos, frame := d.target(offset, whence)
	if _, err := d.stream.Seek(uint64(frame)); err != nil {
		return d.pos, err
	}
	d.buf = nil
	d.pos = newPos
	return newPos, nil
}

type oggDecoder struct {
	pcmState
	reader *oggvorbis.Reader
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		pcmState: pcmState{
			totalBytes: reader.Length() * int64(channels) * 2,
			sampleRate: reader.SampleRate(),
			channels:   channels,
		},
		reader: reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	samples := make([]float32, max(len(p)/2, d.channels))
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(int(s*32767))))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos, frame := d.target(offset, whence)
	d.reader.SetPosition(frame)
	d.buf = nil
	d.pos = newPos
	return newPos, nil
}
