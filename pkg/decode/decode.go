// Package decode loads sample files into mono float buffers
package decode

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/oisee/slicegrid/pkg/debug"
)

var (
	ErrUnsupported = errors.New("unsupported file format")
	ErrEmpty       = errors.New("no audio data")
)

// Buffer is a decoded sample. Samples holds one value per frame, all source
// channels summed.
type Buffer struct {
	Samples    []float32
	Frames     int
	SampleRate int
	Channels   int // in the source file
}

// Duration returns the length in seconds
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames) / float64(b.SampleRate)
}

// File decodes a .wav or .mp3 file. A leading ~ is expanded.
func File(path string) (*Buffer, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expand %s", path)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "open sample")
	}
	defer f.Close()

	var buf *Buffer
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".wav":
		buf, err = WAV(f)
	case ".mp3":
		buf, err = MP3(f)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%s", p)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", p)
	}

	debug.Log("decode", "%s: %d frames, %d Hz, %d ch", p, buf.Frames, buf.SampleRate, buf.Channels)
	return buf, nil
}

// WAV decodes integer PCM from r
func WAV(r io.ReadSeeker) (*Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "read PCM")
	}

	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return nil, errors.New("unknown bit depth")
	}
	channels := pcm.Format.NumChannels
	if channels < 1 {
		return nil, errors.New("no channels")
	}

	frames := len(pcm.Data) / channels
	if frames == 0 {
		return nil, ErrEmpty
	}

	factor := math.Pow(2, float64(bitDepth-1))
	out := &Buffer{
		Samples:    make([]float32, frames),
		Frames:     frames,
		SampleRate: pcm.Format.SampleRate,
		Channels:   channels,
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c]) / factor
		}
		out.Samples[i] = float32(sum)
	}
	return out, nil
}

// MP3 decodes r. go-mp3 always yields 16-bit little-endian stereo.
func MP3(r io.Reader) (*Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrap(err, "open mp3")
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, errors.Wrap(err, "read mp3")
	}

	const channels = 2
	frames := len(data) / (2 * channels)
	if frames == 0 {
		return nil, ErrEmpty
	}

	out := &Buffer{
		Samples:    make([]float32, frames),
		Frames:     frames,
		SampleRate: decoder.SampleRate(),
		Channels:   channels,
	}
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			sum += float32(int16(binary.LittleEndian.Uint16(data[off:]))) / 32768
		}
		out.Samples[i] = sum
	}
	return out, nil
}
