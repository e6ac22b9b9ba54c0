package audio

import (
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// StepClock is advanced once per scheduler interval while rendering offline
type StepClock interface {
	Step() int
}

// RenderOptions controls RenderWAV
type RenderOptions struct {
	SampleRate int
	Seconds    float64
	Interval   time.Duration // time between StepClock steps
}

const renderChunk = 4096

// RenderWAV runs the engine faster than real time and writes a 16-bit mono WAV.
// The clock is stepped on frame boundaries closest to each interval, starting
// at frame 0, so the result matches what the live scheduler would trigger.
func RenderWAV(w io.WriteSeeker, src FrameSource, clock StepClock, opts RenderOptions) error {
	if opts.SampleRate <= 0 {
		return errors.Errorf("render: invalid sample rate %d", opts.SampleRate)
	}
	if opts.Interval <= 0 {
		return errors.Errorf("render: invalid step interval %s", opts.Interval)
	}
	totalFrames := int(opts.Seconds * float64(opts.SampleRate))
	if totalFrames <= 0 {
		return errors.Errorf("render: nothing to render for %.3fs", opts.Seconds)
	}

	enc := wav.NewEncoder(w, opts.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: opts.SampleRate},
		Data:           make([]int, renderChunk),
		SourceBitDepth: 16,
	}

	framesPerStep := opts.Interval.Seconds() * float64(opts.SampleRate)
	nextStep := 0.0

	for written := 0; written < totalFrames; {
		n := renderChunk
		if remaining := totalFrames - written; remaining < n {
			n = remaining
		}
		buf.Data = buf.Data[:n]

		for i := 0; i < n; i++ {
			frame := float64(written + i)
			if frame >= nextStep {
				clock.Step()
				nextStep += framesPerStep
			}
			buf.Data[i] = toPCM16(src.Tick())
		}

		if err := enc.Write(buf); err != nil {
			return errors.Wrap(err, "render: write samples")
		}
		written += n
	}

	return errors.Wrap(enc.Close(), "render: finish wav")
}

func toPCM16(sample float32) int {
	return int(clamp32(sample, -1, 1) * 32767)
}
