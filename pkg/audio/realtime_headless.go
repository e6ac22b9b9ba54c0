//go:build headless

package audio

import "github.com/pkg/errors"

// MaxChannels is the widest output layout accepted
const MaxChannels = 8

// RealtimeOutput is a no-device stand-in for headless builds. Frames are
// never pulled; use RenderWAV to hear the engine.
type RealtimeOutput struct {
	reader *frameReader

	SampleRate int
	Channels   int
}

func NewRealtimeOutput(src FrameSource, sampleRate, channels int) (*RealtimeOutput, error) {
	if sampleRate <= 0 {
		return nil, errors.Errorf("unsupported sample rate %d", sampleRate)
	}
	if channels < 1 || channels > MaxChannels {
		return nil, errors.Errorf("unsupported channel count %d", channels)
	}
	return &RealtimeOutput{
		reader:     newFrameReader(src, channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

func (rt *RealtimeOutput) Close() error {
	rt.reader.running.Store(false)
	return nil
}
