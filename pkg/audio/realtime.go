//go:build !headless

package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// MaxChannels is the widest output layout accepted
const MaxChannels = 8

// RealtimeOutput plays a FrameSource on the default audio device
type RealtimeOutput struct {
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	reader    *frameReader

	SampleRate int
	Channels   int

	mu     sync.Mutex // setup and teardown only
	closed bool
}

// NewRealtimeOutput opens the device and starts pulling frames from src.
// Tick on src is called from the device's callback goroutine from here on.
func NewRealtimeOutput(src FrameSource, sampleRate, channels int) (*RealtimeOutput, error) {
	if sampleRate <= 0 {
		return nil, errors.Errorf("unsupported sample rate %d", sampleRate)
	}
	if channels < 1 || channels > MaxChannels {
		return nil, errors.Errorf("unsupported channel count %d", channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "open audio device")
	}
	<-ready

	rt := &RealtimeOutput{
		otoCtx:     otoCtx,
		reader:     newFrameReader(src, channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}

	rt.otoPlayer = otoCtx.NewPlayer(rt.reader)
	rt.otoPlayer.SetBufferSize(sampleRate / 50 * channels * bytesPerSample) // 20ms
	rt.otoPlayer.Play()

	return rt, nil
}

// Close silences and releases the player
func (rt *RealtimeOutput) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return nil
	}
	rt.closed = true
	rt.reader.running.Store(false)
	if rt.otoPlayer != nil {
		return rt.otoPlayer.Close()
	}
	return nil
}
