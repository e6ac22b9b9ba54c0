// Package audio implements the slice playback engine and its output stages
package audio

import (
	"math"

	"github.com/pkg/errors"

	"github.com/oisee/slicegrid/pkg/sequence"
)

const (
	DefaultSlices   = 16
	DefaultDrainCap = 4
)

// Receiver is the consumer side of the step protocol
type Receiver interface {
	TryReceive() (sequence.Command, bool)
}

// FrameSource produces one mono sample per call
type FrameSource interface {
	Tick() float32
}

// Option configures a Sampler
type Option func(*Sampler)

// WithSlices sets the number of equal slices the buffer is cut into
func WithSlices(n int) Option {
	return func(s *Sampler) { s.slices = n }
}

// WithDrainCap sets how many commands one Tick may consume
func WithDrainCap(n int) Option {
	return func(s *Sampler) { s.drainCap = n }
}

// WithDistortion enables the distortion stage with the given params
func WithDistortion(p Params) Option {
	return func(s *Sampler) {
		s.params = p
		s.distort = true
	}
}

// WithSampleRate sets the output sample rate
func WithSampleRate(hz int) Option {
	return func(s *Sampler) { s.sampleRate = hz }
}

// Sampler plays one slice of a shared buffer at a time.
//
// Everything below is owned by the audio callback. The only way in from the
// control loop is the Receiver; Tick never blocks and never allocates.
type Sampler struct {
	samples  []float32
	length   int
	slices   int
	sliceLen int
	drainCap int

	sampleRate int
	params     Params
	distort    bool
	fx         *Distortion

	// playback state
	playing   bool
	pos       float64
	slice     int
	speed     float64
	direction sequence.Direction

	rx Receiver
}

// NewSampler creates a sampler over samples. The buffer is shared and must
// not be modified afterwards. Slices are floor(len/slices) long; any
// remainder at the end of the buffer is never the start of a slice.
func NewSampler(samples []float32, rx Receiver, opts ...Option) (*Sampler, error) {
	s := &Sampler{
		samples:    samples,
		length:     len(samples),
		slices:     DefaultSlices,
		drainCap:   DefaultDrainCap,
		sampleRate: DefaultSampleRate,
		speed:      1,
		rx:         rx,
		fx:         NewDistortion(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if rx == nil {
		return nil, errors.New("sampler: nil receiver")
	}
	if s.slices < 1 {
		return nil, errors.Errorf("sampler: slice count must be positive, got %d", s.slices)
	}
	if s.drainCap < 1 {
		return nil, errors.Errorf("sampler: drain cap must be positive, got %d", s.drainCap)
	}
	if s.length < s.slices {
		return nil, errors.Errorf("sampler: %d samples cannot be cut into %d slices", s.length, s.slices)
	}

	s.sliceLen = s.length / s.slices
	s.fx.SetSampleRate(s.sampleRate)
	return s, nil
}

// SampleRate returns the configured output rate
func (s *Sampler) SampleRate() int { return s.sampleRate }

// SliceLen returns the length of one slice in samples
func (s *Sampler) SliceLen() int { return s.sliceLen }

// Slices returns the slice count
func (s *Sampler) Slices() int { return s.slices }

// SliceBounds returns the [start, end) sample range of slice k
func (s *Sampler) SliceBounds(k int) (start, end int) {
	start = s.sliceLen * k
	return start, start + s.sliceLen
}

// Playing reports whether a slice is sounding. Audio callback only.
func (s *Sampler) Playing() bool { return s.playing }

// Position returns the playhead. Audio callback only.
func (s *Sampler) Position() float64 { return s.pos }

// Tick computes the next output sample
func (s *Sampler) Tick() float32 {
	s.drain()

	if !s.playing {
		return 0
	}

	s.advance()
	sample := s.interpolate()
	s.checkSliceEnd()

	if s.distort {
		sample = s.fx.Tick(sample, s.params)
	}
	return sample
}

// drain applies at most drainCap queued commands; the rest wait for the next call
func (s *Sampler) drain() {
	for i := 0; i < s.drainCap; i++ {
		cmd, ok := s.rx.TryReceive()
		if !ok {
			return
		}
		s.apply(cmd)
	}
}

func (s *Sampler) apply(cmd sequence.Command) {
	switch cmd.Kind {
	case sequence.CmdStop:
		s.playing = false

	case sequence.CmdTrigger:
		t := cmd.Trigger
		// The editor clamps pitch; anything still invalid is dropped here
		if !(t.Pitch > 0) || math.IsInf(float64(t.Pitch), 0) {
			return
		}
		slice := t.Slice
		if slice >= s.slices {
			slice = s.slices - 1
		}
		if slice < 0 {
			slice = 0
		}

		s.slice = slice
		s.speed = float64(t.Pitch)
		s.direction = t.Direction
		start, _ := s.SliceBounds(slice)
		if t.Direction == sequence.Backward {
			s.pos = float64(start + s.sliceLen - 1)
		} else {
			s.pos = float64(start)
		}
		s.playing = true
	}
}

// advance moves the playhead and wraps it over the whole buffer
func (s *Sampler) advance() {
	if s.direction == sequence.Backward {
		s.pos -= s.speed
	} else {
		s.pos += s.speed
	}
	s.pos = wrapPosition(s.pos, s.length)
}

func wrapPosition(pos float64, length int) float64 {
	if pos >= float64(length) {
		return 0
	}
	if pos < 0 {
		return float64(length - 1)
	}
	return pos
}

func wrapIndex(i, length int) int {
	if i >= length {
		return 0
	}
	if i < 0 {
		return length - 1
	}
	return i
}

// interpolate reads between the floor index and its neighbour in the
// direction of travel, then soft-saturates
func (s *Sampler) interpolate() float32 {
	floor := math.Floor(s.pos)
	fst := wrapIndex(int(floor), s.length)
	snd := fst + 1
	if s.direction == sequence.Backward {
		snd = fst - 1
	}
	snd = wrapIndex(snd, s.length)
	frac := float32(s.pos - floor)
	return float32(math.Tanh(float64(lerp(s.samples[fst], s.samples[snd], frac))))
}

func lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// checkSliceEnd stops playback once the playhead leaves the active slice.
// Forward keeps [start, end); backward keeps (start, end].
func (s *Sampler) checkSliceEnd() {
	start, end := s.SliceBounds(s.slice)
	pos := int(s.pos)
	if s.direction == sequence.Backward {
		s.playing = pos <= end && pos > start
	} else {
		s.playing = pos >= start && pos < end
	}
}
