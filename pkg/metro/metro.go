// Package metro runs the control loop: a fixed-interval tick interleaved with event polling
package metro

import (
	"context"
	"runtime"
	"time"
)

// DefaultLinesPerBeat is the number of steps per beat
const DefaultLinesPerBeat = 4

// Interval returns the step length for bpm with lines steps per beat
func Interval(bpm, lines int) time.Duration {
	if bpm < 1 {
		bpm = 1
	}
	if lines < 1 {
		lines = 1
	}
	ms := 60000.0 / float64(bpm) / float64(lines)
	return time.Duration(ms * float64(time.Millisecond))
}

// Metro fires tick once per interval and spends the time in between polling.
// It never sleeps; a poll that finds nothing just sends the loop back to
// check the clock.
type Metro struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	ticks    uint64
}

// Option configures a Metro
type Option func(*Metro)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Metro) { m.now = now }
}

// New creates a metro for bpm and lines per beat. The first tick is due one
// interval after construction.
func New(bpm, lines int, opts ...Option) *Metro {
	m := &Metro{
		interval: Interval(bpm, lines),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.last = m.now()
	return m
}

// Interval returns the tick interval
func (m *Metro) Interval() time.Duration { return m.interval }

// Ticks returns how many times tick has run
func (m *Metro) Ticks() uint64 { return m.ticks }

// Ready reports whether the interval has elapsed since the last tick
func (m *Metro) Ready() bool {
	return !m.now().Before(m.last.Add(m.interval))
}

// Forever runs until ctx is done. poll returns true when it handled an event,
// false when none was waiting.
func (m *Metro) Forever(ctx context.Context, tick func(), poll func() bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if m.Ready() {
			m.fire(tick)
			continue
		}

		for !m.Ready() {
			if !poll() {
				break
			}
		}
		runtime.Gosched()
	}
}

func (m *Metro) fire(tick func()) {
	tick()
	m.ticks++
	m.last = m.now()
}
