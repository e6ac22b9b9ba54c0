package metro

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestInterval(t *testing.T) {
	tests := []struct {
		bpm, lines int
		wantMs     float64
	}{
		{172, 4, 60000.0 / 172 / 4},
		{120, 4, 125},
		{60, 1, 1000},
		{0, 0, 60000},
	}
	for _, tc := range tests {
		got := float64(Interval(tc.bpm, tc.lines)) / float64(time.Millisecond)
		if math.Abs(got-tc.wantMs) > 0.001 {
			t.Errorf("Interval(%d,%d) = %.4fms, want %.4fms", tc.bpm, tc.lines, got, tc.wantMs)
		}
	}
}

func TestInterval_172BPM(t *testing.T) {
	got := Interval(172, DefaultLinesPerBeat)
	if got < 87*time.Millisecond || got > 88*time.Millisecond {
		t.Errorf("Interval(172,4) = %s, want ~87.2ms", got)
	}
}

func TestMetro_ReadyAfterInterval(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	m := New(120, 4, WithClock(clk.now))

	if m.Ready() {
		t.Fatal("ready immediately after construction")
	}
	clk.advance(124 * time.Millisecond)
	if m.Ready() {
		t.Fatal("ready before the interval elapsed")
	}
	clk.advance(time.Millisecond)
	if !m.Ready() {
		t.Fatal("not ready once the interval elapsed")
	}
}

func TestMetro_ForeverAlternatesPollAndTick(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	m := New(120, 4, WithClock(clk.now)) // 125ms
	ctx, cancel := context.WithCancel(context.Background())

	var ticks, polls int
	tick := func() {
		ticks++
		if ticks == 5 {
			cancel()
		}
	}
	poll := func() bool {
		polls++
		clk.advance(25 * time.Millisecond)
		return polls%2 == 0 // every other poll finds an event
	}

	err := m.Forever(ctx, tick, poll)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Forever returned %v, want context.Canceled", err)
	}
	if ticks != 5 || m.Ticks() != 5 {
		t.Errorf("ticks = %d (metro %d), want 5", ticks, m.Ticks())
	}
	// five polls of 25ms fill each 125ms interval
	if polls != 25 {
		t.Errorf("polls = %d, want 25", polls)
	}
}

func TestMetro_NoTickSkippedWhenLate(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	m := New(120, 4, WithClock(clk.now))
	ctx, cancel := context.WithCancel(context.Background())

	var ticks int
	err := m.Forever(ctx, func() {
		ticks++
		if ticks == 3 {
			cancel()
		}
	}, func() bool {
		// one poll overshoots by several intervals
		clk.advance(time.Second)
		return false
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatal(err)
	}
	// each late interval yields exactly one tick, never a burst
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
}

func TestMetro_StopsOnCancelledContext(t *testing.T) {
	m := New(172, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Forever(ctx, func() { t.Fatal("tick after cancel") }, func() bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
