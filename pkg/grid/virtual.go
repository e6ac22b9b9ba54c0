package grid

import "sync"

// Virtual is an in-memory grid. Another goroutine (the TUI, a test) presses
// keys with Press and reads back what the sequencer drew with Levels.
type Virtual struct {
	events chan Event

	mu     sync.Mutex
	levels Frame
}

// NewVirtual creates a virtual grid buffering up to 64 key events
func NewVirtual() *Virtual {
	return &Virtual{events: make(chan Event, 64)}
}

// Press queues a key event. It drops the event if the buffer is full.
func (v *Virtual) Press(x, y int, down bool) bool {
	if !InBounds(x, y) {
		return false
	}
	select {
	case v.events <- Event{X: x, Y: y, Down: down}:
		return true
	default:
		return false
	}
}

// Tap queues a press and release
func (v *Virtual) Tap(x, y int) bool {
	return v.Press(x, y, true) && v.Press(x, y, false)
}

func (v *Virtual) Poll() (Event, bool) {
	select {
	case ev := <-v.events:
		return ev, true
	default:
		return Event{}, false
	}
}

func (v *Virtual) SetLevels(f *Frame) error {
	v.mu.Lock()
	v.levels = *f
	v.mu.Unlock()
	return nil
}

// Levels returns a copy of the last frame drawn
func (v *Virtual) Levels() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.levels
}

func (v *Virtual) Close() error { return nil }
