// Package grid talks to 16x8 button grids and lays out the sequencer on them
package grid

const (
	Width  = 16
	Height = 8
	Size   = Width * Height
)

// Brightness levels (0-15)
const (
	LevelEmpty  uint8 = 0
	LevelOff    uint8 = 4
	LevelAccent uint8 = 8
	LevelOn     uint8 = 15
)

// Index converts grid coordinates to a framebuffer offset
func Index(x, y int) int {
	return y*Width + x
}

// InBounds reports whether (x, y) is on the grid
func InBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// Event is one key press or release
type Event struct {
	X, Y int
	Down bool
}

// Frame is one brightness value per key, row-major
type Frame [Size]uint8

// Device is a grid of keys with per-key brightness
type Device interface {
	// Poll returns the next pending key event without blocking.
	// ok is false when nothing is waiting, which is the normal case.
	Poll() (ev Event, ok bool)
	// SetLevels pushes a full frame of brightness values
	SetLevels(f *Frame) error
	Close() error
}
