package grid

import (
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/oisee/slicegrid/pkg/debug"
)

// MIDIGrid is a generic 16x8 MIDI grid. Key (x, y) is note y*16+x on the
// configured channel; note on with velocity > 0 is a press, note off or
// velocity 0 a release. LEDs are lit by sending the same note back with
// velocity level*8.
type MIDIGrid struct {
	id       string
	channel  uint8
	send     func(msg gomidi.Message) error
	stopFunc func()

	events  chan Event
	dropped atomic.Uint64

	prev   Frame
	primed bool
}

// ErrNoGrid is returned when no MIDI port matches the requested name
var ErrNoGrid = errors.New("no matching MIDI grid found")

// OpenMIDIGrid connects to the first in/out port pair whose name contains
// portName (case-insensitive)
func OpenMIDIGrid(portName string, channel uint8) (*MIDIGrid, error) {
	want := strings.ToLower(portName)

	var in drivers.In
	for _, p := range gomidi.GetInPorts() {
		if strings.Contains(strings.ToLower(p.String()), want) {
			in = p
			break
		}
	}
	if in == nil {
		return nil, errors.Wrapf(ErrNoGrid, "input port %q", portName)
	}

	var out drivers.Out
	for _, p := range gomidi.GetOutPorts() {
		if strings.Contains(strings.ToLower(p.String()), want) {
			out = p
			break
		}
	}
	if out == nil {
		return nil, errors.Wrapf(ErrNoGrid, "output port %q", portName)
	}

	return connect(in, out, channel)
}

// connect opens out for LEDs and listens on in for keys. out is closed again
// if in cannot be opened.
func connect(in drivers.In, out drivers.Out, channel uint8) (*MIDIGrid, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrap(err, "open output")
	}

	g := newMIDIGrid(in.String(), channel, send)

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		g.handle(msg)
	})
	if err != nil {
		out.Close()
		return nil, errors.Wrap(err, "open input")
	}
	g.stopFunc = stop

	debug.Log("grid", "connected %s (channel %d)", g.id, channel)
	return g, nil
}

func newMIDIGrid(id string, channel uint8, send func(gomidi.Message) error) *MIDIGrid {
	return &MIDIGrid{
		id:      id,
		channel: channel,
		send:    send,
		events:  make(chan Event, 64),
	}
}

// handle runs on the MIDI driver's goroutine
func (g *MIDIGrid) handle(msg gomidi.Message) {
	var ch, key, vel uint8
	var ev Event

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		ev.Down = true
	case msg.GetNoteEnd(&ch, &key):
		ev.Down = false
	default:
		return
	}
	if ch != g.channel {
		return
	}
	x, y, ok := noteToXY(key)
	if !ok {
		return
	}
	ev.X, ev.Y = x, y

	select {
	case g.events <- ev:
	default:
		g.dropped.Add(1)
	}
}

// ID returns the input port name
func (g *MIDIGrid) ID() string { return g.id }

// Dropped returns how many key events were lost to a full buffer
func (g *MIDIGrid) Dropped() uint64 { return g.dropped.Load() }

func (g *MIDIGrid) Poll() (Event, bool) {
	select {
	case ev := <-g.events:
		return ev, true
	default:
		return Event{}, false
	}
}

// SetLevels sends only the keys that changed since the previous frame
func (g *MIDIGrid) SetLevels(f *Frame) error {
	if g.send == nil {
		return nil
	}
	sent := 0
	for i, level := range f {
		if g.primed && g.prev[i] == level {
			continue
		}
		note := uint8(i)
		if err := g.send(gomidi.NoteOn(g.channel, note, levelToVelocity(level))); err != nil {
			return errors.Wrapf(err, "set led %d", i)
		}
		g.prev[i] = level
		sent++
	}
	g.primed = true
	if sent > 0 {
		debug.LogEvery(100, "grid-send", "sent %d leds", sent)
	}
	return nil
}

func (g *MIDIGrid) Close() error {
	if g.send != nil {
		var dark Frame
		g.SetLevels(&dark)
	}
	if g.stopFunc != nil {
		g.stopFunc()
	}
	return nil
}

func noteToXY(note uint8) (x, y int, ok bool) {
	if int(note) >= Size {
		return 0, 0, false
	}
	return int(note) % Width, int(note) / Width, true
}

func levelToVelocity(level uint8) uint8 {
	if level > LevelOn {
		level = LevelOn
	}
	return level * 8
}
