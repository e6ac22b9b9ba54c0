// Package sequence implements the step data: triggers, commands and the pattern store
package sequence

import (
	"fmt"
	"math"
)

// Direction is the playback direction of a slice
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "bwd"
	}
	return "fwd"
}

// MinPitch is the smallest playback speed the editor will commit
const MinPitch float32 = 1.0 / 64

// PitchTable holds the speed multipliers selectable from the grid (one per column)
var PitchTable = [16]float32{
	0.25, 0.375, 0.5, 0.625, 0.75, 0.875, 1.0, 1.0 + 1.0/12,
	1.125, 1.25, 1.333, 1.5, 1.667, 1.75, 2.0, 3.0,
}

// DefaultPitchColumn is the PitchTable column holding 1.0
const DefaultPitchColumn = 6

// Trigger describes what a step plays: which slice, how fast, which way.
// Treat it as a value; the With* methods return modified copies.
type Trigger struct {
	Slice     int
	Pitch     float32
	Direction Direction
}

// DefaultTrigger returns slice 0 at unity pitch, forward
func DefaultTrigger() Trigger {
	return Trigger{Slice: 0, Pitch: 1, Direction: Forward}
}

// WithSlice returns a copy playing the given slice
func (t Trigger) WithSlice(slice int) Trigger {
	if slice < 0 {
		slice = 0
	}
	t.Slice = slice
	return t
}

// WithPitch returns a copy with the given speed multiplier.
// Non-positive and NaN pitches are clamped to MinPitch.
func (t Trigger) WithPitch(pitch float32) Trigger {
	if !(pitch >= MinPitch) || math.IsInf(float64(pitch), 0) {
		pitch = MinPitch
	}
	t.Pitch = pitch
	return t
}

// WithDirection returns a copy playing in the given direction
func (t Trigger) WithDirection(dir Direction) Trigger {
	t.Direction = dir
	return t
}

// PitchColumn returns the PitchTable column closest to the trigger's pitch
func (t Trigger) PitchColumn() int {
	best := 0
	bestDist := math.MaxFloat64
	for i, p := range PitchTable {
		d := math.Abs(float64(p - t.Pitch))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (t Trigger) String() string {
	return fmt.Sprintf("slice=%d pitch=%.3f %s", t.Slice, t.Pitch, t.Direction)
}

// CommandKind tags a Command
type CommandKind uint8

const (
	CmdTrigger CommandKind = iota
	CmdStop
)

// Command is one message sent from the control loop to the audio engine.
// It is a plain value so queues of commands never allocate.
type Command struct {
	Kind    CommandKind
	Trigger Trigger // valid when Kind == CmdTrigger
}

// TriggerCommand starts playback of t
func TriggerCommand(t Trigger) Command {
	return Command{Kind: CmdTrigger, Trigger: t}
}

// StopCommand silences the engine
func StopCommand() Command {
	return Command{Kind: CmdStop}
}

func (c Command) String() string {
	if c.Kind == CmdStop {
		return "stop"
	}
	return "trigger(" + c.Trigger.String() + ")"
}

// Sender is the producer side of the step protocol
type Sender interface {
	Send(cmd Command)
}
