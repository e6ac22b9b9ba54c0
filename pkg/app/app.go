// Package app is the control loop: it owns the pattern store, reads the grid,
// draws the grid, and feeds the audio engine through the step protocol.
package app

import (
	"context"
	"sync/atomic"

	"github.com/oisee/slicegrid/pkg/debug"
	"github.com/oisee/slicegrid/pkg/grid"
	"github.com/oisee/slicegrid/pkg/metro"
	"github.com/oisee/slicegrid/pkg/sequence"
)

// Screen identifies which page the grid shows
type Screen int

const (
	ScreenSequencer Screen = iota
	ScreenStepEdit
)

// Flusher is implemented by senders that park commands on the producer side
type Flusher interface {
	Flush()
}

// App holds all control-loop state. Tick and HandleEvent must be called from
// one goroutine; only the snapshot accessors are safe from elsewhere.
type App struct {
	device  grid.Device
	store   *sequence.Store
	stepper *sequence.Stepper
	out     sequence.Sender

	screen  Screen
	page    int
	step    int // column being edited
	builder sequence.Trigger

	sequencer grid.Frame
	stepEdit  grid.Frame

	// published for other goroutines
	cursor     atomic.Int64
	shownPage  atomic.Int64
	patterns   atomic.Int64
	editing    atomic.Bool
	lastDevErr atomic.Value
}

// New creates an app drawing on device, sequencing store and sending to out
func New(device grid.Device, store *sequence.Store, out sequence.Sender) *App {
	a := &App{
		device:  device,
		store:   store,
		stepper: sequence.NewStepper(store, out),
		out:     out,
		builder: sequence.DefaultTrigger(),
	}

	for x := 0; x < grid.Width; x++ {
		grid.Render(&a.sequencer, grid.Widget{Kind: grid.WidgetStep, Index: x}, false)
	}
	grid.Render(&a.sequencer, grid.Widget{Kind: grid.WidgetPageSelect, Index: 0}, true)
	grid.Render(&a.sequencer, grid.Widget{Kind: grid.WidgetStopAll}, false)
	a.writePage(0)
	a.publish()
	a.present()
	return a
}

// Run drives the app from m until ctx is done
func (a *App) Run(ctx context.Context, m *metro.Metro) error {
	debug.Log("app", "metro started, interval %s", m.Interval())
	return m.Forever(ctx, a.Tick, a.HandleEvent)
}

// Tick fires the current step and moves the playhead on the grid
func (a *App) Tick() {
	fired := a.stepper.Step()
	next := a.stepper.Cursor()
	width := a.store.Width()

	if a.screen == ScreenSequencer {
		if fired/width == a.page {
			a.renderStep(fired%width, a.store.Has(fired))
		}
		if next/width == a.page {
			grid.Render(&a.sequencer, grid.Widget{Kind: grid.WidgetStep, Index: next % width}, true)
		}
	}

	a.publish()
	a.present()
}

// HandleEvent processes at most one pending grid event. It reports whether
// there was one.
func (a *App) HandleEvent() bool {
	if f, ok := a.out.(Flusher); ok {
		f.Flush()
	}

	ev, ok := a.device.Poll()
	if !ok {
		return false
	}

	switch a.screen {
	case ScreenSequencer:
		a.handleSequencer(ev)
	case ScreenStepEdit:
		a.handleStepEdit(ev)
	}

	a.publish()
	a.present()
	return true
}

func (a *App) handleSequencer(ev grid.Event) {
	w, ok := grid.ClassifySequencer(ev.X, ev.Y)
	if !ok {
		return
	}

	switch w.Kind {
	case grid.WidgetPageSelect:
		if ev.Down {
			a.selectPage(w.Index)
		} else {
			a.writePage(a.page)
		}

	case grid.WidgetStopAll:
		grid.Render(&a.sequencer, w, ev.Down)
		if ev.Down {
			a.out.Send(sequence.StopCommand())
			debug.Log("app", "stop")
		}

	case grid.WidgetStep:
		if ev.Down {
			a.enterStepEdit(w.Index)
		}
	}
}

func (a *App) handleStepEdit(ev grid.Event) {
	w, ok := grid.ClassifyStepEdit(ev.X, ev.Y)
	if !ok {
		return
	}

	if !ev.Down {
		if w.Kind == grid.WidgetStep {
			a.commitStep()
		}
		return
	}

	switch w.Kind {
	case grid.WidgetSliceSelect:
		a.builder = a.builder.WithSlice(w.Index)
		grid.Render(&a.stepEdit, w, true)

	case grid.WidgetPitchSelect:
		a.builder = a.builder.WithPitch(sequence.PitchTable[w.Index])
		grid.Render(&a.stepEdit, w, true)

	case grid.WidgetForward:
		a.builder = a.builder.WithDirection(sequence.Forward)
		grid.Render(&a.stepEdit, w, true)

	case grid.WidgetBackward:
		a.builder = a.builder.WithDirection(sequence.Backward)
		grid.Render(&a.stepEdit, w, true)

	case grid.WidgetClearStep:
		idx := a.page*a.store.Width() + a.step
		a.store.Clear(idx)
		debug.Log("app", "cleared step %d", idx)
		a.leaveStepEdit()
	}
}

func (a *App) selectPage(page int) {
	a.store.EnsurePatterns(page + 1)
	a.page = page
	a.writePage(page)
	grid.Render(&a.sequencer, grid.Widget{Kind: grid.WidgetPageSelect, Index: page}, true)
	debug.Log("app", "page %d of %d", page, a.store.Patterns())
}

func (a *App) enterStepEdit(step int) {
	a.writePage(a.page)

	idx := a.page*a.store.Width() + step
	builder, ok := a.store.Get(idx)
	if !ok {
		builder = sequence.DefaultTrigger()
	}

	a.screen = ScreenStepEdit
	a.step = step
	a.builder = builder

	a.stepEdit = grid.Frame{}
	grid.Render(&a.stepEdit, grid.Widget{Kind: grid.WidgetSliceSelect, Index: builder.Slice % grid.Width}, true)
	grid.Render(&a.stepEdit, grid.Widget{Kind: grid.WidgetPitchSelect, Index: builder.PitchColumn()}, true)
	dir := grid.WidgetForward
	if builder.Direction == sequence.Backward {
		dir = grid.WidgetBackward
	}
	grid.Render(&a.stepEdit, grid.Widget{Kind: dir}, true)
	grid.Render(&a.stepEdit, grid.Widget{Kind: grid.WidgetClearStep}, false)
	grid.Render(&a.stepEdit, grid.Widget{Kind: grid.WidgetCurrentStep, Index: step}, true)
}

func (a *App) commitStep() {
	idx := a.page*a.store.Width() + a.step
	if err := a.store.Set(idx, a.builder); err != nil {
		debug.Log("app", "commit step %d: %v", idx, err)
	} else {
		debug.Log("app", "step %d = %s", idx, a.builder)
	}
	a.leaveStepEdit()
}

func (a *App) leaveStepEdit() {
	a.screen = ScreenSequencer
	a.writePage(a.page)
}

// writePage redraws the step columns of page from the store
func (a *App) writePage(page int) {
	width := a.store.Width()
	for x := 0; x < width && x < grid.Width; x++ {
		a.renderStep(x, a.store.Has(page*width+x))
	}
}

func (a *App) renderStep(x int, on bool) {
	if x < grid.Width {
		grid.Render(&a.sequencer, grid.Widget{Kind: grid.WidgetStep, Index: x}, on)
	}
}

func (a *App) present() {
	frame := &a.sequencer
	if a.screen == ScreenStepEdit {
		frame = &a.stepEdit
	}
	if err := a.device.SetLevels(frame); err != nil {
		a.lastDevErr.Store(err.Error())
		debug.LogEvery(50, "app", "set levels: %v", err)
	}
}

func (a *App) publish() {
	a.cursor.Store(int64(a.stepper.Cursor()))
	a.shownPage.Store(int64(a.page))
	a.patterns.Store(int64(a.store.Patterns()))
	a.editing.Store(a.screen == ScreenStepEdit)
}

// Cursor returns the next step to fire
func (a *App) Cursor() int { return int(a.cursor.Load()) }

// Page returns the page shown on the sequencer screen
func (a *App) Page() int { return int(a.shownPage.Load()) }

// Patterns returns the number of patterns in the store
func (a *App) Patterns() int { return int(a.patterns.Load()) }

// Editing reports whether the step editor is open
func (a *App) Editing() bool { return a.editing.Load() }

// DeviceError returns the last grid output error, if any
func (a *App) DeviceError() string {
	if s, ok := a.lastDevErr.Load().(string); ok {
		return s
	}
	return ""
}
