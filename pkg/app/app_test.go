package app

import (
	"testing"

	"github.com/oisee/slicegrid/pkg/grid"
	"github.com/oisee/slicegrid/pkg/mailbox"
	"github.com/oisee/slicegrid/pkg/sequence"
)

func newTestApp(t *testing.T) (*App, *grid.Virtual, *mailbox.Mailbox) {
	t.Helper()
	v := grid.NewVirtual()
	mb := mailbox.New(16)
	a := New(v, sequence.NewStore(grid.Width, 1), mb)
	return a, v, mb
}

// pump handles every queued event
func pump(a *App) int {
	n := 0
	for a.HandleEvent() {
		n++
	}
	return n
}

func drain(mb *mailbox.Mailbox) []sequence.Command {
	var out []sequence.Command
	for {
		cmd, ok := mb.TryReceive()
		if !ok {
			return out
		}
		out = append(out, cmd)
	}
}

func TestHandleEvent_NothingPending(t *testing.T) {
	a, _, _ := newTestApp(t)
	if a.HandleEvent() {
		t.Error("HandleEvent reported work with no events")
	}
}

func TestStepEdit_CommitOnRelease(t *testing.T) {
	a, v, mb := newTestApp(t)

	v.Press(3, 5, true) // open step 3
	pump(a)
	if !a.Editing() {
		t.Fatal("step press did not open the editor")
	}

	v.Press(9, 0, true)  // slice 9
	v.Press(12, 2, true) // pitch column 12
	v.Press(0, 1, true)  // backward
	v.Press(3, 5, false) // release in the step area
	pump(a)

	if a.Editing() {
		t.Fatal("release did not close the editor")
	}
	want := sequence.Trigger{Slice: 9, Pitch: sequence.PitchTable[12], Direction: sequence.Backward}
	got, ok := a.store.Get(3)
	if !ok || got != want {
		t.Fatalf("step 3 = %+v/%v, want %+v", got, ok, want)
	}

	levels := v.Levels()
	if levels[grid.Index(3, grid.StepRowTop)] != grid.LevelOn {
		t.Error("committed step is not lit on the sequencer page")
	}

	for i := 0; i < 4; i++ {
		a.Tick()
	}
	cmds := drain(mb)
	if len(cmds) != 1 || cmds[0] != sequence.TriggerCommand(want) {
		t.Errorf("commands after four ticks = %v", cmds)
	}
}

func TestStepEdit_OpensWithExistingTrigger(t *testing.T) {
	a, v, _ := newTestApp(t)
	existing := sequence.DefaultTrigger().WithSlice(4).WithDirection(sequence.Backward)
	a.store.Set(7, existing)

	v.Press(7, 6, true)
	pump(a)

	levels := v.Levels()
	if levels[grid.Index(4, 0)] != grid.LevelOn {
		t.Error("slice row does not show the stored slice")
	}
	if levels[grid.Index(0, 1)] != grid.LevelOn || levels[grid.Index(3, 1)] != grid.LevelOff {
		t.Error("direction toggle does not show backward")
	}
	if levels[grid.Index(sequence.DefaultPitchColumn, 2)] != grid.LevelOn {
		t.Error("pitch row does not show the stored pitch")
	}
	if levels[grid.Index(7, grid.StepRowTop)] != grid.LevelOn {
		t.Error("edited step column is not marked")
	}

	v.Press(7, 6, false)
	pump(a)
	if got, _ := a.store.Get(7); got != existing {
		t.Errorf("untouched edit changed step to %+v", got)
	}
}

func TestStepEdit_ClearStep(t *testing.T) {
	a, v, _ := newTestApp(t)
	a.store.Set(2, sequence.DefaultTrigger())

	v.Press(2, 4, true)
	v.Press(15, 1, true) // clear
	pump(a)

	if a.Editing() {
		t.Error("clear did not return to the sequencer")
	}
	if a.store.Has(2) {
		t.Error("step 2 still set after clear")
	}
}

func TestSequencer_StopAll(t *testing.T) {
	a, v, mb := newTestApp(t)
	v.Press(15, 1, true)
	pump(a)

	cmds := drain(mb)
	if len(cmds) != 1 || cmds[0].Kind != sequence.CmdStop {
		t.Fatalf("commands = %v, want one stop", cmds)
	}
	if v.Levels()[grid.Index(15, 1)] != grid.LevelOn {
		t.Error("stop key not lit while held")
	}
	v.Press(15, 1, false)
	pump(a)
	if v.Levels()[grid.Index(15, 1)] != grid.LevelOff {
		t.Error("stop key still lit after release")
	}
}

func TestSequencer_PageSelectGrowsStore(t *testing.T) {
	a, v, _ := newTestApp(t)

	v.Tap(2, 0)
	pump(a)
	if a.Patterns() != 3 {
		t.Fatalf("patterns = %d, want 3", a.Patterns())
	}
	if a.Page() != 2 {
		t.Fatalf("page = %d, want 2", a.Page())
	}

	v.Press(1, 7, true)
	v.Press(1, 7, false)
	pump(a)
	if !a.store.Has(2*grid.Width + 1) {
		t.Error("edit on page 2 did not land in pattern 2")
	}
	if a.store.Has(1) {
		t.Error("edit on page 2 leaked into pattern 0")
	}

	v.Tap(0, 0)
	pump(a)
	if a.Patterns() != 3 {
		t.Errorf("selecting a lower page shrank the store to %d", a.Patterns())
	}
	if v.Levels()[grid.Index(1, grid.StepRowTop)] == grid.LevelOn {
		t.Error("page 0 shows the step set on page 2")
	}
}

func TestTick_MovesPlayhead(t *testing.T) {
	a, v, _ := newTestApp(t)

	a.Tick()
	if a.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", a.Cursor())
	}
	levels := v.Levels()
	if levels[grid.Index(1, grid.StepRowTop)] != grid.LevelOn {
		t.Error("playhead column not lit")
	}
	if levels[grid.Index(0, grid.StepRowTop)] != grid.LevelAccent {
		t.Error("previous column not restored to its background")
	}

	for i := 1; i < grid.Width; i++ {
		a.Tick()
	}
	if a.Cursor() != 0 {
		t.Errorf("cursor = %d after a full pattern, want 0", a.Cursor())
	}
}

func TestTick_AdvancesDuringEdit(t *testing.T) {
	a, v, _ := newTestApp(t)
	v.Press(5, 5, true)
	pump(a)

	before := v.Levels()
	a.Tick()
	a.Tick()
	if a.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", a.Cursor())
	}
	if v.Levels() != before {
		t.Error("playhead drawn over the step editor")
	}
}
