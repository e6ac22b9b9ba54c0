package grid

// WidgetKind tags the regions of the two grid screens
type WidgetKind int

const (
	// sequencer screen
	WidgetStep       WidgetKind = iota // rows 4-7, one column per step
	WidgetPageSelect                   // row 0
	WidgetStopAll                      // row 1, last column

	// step editor screen
	WidgetSliceSelect // row 0
	WidgetPitchSelect // row 2
	WidgetBackward    // row 1, columns 0-1
	WidgetForward     // row 1, columns 3-4
	WidgetClearStep   // row 1, columns 14-15
	WidgetCurrentStep // rows 4-7, the step being edited
)

// Widget is a region of the grid. Index is the column, slice, page or pitch
// number for kinds that carry one.
type Widget struct {
	Kind  WidgetKind
	Index int
}

// StepRowTop is the first row of the step area
const StepRowTop = 4

// ClassifySequencer maps a key on the sequencer screen to its widget
func ClassifySequencer(x, y int) (Widget, bool) {
	switch {
	case !InBounds(x, y):
		return Widget{}, false
	case y == 0:
		return Widget{Kind: WidgetPageSelect, Index: x}, true
	case y == 1 && x == Width-1:
		return Widget{Kind: WidgetStopAll}, true
	case y >= StepRowTop:
		return Widget{Kind: WidgetStep, Index: x}, true
	}
	return Widget{}, false
}

// ClassifyStepEdit maps a key on the step editor screen to its widget.
// The step area reports WidgetStep so a release there can commit the edit.
func ClassifyStepEdit(x, y int) (Widget, bool) {
	switch {
	case !InBounds(x, y):
		return Widget{}, false
	case y == 0:
		return Widget{Kind: WidgetSliceSelect, Index: x}, true
	case y == 1 && x < 2:
		return Widget{Kind: WidgetBackward}, true
	case y == 1 && x >= 3 && x < 5:
		return Widget{Kind: WidgetForward}, true
	case y == 1 && x >= Width-2:
		return Widget{Kind: WidgetClearStep}, true
	case y == 2:
		return Widget{Kind: WidgetPitchSelect, Index: x}, true
	case y >= StepRowTop:
		return Widget{Kind: WidgetStep, Index: x}, true
	}
	return Widget{}, false
}

// WriteColumn sets the step area of column x to level
func (f *Frame) WriteColumn(x int, level uint8) {
	for y := StepRowTop; y < Height; y++ {
		f[Index(x, y)] = level
	}
}

func (f *Frame) fill(from, to int, level uint8) {
	for i := from; i < to; i++ {
		f[i] = level
	}
}

// Render draws w into f. on selects the lit state.
func Render(f *Frame, w Widget, on bool) {
	switch w.Kind {
	case WidgetStep:
		level := LevelOff
		if on {
			level = LevelOn
		} else if w.Index%4 == 0 {
			level = LevelAccent
		}
		f.WriteColumn(w.Index, level)

	case WidgetCurrentStep:
		level := LevelEmpty
		if on {
			level = LevelOn
		}
		f.WriteColumn(w.Index, level)

	case WidgetPageSelect:
		// pages up to the selected one are shown, the selected one bright
		for x := 0; x < Width; x++ {
			switch {
			case x == w.Index:
				f[x] = LevelOn
			case x < w.Index:
				f[x] = LevelOff
			default:
				f[x] = LevelEmpty
			}
		}

	case WidgetStopAll:
		level := LevelOff
		if on {
			level = LevelOn
		}
		f[Index(Width-1, 1)] = level

	case WidgetSliceSelect, WidgetPitchSelect:
		row := 0
		if w.Kind == WidgetPitchSelect {
			row = 2
		}
		for x := 0; x < Width; x++ {
			level := LevelOff
			if x == w.Index {
				level = LevelOn
			}
			f[Index(x, row)] = level
		}

	case WidgetForward, WidgetBackward:
		fwd, bwd := LevelOff, LevelOff
		if (w.Kind == WidgetForward) == on {
			fwd = LevelOn
		} else {
			bwd = LevelOn
		}
		f.fill(Index(0, 1), Index(2, 1), bwd)
		f.fill(Index(3, 1), Index(5, 1), fwd)

	case WidgetClearStep:
		level := LevelOff
		if on {
			level = LevelOn
		}
		f.fill(Index(Width-2, 1), Index(Width, 1), level)
	}
}
