package sequence

import "github.com/pkg/errors"

// ErrStepOutOfRange is returned for slot indices outside the store
var ErrStepOutOfRange = errors.New("step index out of range")

type slot struct {
	trigger Trigger
	set     bool
}

// Store holds one optional trigger per step. Patterns are laid out end to end,
// so step i of pattern p lives at p*Width()+i and the store reads as one flat
// sequence. It is owned by the control loop and is not safe for concurrent use.
type Store struct {
	width int
	slots []slot
}

// NewStore creates an empty store of the given step width and pattern count
func NewStore(width, patterns int) *Store {
	if width < 1 {
		width = 1
	}
	if patterns < 1 {
		patterns = 1
	}
	return &Store{
		width: width,
		slots: make([]slot, width*patterns),
	}
}

// Len returns the total number of steps
func (s *Store) Len() int { return len(s.slots) }

// Width returns the number of steps per pattern
func (s *Store) Width() int { return s.width }

// Patterns returns the number of patterns
func (s *Store) Patterns() int { return len(s.slots) / s.width }

// Get returns the trigger at step i, if any
func (s *Store) Get(i int) (Trigger, bool) {
	if i < 0 || i >= len(s.slots) {
		return Trigger{}, false
	}
	sl := s.slots[i]
	return sl.trigger, sl.set
}

// Has reports whether step i holds a trigger
func (s *Store) Has(i int) bool {
	_, ok := s.Get(i)
	return ok
}

// Set stores t at step i
func (s *Store) Set(i int, t Trigger) error {
	if i < 0 || i >= len(s.slots) {
		return errors.Wrapf(ErrStepOutOfRange, "set step %d of %d", i, len(s.slots))
	}
	s.slots[i] = slot{trigger: t, set: true}
	return nil
}

// Clear empties step i
func (s *Store) Clear(i int) error {
	if i < 0 || i >= len(s.slots) {
		return errors.Wrapf(ErrStepOutOfRange, "clear step %d of %d", i, len(s.slots))
	}
	s.slots[i] = slot{}
	return nil
}

// AddPattern appends one pattern of empty steps; existing steps keep their indices
func (s *Store) AddPattern() {
	s.slots = append(s.slots, make([]slot, s.width)...)
}

// EnsurePatterns grows the store until it holds at least n patterns
func (s *Store) EnsurePatterns(n int) {
	for s.Patterns() < n {
		s.AddPattern()
	}
}
