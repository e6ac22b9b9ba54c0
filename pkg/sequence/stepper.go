package sequence

// Stepper walks the store one step per scheduler tick and forwards the
// triggers it finds to the audio engine.
type Stepper struct {
	store  *Store
	out    Sender
	cursor int
}

// NewStepper creates a stepper reading store and sending to out
func NewStepper(store *Store, out Sender) *Stepper {
	return &Stepper{store: store, out: out}
}

// Step fires the current step and advances the cursor. It returns the index
// that fired. The cursor wraps over the whole store, across pattern boundaries.
func (s *Stepper) Step() int {
	n := s.store.Len()
	if s.cursor >= n {
		s.cursor = 0
	}
	fired := s.cursor
	if t, ok := s.store.Get(fired); ok {
		s.out.Send(TriggerCommand(t))
	}
	s.cursor = (fired + 1) % n
	return fired
}

// Cursor returns the index of the next step to fire
func (s *Stepper) Cursor() int { return s.cursor }
