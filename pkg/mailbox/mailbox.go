// Package mailbox carries step commands from the control loop to the audio callback
package mailbox

import (
	"sync/atomic"

	"github.com/oisee/slicegrid/pkg/sequence"
)

// DefaultCapacity is the ring size used when New is given a non-positive value
const DefaultCapacity = 64

// Mailbox is a one-way FIFO with exactly one producer and one consumer.
//
// The consumer reads from a fixed ring of pre-allocated slots and never locks
// or allocates. When the ring is full the producer parks commands in an
// overflow slice that only it touches; every Send drains that slice first, so
// commands come out in the order they went in.
type Mailbox struct {
	ring []sequence.Command
	mask uint64

	head atomic.Uint64 // next slot to read, written by consumer
	tail atomic.Uint64 // next slot to write, written by producer

	overflow []sequence.Command
	parked   atomic.Int64 // len(overflow), readable from any goroutine
}

// New creates a mailbox whose ring holds at least capacity commands
func New(capacity int) *Mailbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Mailbox{
		ring: make([]sequence.Command, size),
		mask: uint64(size - 1),
	}
}

// Send queues cmd. It never blocks and never drops. Producer side only.
func (m *Mailbox) Send(cmd sequence.Command) {
	m.Flush()
	if len(m.overflow) > 0 || !m.push(cmd) {
		m.overflow = append(m.overflow, cmd)
		m.parked.Store(int64(len(m.overflow)))
	}
}

// Flush moves parked commands into free ring slots. Producer side only.
func (m *Mailbox) Flush() {
	n := 0
	for n < len(m.overflow) && m.push(m.overflow[n]) {
		n++
	}
	if n == 0 {
		return
	}
	rest := copy(m.overflow, m.overflow[n:])
	for i := rest; i < len(m.overflow); i++ {
		m.overflow[i] = sequence.Command{}
	}
	m.overflow = m.overflow[:rest]
	m.parked.Store(int64(rest))
}

func (m *Mailbox) push(cmd sequence.Command) bool {
	tail := m.tail.Load()
	if tail-m.head.Load() == uint64(len(m.ring)) {
		return false
	}
	m.ring[tail&m.mask] = cmd
	m.tail.Store(tail + 1)
	return true
}

// TryReceive returns the oldest queued command, or false when the ring is
// empty. Consumer side only.
func (m *Mailbox) TryReceive() (sequence.Command, bool) {
	head := m.head.Load()
	if head == m.tail.Load() {
		return sequence.Command{}, false
	}
	cmd := m.ring[head&m.mask]
	m.head.Store(head + 1)
	return cmd, true
}

// Len returns the number of commands readable by the consumer right now.
// Safe from any goroutine; head is loaded first so the result is never negative.
func (m *Mailbox) Len() int {
	head := m.head.Load()
	tail := m.tail.Load()
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// Pending returns the number of commands parked on the producer side
func (m *Mailbox) Pending() int {
	return int(m.parked.Load())
}

// Cap returns the ring capacity
func (m *Mailbox) Cap() int {
	return len(m.ring)
}
