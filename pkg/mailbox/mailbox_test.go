package mailbox

import (
	"runtime"
	"sync"
	"testing"

	"github.com/oisee/slicegrid/pkg/sequence"
)

func trig(slice int) sequence.Command {
	return sequence.TriggerCommand(sequence.DefaultTrigger().WithSlice(slice))
}

func TestMailbox_EmptyReceive(t *testing.T) {
	m := New(4)
	if _, ok := m.TryReceive(); ok {
		t.Fatal("TryReceive on empty mailbox returned a command")
	}
}

func TestMailbox_CapacityRoundsUp(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultCapacity},
		{1, 1},
		{3, 4},
		{64, 64},
		{65, 128},
	}
	for _, tc := range tests {
		if got := New(tc.in).Cap(); got != tc.want {
			t.Errorf("New(%d).Cap() = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMailbox_FIFOAcrossOverflow(t *testing.T) {
	m := New(4)
	for i := 0; i < 10; i++ {
		m.Send(trig(i))
	}
	if m.Len() != 4 || m.Pending() != 6 {
		t.Fatalf("len=%d pending=%d, want 4/6", m.Len(), m.Pending())
	}

	var got []int
	for len(got) < 10 {
		cmd, ok := m.TryReceive()
		if !ok {
			m.Flush()
			continue
		}
		got = append(got, cmd.Trigger.Slice)
	}
	for i, s := range got {
		if s != i {
			t.Fatalf("received %v, want 0..9 in order", got)
		}
	}
	if m.Pending() != 0 || m.Len() != 0 {
		t.Errorf("len=%d pending=%d after drain", m.Len(), m.Pending())
	}
}

func TestMailbox_SendFlushesBeforePushing(t *testing.T) {
	m := New(2)
	m.Send(trig(0))
	m.Send(trig(1))
	m.Send(trig(2)) // parked

	m.TryReceive() // frees one slot
	m.Send(trig(3))

	// 2 must come out before 3
	want := []int{1, 2, 3}
	for _, w := range want {
		cmd, ok := m.TryReceive()
		if !ok {
			m.Flush()
			cmd, ok = m.TryReceive()
		}
		if !ok || cmd.Trigger.Slice != w {
			t.Fatalf("got %v/%v, want slice %d", cmd, ok, w)
		}
	}
}

func TestMailbox_StopAfterTriggerKeepsOrder(t *testing.T) {
	m := New(8)
	m.Send(trig(2))
	m.Send(sequence.StopCommand())

	first, _ := m.TryReceive()
	second, _ := m.TryReceive()
	if first.Kind != sequence.CmdTrigger || second.Kind != sequence.CmdStop {
		t.Errorf("order = %v, %v", first, second)
	}
}

func TestMailbox_ConcurrentProducerConsumer(t *testing.T) {
	const total = 10000
	m := New(16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			m.Send(trig(i))
		}
		for m.Pending() > 0 {
			m.Flush()
			runtime.Gosched()
		}
	}()

	next := 0
	for next < total {
		cmd, ok := m.TryReceive()
		if !ok {
			runtime.Gosched()
			continue
		}
		if cmd.Trigger.Slice != next {
			t.Fatalf("received slice %d, want %d", cmd.Trigger.Slice, next)
		}
		next++
	}
	wg.Wait()
}

func TestMailbox_LenNeverNegativeUnderConcurrency(t *testing.T) {
	const total = 20000
	m := New(8)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			m.Send(trig(i))
		}
		for m.Pending() > 0 {
			m.Flush()
			runtime.Gosched()
		}
	}()

	done := make(chan struct{})
	negative := 0
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if m.Len() < 0 {
				negative++
			}
			runtime.Gosched()
		}
	}()

	for got := 0; got < total; {
		if _, ok := m.TryReceive(); ok {
			got++
		} else {
			runtime.Gosched()
		}
	}
	close(done)
	wg.Wait()

	if negative > 0 {
		t.Errorf("Len() was negative %d times", negative)
	}
}

func BenchmarkMailbox_TryReceive(b *testing.B) {
	m := New(64)
	cmd := trig(1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Send(cmd)
		m.TryReceive()
	}
}
