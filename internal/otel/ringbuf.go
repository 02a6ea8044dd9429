package otel

import (
	"maps"
	"sync"
	"time"
)

// DefaultRingSize is the capacity used when NewRingBuffer gets a size <= 0.
const DefaultRingSize = 256

// RingBuffer holds the most recent events of a session in memory. The
// oldest event is overwritten once it is full. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	head  int // next write slot
	count int
}

// RunTally summarizes the run lifecycle over the buffered events.
type RunTally struct {
	Submitted int
	Completed int
	Failed    int

	Stale    int // responses dropped by the generation check
	Rejected int // submits refused by validation or an in-flight run
	Reset    int

	Saved         int
	Restored      int
	HistoryErrors int

	AvgLatency time.Duration // mean duration of completed runs
}

// NewRingBuffer creates a ring buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push records e. Extra is copied so later writes by the caller do not
// show through.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// at returns the i-th buffered event, oldest first. Caller holds mu.
func (r *RingBuffer) at(i int) Event {
	start := 0
	if r.count == len(r.buf) {
		start = r.head
	}
	return r.buf[(start+i)%len(r.buf)]
}

// Last returns up to n of the most recent events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	out := make([]Event, 0, n)
	for i := r.count - n; i < r.count; i++ {
		out = append(out, r.at(i))
	}
	return out
}

// ForGen returns the buffered events of run generation gen, oldest first.
func (r *RingBuffer) ForGen(gen uint64) []Event {
	if gen == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for i := 0; i < r.count; i++ {
		if e := r.at(i); e.Gen == gen {
			out = append(out, e)
		}
	}
	return out
}

// CurrentGen returns the generation of the newest submitted or restored
// run still in the buffer, or 0 if there is none.
func (r *RingBuffer) CurrentGen() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := r.count - 1; i >= 0; i-- {
		e := r.at(i)
		if e.Kind == KindRunSubmit || e.Kind == KindRunRestore {
			return e.Gen
		}
	}
	return 0
}

// Tally counts run and history outcomes over the buffered events.
func (r *RingBuffer) Tally() RunTally {
	r.mu.Lock()
	defer r.mu.Unlock()

	var t RunTally
	var total time.Duration
	for i := 0; i < r.count; i++ {
		e := r.at(i)
		switch e.Kind {
		case KindRunSubmit:
			t.Submitted++
		case KindRunComplete:
			t.Completed++
			total += e.Dur
		case KindRunError:
			t.Failed++
		case KindRunStale:
			t.Stale++
		case KindRunReject:
			t.Rejected++
		case KindRunReset:
			t.Reset++
		case KindHistorySave:
			t.Saved++
		case KindRunRestore:
			t.Restored++
		case KindHistoryError:
			t.HistoryErrors++
		}
	}
	if t.Completed > 0 {
		t.AvgLatency = total / time.Duration(t.Completed)
	}
	return t
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}
