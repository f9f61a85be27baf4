package eventlog

import (
	"sync"
	"time"
)

// Default limits.
const (
	DefaultCapacity = 100
	DefaultWindow   = 30 * time.Second
)

// Log is a bounded event history with an aggregation head.
//
// New events are first offered to the head; like record events inside the
// aggregation window merge into it in place. Anything else pushes the head
// into the history ring, evicting the oldest entry once capacity is reached.
// The head counts towards capacity.
type Log struct {
	mu       sync.RWMutex
	capacity int
	window   time.Duration

	head    *Event
	ring    []Event
	start   int
	size    int
	evicted int
}

// State is the persisted form of a Log.
type State struct {
	Head    *Event  `json:"head,omitempty"`
	History []Event `json:"history"`
	Evicted int     `json:"evicted,omitempty"`
}

// New creates an empty Log. Non-positive arguments fall back to the defaults.
func New(capacity int, window time.Duration) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window < 0 {
		window = DefaultWindow
	}
	return &Log{
		capacity: capacity,
		window:   window,
		ring:     make([]Event, capacity-1),
	}
}

// Add appends e, merging it into the head when possible. It reports whether
// e was merged.
func (l *Log) Add(e Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.head != nil {
		if merged, ok := Aggregate(*l.head, e, l.window); ok {
			*l.head = merged
			return true
		}
		l.push(*l.head)
	}
	l.head = &e
	return false
}

func (l *Log) push(e Event) {
	n := len(l.ring)
	if n == 0 {
		l.evicted++
		return
	}
	if l.size == n {
		l.ring[l.start] = e
		l.start = (l.start + 1) % n
		l.evicted++
		return
	}
	l.ring[(l.start+l.size)%n] = e
	l.size++
}

// Head returns the most recent event.
func (l *Log) Head() (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.head == nil {
		return Event{}, false
	}
	return *l.head, true
}

// Len returns the number of retained events, head included.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.head == nil {
		return l.size
	}
	return l.size + 1
}

// Capacity returns the maximum number of retained events.
func (l *Log) Capacity() int { return l.capacity }

// Evicted returns how many events have been dropped from the history.
func (l *Log) Evicted() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.evicted
}

// Truncated reports whether any event has been evicted.
func (l *Log) Truncated() bool { return l.Evicted() > 0 }

// Events returns retained events, most recent first.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, l.size+1)
	if l.head != nil {
		out = append(out, *l.head)
	}
	n := len(l.ring)
	for i := l.size - 1; i >= 0; i-- {
		out = append(out, l.ring[(l.start+i)%n])
	}
	return out
}

// Snapshot returns the persisted form of the log.
func (l *Log) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := State{History: make([]Event, 0, l.size), Evicted: l.evicted}
	n := len(l.ring)
	for i := 0; i < l.size; i++ {
		st.History = append(st.History, l.ring[(l.start+i)%n])
	}
	if l.head != nil {
		h := *l.head
		st.Head = &h
	}
	return st
}

// Restore replaces the log contents with st. History beyond capacity is
// evicted oldest first.
func (l *Log) Restore(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.head = nil
	l.start, l.size = 0, 0
	l.evicted = st.Evicted
	for _, e := range st.History {
		l.push(e)
	}
	if st.Head != nil {
		h := *st.Head
		l.head = &h
	}
}
