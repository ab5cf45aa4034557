// Package clock provides the monotonic sequence source for log records.
package clock

import "sync/atomic"

// AtomicClock hands out strictly increasing sequence numbers. It is safe
// for concurrent use; a store seeds it with the highest sequence seen
// during replay so numbering continues across restarts.
type AtomicClock struct {
	atomic.Uint64
}

// NewAtomic returns a clock whose next tick is init+1.
func NewAtomic(init uint64) *AtomicClock {
	var ac AtomicClock
	ac.Set(init)
	return &ac
}

// Val reports the last sequence number handed out.
func (ac *AtomicClock) Val() uint64 {
	return ac.Load()
}

// Next reserves and returns the next sequence number.
func (ac *AtomicClock) Next() uint64 {
	return ac.Add(1)
}

// Set rewinds or advances the clock. Callers must not Set a live clock
// backwards while writers are running.
func (ac *AtomicClock) Set(t uint64) {
	ac.Store(t)
}
