// Package capacity tracks aggregate bytes consumed by one cache layer
// against its configured capacity.
//
// An Accumulator is the source of truth consulted before and after every
// mutation of its layer. It deliberately tracks logical entry sizes, not
// allocator or engine overhead; exact byte accounting is a non-goal and
// the cache bounds overshoot instead.
package capacity

import "sync"

// Accumulator tracks current bytes for a single layer.
//
// Accumulator is safe for concurrent use so stats readers can consult it
// without taking the layer lock.
type Accumulator struct {
	mu       sync.Mutex
	capacity int64
	current  int64
}

// New creates an accumulator with the given capacity in bytes.
func New(capacity int64) *Accumulator {
	return &Accumulator{capacity: capacity}
}

// Reserve commits amount bytes if they fit, and reports whether they
// did. Check and commit are one atomic step.
func (a *Accumulator) Reserve(amount int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current+amount > a.capacity {
		return false
	}
	a.current += amount
	return true
}

// Release returns amount bytes to the layer, floored at zero.
func (a *Accumulator) Release(amount int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current -= amount
	if a.current < 0 {
		a.current = 0
	}
}

// WouldFit reports whether amount additional bytes fit without
// committing them.
func (a *Accumulator) WouldFit(amount int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current+amount <= a.capacity
}

// Current returns the bytes currently committed.
func (a *Accumulator) Current() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Capacity returns the configured capacity.
func (a *Accumulator) Capacity() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity
}

// Restore sets current usage directly. Used once at open time, after the
// recovery scan has summed persisted entry sizes; the sum may exceed
// capacity if the configured capacity shrank between runs, and the
// caller is expected to evict back under it.
func (a *Accumulator) Restore(current int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if current < 0 {
		current = 0
	}
	a.current = current
}

// Reset drops usage to zero.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = 0
}
