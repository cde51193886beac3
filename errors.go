package creedmoor

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache is closed")

	// ErrEmptyKey is returned when an operation is given a zero-length key.
	ErrEmptyKey = errors.New("key must not be empty")

	// ErrInvalidCapacity is returned by Open when a layer capacity is
	// not positive.
	ErrInvalidCapacity = errors.New("capacity must be positive")
)

// ErrEntryTooLarge indicates a single entry larger than the disk layer's
// capacity. No amount of eviction can admit it; the put fails
// immediately and the cache is unchanged.
type ErrEntryTooLarge struct {
	Size     int64
	Capacity int64
}

func (e *ErrEntryTooLarge) Error() string {
	return fmt.Sprintf("entry too large: %d bytes exceeds disk capacity %d", e.Size, e.Capacity)
}

// ErrInsufficientCapacity indicates that eviction could not free enough
// room for an entry that would fit on its own. Freed reports how many
// bytes eviction reclaimed before giving up.
type ErrInsufficientCapacity struct {
	Needed int64
	Freed  int64
}

func (e *ErrInsufficientCapacity) Error() string {
	return fmt.Sprintf("insufficient capacity: needed %d bytes, eviction freed %d", e.Needed, e.Freed)
}
