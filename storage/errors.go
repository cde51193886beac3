package storage

import (
	"errors"
	"fmt"
)

// ErrMetadataCorrupt is returned when a persisted metadata record has an
// unrecognized version or a malformed layout.
//
// During startup recovery this is a per-entry condition, not a fatal
// one; the cache core skips and drops the affected entry.
var ErrMetadataCorrupt = errors.New("metadata corrupt")

// Error wraps an engine or I/O failure with the operation and key it
// occurred on.
//
// The original underlying error can be accessed via errors.Unwrap.
type Error struct {
	Op  string
	Key []byte
	Err error
}

func (e *Error) Error() string {
	if len(e.Key) == 0 {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(op string, key []byte, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Key: key, Err: err}
}
