// Package storage wraps the embedded transactional key/value engine that
// creedmoor persists entries into.
//
// The engine is treated as an opaque collaborator: it owns durability,
// crash recovery, its block-level compression, and its memory-resident
// block cache. This package exposes the narrow contract the cache core
// needs — transactional value+metadata writes, ordered metadata scans
// for startup recovery, and approximate size queries — and nothing else.
package storage

import "context"

// Metadata is the per-entry record persisted alongside each value.
// It is everything the in-memory recency index needs to rebuild itself
// after a restart.
type Metadata struct {
	// SizeBytes is the logical size of the entry (key + uncompressed
	// value), independent of how the engine stores it on disk.
	SizeBytes int64

	// Token is the recency token current at the last put or get that
	// touched the entry. Tokens are minted by the cache core and are
	// strictly monotonic.
	Token uint64
}

// ScanFunc visits one persisted entry during a recovery scan.
//
// If err is non-nil the metadata record for key could not be decoded;
// meta is zero in that case. Returning a non-nil error aborts the scan.
type ScanFunc func(key []byte, meta Metadata, err error) error

// Engine is the storage collaborator contract consumed by the cache
// core. All mutating operations are transactional: a value write and
// its metadata write commit atomically or not at all.
type Engine interface {
	// Get returns the value stored under key. ok is false if the key
	// is absent; absence is not an error.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)

	// GetMetadata returns the metadata record for key without reading
	// the value.
	GetMetadata(ctx context.Context, key []byte) (meta Metadata, ok bool, err error)

	// Put persists value and meta under key in a single transaction.
	Put(ctx context.Context, key, value []byte, meta Metadata) error

	// Touch rewrites only the metadata record for key, transactionally.
	// Used to persist recency bumps on read.
	Touch(ctx context.Context, key []byte, meta Metadata) error

	// Delete removes the value and metadata for key in a single
	// transaction. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key []byte) error

	// DeleteAll removes every entry in a single transaction.
	DeleteAll(ctx context.Context) error

	// Scan iterates all persisted metadata records in key order. It is
	// used only during startup recovery, before the cache accepts
	// operations.
	Scan(ctx context.Context, fn ScanFunc) error

	// ApproximateDiskBytes reports the engine's estimate of on-disk
	// bytes for the whole store, including engine overhead.
	ApproximateDiskBytes() (uint64, error)

	// MemoryBytes reports the bytes currently resident in the engine's
	// block cache (the memory layer).
	MemoryBytes() int64

	// Flush forces buffered writes to stable storage.
	Flush() error

	// Close flushes and releases the engine.
	Close() error
}
