package storage

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"
)

// Persisted keyspace layout. Pebble has no buckets, so the value and
// metadata records for a cache key live under distinct single-byte
// prefixes in one keyspace. Both records for a key commit in one batch.
var (
	valuePrefix    = []byte{'v'}
	metaPrefix     = []byte{'m'}
	valuePrefixEnd = []byte{'w'}
	metaPrefixEnd  = []byte{'n'}
)

// Options configures a PebbleEngine.
type Options struct {
	// Path is the directory the engine stores its files in.
	Path string

	// MemoryCacheBytes is the capacity of the engine's block cache.
	// This is the memory layer: the engine keeps at most this many
	// bytes of hot blocks resident and evicts pages on its own.
	MemoryCacheBytes int64

	// Compression selects the value codec. CompressionNone by default.
	Compression Compression
}

// PebbleEngine implements Engine on top of cockroachdb/pebble.
//
// Pebble supplies the properties the cache core treats as opaque:
// write-ahead logging, crash recovery, block compression, and a
// byte-capacity block cache.
type PebbleEngine struct {
	db    *pebble.DB
	codec Compression
}

var _ Engine = (*PebbleEngine)(nil)

// Open opens or creates the store at opts.Path.
func Open(opts Options) (*PebbleEngine, error) {
	cache := pebble.NewCache(opts.MemoryCacheBytes)
	defer cache.Unref()

	db, err := pebble.Open(opts.Path, &pebble.Options{
		Cache: cache,
	})
	if err != nil {
		return nil, wrapErr("open", nil, err)
	}

	return &PebbleEngine{
		db:    db,
		codec: opts.Compression,
	}, nil
}

func valueKey(key []byte) []byte {
	k := make([]byte, 0, len(valuePrefix)+len(key))
	k = append(k, valuePrefix...)
	return append(k, key...)
}

func metaKey(key []byte) []byte {
	k := make([]byte, 0, len(metaPrefix)+len(key))
	k = append(k, metaPrefix...)
	return append(k, key...)
}

func (e *PebbleEngine) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	frame, closer, err := e.db.Get(valueKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr("get", key, err)
	}
	// decodeValue copies out of pebble's buffer before the closer
	// invalidates it.
	value, err := decodeValue(frame)
	if cerr := closer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, false, wrapErr("get", key, err)
	}
	return value, true, nil
}

func (e *PebbleEngine) GetMetadata(ctx context.Context, key []byte) (Metadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, false, err
	}

	raw, closer, err := e.db.Get(metaKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, wrapErr("get metadata", key, err)
	}
	meta, err := DecodeMetadata(raw)
	if cerr := closer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return Metadata{}, false, wrapErr("get metadata", key, err)
	}
	return meta, true, nil
}

func (e *PebbleEngine) Put(ctx context.Context, key, value []byte, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame, err := encodeValue(e.codec, value)
	if err != nil {
		return wrapErr("put", key, err)
	}

	b := e.db.NewBatch()
	defer func() { _ = b.Close() }()

	if err := b.Set(valueKey(key), frame, nil); err != nil {
		return wrapErr("put", key, err)
	}
	if err := b.Set(metaKey(key), EncodeMetadata(meta), nil); err != nil {
		return wrapErr("put", key, err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return wrapErr("put", key, err)
	}
	return nil
}

func (e *PebbleEngine) Touch(ctx context.Context, key []byte, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := e.db.NewBatch()
	defer func() { _ = b.Close() }()

	if err := b.Set(metaKey(key), EncodeMetadata(meta), nil); err != nil {
		return wrapErr("touch", key, err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return wrapErr("touch", key, err)
	}
	return nil
}

func (e *PebbleEngine) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := e.db.NewBatch()
	defer func() { _ = b.Close() }()

	if err := b.Delete(valueKey(key), nil); err != nil {
		return wrapErr("delete", key, err)
	}
	if err := b.Delete(metaKey(key), nil); err != nil {
		return wrapErr("delete", key, err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return wrapErr("delete", key, err)
	}
	return nil
}

func (e *PebbleEngine) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := e.db.NewBatch()
	defer func() { _ = b.Close() }()

	if err := b.DeleteRange(metaPrefix, metaPrefixEnd, nil); err != nil {
		return wrapErr("delete all", nil, err)
	}
	if err := b.DeleteRange(valuePrefix, valuePrefixEnd, nil); err != nil {
		return wrapErr("delete all", nil, err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return wrapErr("delete all", nil, err)
	}
	return nil
}

func (e *PebbleEngine) Scan(ctx context.Context, fn ScanFunc) error {
	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: metaPrefix,
		UpperBound: metaPrefixEnd,
	})
	if err != nil {
		return wrapErr("scan", nil, err)
	}
	defer func() { _ = iter.Close() }()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Copy the key out of the iterator's buffer; callers may
		// retain it past Next.
		raw := iter.Key()
		key := make([]byte, len(raw)-len(metaPrefix))
		copy(key, raw[len(metaPrefix):])

		meta, derr := DecodeMetadata(iter.Value())
		if err := fn(key, meta, derr); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return wrapErr("scan", nil, err)
	}
	return nil
}

func (e *PebbleEngine) ApproximateDiskBytes() (uint64, error) {
	return e.db.Metrics().DiskSpaceUsage(), nil
}

func (e *PebbleEngine) MemoryBytes() int64 {
	return e.db.Metrics().BlockCache.Size
}

func (e *PebbleEngine) Flush() error {
	if err := e.db.Flush(); err != nil {
		return wrapErr("flush", nil, err)
	}
	return nil
}

func (e *PebbleEngine) Close() error {
	if err := e.db.Close(); err != nil {
		return wrapErr("close", nil, err)
	}
	return nil
}
