package creedmoor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/creedmoor/capacity"
	"github.com/hupe1980/creedmoor/recency"
	"github.com/hupe1980/creedmoor/storage"
)

// Cache is a dual-layer persistent cache with independent byte budgets
// for memory and disk.
//
// The disk layer is the source of truth: every entry is persisted
// through the storage engine, and the disk budget is enforced by
// explicit least-recently-used eviction. The memory layer is the
// engine's own block cache; its budget is enforced by configuring that
// collaborator once at open time, not by per-entry action here.
//
// Cache is safe for concurrent use.
type Cache struct {
	// mu is the disk layer's critical section. Every mutating sequence
	// (capacity check, eviction loop, transactional write, index
	// update, accumulator update) runs under it so the engine, the
	// recency index, and the accumulator can never disagree about a
	// key.
	mu sync.Mutex

	engine storage.Engine
	index  *recency.Index
	disk   *capacity.Accumulator
	memory *capacity.Accumulator

	nextToken atomic.Uint64
	closed    atomic.Bool

	opts options
}

// Open opens or creates a cache at path with the given layer capacities
// in bytes.
//
// Open performs the recovery scan before returning: the recency index
// and size accounting are rebuilt from persisted metadata, so no
// operation can observe a partially recovered cache. Entries with
// corrupt metadata are dropped and logged; they never fail the open.
func Open(path string, memoryCapacityBytes, diskCapacityBytes int64, optFns ...Option) (*Cache, error) {
	if memoryCapacityBytes <= 0 || diskCapacityBytes <= 0 {
		return nil, ErrInvalidCapacity
	}

	opts := applyOptions(optFns)

	eng := opts.engine
	if eng == nil {
		var err error
		eng, err = storage.Open(storage.Options{
			Path:             path,
			MemoryCacheBytes: memoryCapacityBytes,
			Compression:      opts.compression,
		})
		if err != nil {
			return nil, err
		}
	}

	c := &Cache{
		engine: eng,
		index:  recency.New(),
		disk:   capacity.New(diskCapacityBytes),
		memory: capacity.New(memoryCapacityBytes),
		opts:   opts,
	}

	if err := c.recover(context.Background()); err != nil {
		_ = eng.Close()
		return nil, err
	}
	return c, nil
}

// recover rebuilds the recency index and size accounting from the
// engine's persisted metadata. Runs once, before the cache is handed to
// the caller.
func (c *Cache) recover(ctx context.Context) error {
	start := time.Now()

	var (
		entries  int
		skipped  int
		total    int64
		maxToken uint64
		corrupt  [][]byte
	)

	err := c.engine.Scan(ctx, func(key []byte, meta storage.Metadata, derr error) error {
		if derr != nil {
			// One bad record must not deny the rest of the cache.
			skipped++
			corrupt = append(corrupt, key)
			c.opts.logger.WarnContext(ctx, "skipping entry with corrupt metadata",
				"key", string(key),
				"error", derr,
			)
			return nil
		}
		if err := c.index.Insert(key, meta.Token, meta.SizeBytes); err != nil {
			return err
		}
		entries++
		total += meta.SizeBytes
		if meta.Token > maxToken {
			maxToken = meta.Token
		}
		return nil
	})
	if err != nil {
		c.opts.logger.LogRecovery(ctx, entries, skipped, total, err)
		return err
	}

	// Keeping a value whose metadata cannot be trusted would orphan it
	// against the rebuilt index, so the pair is dropped.
	for _, key := range corrupt {
		if err := c.engine.Delete(ctx, key); err != nil {
			return err
		}
	}

	c.disk.Restore(total)
	c.nextToken.Store(maxToken)

	// The configured capacity may have shrunk since these entries were
	// written; evict back under it before accepting operations.
	c.mu.Lock()
	victims, freed, evictErr := c.evictLocked(ctx, 0)
	c.mu.Unlock()
	if victims > 0 {
		c.opts.metricsCollector.RecordEviction(victims, freed)
		c.opts.logger.LogEviction(ctx, victims, freed)
	}
	if evictErr != nil {
		return evictErr
	}

	c.opts.metricsCollector.RecordRecovery(entries, skipped, time.Since(start))
	c.opts.logger.LogRecovery(ctx, entries, skipped, c.disk.Current(), nil)
	return nil
}

func entrySize(key, value []byte) int64 {
	return int64(len(key) + len(value))
}

// Put stores value under key, evicting least-recently-used entries from
// the disk layer as needed.
//
// An entry larger than the disk capacity fails with ErrEntryTooLarge
// without evicting anything. A failed put leaves the cache in its prior
// consistent state.
func (c *Cache) Put(ctx context.Context, key, value []byte) error {
	start := time.Now()
	evicted, err := c.put(ctx, key, value)
	c.opts.metricsCollector.RecordPut(time.Since(start), entrySize(key, value), err)
	c.opts.logger.LogPut(ctx, entrySize(key, value), evicted, err)
	return err
}

func (c *Cache) put(ctx context.Context, key, value []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	if len(key) == 0 {
		return 0, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	size := entrySize(key, value)
	if size > c.disk.Capacity() {
		return 0, &ErrEntryTooLarge{Size: size, Capacity: c.disk.Capacity()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Replacing an existing entry frees its old footprint first, which
	// also keeps the eviction loop from selecting the key being
	// rewritten.
	oldToken, oldSize, replacing := c.index.Lookup(key)
	if replacing {
		if _, err := c.index.Remove(key); err != nil {
			return 0, err
		}
		c.disk.Release(oldSize)
	}
	restore := func() {
		// The old pair is still intact on disk; only the in-memory
		// bookkeeping was touched.
		if replacing {
			_ = c.index.Insert(key, oldToken, oldSize)
			_ = c.disk.Reserve(oldSize)
		}
	}

	victims, freed, err := c.evictLocked(ctx, size)
	if victims > 0 {
		c.opts.metricsCollector.RecordEviction(victims, freed)
		c.opts.logger.LogEviction(ctx, victims, freed)
	}
	if err != nil {
		restore()
		return victims, err
	}

	meta := storage.Metadata{
		SizeBytes: size,
		Token:     c.nextToken.Add(1),
	}
	if err := c.engine.Put(ctx, key, value, meta); err != nil {
		restore()
		return victims, err
	}

	if err := c.index.Insert(key, meta.Token, size); err != nil {
		return victims, err
	}
	// Cannot fail: the eviction loop made room under the same lock.
	c.disk.Reserve(size)
	return victims, nil
}

// Get returns the value stored under key and refreshes its recency.
// Absence is not an error: ok is false and err is nil.
//
// The recency bump is persisted, so the eviction order survives a
// restart.
func (c *Cache) Get(ctx context.Context, key []byte) (value []byte, ok bool, err error) {
	start := time.Now()
	value, ok, err = c.get(ctx, key)
	c.opts.metricsCollector.RecordGet(time.Since(start), ok, err)
	c.opts.logger.LogGet(ctx, ok, err)
	return value, ok, err
}

func (c *Cache) get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	if len(key) == 0 {
		return nil, false, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, err := c.engine.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	_, size, indexed := c.index.Lookup(key)
	if !indexed {
		size = entrySize(key, value)
	}

	token := c.nextToken.Add(1)
	if err := c.engine.Touch(ctx, key, storage.Metadata{SizeBytes: size, Token: token}); err != nil {
		// The read itself succeeded, but surfacing the failure keeps
		// the persisted token and the index in agreement.
		return nil, false, err
	}
	if indexed {
		_ = c.index.Touch(key, token)
	} else {
		// Re-pair an entry the index lost track of.
		_ = c.index.Insert(key, token, size)
	}
	return value, true, nil
}

// Remove deletes the entry stored under key. Removing an absent key is
// a no-op, not an error.
func (c *Cache) Remove(ctx context.Context, key []byte) error {
	start := time.Now()
	existed, err := c.remove(ctx, key)
	c.opts.metricsCollector.RecordRemove(time.Since(start), err)
	c.opts.logger.LogRemove(ctx, existed, err)
	return err
}

func (c *Cache) remove(ctx context.Context, key []byte) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, _, ok := c.index.Lookup(key); !ok {
		return false, nil
	}
	if err := c.engine.Delete(ctx, key); err != nil {
		return false, err
	}
	size, err := c.index.Remove(key)
	if err != nil {
		return false, err
	}
	c.disk.Release(size)
	return true, nil
}

// Contains reports whether key is present without refreshing its
// recency. It reads outside the layer lock and may trail the latest
// committed mutation by a bounded window.
func (c *Cache) Contains(ctx context.Context, key []byte) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	_, ok, err := c.engine.GetMetadata(ctx, key)
	return ok, err
}

// Clear drops every entry and resets both layers' accounting.
func (c *Cache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.DeleteAll(ctx); err != nil {
		return err
	}
	c.index.Clear()
	c.disk.Reset()
	c.memory.Reset()
	return nil
}

// Close flushes and releases the storage engine. Operations on a closed
// cache return ErrClosed. Close is idempotent.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.Flush(); err != nil {
		_ = c.engine.Close()
		return err
	}
	return c.engine.Close()
}
