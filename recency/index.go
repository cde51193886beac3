// Package recency maintains the in-memory least-recently-used ordering
// for the cache.
//
// Entries are ordered by a monotonically increasing recency token minted
// by the cache core, not by wall-clock time; tokens are unique by
// construction so the order is strict and reproducible. The index holds
// only a projection (key, size, token) of persisted state and is rebuilt
// from a storage scan on startup.
package recency

import (
	"errors"
	"sync"

	"github.com/google/btree"
)

var (
	// ErrDuplicateKey is returned by Insert when the key is already
	// indexed; callers must Touch instead.
	ErrDuplicateKey = errors.New("key already indexed")

	// ErrUnknownKey is returned by Touch and Remove when the key is not
	// indexed.
	ErrUnknownKey = errors.New("key not indexed")
)

type item struct {
	token uint64
	key   string
	size  int64
}

func lessByToken(a, b item) bool { return a.token < b.token }

// Index is a token-ordered index over cached keys with a reverse
// key-to-token map, giving O(log n) touch and O(log n) victim selection.
//
// Index is safe for concurrent use. The cache core still serializes
// mutations against persisted state under its own layer lock; the
// internal mutex only makes lock-free readers (stats, invariant checks)
// safe.
type Index struct {
	mu    sync.Mutex
	tree  *btree.BTreeG[item]
	byKey map[string]item
}

// New creates an empty index.
func New() *Index {
	return &Index{
		tree:  btree.NewG(32, lessByToken),
		byKey: make(map[string]item),
	}
}

// Insert indexes a new key. The key must not be present.
func (x *Index) Insert(key []byte, token uint64, size int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	k := string(key)
	if _, ok := x.byKey[k]; ok {
		return ErrDuplicateKey
	}
	it := item{token: token, key: k, size: size}
	x.tree.ReplaceOrInsert(it)
	x.byKey[k] = it
	return nil
}

// Touch moves an indexed key to the fresh end of the order by replacing
// its token. Size is unchanged.
func (x *Index) Touch(key []byte, token uint64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	k := string(key)
	old, ok := x.byKey[k]
	if !ok {
		return ErrUnknownKey
	}
	x.tree.Delete(old)
	it := item{token: token, key: k, size: old.size}
	x.tree.ReplaceOrInsert(it)
	x.byKey[k] = it
	return nil
}

// Remove drops a key and returns its last known size so the caller can
// adjust the accumulator.
func (x *Index) Remove(key []byte) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	k := string(key)
	it, ok := x.byKey[k]
	if !ok {
		return 0, ErrUnknownKey
	}
	x.tree.Delete(it)
	delete(x.byKey, k)
	return it.size, nil
}

// Lookup reports the current token and size for a key.
func (x *Index) Lookup(key []byte) (token uint64, size int64, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	it, ok := x.byKey[string(key)]
	return it.token, it.size, ok
}

// Victim returns the least-recently-used key, or ok=false if the index
// is empty. The entry stays indexed until removed.
func (x *Index) Victim() (key []byte, size int64, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	it, ok := x.tree.Min()
	if !ok {
		return nil, 0, false
	}
	return []byte(it.key), it.size, true
}

// Len returns the number of indexed keys.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.byKey)
}

// Clear drops every entry.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tree.Clear(false)
	x.byKey = make(map[string]item)
}

// Ascend visits entries in token order, least recent first, until fn
// returns false.
func (x *Index) Ascend(fn func(key []byte, token uint64, size int64) bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.tree.Ascend(func(it item) bool {
		return fn([]byte(it.key), it.token, it.size)
	})
}
