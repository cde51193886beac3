package creedmoor

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RestartPreservesState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, 1<<20, 1000)
	require.NoError(t, err)

	entries := map[string]string{
		"alpha": "first value",
		"beta":  "second value",
		"gamma": "third value",
	}
	for k, v := range entries {
		require.NoError(t, c.Put(ctx, []byte(k), []byte(v)))
	}
	before := c.Stats()
	require.NoError(t, c.Close())

	c, err = Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	after := c.Stats()
	assert.Equal(t, before.DiskBytes, after.DiskBytes)
	assert.Equal(t, before.EntryCount, after.EntryCount)

	for k, v := range entries {
		got, ok, err := c.Get(ctx, []byte(k))
		require.NoError(t, err)
		require.True(t, ok, "key %q lost across restart", k)
		assert.Equal(t, []byte(v), got)
	}
	checkInvariants(t, c)
}

func TestCache_RestartPreservesEvictionOrder(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, 1<<20, 100)
	require.NoError(t, err)

	keyA, valA := sized("a", 40)
	keyB, valB := sized("b", 40)
	require.NoError(t, c.Put(ctx, keyA, valA))
	require.NoError(t, c.Put(ctx, keyB, valB))

	// Bump A before shutting down; the bump is persisted, so after the
	// restart B must still be the victim.
	_, ok, err := c.Get(ctx, keyA)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.Close())

	c, err = Open(dir, 1<<20, 100)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	keyC, valC := sized("c", 40)
	require.NoError(t, c.Put(ctx, keyC, valC))

	okA, _ := c.Contains(ctx, keyA)
	okB, _ := c.Contains(ctx, keyB)
	assert.True(t, okA)
	assert.False(t, okB)
	checkInvariants(t, c)
}

func TestCache_RestartContinuesTokenSequence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, []byte("old"), []byte("v")))
	require.NoError(t, c.Close())

	c, err = Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	// Entries written after the restart must sort as more recent than
	// the survivors.
	require.NoError(t, c.Put(ctx, []byte("new"), []byte("v")))

	oldToken, _, ok := c.index.Lookup([]byte("old"))
	require.True(t, ok)
	newToken, _, ok := c.index.Lookup([]byte("new"))
	require.True(t, ok)
	assert.Greater(t, newToken, oldToken)
}

func TestCache_RecoveryDropsCorruptMetadata(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, []byte("good"), []byte("kept")))
	require.NoError(t, c.Put(ctx, []byte("bad"), []byte("doomed")))
	require.NoError(t, c.Close())

	// Corrupt bad's metadata record behind the cache's back.
	db, err := pebble.Open(dir, &pebble.Options{})
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("mbad"), []byte{0xff, 0x00}, pebble.Sync))
	require.NoError(t, db.Close())

	// One corrupt entry must not fail the open; the pair is dropped.
	c, err = Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	okGood, err := c.Contains(ctx, []byte("good"))
	require.NoError(t, err)
	assert.True(t, okGood)

	okBad, err := c.Contains(ctx, []byte("bad"))
	require.NoError(t, err)
	assert.False(t, okBad)

	_, okBadValue, err := c.Get(ctx, []byte("bad"))
	require.NoError(t, err)
	assert.False(t, okBadValue, "corrupt entry's value must be dropped, not orphaned")

	assert.Equal(t, 1, c.Stats().EntryCount)
	assert.Equal(t, int64(len("good")+len("kept")), c.Stats().DiskBytes)
	checkInvariants(t, c)
}

func TestCache_ReopenWithSmallerCapacityEvicts(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, 1<<20, 200)
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c", "d"} {
		key, value := sized(name, 50)
		require.NoError(t, c.Put(ctx, key, value))
	}
	require.NoError(t, c.Close())

	// Shrinking the disk budget forces eviction during recovery, oldest
	// first.
	c, err = Open(dir, 1<<20, 100)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	stats := c.Stats()
	assert.Equal(t, int64(100), stats.DiskBytes)
	assert.Equal(t, 2, stats.EntryCount)

	okA, _ := c.Contains(ctx, []byte("a"))
	okB, _ := c.Contains(ctx, []byte("b"))
	okC, _ := c.Contains(ctx, []byte("c"))
	okD, _ := c.Contains(ctx, []byte("d"))
	assert.False(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.True(t, okD)
	checkInvariants(t, c)
}

func TestCache_RestartAfterClear(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, []byte("key"), []byte("value")))
	require.NoError(t, c.Clear(ctx))
	require.NoError(t, c.Close())

	c, err = Open(dir, 1<<20, 1000)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Zero(t, c.Stats().EntryCount)
	assert.Zero(t, c.Stats().DiskBytes)
}
