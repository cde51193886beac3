package recency

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_InsertAndVictim(t *testing.T) {
	x := New()

	require.NoError(t, x.Insert([]byte("a"), 1, 10))
	require.NoError(t, x.Insert([]byte("b"), 2, 20))
	require.NoError(t, x.Insert([]byte("c"), 3, 30))
	assert.Equal(t, 3, x.Len())

	key, size, ok := x.Victim()
	require.True(t, ok)
	assert.Equal(t, []byte("a"), key)
	assert.Equal(t, int64(10), size)
}

func TestIndex_InsertDuplicate(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert([]byte("a"), 1, 10))

	err := x.Insert([]byte("a"), 2, 10)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	// The original entry is untouched.
	token, size, ok := x.Lookup([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, uint64(1), token)
	assert.Equal(t, int64(10), size)
}

func TestIndex_TouchReorders(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert([]byte("a"), 1, 10))
	require.NoError(t, x.Insert([]byte("b"), 2, 20))

	// Bumping a past b makes b the victim.
	require.NoError(t, x.Touch([]byte("a"), 3))

	key, _, ok := x.Victim()
	require.True(t, ok)
	assert.Equal(t, []byte("b"), key)

	// No stale (token 1, "a") pair may survive the touch.
	var tokens []uint64
	x.Ascend(func(_ []byte, token uint64, _ int64) bool {
		tokens = append(tokens, token)
		return true
	})
	assert.Equal(t, []uint64{2, 3}, tokens)
	assert.Equal(t, 2, x.Len())
}

func TestIndex_TouchUnknown(t *testing.T) {
	x := New()
	assert.ErrorIs(t, x.Touch([]byte("missing"), 1), ErrUnknownKey)
}

func TestIndex_Remove(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert([]byte("a"), 1, 10))

	size, err := x.Remove([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)
	assert.Equal(t, 0, x.Len())

	_, err = x.Remove([]byte("a"))
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, _, ok := x.Victim()
	assert.False(t, ok)
}

func TestIndex_RebuildOutOfTokenOrder(t *testing.T) {
	// Startup scans arrive in key order, not token order; the index
	// must still produce the token-minimal victim.
	x := New()
	require.NoError(t, x.Insert([]byte("a"), 30, 1))
	require.NoError(t, x.Insert([]byte("b"), 10, 1))
	require.NoError(t, x.Insert([]byte("c"), 20, 1))

	key, _, ok := x.Victim()
	require.True(t, ok)
	assert.Equal(t, []byte("b"), key)
}

func TestIndex_Clear(t *testing.T) {
	x := New()
	for i := 0; i < 10; i++ {
		require.NoError(t, x.Insert([]byte(fmt.Sprintf("k%d", i)), uint64(i+1), 1))
	}

	x.Clear()
	assert.Equal(t, 0, x.Len())
	_, _, ok := x.Victim()
	assert.False(t, ok)

	// Reusable after clear.
	require.NoError(t, x.Insert([]byte("k0"), 100, 1))
	assert.Equal(t, 1, x.Len())
}

func TestIndex_AscendOrder(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert([]byte("c"), 5, 1))
	require.NoError(t, x.Insert([]byte("a"), 9, 1))
	require.NoError(t, x.Insert([]byte("b"), 7, 1))

	var keys []string
	x.Ascend(func(key []byte, _ uint64, _ int64) bool {
		keys = append(keys, string(key))
		return true
	})
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}
