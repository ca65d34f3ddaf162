package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quorum/internal/cache"
)

func TestMemoryAdapter_SetGet(t *testing.T) {
	adapter := cache.NewMemoryAdapter(0)
	defer adapter.Close()
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 0))

	value, ok := adapter.Get(ctx, "k1")
	require.True(t, ok)
	require.Equal(t, []byte("v1"), value)

	_, ok = adapter.Get(ctx, "missing")
	require.False(t, ok)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	adapter := cache.NewMemoryAdapter(0)
	defer adapter.Close()
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("v"), time.Nanosecond))
	require.NoError(t, adapter.Set(ctx, "forever", []byte("v"), 0))

	// Expiry has one-second resolution; step past the boundary.
	time.Sleep(1100 * time.Millisecond)

	_, ok := adapter.Get(ctx, "short")
	require.False(t, ok)

	_, ok = adapter.Get(ctx, "forever")
	require.True(t, ok)
}

func TestMemoryAdapter_InsertionOrderEviction(t *testing.T) {
	adapter := cache.NewMemoryAdapter(2)
	defer adapter.Close()
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, adapter.Set(ctx, "k2", []byte("v2"), 0))

	// Overwriting does not refresh insertion position.
	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1b"), 0))

	require.NoError(t, adapter.Set(ctx, "k3", []byte("v3"), 0))

	_, ok := adapter.Get(ctx, "k1")
	require.False(t, ok, "oldest-inserted key should have been evicted")

	_, ok = adapter.Get(ctx, "k2")
	require.True(t, ok)
	_, ok = adapter.Get(ctx, "k3")
	require.True(t, ok)
	require.Equal(t, 2, adapter.Len())
}

func TestMemoryAdapter_DeleteAndClear(t *testing.T) {
	adapter := cache.NewMemoryAdapter(0)
	defer adapter.Close()
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, adapter.Set(ctx, "k2", []byte("v2"), 0))

	require.NoError(t, adapter.Delete(ctx, "k1"))
	require.NoError(t, adapter.Delete(ctx, "k1")) // idempotent

	_, ok := adapter.Get(ctx, "k1")
	require.False(t, ok)

	require.NoError(t, adapter.Clear(ctx))
	require.Equal(t, 0, adapter.Len())
}
