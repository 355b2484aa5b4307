package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vesting-engine/internal/storage"
)

func TestHoldingStore_UpsertCreatesAndIncrements(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHoldingStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "acct-1", "asset-x", 60, 1_000))

	h, err := store.Get(ctx, "acct-1", "asset-x")
	require.NoError(t, err)
	assert.Equal(t, int64(60), h.Quantity)
	assert.Equal(t, int64(1_000), h.UpdatedAtMs)

	require.NoError(t, store.Upsert(ctx, "acct-1", "asset-x", 41, 2_000))

	h, err = store.Get(ctx, "acct-1", "asset-x")
	require.NoError(t, err)
	assert.Equal(t, int64(101), h.Quantity)
	assert.Equal(t, int64(2_000), h.UpdatedAtMs)
}

func TestHoldingStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHoldingStore(pool)

	_, err := store.Get(context.Background(), "acct-1", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHoldingStore_GetByAccountIDOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHoldingStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "acct-1", "asset-y", 40, 1_000))
	require.NoError(t, store.Upsert(ctx, "acct-1", "asset-x", 60, 1_000))
	require.NoError(t, store.Upsert(ctx, "acct-2", "asset-x", 5, 1_000))

	holdings, err := store.GetByAccountID(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "asset-x", holdings[0].AssetID)
	assert.Equal(t, "asset-y", holdings[1].AssetID)
}
