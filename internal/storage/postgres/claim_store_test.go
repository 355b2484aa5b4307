package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

func TestClaimStore_AppendAndGetByAccountID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClaimStore(pool)
	ctx := context.Background()

	claims := []*domain.VestingClaim{
		{ClaimID: "c-1", AccountID: "acct-1", TargetAssetID: "asset-y", UnitsClaimed: 40, ClaimedAtMs: 1_000},
		{ClaimID: "c-2", AccountID: "acct-1", TargetAssetID: "asset-x", UnitsClaimed: 60, ClaimedAtMs: 1_000},
		{ClaimID: "c-3", AccountID: "acct-1", TargetAssetID: "asset-x", UnitsClaimed: 25, ClaimedAtMs: 2_000},
	}
	for _, c := range claims {
		require.NoError(t, store.Append(ctx, c))
	}

	got, err := store.GetByAccountID(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by claimed_at then target_asset_id.
	assert.Equal(t, "c-2", got[0].ClaimID)
	assert.Equal(t, "c-1", got[1].ClaimID)
	assert.Equal(t, "c-3", got[2].ClaimID)
}

func TestClaimStore_AppendDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClaimStore(pool)
	ctx := context.Background()

	c := &domain.VestingClaim{ClaimID: "c-1", AccountID: "acct-1", TargetAssetID: "asset-x", UnitsClaimed: 10, ClaimedAtMs: 1_000}
	require.NoError(t, store.Append(ctx, c))

	err := store.Append(ctx, c)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
