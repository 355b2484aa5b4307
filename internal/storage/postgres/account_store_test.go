package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vesting-engine/internal/accrual"
	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

func TestAccountStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)
	ctx := context.Background()

	account := &domain.VestingAccount{
		AccountID: "acct-001",
		Checkpoint: domain.Checkpoint{
			AccumulatedUnits: 42,
			ResidualMs:       1_500,
			LastAccruedAtMs:  1_700_000_000_000,
		},
		RatePerHour: 100,
		CapLimit:    10_000,
		Splits: []domain.VestingSplit{
			{TargetAssetID: "asset-x", Weight: 60},
			{TargetAssetID: "asset-y", Weight: 40},
		},
		DefaultAssetID: "asset-x",
		CreatedAtMs:    1_699_999_000_000,
	}

	err := store.Insert(ctx, account)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "acct-001")
	require.NoError(t, err)

	assert.Equal(t, account.AccountID, retrieved.AccountID)
	assert.Equal(t, account.Checkpoint, retrieved.Checkpoint)
	assert.Equal(t, account.RatePerHour, retrieved.RatePerHour)
	assert.Equal(t, account.CapLimit, retrieved.CapLimit)
	assert.Equal(t, account.Splits, retrieved.Splits)
	assert.Equal(t, account.DefaultAssetID, retrieved.DefaultAssetID)
	assert.Equal(t, account.CreatedAtMs, retrieved.CreatedAtMs)
}

func TestAccountStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)
	ctx := context.Background()

	account := &domain.VestingAccount{
		AccountID:      "acct-dup",
		RatePerHour:    10,
		CapLimit:       100,
		DefaultAssetID: "asset-x",
		CreatedAtMs:    1_700_000_000_000,
	}

	require.NoError(t, store.Insert(ctx, account))

	err := store.Insert(ctx, account)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAccountStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAccountStore_ListIDs(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)
	ctx := context.Background()

	for _, id := range []string{"acct-b", "acct-a", "acct-c"} {
		require.NoError(t, store.Insert(ctx, &domain.VestingAccount{
			AccountID:      id,
			RatePerHour:    10,
			CapLimit:       100,
			DefaultAssetID: "asset-x",
			CreatedAtMs:    1_700_000_000_000,
		}))
	}

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acct-a", "acct-b", "acct-c"}, ids)
}

func TestAccountStore_SaveCheckpoint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.VestingAccount{
		AccountID:      "acct-cp",
		RatePerHour:    10,
		CapLimit:       100,
		DefaultAssetID: "asset-x",
		CreatedAtMs:    1_700_000_000_000,
	}))

	cp := domain.Checkpoint{AccumulatedUnits: 7, ResidualMs: 250, LastAccruedAtMs: 1_700_000_050_000}
	require.NoError(t, store.SaveCheckpoint(ctx, "acct-cp", cp))

	retrieved, err := store.GetByID(ctx, "acct-cp")
	require.NoError(t, err)
	assert.Equal(t, cp, retrieved.Checkpoint)

	err = store.SaveCheckpoint(ctx, "missing", cp)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAccountStore_InsertRejectsInvalidConfig(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.VestingAccount{
		AccountID:      "acct-bad",
		RatePerHour:    0,
		CapLimit:       0,
		DefaultAssetID: "asset-x",
	})
	require.ErrorIs(t, err, accrual.ErrConfigInvalid)

	_, err = store.GetByID(ctx, "acct-bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
