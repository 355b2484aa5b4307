package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

func testProfile(id string) *domain.BotProfile {
	return &domain.BotProfile{
		ProfileID:          id,
		AccountID:          "acct-1",
		Active:             true,
		ClaimThreshold:     0.8,
		MaxTargetsPerClaim: 4,
		MinCooldownMs:      1_000,
		MaxCooldownMs:      5_000,
		ActiveHourStart:    9,
		ActiveHourEnd:      17,
		MaxDailyActions:    20,
		MaxDailyVolume:     100_000,
		TradeAssetID:       "asset-x",
		TradeSide:          domain.OrderSideBuy,
		TradeMinQty:        10,
		TradeMaxQty:        50,
	}
}

func TestBotProfileStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBotProfileStore(pool)
	ctx := context.Background()

	profile := testProfile("bot-001")
	require.NoError(t, store.Insert(ctx, profile))

	retrieved, err := store.GetByID(ctx, "bot-001")
	require.NoError(t, err)
	assert.Equal(t, profile, retrieved)

	// Insert seeds a zeroed runtime row.
	rt, err := store.GetRuntime(ctx, "bot-001")
	require.NoError(t, err)
	assert.Zero(t, rt.ActionsToday)
	assert.Zero(t, rt.VolumeToday)
	assert.Empty(t, rt.LastResetDate)
	assert.Zero(t, rt.NextEligibleAtMs)
}

func TestBotProfileStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBotProfileStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testProfile("bot-dup")))

	err := store.Insert(ctx, testProfile("bot-dup"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBotProfileStore_ListActiveAndSetActive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBotProfileStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testProfile("bot-b")))
	require.NoError(t, store.Insert(ctx, testProfile("bot-a")))

	inactive := testProfile("bot-c")
	inactive.Active = false
	require.NoError(t, store.Insert(ctx, inactive))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "bot-a", active[0].ProfileID)
	assert.Equal(t, "bot-b", active[1].ProfileID)

	require.NoError(t, store.SetActive(ctx, "bot-b", false))

	active, err = store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "bot-a", active[0].ProfileID)

	err = store.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBotProfileStore_SaveAndGetRuntime(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBotProfileStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testProfile("bot-rt")))

	rt := &domain.BotRuntime{
		ProfileID:        "bot-rt",
		ActionsToday:     3,
		VolumeToday:      450,
		LastResetDate:    "2026-08-31",
		NextEligibleAtMs: 1_700_000_123_000,
		UpdatedAtMs:      1_700_000_100_000,
	}
	require.NoError(t, store.SaveRuntime(ctx, rt))

	retrieved, err := store.GetRuntime(ctx, "bot-rt")
	require.NoError(t, err)
	assert.Equal(t, rt, retrieved)

	_, err = store.GetRuntime(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
