package storage

import (
	"context"

	"vesting-engine/internal/domain"
)

// AccountStore provides access to vesting account storage.
type AccountStore interface {
	// Insert adds a new account. Returns ErrDuplicateKey if account_id exists.
	Insert(ctx context.Context, a *domain.VestingAccount) error

	// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, accountID string) (*domain.VestingAccount, error)

	// ListIDs returns all account IDs, ordered ascending.
	ListIDs(ctx context.Context) ([]string, error)

	// SaveCheckpoint persists the account's accrual checkpoint. Callers must
	// hold the account's settlement lock. Returns ErrNotFound if not exists.
	SaveCheckpoint(ctx context.Context, accountID string, cp domain.Checkpoint) error
}

// HoldingStore provides access to concrete asset positions.
type HoldingStore interface {
	// Get retrieves a holding. Returns ErrNotFound if absent.
	Get(ctx context.Context, accountID, assetID string) (*domain.Holding, error)

	// GetByAccountID retrieves all holdings of an account, ordered by asset_id ASC.
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.Holding, error)

	// Upsert atomically increments a holding's quantity, creating the
	// holding if absent.
	Upsert(ctx context.Context, accountID, assetID string, deltaQuantity, nowMs int64) error
}

// ClaimStore is the append-only audit ledger of claim settlements.
// The core only appends; reads serve reporting and tests.
type ClaimStore interface {
	// Append adds one audit row. Returns ErrDuplicateKey if claim_id exists.
	Append(ctx context.Context, c *domain.VestingClaim) error

	// GetByAccountID retrieves all claim rows for an account, ordered by
	// claimed_at ASC then target_asset_id ASC.
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.VestingClaim, error)
}

// BotProfileStore provides access to agent profiles and their runtime counters.
type BotProfileStore interface {
	// Insert adds a new profile with zeroed runtime state.
	Insert(ctx context.Context, p *domain.BotProfile) error

	// GetByID retrieves a profile. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, profileID string) (*domain.BotProfile, error)

	// ListActive retrieves all active profiles, ordered by profile_id ASC.
	ListActive(ctx context.Context) ([]*domain.BotProfile, error)

	// SetActive activates or deactivates a profile. Returns ErrNotFound if
	// the profile does not exist.
	SetActive(ctx context.Context, profileID string, active bool) error

	// GetRuntime retrieves a profile's runtime counters. Returns ErrNotFound
	// if the profile does not exist.
	GetRuntime(ctx context.Context, profileID string) (*domain.BotRuntime, error)

	// SaveRuntime persists a profile's runtime counters. Only the profile's
	// own scheduling loop calls this.
	SaveRuntime(ctx context.Context, rt *domain.BotRuntime) error
}

// SettlementApplier commits a claim settlement: all holdings deltas, all
// audit rows, and the checkpoint reset as one transaction. A failure leaves
// the pre-claim state fully intact.
type SettlementApplier interface {
	Apply(ctx context.Context, s *domain.Settlement) error
}
