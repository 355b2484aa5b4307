package postgres

import (
	"context"
	"fmt"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// SettlementApplier applies a claim settlement in a single transaction:
// every holding delta, every audit row, and the checkpoint reset commit
// together or not at all. A crash mid-settlement leaves the pre-claim state.
type SettlementApplier struct {
	pool *Pool
}

// NewSettlementApplier creates a new SettlementApplier.
func NewSettlementApplier(pool *Pool) *SettlementApplier {
	return &SettlementApplier{pool: pool}
}

// Compile-time interface check.
var _ storage.SettlementApplier = (*SettlementApplier)(nil)

// Apply commits the settlement atomically.
func (a *SettlementApplier) Apply(ctx context.Context, s *domain.Settlement) error {
	if s == nil || s.AccountID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, leg := range s.Legs {
		if leg.TargetAssetID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, upsertHoldingQuery, s.AccountID, leg.TargetAssetID, leg.Units, s.ClaimedAtMs); err != nil {
			return fmt.Errorf("upsert holding %s: %w", leg.TargetAssetID, err)
		}
	}

	for _, c := range s.Claims {
		if c == nil || c.ClaimID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, appendClaimQuery,
			c.ClaimID, c.AccountID, c.TargetAssetID, c.UnitsClaimed, c.ClaimedAtMs,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("append claim %s: %w", c.ClaimID, err)
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE vesting_accounts
		SET accumulated_units = $2, residual_ms = $3, last_accrued_at_ms = $4
		WHERE account_id = $1
	`, s.AccountID, s.Checkpoint.AccumulatedUnits, s.Checkpoint.ResidualMs, s.Checkpoint.LastAccruedAtMs)
	if err != nil {
		return fmt.Errorf("reset checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return tx.Commit(ctx)
}
