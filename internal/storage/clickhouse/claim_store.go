package clickhouse

import (
	"context"
	"fmt"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// ClaimStore implements storage.ClaimStore using ClickHouse. It serves as
// the reporting mirror of the claim ledger; settlement atomicity lives in
// the primary store, not here.
type ClaimStore struct {
	conn *Conn
}

// NewClaimStore creates a new ClaimStore.
func NewClaimStore(conn *Conn) *ClaimStore {
	return &ClaimStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)

// Append adds one audit row. Returns ErrDuplicateKey if claim_id exists.
func (s *ClaimStore) Append(ctx context.Context, c *domain.VestingClaim) error {
	exists, err := s.exists(ctx, c.ClaimID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO vesting_claims (
			claim_id, account_id, target_asset_id, units_claimed, claimed_at_ms
		) VALUES (?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		c.ClaimID, c.AccountID, c.TargetAssetID,
		c.UnitsClaimed, uint64(c.ClaimedAtMs),
	)
	if err != nil {
		return fmt.Errorf("insert vesting claim: %w", err)
	}

	return nil
}

// GetByAccountID retrieves all claim rows for an account, ordered by
// claimed_at ASC then target_asset_id ASC.
func (s *ClaimStore) GetByAccountID(ctx context.Context, accountID string) ([]*domain.VestingClaim, error) {
	query := `
		SELECT claim_id, account_id, target_asset_id, units_claimed, claimed_at_ms
		FROM vesting_claims
		WHERE account_id = ?
		ORDER BY claimed_at_ms ASC, target_asset_id ASC
	`

	rows, err := s.conn.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query by account id: %w", err)
	}
	defer rows.Close()

	var claims []*domain.VestingClaim
	for rows.Next() {
		var c domain.VestingClaim
		var claimedAtMs uint64

		err := rows.Scan(
			&c.ClaimID, &c.AccountID, &c.TargetAssetID,
			&c.UnitsClaimed, &claimedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vesting claim row: %w", err)
		}

		c.ClaimedAtMs = int64(claimedAtMs)
		claims = append(claims, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vesting claim rows: %w", err)
	}

	return claims, nil
}

// exists checks if a claim with the given ID exists.
func (s *ClaimStore) exists(ctx context.Context, claimID string) (bool, error) {
	query := `SELECT count(*) FROM vesting_claims WHERE claim_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, claimID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
