package postgres

import (
	"context"
	"fmt"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// ClaimStore implements the append-only claim ledger using PostgreSQL.
type ClaimStore struct {
	pool *Pool
}

// NewClaimStore creates a new ClaimStore.
func NewClaimStore(pool *Pool) *ClaimStore {
	return &ClaimStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)

const appendClaimQuery = `
	INSERT INTO vesting_claims (claim_id, account_id, target_asset_id, units_claimed, claimed_at_ms)
	VALUES ($1, $2, $3, $4, $5)
`

// Append adds one audit row. Returns ErrDuplicateKey if claim_id exists.
func (s *ClaimStore) Append(ctx context.Context, c *domain.VestingClaim) error {
	if c == nil || c.ClaimID == "" || c.AccountID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, appendClaimQuery,
		c.ClaimID, c.AccountID, c.TargetAssetID, c.UnitsClaimed, c.ClaimedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("append claim: %w", err)
	}
	return nil
}

// GetByAccountID retrieves all claim rows for an account, ordered by
// claimed_at ASC then target_asset_id ASC.
func (s *ClaimStore) GetByAccountID(ctx context.Context, accountID string) ([]*domain.VestingClaim, error) {
	query := `
		SELECT claim_id, account_id, target_asset_id, units_claimed, claimed_at_ms
		FROM vesting_claims
		WHERE account_id = $1
		ORDER BY claimed_at_ms, target_asset_id
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get claims: %w", err)
	}
	defer rows.Close()

	var result []*domain.VestingClaim
	for rows.Next() {
		var c domain.VestingClaim
		if err := rows.Scan(&c.ClaimID, &c.AccountID, &c.TargetAssetID, &c.UnitsClaimed, &c.ClaimedAtMs); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}
