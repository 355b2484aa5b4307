package postgres

import (
	"context"
	"fmt"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// HoldingStore implements storage.HoldingStore using PostgreSQL.
type HoldingStore struct {
	pool *Pool
}

// NewHoldingStore creates a new HoldingStore.
func NewHoldingStore(pool *Pool) *HoldingStore {
	return &HoldingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HoldingStore = (*HoldingStore)(nil)

const upsertHoldingQuery = `
	INSERT INTO holdings (account_id, asset_id, quantity, updated_at_ms)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (account_id, asset_id)
	DO UPDATE SET quantity = holdings.quantity + EXCLUDED.quantity,
	              updated_at_ms = EXCLUDED.updated_at_ms
`

// Get retrieves a holding. Returns ErrNotFound if absent.
func (s *HoldingStore) Get(ctx context.Context, accountID, assetID string) (*domain.Holding, error) {
	query := `
		SELECT account_id, asset_id, quantity, updated_at_ms
		FROM holdings
		WHERE account_id = $1 AND asset_id = $2
	`

	var h domain.Holding
	err := s.pool.QueryRow(ctx, query, accountID, assetID).Scan(
		&h.AccountID, &h.AssetID, &h.Quantity, &h.UpdatedAtMs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get holding: %w", err)
	}
	return &h, nil
}

// GetByAccountID retrieves all holdings of an account, ordered by asset_id ASC.
func (s *HoldingStore) GetByAccountID(ctx context.Context, accountID string) ([]*domain.Holding, error) {
	query := `
		SELECT account_id, asset_id, quantity, updated_at_ms
		FROM holdings
		WHERE account_id = $1
		ORDER BY asset_id
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get holdings: %w", err)
	}
	defer rows.Close()

	var result []*domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.AccountID, &h.AssetID, &h.Quantity, &h.UpdatedAtMs); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		result = append(result, &h)
	}
	return result, rows.Err()
}

// Upsert atomically increments a holding's quantity, creating it if absent.
func (s *HoldingStore) Upsert(ctx context.Context, accountID, assetID string, deltaQuantity, nowMs int64) error {
	if accountID == "" || assetID == "" {
		return storage.ErrInvalidInput
	}

	if _, err := s.pool.Exec(ctx, upsertHoldingQuery, accountID, assetID, deltaQuantity, nowMs); err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	return nil
}
