package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"vesting-engine/internal/accrual"
	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Insert adds a new account. Returns ErrDuplicateKey if account_id exists and
// accrual.ErrConfigInvalid if the rate or cap cannot drive the accrual clock.
func (s *AccountStore) Insert(ctx context.Context, a *domain.VestingAccount) error {
	if a == nil || a.AccountID == "" {
		return storage.ErrInvalidInput
	}
	if err := accrual.ValidateConfig(a.RatePerHour, a.CapLimit); err != nil {
		return err
	}

	splits, err := json.Marshal(a.Splits)
	if err != nil {
		return fmt.Errorf("marshal splits: %w", err)
	}

	query := `
		INSERT INTO vesting_accounts (
			account_id, accumulated_units, residual_ms, last_accrued_at_ms,
			rate_per_hour, cap_limit, splits, default_asset_id, created_at_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		a.AccountID,
		a.Checkpoint.AccumulatedUnits, a.Checkpoint.ResidualMs, a.Checkpoint.LastAccruedAtMs,
		a.RatePerHour, a.CapLimit, splits, a.DefaultAssetID, a.CreatedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(ctx context.Context, accountID string) (*domain.VestingAccount, error) {
	query := `
		SELECT account_id, accumulated_units, residual_ms, last_accrued_at_ms,
		       rate_per_hour, cap_limit, splits, default_asset_id, created_at_ms
		FROM vesting_accounts
		WHERE account_id = $1
	`

	var (
		a      domain.VestingAccount
		splits []byte
	)
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID,
		&a.Checkpoint.AccumulatedUnits, &a.Checkpoint.ResidualMs, &a.Checkpoint.LastAccruedAtMs,
		&a.RatePerHour, &a.CapLimit, &splits, &a.DefaultAssetID, &a.CreatedAtMs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if len(splits) > 0 {
		if err := json.Unmarshal(splits, &a.Splits); err != nil {
			return nil, fmt.Errorf("unmarshal splits: %w", err)
		}
	}
	return &a, nil
}

// ListIDs returns all account IDs, ordered ascending.
func (s *AccountStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT account_id FROM vesting_accounts ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveCheckpoint persists the account's accrual checkpoint.
func (s *AccountStore) SaveCheckpoint(ctx context.Context, accountID string, cp domain.Checkpoint) error {
	query := `
		UPDATE vesting_accounts
		SET accumulated_units = $2, residual_ms = $3, last_accrued_at_ms = $4
		WHERE account_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, accountID, cp.AccumulatedUnits, cp.ResidualMs, cp.LastAccruedAtMs)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
