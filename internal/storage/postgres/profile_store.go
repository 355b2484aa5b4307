package postgres

import (
	"context"
	"fmt"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// BotProfileStore implements storage.BotProfileStore using PostgreSQL.
type BotProfileStore struct {
	pool *Pool
}

// NewBotProfileStore creates a new BotProfileStore.
func NewBotProfileStore(pool *Pool) *BotProfileStore {
	return &BotProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BotProfileStore = (*BotProfileStore)(nil)

const selectProfileColumns = `
	profile_id, account_id, active,
	claim_threshold, max_targets_per_claim, min_cooldown_ms, max_cooldown_ms,
	active_hour_start, active_hour_end, max_daily_actions, max_daily_volume,
	trade_asset_id, trade_side, trade_min_qty, trade_max_qty
`

// Insert adds a new profile with zeroed runtime state.
func (s *BotProfileStore) Insert(ctx context.Context, p *domain.BotProfile) error {
	if p == nil || p.ProfileID == "" || p.AccountID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bot_profiles (` + selectProfileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(ctx, query,
		p.ProfileID, p.AccountID, p.Active,
		p.ClaimThreshold, p.MaxTargetsPerClaim, p.MinCooldownMs, p.MaxCooldownMs,
		p.ActiveHourStart, p.ActiveHourEnd, p.MaxDailyActions, p.MaxDailyVolume,
		p.TradeAssetID, string(p.TradeSide), p.TradeMinQty, p.TradeMaxQty,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bot_runtimes (profile_id, actions_today, volume_today, last_reset_date, next_eligible_at_ms, updated_at_ms)
		VALUES ($1, 0, 0, '', 0, 0)
	`, p.ProfileID)
	if err != nil {
		return fmt.Errorf("insert runtime: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a profile. Returns ErrNotFound if not exists.
func (s *BotProfileStore) GetByID(ctx context.Context, profileID string) (*domain.BotProfile, error) {
	query := `SELECT ` + selectProfileColumns + ` FROM bot_profiles WHERE profile_id = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, profileID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListActive retrieves all active profiles, ordered by profile_id ASC.
func (s *BotProfileStore) ListActive(ctx context.Context) ([]*domain.BotProfile, error) {
	query := `SELECT ` + selectProfileColumns + ` FROM bot_profiles WHERE active ORDER BY profile_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	defer rows.Close()

	var result []*domain.BotProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SetActive activates or deactivates a profile.
func (s *BotProfileStore) SetActive(ctx context.Context, profileID string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE bot_profiles SET active = $2 WHERE profile_id = $1`, profileID, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetRuntime retrieves a profile's runtime counters.
func (s *BotProfileStore) GetRuntime(ctx context.Context, profileID string) (*domain.BotRuntime, error) {
	query := `
		SELECT profile_id, actions_today, volume_today, last_reset_date, next_eligible_at_ms, updated_at_ms
		FROM bot_runtimes
		WHERE profile_id = $1
	`

	var rt domain.BotRuntime
	err := s.pool.QueryRow(ctx, query, profileID).Scan(
		&rt.ProfileID, &rt.ActionsToday, &rt.VolumeToday, &rt.LastResetDate, &rt.NextEligibleAtMs, &rt.UpdatedAtMs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get runtime: %w", err)
	}
	return &rt, nil
}

// SaveRuntime persists a profile's runtime counters.
func (s *BotProfileStore) SaveRuntime(ctx context.Context, rt *domain.BotRuntime) error {
	if rt == nil || rt.ProfileID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE bot_runtimes
		SET actions_today = $2, volume_today = $3, last_reset_date = $4,
		    next_eligible_at_ms = $5, updated_at_ms = $6
		WHERE profile_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		rt.ProfileID, rt.ActionsToday, rt.VolumeToday, rt.LastResetDate, rt.NextEligibleAtMs, rt.UpdatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("save runtime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.BotProfile, error) {
	var (
		p    domain.BotProfile
		side string
	)
	err := row.Scan(
		&p.ProfileID, &p.AccountID, &p.Active,
		&p.ClaimThreshold, &p.MaxTargetsPerClaim, &p.MinCooldownMs, &p.MaxCooldownMs,
		&p.ActiveHourStart, &p.ActiveHourEnd, &p.MaxDailyActions, &p.MaxDailyVolume,
		&p.TradeAssetID, &side, &p.TradeMinQty, &p.TradeMaxQty,
	)
	if err != nil {
		return nil, err
	}
	p.TradeSide = domain.OrderSide(side)
	return &p, nil
}
