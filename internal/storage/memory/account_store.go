package memory

import (
	"context"
	"sort"
	"sync"

	"vesting-engine/internal/accrual"
	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VestingAccount // keyed by account_id
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]*domain.VestingAccount),
	}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Insert adds a new account. Returns ErrDuplicateKey if account_id exists and
// accrual.ErrConfigInvalid if the rate or cap cannot drive the accrual clock.
func (s *AccountStore) Insert(_ context.Context, a *domain.VestingAccount) error {
	if a == nil || a.AccountID == "" {
		return storage.ErrInvalidInput
	}
	if err := accrual.ValidateConfig(a.RatePerHour, a.CapLimit); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AccountID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.AccountID] = copyAccount(a)
	return nil
}

// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(_ context.Context, accountID string) (*domain.VestingAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[accountID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyAccount(a), nil
}

// ListIDs returns all account IDs, ordered ascending.
func (s *AccountStore) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveCheckpoint persists the account's accrual checkpoint.
func (s *AccountStore) SaveCheckpoint(_ context.Context, accountID string, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.data[accountID]
	if !exists {
		return storage.ErrNotFound
	}

	a.Checkpoint = cp
	return nil
}

// saveCheckpointLocked is the lock-free variant used by SettlementApplier,
// which already holds the store mutex.
func (s *AccountStore) saveCheckpointLocked(accountID string, cp domain.Checkpoint) error {
	a, exists := s.data[accountID]
	if !exists {
		return storage.ErrNotFound
	}
	a.Checkpoint = cp
	return nil
}

func copyAccount(a *domain.VestingAccount) *domain.VestingAccount {
	cp := *a
	cp.Splits = append([]domain.VestingSplit(nil), a.Splits...)
	return &cp
}
