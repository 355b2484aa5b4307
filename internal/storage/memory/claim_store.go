package memory

import (
	"context"
	"sort"
	"sync"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// ClaimStore is an in-memory implementation of the append-only claim ledger.
type ClaimStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VestingClaim // keyed by claim_id
}

// NewClaimStore creates a new in-memory claim store.
func NewClaimStore() *ClaimStore {
	return &ClaimStore{
		data: make(map[string]*domain.VestingClaim),
	}
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)

// Append adds one audit row. Returns ErrDuplicateKey if claim_id exists.
func (s *ClaimStore) Append(_ context.Context, c *domain.VestingClaim) error {
	if c == nil || c.ClaimID == "" || c.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(c)
}

// appendLocked is the lock-free variant used by SettlementApplier.
func (s *ClaimStore) appendLocked(c *domain.VestingClaim) error {
	if _, exists := s.data[c.ClaimID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *c
	s.data[c.ClaimID] = &cp
	return nil
}

// GetByAccountID retrieves all claim rows for an account, ordered by
// claimed_at ASC then target_asset_id ASC.
func (s *ClaimStore) GetByAccountID(_ context.Context, accountID string) ([]*domain.VestingClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.VestingClaim
	for _, c := range s.data {
		if c.AccountID == accountID {
			cp := *c
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ClaimedAtMs != result[j].ClaimedAtMs {
			return result[i].ClaimedAtMs < result[j].ClaimedAtMs
		}
		return result[i].TargetAssetID < result[j].TargetAssetID
	})

	return result, nil
}
